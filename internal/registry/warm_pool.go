/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package registry

import (
	"sync"
	"time"

	v1 "github.com/hortator-ai/cortex/api/v1"
	"go.uber.org/zap"
)

// warmPoolCooldown matches the teacher's fixed replenish cadence
// (internal/controller/warm_pool.go), preventing a replenish storm when many
// agents claim warm slots in quick succession.
const warmPoolCooldown = 30 * time.Second

// WarmPoolConfig controls a pre-registered pool of idle agents at a given
// tier, ready to claim without paying agent-startup latency. Supplemental to
// spec.md, grounded on the teacher's warm_pool.go (there: pre-warmed pods
// claimed via a label patch + exec injection; here: pre-registered
// AgentMetadata claimed via a status flip).
type WarmPoolConfig struct {
	Enabled bool
	Size    int
	Tier    v1.AgentTier
}

// WarmPool maintains Size idle agents at Tier inside a Registry, spawning
// replacements via spawn whenever claims drop the pool below Size.
type WarmPool struct {
	mu       sync.Mutex
	reg      *Registry
	cfg      WarmPoolConfig
	spawn    func(tier v1.AgentTier) (v1.AgentMetadata, error)
	idle     map[v1.AgentID]struct{}
	lastFill time.Time
	log      *zap.Logger
}

// NewWarmPool constructs a pool that calls spawn to mint new idle agents.
func NewWarmPool(reg *Registry, cfg WarmPoolConfig, spawn func(v1.AgentTier) (v1.AgentMetadata, error), log *zap.Logger) *WarmPool {
	return &WarmPool{reg: reg, cfg: cfg, spawn: spawn, idle: make(map[v1.AgentID]struct{}), log: log}
}

// Replenish tops the pool up to cfg.Size, rate-limited by warmPoolCooldown.
func (p *WarmPool) Replenish() error {
	if !p.cfg.Enabled {
		return nil
	}
	p.mu.Lock()
	if time.Since(p.lastFill) < warmPoolCooldown {
		p.mu.Unlock()
		return nil
	}
	deficit := p.cfg.Size - len(p.idle)
	p.lastFill = time.Now()
	p.mu.Unlock()

	for i := 0; i < deficit; i++ {
		m, err := p.spawn(p.cfg.Tier)
		if err != nil {
			return err
		}
		id, err := p.reg.Register(m)
		if err != nil {
			return err
		}
		p.mu.Lock()
		p.idle[id] = struct{}{}
		p.mu.Unlock()
		if p.log != nil {
			p.log.Debug("warm pool agent registered", zap.String("id", string(id)))
		}
	}
	return nil
}

// Claim removes and returns one idle agent's ID, or ok=false if the pool is
// empty.
func (p *WarmPool) Claim() (v1.AgentID, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id := range p.idle {
		delete(p.idle, id)
		return id, true
	}
	return "", false
}

// Size reports the current idle count.
func (p *WarmPool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle)
}

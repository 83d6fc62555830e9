/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

// Package registry implements the Agent Registry & Hierarchy (C4): the
// authoritative record of agent metadata, tier membership, health, and
// escalation paths — grounded on the teacher's AgentTask status/phase
// bookkeeping (api/v1alpha1/agenttask_types.go) generalized from a single
// CRD's status subresource into a standalone in-memory registry that is the
// sole owner and mutator of AgentMetadata (spec §3 ownership rule).
package registry

import (
	"sort"
	"sync"
	"time"

	v1 "github.com/hortator-ai/cortex/api/v1"
	"github.com/hortator-ai/cortex/internal/cortexerr"
	"go.uber.org/zap"
)

// Registry owns every AgentMetadata record.
type Registry struct {
	mu      sync.RWMutex
	agents  map[v1.AgentID]*v1.AgentMetadata
	byTier  map[v1.AgentTier]map[v1.AgentID]struct{}
	log     *zap.Logger
}

// New constructs an empty Registry.
func New(log *zap.Logger) *Registry {
	return &Registry{
		agents: make(map[v1.AgentID]*v1.AgentMetadata),
		byTier: make(map[v1.AgentTier]map[v1.AgentID]struct{}),
		log:    log,
	}
}

// Register admits a new agent, assigning it an ID if metadata.ID is empty.
func (r *Registry) Register(metadata v1.AgentMetadata) (v1.AgentID, error) {
	if metadata.Tier == "" || metadata.Tier.Rank() == 0 {
		return "", cortexerr.New(cortexerr.Validation, "registry.Register", "invalid_tier", nil)
	}
	if metadata.ID == "" {
		metadata.ID = v1.NewAgentID()
	}
	metadata.RegisteredAt = time.Now().UTC()
	metadata.LastHeartbeat = metadata.RegisteredAt
	if metadata.Status == "" {
		metadata.Status = v1.AgentInitializing
	}
	if metadata.Health == "" {
		metadata.Health = v1.Healthy
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.agents[metadata.ID]; exists {
		return "", cortexerr.New(cortexerr.Validation, "registry.Register", "duplicate_id", nil)
	}
	m := metadata
	r.agents[m.ID] = &m
	if r.byTier[m.Tier] == nil {
		r.byTier[m.Tier] = make(map[v1.AgentID]struct{})
	}
	r.byTier[m.Tier][m.ID] = struct{}{}

	if r.log != nil {
		r.log.Info("agent registered", zap.String("id", string(m.ID)), zap.String("tier", string(m.Tier)))
	}
	return m.ID, nil
}

// Lookup returns a copy of an agent's metadata.
func (r *Registry) Lookup(id v1.AgentID) (v1.AgentMetadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.agents[id]
	if !ok {
		return v1.AgentMetadata{}, cortexerr.New(cortexerr.Validation, "registry.Lookup", "not_found", nil)
	}
	return *m, nil
}

// GrowCapabilities appends new capabilities to id's set (capabilities may
// only grow for a given incarnation, per spec §3).
func (r *Registry) GrowCapabilities(id v1.AgentID, add []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.agents[id]
	if !ok {
		return cortexerr.New(cortexerr.Validation, "registry.GrowCapabilities", "not_found", nil)
	}
	existing := make(map[string]struct{}, len(m.Capabilities))
	for _, c := range m.Capabilities {
		existing[c] = struct{}{}
	}
	for _, c := range add {
		if _, ok := existing[c]; !ok {
			m.Capabilities = append(m.Capabilities, c)
			existing[c] = struct{}{}
		}
	}
	return nil
}

// FindByCapability returns agents in (optionally) tierHint carrying cap,
// ordered by ascending ActiveTaskCount then lexical ID for determinism.
func (r *Registry) FindByCapability(cap string, tierHint v1.AgentTier) []v1.AgentID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var candidates []*v1.AgentMetadata
	if tierHint != "" {
		for id := range r.byTier[tierHint] {
			if m := r.agents[id]; m != nil && m.HasCapability(cap) {
				candidates = append(candidates, m)
			}
		}
	} else {
		for _, m := range r.agents {
			if m.HasCapability(cap) {
				candidates = append(candidates, m)
			}
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].ActiveTaskCount != candidates[j].ActiveTaskCount {
			return candidates[i].ActiveTaskCount < candidates[j].ActiveTaskCount
		}
		return candidates[i].ID < candidates[j].ID
	})

	out := make([]v1.AgentID, len(candidates))
	for i, m := range candidates {
		out[i] = m.ID
	}
	return out
}

// Heartbeat records liveness from id, used by HealthCheck's staleness signal.
func (r *Registry) Heartbeat(id v1.AgentID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.agents[id]
	if !ok {
		return cortexerr.New(cortexerr.Validation, "registry.Heartbeat", "not_found", nil)
	}
	m.LastHeartbeat = time.Now().UTC()
	return nil
}

// HealthCheck reports id's current HealthState based on heartbeat staleness.
// missedLimit is the number of missed checkInterval windows tolerated before
// degrading, then failing at 2x that.
func (r *Registry) HealthCheck(id v1.AgentID, checkInterval time.Duration, missedLimit int) (v1.HealthState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.agents[id]
	if !ok {
		return "", cortexerr.New(cortexerr.Validation, "registry.HealthCheck", "not_found", nil)
	}
	stale := time.Since(m.LastHeartbeat)
	degradedAt := checkInterval * time.Duration(missedLimit)
	failedAt := degradedAt * 2
	switch {
	case stale >= failedAt:
		m.Health = v1.Failed
	case stale >= degradedAt:
		m.Health = v1.Degraded
	default:
		m.Health = v1.Healthy
	}
	return m.Health, nil
}

// Escalate returns the AgentId of id's parent tier's least-loaded member, or
// "" if id is already at CECCA or has no parent-tier agent registered.
func (r *Registry) Escalate(id v1.AgentID) (v1.AgentID, error) {
	r.mu.RLock()
	m, ok := r.agents[id]
	if !ok {
		r.mu.RUnlock()
		return "", cortexerr.New(cortexerr.Validation, "registry.Escalate", "not_found", nil)
	}
	parentTier := m.Tier.Parent()
	r.mu.RUnlock()
	if parentTier == "" {
		return "", nil
	}
	return r.leastLoadedInTier(parentTier)
}

func (r *Registry) leastLoadedInTier(tier v1.AgentTier) (v1.AgentID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var best *v1.AgentMetadata
	for id := range r.byTier[tier] {
		m := r.agents[id]
		if m == nil {
			continue
		}
		if best == nil || m.ActiveTaskCount < best.ActiveTaskCount ||
			(m.ActiveTaskCount == best.ActiveTaskCount && m.ID < best.ID) {
			best = m
		}
	}
	if best == nil {
		return "", nil
	}
	return best.ID, nil
}

// Shutdown transitions id to ShuttingDown. The scheduler is responsible for
// observing this state and ceasing new dispatch to id; in-flight tasks are
// allowed to complete until their own timeout.
func (r *Registry) Shutdown(id v1.AgentID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.agents[id]
	if !ok {
		return cortexerr.New(cortexerr.Validation, "registry.Shutdown", "not_found", nil)
	}
	m.Status = v1.AgentShuttingDown
	return nil
}

// Terminate removes id from the registry entirely, called once its
// in-flight work has drained.
func (r *Registry) Terminate(id v1.AgentID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.agents[id]
	if !ok {
		return cortexerr.New(cortexerr.Validation, "registry.Terminate", "not_found", nil)
	}
	m.Status = v1.AgentTerminated
	delete(r.byTier[m.Tier], id)
	delete(r.agents, id)
	return nil
}

// MembersOf implements fabric.TierResolver.
func (r *Registry) MembersOf(tier v1.AgentTier) []v1.AgentID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]v1.AgentID, 0, len(r.byTier[tier]))
	for id := range r.byTier[tier] {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IncrementActiveTasks adjusts id's active task count by delta, clamped at 0.
func (r *Registry) IncrementActiveTasks(id v1.AgentID, delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.agents[id]
	if !ok {
		return
	}
	m.ActiveTaskCount += delta
	if m.ActiveTaskCount < 0 {
		m.ActiveTaskCount = 0
	}
}

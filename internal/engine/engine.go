/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package engine

import (
	"path/filepath"

	v1 "github.com/hortator-ai/cortex/api/v1"
	"github.com/hortator-ai/cortex/internal/config"
	"github.com/hortator-ai/cortex/internal/deliverable"
	"github.com/hortator-ai/cortex/internal/fabric"
	"github.com/hortator-ai/cortex/internal/ledger"
	"github.com/hortator-ai/cortex/internal/registry"
	"github.com/hortator-ai/cortex/internal/scheduler"
	"github.com/hortator-ai/cortex/internal/token"
	"github.com/hortator-ai/cortex/internal/workflow"
	"go.uber.org/zap"
)

// Engine bundles every cluster-wide service a CLI invocation needs,
// rebuilding the agent registry from its on-disk snapshot each time it
// starts, while the ledger itself is the one durably append-only
// store (spec §4.1).
type Engine struct {
	DataDir   string
	Ledger    *ledger.Ledger
	Tokens    *token.Service
	Registry  *registry.Registry
	Fabric    *fabric.InProcess
	Cache     *scheduler.ResultCache
	Locator   *deliverable.Locator
	Planner   *deliverable.Planner
	Processor *workflow.Processor
	Gate      config.GateConfig
	Log       *zap.Logger
}

// Open loads or creates the durable ledger at dataDir, rebuilds an
// in-memory registry from the agent snapshot (registering each agent with
// the fabric), and wires the token service, result cache, deliverable
// planner and workflow processor around them.
func Open(dataDir string, log *zap.Logger) (*Engine, error) {
	backend, err := ledger.NewFileBackend(filepath.Join(dataDir, LedgerFile))
	if err != nil {
		return nil, err
	}
	led, err := ledger.New(backend, log)
	if err != nil {
		return nil, err
	}
	tokens, err := token.NewService()
	if err != nil {
		return nil, err
	}

	reg := registry.New(log)
	agents, err := LoadAgents(filepath.Join(dataDir, AgentsFile))
	if err != nil {
		return nil, err
	}
	for _, a := range agents {
		if _, err := reg.Register(a); err != nil {
			return nil, err
		}
	}

	f := fabric.NewInProcess(reg, log)
	for _, a := range agents {
		f.RegisterAgent(a.ID, 16)
	}
	cache := scheduler.NewResultCache(scheduler.ResultCacheConfig(config.Default().ResultCache))
	loc := deliverable.NewLocator(dataDir)
	planner := deliverable.NewPlanner(loc, false)
	gate := config.DefaultGateConfig()
	proc := workflow.NewProcessor(led, tokens, reg, f, cache, planner, gate, log)

	return &Engine{
		DataDir:   dataDir,
		Ledger:    led,
		Tokens:    tokens,
		Registry:  reg,
		Fabric:    f,
		Cache:     cache,
		Locator:   loc,
		Planner:   planner,
		Processor: proc,
		Gate:      gate,
		Log:       log,
	}, nil
}

// SaveAgents persists the registry's current membership for the next CLI
// invocation to rediscover.
func (e *Engine) SaveAgents() error {
	var agents []v1.AgentMetadata
	for _, tier := range []v1.AgentTier{v1.TierCECCA, v1.TierBoard, v1.TierExecutive, v1.TierStackChief, v1.TierSpecialist, v1.TierMicro} {
		for _, id := range e.Registry.MembersOf(tier) {
			if a, err := e.Registry.Lookup(id); err == nil {
				agents = append(agents, a)
			}
		}
	}
	return SaveAgents(filepath.Join(e.DataDir, AgentsFile), agents)
}

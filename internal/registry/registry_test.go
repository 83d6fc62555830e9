/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package registry

import (
	"testing"
	"time"

	v1 "github.com/hortator-ai/cortex/api/v1"
)

func TestRegisterAndLookup(t *testing.T) {
	r := New(nil)
	id, err := r.Register(v1.AgentMetadata{Tier: v1.TierMicro, Capabilities: []string{"shell"}})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	m, err := r.Lookup(id)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if m.Tier != v1.TierMicro {
		t.Errorf("expected TierMicro, got %v", m.Tier)
	}
	if m.Status != v1.AgentInitializing {
		t.Errorf("expected default status Initializing, got %v", m.Status)
	}
}

func TestRegisterRejectsInvalidTier(t *testing.T) {
	r := New(nil)
	if _, err := r.Register(v1.AgentMetadata{}); err == nil {
		t.Error("expected error for missing tier")
	}
}

func TestGrowCapabilitiesNeverShrinks(t *testing.T) {
	r := New(nil)
	id, _ := r.Register(v1.AgentMetadata{Tier: v1.TierMicro, Capabilities: []string{"shell"}})
	if err := r.GrowCapabilities(id, []string{"http", "shell"}); err != nil {
		t.Fatalf("GrowCapabilities: %v", err)
	}
	m, _ := r.Lookup(id)
	if len(m.Capabilities) != 2 {
		t.Errorf("expected 2 capabilities after growth, got %d: %v", len(m.Capabilities), m.Capabilities)
	}
}

func TestFindByCapabilityOrdersByLoadThenID(t *testing.T) {
	r := New(nil)
	idA, _ := r.Register(v1.AgentMetadata{ID: "agent-b", Tier: v1.TierSpecialist, Capabilities: []string{"shell"}})
	idB, _ := r.Register(v1.AgentMetadata{ID: "agent-a", Tier: v1.TierSpecialist, Capabilities: []string{"shell"}})
	r.IncrementActiveTasks(idA, 2)

	found := r.FindByCapability("shell", v1.TierSpecialist)
	if len(found) != 2 {
		t.Fatalf("expected 2 agents, got %d", len(found))
	}
	if found[0] != idB {
		t.Errorf("expected least-loaded agent first, got %v", found[0])
	}
}

func TestEscalateReturnsParentTierMember(t *testing.T) {
	r := New(nil)
	childID, _ := r.Register(v1.AgentMetadata{Tier: v1.TierMicro})
	parentID, _ := r.Register(v1.AgentMetadata{Tier: v1.TierSpecialist})

	escalated, err := r.Escalate(childID)
	if err != nil {
		t.Fatalf("Escalate: %v", err)
	}
	if escalated != parentID {
		t.Errorf("expected parent agent %v, got %v", parentID, escalated)
	}
}

func TestEscalateAtTopReturnsEmpty(t *testing.T) {
	r := New(nil)
	id, _ := r.Register(v1.AgentMetadata{Tier: v1.TierCECCA})
	escalated, err := r.Escalate(id)
	if err != nil {
		t.Fatalf("Escalate: %v", err)
	}
	if escalated != "" {
		t.Errorf("expected no parent above CECCA, got %v", escalated)
	}
}

func TestHealthCheckDegradesThenFails(t *testing.T) {
	r := New(nil)
	id, _ := r.Register(v1.AgentMetadata{Tier: v1.TierMicro})

	state, err := r.HealthCheck(id, time.Second, 3)
	if err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
	if state != v1.Healthy {
		t.Errorf("expected Healthy immediately after registration, got %v", state)
	}

	r.mu.Lock()
	r.agents[id].LastHeartbeat = time.Now().Add(-5 * time.Second)
	r.mu.Unlock()
	state, _ = r.HealthCheck(id, time.Second, 3)
	if state != v1.Degraded {
		t.Errorf("expected Degraded after missed heartbeats, got %v", state)
	}

	r.mu.Lock()
	r.agents[id].LastHeartbeat = time.Now().Add(-10 * time.Second)
	r.mu.Unlock()
	state, _ = r.HealthCheck(id, time.Second, 3)
	if state != v1.Failed {
		t.Errorf("expected Failed after extended missed heartbeats, got %v", state)
	}
}

func TestEvaluateStuckAggregatesWeightedPenalties(t *testing.T) {
	cfg := StuckDetectionConfig{ToolDiversityMin: 0.5, MaxRepeatedInputs: 2, StatusStaleMinutes: 5}
	sample := BehaviorSample{
		ToolCalls:    []string{"shell", "shell", "shell"},
		InputHashes:  []string{"h1", "h1", "h1", "h1"},
		StaleMinutes: 20,
	}
	score := EvaluateStuck(sample, cfg)
	if !score.IsStuck {
		t.Errorf("expected stuck score, got aggregate=%.2f", score.Aggregate)
	}
	if score.Reason == "" {
		t.Error("expected a non-empty reason for a stuck score")
	}
}

func TestEvaluateStuckHealthyWhenDiverse(t *testing.T) {
	cfg := StuckDetectionConfig{ToolDiversityMin: 0.3, MaxRepeatedInputs: 5, StatusStaleMinutes: 30}
	sample := BehaviorSample{
		ToolCalls:   []string{"shell", "http", "grep", "shell"},
		InputHashes: []string{"h1", "h2", "h3"},
	}
	score := EvaluateStuck(sample, cfg)
	if score.IsStuck {
		t.Errorf("expected healthy score, got stuck (aggregate=%.2f)", score.Aggregate)
	}
}

func TestWarmPoolClaimAndReplenish(t *testing.T) {
	r := New(nil)
	spawnCount := 0
	spawn := func(tier v1.AgentTier) (v1.AgentMetadata, error) {
		spawnCount++
		return v1.AgentMetadata{Tier: tier}, nil
	}
	pool := NewWarmPool(r, WarmPoolConfig{Enabled: true, Size: 2, Tier: v1.TierMicro}, spawn, nil)

	if err := pool.Replenish(); err != nil {
		t.Fatalf("Replenish: %v", err)
	}
	if pool.Size() != 2 {
		t.Errorf("expected pool size 2, got %d", pool.Size())
	}

	id, ok := pool.Claim()
	if !ok {
		t.Fatal("expected a claimable agent")
	}
	if _, err := r.Lookup(id); err != nil {
		t.Errorf("expected claimed agent to be registered: %v", err)
	}
	if pool.Size() != 1 {
		t.Errorf("expected pool size 1 after claim, got %d", pool.Size())
	}
}

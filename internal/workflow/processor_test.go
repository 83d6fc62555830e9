/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package workflow

import (
	"context"
	"testing"

	v1 "github.com/hortator-ai/cortex/api/v1"
	"github.com/hortator-ai/cortex/internal/config"
	"github.com/hortator-ai/cortex/internal/fabric"
	"github.com/hortator-ai/cortex/internal/ledger"
	"github.com/hortator-ai/cortex/internal/registry"
	"github.com/hortator-ai/cortex/internal/scheduler"
	"github.com/hortator-ai/cortex/internal/token"
)

type stubPlanner struct{}

func (stubPlanner) Plan(spec v1.DeliverableSpec) (v1.Deliverable, error) {
	return v1.Deliverable{
		Name:            spec.Name,
		Kind:            spec.Kind,
		Category:        v1.CategoryWorkflow,
		PlannedLocation: "core/src/workflow/" + spec.Name,
	}, nil
}

func (stubPlanner) Validate(d v1.Deliverable) (bool, []string, []string) {
	return true, nil, nil
}

func newTestProcessor(t *testing.T) *Processor {
	t.Helper()
	led, err := ledger.New(ledger.NewMemBackend(), nil)
	if err != nil {
		t.Fatalf("ledger.New: %v", err)
	}
	tokSvc, err := token.NewService()
	if err != nil {
		t.Fatalf("token.NewService: %v", err)
	}
	reg := registry.New(nil)
	if _, err := reg.Register(v1.AgentMetadata{ID: "agent-1", Tier: v1.TierMicro, Capabilities: []string{"compute"}}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	f := fabric.NewInProcess(nil, nil)
	f.RegisterAgent("agent-1", 8)
	cache := scheduler.NewResultCache(scheduler.ResultCacheConfig{Enabled: true})

	return NewProcessor(led, tokSvc, reg, f, cache, stubPlanner{}, config.DefaultGateConfig(), nil)
}

func completeSOP() string {
	return `Title:
compute-sum procedure

Purpose:
add two numbers

Scope:
arithmetic only

Roles:
- operator

Materials:
- calculator

Architecture:
single step pipeline

Procedures:
ID: P1
1. emit 2
2. emit 3
3. sum

Quality Checks:
- output is an integer

Glossary:
- sum: the arithmetic total
`
}

func TestProcessorRunHappyPath(t *testing.T) {
	p := newTestProcessor(t)
	executed := 0
	in := Input{
		Request: v1.ChatRequest{ID: "r1", Message: "compute-sum", Priority: v1.PriorityNormal},
		SOPRaw:  completeSOP(),
		Deconstruct: v1.Deconstruct{
			Inputs:             []string{"2", "3"},
			OutputRequirements: []string{"integer sum"},
			Constraints:        []string{"no floating point"},
			AcceptanceCriteria: []string{"result == 5"},
		},
		Diagnose: v1.Diagnose{Risks: []string{"overflow"}, Gaps: []string{"none"}},
		Develop:  v1.Develop{Plan: []string{"sum"}, AgentsNeeded: []string{"compute"}},
		Deliver:  v1.Deliver{Deliverables: []string{"r1.json"}, Locations: []string{"core/src/workflow/r1.json"}},
		Execute: func(ctx context.Context, task v1.Task) (v1.TaskResult, error) {
			executed++
			return v1.TaskResult{TaskID: task.ID, OutputData: []byte(`{"result":5}`)}, nil
		},
	}

	result, err := p.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.Subject.Scores.GatePassed {
		t.Errorf("expected gate to pass, scores=%+v", result.Subject.Scores)
	}
	if executed != 1 {
		t.Errorf("expected 1 task executed, got %d", executed)
	}
	if len(result.Deliverables) != 1 {
		t.Fatalf("expected 1 deliverable, got %d", len(result.Deliverables))
	}
	if result.MerkleAnchor == nil {
		t.Error("expected a merkle anchor")
	}
}

func TestProcessorGateFailureWithoutOverride(t *testing.T) {
	p := newTestProcessor(t)
	in := Input{
		Request: v1.ChatRequest{ID: "r2", Message: "compute-sum"},
		SOPRaw:  "Title:\nno quality checks here\n",
	}
	_, err := p.Run(context.Background(), in)
	if err == nil {
		t.Fatal("expected gate failure error")
	}
	pe, ok := err.(*PhaseError)
	if !ok {
		t.Fatalf("expected *PhaseError, got %T", err)
	}
	if pe.Code != "gate_failure" {
		t.Errorf("expected gate_failure code, got %s", pe.Code)
	}
}

func TestProcessorGateFailureWithOverrideProceeds(t *testing.T) {
	p := newTestProcessor(t)
	in := Input{
		Request: v1.ChatRequest{ID: "r3", Message: "compute-sum"},
		SOPRaw:      "Title:\nno quality checks here\n",
		OverrideGate: true,
		Develop:     v1.Develop{AgentsNeeded: []string{"compute"}},
	}
	result, err := p.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.GateOverridden {
		t.Error("expected GateOverridden to be true")
	}
}

func TestProcessorIngestionRejectsEmptyRequest(t *testing.T) {
	p := newTestProcessor(t)
	_, err := p.Run(context.Background(), Input{Request: v1.ChatRequest{}})
	if err == nil {
		t.Fatal("expected ingestion error for empty request")
	}
	pe, ok := err.(*PhaseError)
	if !ok || pe.Phase != "Ingestion" {
		t.Fatalf("expected Ingestion PhaseError, got %v", err)
	}
}

func TestProcessorResourceAllocationFailsWithoutCapableAgent(t *testing.T) {
	p := newTestProcessor(t)
	in := Input{
		Request: v1.ChatRequest{ID: "r4", Message: "do-thing"},
		SOPRaw:  completeSOP(),
		Deconstruct: v1.Deconstruct{
			Inputs: []string{"x"}, OutputRequirements: []string{"y"}, Constraints: []string{"z"}, AcceptanceCriteria: []string{"w"},
		},
		Diagnose: v1.Diagnose{Risks: []string{"r"}, Gaps: []string{"g"}},
		Develop:  v1.Develop{Plan: []string{"step"}, AgentsNeeded: []string{"nonexistent-capability"}},
		Deliver:  v1.Deliver{Deliverables: []string{"out"}, Locations: []string{"out"}},
	}
	_, err := p.Run(context.Background(), in)
	if err == nil {
		t.Fatal("expected resource allocation failure")
	}
	pe, ok := err.(*PhaseError)
	if !ok || pe.Phase != "Resource Allocation" {
		t.Fatalf("expected Resource Allocation PhaseError, got %v", err)
	}
}

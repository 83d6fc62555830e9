/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package sandbox

import (
	"context"
	"testing"
	"time"

	v1 "github.com/hortator-ai/cortex/api/v1"
	"github.com/hortator-ai/cortex/internal/ledger"
	"github.com/hortator-ai/cortex/internal/token"
)

func newTestTokenAndLedger(t *testing.T) (*token.Service, *ledger.Ledger) {
	t.Helper()
	tok, err := token.NewService()
	if err != nil {
		t.Fatalf("token.NewService: %v", err)
	}
	led, err := ledger.New(ledger.NewMemBackend(), nil)
	if err != nil {
		t.Fatalf("ledger.New: %v", err)
	}
	return tok, led
}

func alwaysReturn(payload string) Worker {
	return func(ctx context.Context, tok v1.CapabilityToken, input []byte) ([]byte, error) {
		return []byte(payload), nil
	}
}

func alwaysFail() Worker {
	return func(ctx context.Context, tok v1.CapabilityToken, input []byte) ([]byte, error) {
		return nil, context.Canceled
	}
}

func TestMergeUnanimous(t *testing.T) {
	outcomes := []Outcome{
		{Label: "A", Output: []byte("same")},
		{Label: "B", Output: []byte("same")},
		{Label: "C", Output: []byte("same")},
	}
	r := Merge(outcomes, nil)
	if r.Kind != MergeUnanimous {
		t.Errorf("expected MergeUnanimous, got %v", r.Kind)
	}
}

func TestMergeMajority(t *testing.T) {
	outcomes := []Outcome{
		{Label: "A", Output: []byte("same")},
		{Label: "B", Output: []byte("same")},
		{Label: "C", Output: []byte("different")},
	}
	r := Merge(outcomes, nil)
	if r.Kind != MergeMajority {
		t.Errorf("expected MergeMajority, got %v", r.Kind)
	}
	if len(r.Degraded) != 1 || r.Degraded[0] != "C" {
		t.Errorf("expected C marked degraded, got %v", r.Degraded)
	}
}

func TestMergeEvolutionaryOnThreeDistinct(t *testing.T) {
	outcomes := []Outcome{
		{Label: "A", Output: []byte("one")},
		{Label: "B", Output: []byte("two")},
		{Label: "C", Output: []byte("three")},
	}
	r := Merge(outcomes, nil)
	if r.Kind != MergeEvolutionary {
		t.Errorf("expected MergeEvolutionary, got %v", r.Kind)
	}
	if len(r.Scores) != 3 {
		t.Errorf("expected a score per candidate, got %d", len(r.Scores))
	}
}

func TestMergeSingletonWhenTwoFail(t *testing.T) {
	outcomes := []Outcome{
		{Label: "A", Output: []byte("survivor")},
		{Label: "B", Err: context.Canceled},
		{Label: "C", Err: context.Canceled},
	}
	r := Merge(outcomes, nil)
	if r.Kind != MergeSingleton {
		t.Errorf("expected MergeSingleton, got %v", r.Kind)
	}
	if string(r.Output) != "survivor" {
		t.Errorf("expected survivor output, got %q", r.Output)
	}
}

func TestMergeAllFailed(t *testing.T) {
	outcomes := []Outcome{
		{Label: "A", Err: context.Canceled},
		{Label: "B", Err: context.Canceled},
		{Label: "C", Err: context.Canceled},
	}
	r := Merge(outcomes, nil)
	if r.Kind != TriSandboxAllFailed {
		t.Errorf("expected TriSandboxAllFailed, got %v", r.Kind)
	}
}

func TestExecutorRunUnanimous(t *testing.T) {
	tok, led := newTestTokenAndLedger(t)
	exec := New(tok, led, DefaultConfig())

	result, merge, err := exec.Run(context.Background(), "task-1", []byte("input"), 2*time.Second,
		alwaysReturn("x"), alwaysReturn("x"), alwaysReturn("x"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if merge.Kind != MergeUnanimous {
		t.Errorf("expected MergeUnanimous, got %v", merge.Kind)
	}
	if string(result.OutputData) != "x" {
		t.Errorf("expected output 'x', got %q", result.OutputData)
	}
}

func TestExecutorRunAllFailedReturnsError(t *testing.T) {
	tok, led := newTestTokenAndLedger(t)
	exec := New(tok, led, DefaultConfig())

	_, merge, err := exec.Run(context.Background(), "task-1", []byte("input"), 2*time.Second,
		alwaysFail(), alwaysFail(), alwaysFail())
	if err == nil {
		t.Error("expected error when all sandboxes fail")
	}
	if merge.Kind != TriSandboxAllFailed {
		t.Errorf("expected TriSandboxAllFailed, got %v", merge.Kind)
	}
}

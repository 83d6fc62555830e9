/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package sandbox

import (
	"context"
	"sync"
	"time"

	v1 "github.com/hortator-ai/cortex/api/v1"
	"github.com/hortator-ai/cortex/internal/cortexerr"
	"github.com/hortator-ai/cortex/internal/ledger"
	"github.com/hortator-ai/cortex/internal/metrics"
	"github.com/hortator-ai/cortex/internal/token"
	"golang.org/x/sync/errgroup"
)

// Worker executes one sandbox's copy of a task, scoped to the capability
// token it is handed (spec §4.6 isolation contract: disjoint scopes, no
// shared writable state). Workers must not communicate with each other;
// the Executor never hands one worker's output to another before merge.
type Worker func(ctx context.Context, tok v1.CapabilityToken, input []byte) ([]byte, error)

// Config controls acceptance and override behavior.
type Config struct {
	AcceptanceThreshold float64 // default 0.9999 per spec §4.6
	OverrideThreshold   bool    // explicit caller override to accept a lower score
	Scorer              Scorer
}

// DefaultConfig matches spec §4.6's default acceptance threshold.
func DefaultConfig() Config {
	return Config{AcceptanceThreshold: 0.9999}
}

// Executor runs the tri-sandbox fan-out/fan-in protocol.
type Executor struct {
	tokens *token.Service
	ledger *ledger.Ledger
	cfg    Config
}

// New constructs an Executor that mints a fresh, task-scoped token per
// sandbox from tokens and records merge outcomes to led.
func New(tokens *token.Service, led *ledger.Ledger, cfg Config) *Executor {
	if cfg.AcceptanceThreshold == 0 {
		cfg.AcceptanceThreshold = 0.9999
	}
	return &Executor{tokens: tokens, ledger: led, cfg: cfg}
}

// lateArrival is a worker result that completed after the merge had already
// started (spec §4.6 step 2): discarded, except a late success following a
// failed merge, which is recorded as LateArrival and still ignored for the
// purposes of the TaskResult.
type lateArrival struct {
	label   string
	success bool
}

// Run submits task.Input to workers A, B, C concurrently, waits for all
// three or the deadline, and merges. taskID identifies the task for token
// scoping and ledger entries.
func (e *Executor) Run(ctx context.Context, taskID v1.TaskID, input []byte, deadline time.Duration, a, b, c Worker) (v1.TaskResult, MergeResult, error) {
	labels := []string{"A", "B", "C"}
	workers := []Worker{a, b, c}

	runCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	outcomes := make([]Outcome, 3)
	for i, label := range labels {
		outcomes[i] = Outcome{Label: label, Err: cortexerr.New(cortexerr.Timeout, "sandbox.Run", "deadline_exceeded", nil)}
	}
	var lateMu sync.Mutex
	var late []lateArrival
	mergeStarted := make(chan struct{})
	var mergeStartedOnce sync.Once
	closeMergeStarted := func() { mergeStartedOnce.Do(func() { close(mergeStarted) }) }

	g, gCtx := errgroup.WithContext(runCtx)
	for i := range workers {
		i := i
		g.Go(func() error {
			tok, err := e.tokens.Issue(string(taskID)+"/"+labels[i], []string{"sandbox-execute"}, time.Hour)
			if err != nil {
				outcomes[i] = Outcome{Label: labels[i], Err: err}
				return nil
			}
			out, err := workers[i](gCtx, tok, input)

			select {
			case <-mergeStarted:
				lateMu.Lock()
				late = append(late, lateArrival{label: labels[i], success: err == nil})
				lateMu.Unlock()
				return nil
			default:
			}
			outcomes[i] = Outcome{Label: labels[i], Output: out, Err: err}
			return nil
		})
	}

	waitDone := make(chan struct{})
	go func() {
		g.Wait()
		close(waitDone)
	}()

	select {
	case <-waitDone:
	case <-runCtx.Done():
	}
	closeMergeStarted()

	merge := Merge(outcomes, e.cfg.Scorer)

	if e.ledger != nil {
		notes := map[string]string{"merge_kind": string(merge.Kind)}
		for label, h := range merge.Hashes {
			notes[label+"_hash"] = h
		}
		if merge.Kind != TriSandboxAllFailed {
			notes["d_hash"] = ledger.HashBytes(merge.Output)
		}
		var hashes []string
		for _, h := range merge.Hashes {
			hashes = append(hashes, h)
		}
		e.ledger.Append("SandboxMerged", string(taskID), nil, hashes, notes)

		lateMu.Lock()
		for _, l := range late {
			if l.success && merge.Kind == TriSandboxAllFailed {
				e.ledger.Append("LateArrival", string(taskID), nil, nil, map[string]string{"label": l.label})
			}
		}
		lateMu.Unlock()
	}

	metrics.SandboxMergeTotal.WithLabelValues(string(merge.Kind)).Inc()

	if merge.Kind == TriSandboxAllFailed {
		return v1.TaskResult{}, merge, cortexerr.New(cortexerr.Fatal, "sandbox.Run", "tri_sandbox_all_failed", nil)
	}

	if !e.cfg.OverrideThreshold && !MeetsAcceptance(merge.Output, e.cfg.Scorer, e.cfg.AcceptanceThreshold) {
		return v1.TaskResult{}, merge, cortexerr.New(cortexerr.Validation, "sandbox.Run", "acceptance_below_threshold", nil)
	}

	result := v1.TaskResult{
		TaskID:      taskID,
		OutputData:  merge.Output,
		CompletedAt: time.Now().UTC(),
		Metadata: map[string]string{
			"merge_kind": string(merge.Kind),
		},
	}
	return result, merge, nil
}

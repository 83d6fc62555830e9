/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package scheduler

import (
	"sync"
	"time"

	v1 "github.com/hortator-ai/cortex/api/v1"
	"github.com/hortator-ai/cortex/internal/cortexerr"
	"github.com/hortator-ai/cortex/internal/fabric"
	"github.com/hortator-ai/cortex/internal/ledger"
	"github.com/hortator-ai/cortex/internal/token"
	"go.uber.org/zap"
)

// AgentSelector picks a capable agent for a task, normally backed by
// *registry.Registry.FindByCapability.
type AgentSelector interface {
	FindByCapability(cap string, tierHint v1.AgentTier) []v1.AgentID
}

// Scheduler converts a dependency graph into dispatched work, enforcing
// policy and cache checks before each dispatch (the BudgetTracker it holds
// is neither fed nor consulted by the dispatch pass), and driving the
// retry/backoff state machine on failure — grounded on the teacher's
// handlePending/handleRunning reconciliation handlers
// (internal/controller/agenttask_controller.go) generalized from a
// single-object-at-a-time reconcile loop into a graph-wide dispatch pass.
type Scheduler struct {
	mu          sync.Mutex
	graph       *Graph
	agents      AgentSelector
	msgFabric   fabric.Fabric
	ledger      *ledger.Ledger
	tokens      *token.Service
	cache       *ResultCache
	budget      *BudgetTracker
	policies    []Policy
	retryPolicy RetryPolicy
	pendingRetry map[v1.TaskID]*time.Timer
	log         *zap.Logger
}

// Option configures a Scheduler at construction.
type Option func(*Scheduler)

// WithPolicies sets the admission policies enforced before dispatch.
func WithPolicies(policies []Policy) Option {
	return func(s *Scheduler) { s.policies = policies }
}

// WithRetryPolicy overrides the default retry/backoff policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(s *Scheduler) { s.retryPolicy = p }
}

// New constructs a Scheduler over graph, dispatching via agents and
// msgFabric, recording to led, authorizing with tokens, and deduplicating
// through cache.
func New(graph *Graph, agents AgentSelector, msgFabric fabric.Fabric, led *ledger.Ledger, tokens *token.Service, cache *ResultCache, log *zap.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		graph:        graph,
		agents:       agents,
		msgFabric:    msgFabric,
		ledger:       led,
		tokens:       tokens,
		cache:        cache,
		budget:       NewBudgetTracker(),
		retryPolicy:  DefaultRetryPolicy(),
		pendingRetry: make(map[v1.TaskID]*time.Timer),
		log:          log,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// DispatchPass advances every Pending task whose dependencies are satisfied
// into Ready, then attempts to dispatch every Ready task to a capable
// agent. Returns the task IDs that were successfully dispatched.
func (s *Scheduler) DispatchPass() []v1.TaskID {
	s.graph.AdvanceReady()

	var dispatched []v1.TaskID
	for _, t := range s.graph.Ready() {
		if s.tryDispatch(t) {
			dispatched = append(dispatched, t.ID)
		}
	}
	return dispatched
}

func (s *Scheduler) tryDispatch(t v1.Task) bool {
	running := 0 // the caller's agent pool reports concurrency; a richer
	// implementation would query the registry for Running tasks in t.TierHint.
	if violation := EnforcePolicies(s.policies, t, running); violation != "" {
		if s.log != nil {
			s.log.Warn("task rejected by policy", zap.String("task_id", string(t.ID)), zap.String("reason", violation))
		}
		return false
	}

	if s.cache != nil {
		key := CacheKey(t.Type, t.Input)
		if cached := s.cache.Get(key); cached != nil {
			result := v1.TaskResult{TaskID: t.ID, OutputData: cached.Output, CompletedAt: time.Now().UTC()}
			_ = s.graph.Start(t.ID, "")
			_ = s.graph.Succeed(t.ID, result)
			if s.ledger != nil {
				_, _ = s.ledger.Append("TaskCacheHit", string(t.ID), nil, nil, map[string]string{"cache_key": key})
			}
			return true
		}
	}

	var candidates []v1.AgentID
	if len(t.RequiredCapabilities) == 0 {
		candidates = s.agents.FindByCapability("", t.TierHint)
	}
	for _, cap := range t.RequiredCapabilities {
		found := s.agents.FindByCapability(cap, t.TierHint)
		if candidates == nil {
			candidates = found
		} else {
			candidates = intersect(candidates, found)
		}
	}
	if len(candidates) == 0 {
		if s.log != nil {
			s.log.Warn("no capable agent for task", zap.String("task_id", string(t.ID)))
		}
		return false
	}

	agent := candidates[0]
	tok, err := s.tokens.Issue(string(agent), append([]string(nil), t.RequiredCapabilities...), time.Hour)
	if err != nil {
		if s.log != nil {
			s.log.Error("token issuance failed", zap.Error(err))
		}
		return false
	}

	if err := s.graph.Start(t.ID, agent); err != nil {
		return false
	}

	if s.ledger != nil {
		_, _ = s.ledger.Append("TaskDispatched", string(t.ID), nil, nil, map[string]string{
			"agent":   string(agent),
			"subject": tok.Subject,
		})
	}

	if s.msgFabric != nil {
		s.msgFabric.Send(v1.AgentMessage{
			ID:       v1.NewMessageID(),
			To:       v1.RecipientAgent(agent),
			Kind:     v1.KindDirect,
			Priority: t.Priority,
			Payload:  t.Input,
		})
	}
	return true
}

func intersect(a, b []v1.AgentID) []v1.AgentID {
	set := make(map[v1.AgentID]struct{}, len(b))
	for _, id := range b {
		set[id] = struct{}{}
	}
	var out []v1.AgentID
	for _, id := range a {
		if _, ok := set[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// HandleSuccess records result against task_id, caching it for future
// dedup, and advances dependents into Ready.
func (s *Scheduler) HandleSuccess(taskID v1.TaskID, result v1.TaskResult) error {
	t, ok := s.graph.Get(taskID)
	if !ok {
		return cortexerr.New(cortexerr.Validation, "scheduler.HandleSuccess", "not_found", nil)
	}
	if err := s.graph.Succeed(taskID, result); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Put(CacheKey(t.Type, t.Input), &CacheResult{Output: result.OutputData})
	}
	if s.ledger != nil {
		_, _ = s.ledger.RecordArtifact(string(taskID)+".result", result.OutputData, string(taskID))
	}
	s.graph.AdvanceReady()
	return nil
}

// HandleFailure records a failure for taskID and, if the retry policy
// permits, schedules a retry after the jittered backoff; otherwise the task
// is left Failed with retries exhausted (§8 invariant 7) and the caller
// (Workflow Processor) decides whether to Cancel it.
func (s *Scheduler) HandleFailure(taskID v1.TaskID, reason string) error {
	t, ok := s.graph.Get(taskID)
	if !ok {
		return cortexerr.New(cortexerr.Validation, "scheduler.HandleFailure", "not_found", nil)
	}
	if err := s.graph.Fail(taskID); err != nil {
		return err
	}
	if s.ledger != nil {
		_, _ = s.ledger.Append("TaskFailed", string(taskID), nil, nil, map[string]string{"reason": reason})
	}

	t, _ = s.graph.Get(taskID)
	if !ShouldRetry(s.retryPolicy, t.RetryCount) {
		return nil
	}

	backoff := ComputeBackoff(s.retryPolicy, t.RetryCount)
	s.mu.Lock()
	if existing, ok := s.pendingRetry[taskID]; ok {
		existing.Stop()
	}
	s.pendingRetry[taskID] = time.AfterFunc(backoff, func() {
		s.mu.Lock()
		delete(s.pendingRetry, taskID)
		s.mu.Unlock()
		_ = s.graph.Retry(taskID)
	})
	s.mu.Unlock()
	return nil
}

// Cancel cancels taskID and every task depending (directly or
// transitively) on it, used when a parent task gives up.
func (s *Scheduler) Cancel(taskID v1.TaskID) error {
	s.mu.Lock()
	if timer, ok := s.pendingRetry[taskID]; ok {
		timer.Stop()
		delete(s.pendingRetry, taskID)
	}
	s.mu.Unlock()
	if err := s.graph.Cancel(taskID); err != nil {
		return err
	}
	for _, t := range s.graph.All() {
		for _, dep := range t.Dependencies {
			if dep == taskID {
				_ = s.Cancel(t.ID)
				break
			}
		}
	}
	return nil
}

// Graph exposes the underlying task graph for read access (status queries).
func (s *Scheduler) Graph() *Graph { return s.graph }

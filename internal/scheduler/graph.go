/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package scheduler

import (
	"sort"
	"sync"
	"time"

	v1 "github.com/hortator-ai/cortex/api/v1"
	"github.com/hortator-ai/cortex/internal/cortexerr"
	"github.com/hortator-ai/cortex/internal/metrics"
)

// Graph holds the full set of tasks for one request and enforces the legal
// state transitions of spec §4.5/§8: Pending -> Ready -> Running ->
// (Succeeded | Failed | Cancelled), with Failed -> Ready while retries
// remain.
type Graph struct {
	mu    sync.Mutex
	tasks map[v1.TaskID]*v1.Task
}

// NewGraph builds a Graph from tasks, validating that every Dependency
// refers to a task present in the same graph.
func NewGraph(tasks []v1.Task) (*Graph, error) {
	g := &Graph{tasks: make(map[v1.TaskID]*v1.Task, len(tasks))}
	for i := range tasks {
		t := tasks[i]
		if t.ID == "" {
			t.ID = v1.NewTaskID()
		}
		if t.Status == "" {
			t.Status = v1.TaskPending
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = time.Now().UTC()
		}
		g.tasks[t.ID] = &t
	}
	for _, t := range g.tasks {
		for _, dep := range t.Dependencies {
			if _, ok := g.tasks[dep]; !ok {
				return nil, cortexerr.New(cortexerr.Validation, "scheduler.NewGraph", "dangling_dependency", nil)
			}
		}
	}
	return g, nil
}

// legalTransitions enumerates every transition spec §4.5 permits.
var legalTransitions = map[v1.TaskStatus]map[v1.TaskStatus]bool{
	v1.TaskPending:   {v1.TaskReady: true, v1.TaskCancelled: true},
	v1.TaskReady:     {v1.TaskRunning: true, v1.TaskCancelled: true},
	v1.TaskRunning:   {v1.TaskSucceeded: true, v1.TaskFailed: true, v1.TaskCancelled: true},
	v1.TaskFailed:    {v1.TaskReady: true, v1.TaskCancelled: true},
	v1.TaskSucceeded: {},
	v1.TaskCancelled: {},
}

func (g *Graph) transition(t *v1.Task, to v1.TaskStatus) error {
	allowed, ok := legalTransitions[t.Status]
	if !ok || !allowed[to] {
		return cortexerr.New(cortexerr.Validation, "scheduler.transition", "illegal_state_transition", nil)
	}
	from := t.Status
	t.Status = to
	metrics.TasksTotal.WithLabelValues(string(to)).Inc()
	switch to {
	case v1.TaskRunning:
		now := time.Now().UTC()
		t.StartedAt = &now
		metrics.TasksActive.Inc()
	case v1.TaskSucceeded, v1.TaskCancelled:
		now := time.Now().UTC()
		t.CompletedAt = &now
		if from == v1.TaskRunning {
			metrics.TasksActive.Dec()
			if t.StartedAt != nil {
				metrics.TaskDuration.Observe(now.Sub(*t.StartedAt).Seconds())
			}
		}
	case v1.TaskFailed:
		now := time.Now().UTC()
		if from == v1.TaskRunning {
			metrics.TasksActive.Dec()
			t.CompletedAt = &now
		}
	}
	return nil
}

// dependenciesSatisfied reports whether every dependency of t is Succeeded
// (spec §8 invariant 8: dependency closure).
func (g *Graph) dependenciesSatisfied(t *v1.Task) bool {
	for _, dep := range t.Dependencies {
		d, ok := g.tasks[dep]
		if !ok || d.Status != v1.TaskSucceeded {
			return false
		}
	}
	return true
}

// AdvanceReady moves every Pending task whose dependencies are all Succeeded
// into Ready, returning their IDs. Call this after any task completes.
func (g *Graph) AdvanceReady() []v1.TaskID {
	g.mu.Lock()
	defer g.mu.Unlock()
	var advanced []v1.TaskID
	for id, t := range g.tasks {
		if t.Status == v1.TaskPending && g.dependenciesSatisfied(t) {
			if err := g.transition(t, v1.TaskReady); err == nil {
				advanced = append(advanced, id)
			}
		}
	}
	sort.Slice(advanced, func(i, j int) bool { return advanced[i] < advanced[j] })
	return advanced
}

// Start transitions id from Ready to Running, assigning it to agent.
func (g *Graph) Start(id v1.TaskID, agent v1.AgentID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.tasks[id]
	if !ok {
		return cortexerr.New(cortexerr.Validation, "scheduler.Start", "not_found", nil)
	}
	if err := g.transition(t, v1.TaskRunning); err != nil {
		return err
	}
	t.AssignedAgent = &agent
	return nil
}

// Succeed transitions id to Succeeded and stores result.output_data.
func (g *Graph) Succeed(id v1.TaskID, result v1.TaskResult) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.tasks[id]
	if !ok {
		return cortexerr.New(cortexerr.Validation, "scheduler.Succeed", "not_found", nil)
	}
	if err := g.transition(t, v1.TaskSucceeded); err != nil {
		return err
	}
	t.Output = result.OutputData
	return nil
}

// Fail transitions id to Failed, incrementing retry_count. If policy still
// allows a retry, the caller should subsequently call Retry(id) once the
// computed backoff elapses.
func (g *Graph) Fail(id v1.TaskID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.tasks[id]
	if !ok {
		return cortexerr.New(cortexerr.Validation, "scheduler.Fail", "not_found", nil)
	}
	if err := g.transition(t, v1.TaskFailed); err != nil {
		return err
	}
	t.RetryCount++
	return nil
}

// Retry transitions a Failed task back to Ready, enforcing retry_count <=
// max_retries (spec §8 invariant 7).
func (g *Graph) Retry(id v1.TaskID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.tasks[id]
	if !ok {
		return cortexerr.New(cortexerr.Validation, "scheduler.Retry", "not_found", nil)
	}
	if t.RetryCount > t.MaxRetries {
		return cortexerr.New(cortexerr.Validation, "scheduler.Retry", "retries_exhausted", nil)
	}
	return g.transition(t, v1.TaskReady)
}

// Cancel transitions id to Cancelled from any non-terminal state.
func (g *Graph) Cancel(id v1.TaskID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.tasks[id]
	if !ok {
		return cortexerr.New(cortexerr.Validation, "scheduler.Cancel", "not_found", nil)
	}
	return g.transition(t, v1.TaskCancelled)
}

// Get returns a copy of the current state of id.
func (g *Graph) Get(id v1.TaskID) (v1.Task, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.tasks[id]
	if !ok {
		return v1.Task{}, false
	}
	return *t, true
}

// All returns a snapshot of every task in the graph, in no particular order.
func (g *Graph) All() []v1.Task {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]v1.Task, 0, len(g.tasks))
	for _, t := range g.tasks {
		out = append(out, *t)
	}
	return out
}

// Ready returns every task currently in the Ready state, ordered by
// descending priority then ascending creation time.
func (g *Graph) Ready() []v1.Task {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []v1.Task
	for _, t := range g.tasks {
		if t.Status == v1.TaskReady {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		pi, pj := priorityRank(out[i].Priority), priorityRank(out[j].Priority)
		if pi != pj {
			return pi > pj
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func priorityRank(p v1.TaskPriority) int {
	switch p {
	case v1.PriorityCritical:
		return 3
	case v1.PriorityHigh:
		return 2
	case v1.PriorityNormal:
		return 1
	case v1.PriorityLow:
		return 0
	default:
		return 1
	}
}

// AllTerminal reports whether every task in the graph is in a terminal
// state (Succeeded, Failed-with-no-retries-left, or Cancelled).
func (g *Graph) AllTerminal() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, t := range g.tasks {
		switch t.Status {
		case v1.TaskSucceeded, v1.TaskCancelled:
			continue
		case v1.TaskFailed:
			if t.RetryCount <= t.MaxRetries {
				return false
			}
		default:
			return false
		}
	}
	return true
}

/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package workflow

import (
	"context"
	"fmt"

	v1 "github.com/hortator-ai/cortex/api/v1"
	"github.com/hortator-ai/cortex/internal/config"
	"github.com/hortator-ai/cortex/internal/cortexerr"
	"github.com/hortator-ai/cortex/internal/fabric"
	"github.com/hortator-ai/cortex/internal/ledger"
	"github.com/hortator-ai/cortex/internal/scheduler"
	"github.com/hortator-ai/cortex/internal/token"
	"go.uber.org/zap"
)

// DeliverablePlanner is the narrow slice of the Deliverable Planner &
// Locator (C8) the processor needs at phase 6 — kept as a local interface so
// this package doesn't import internal/deliverable and vice versa.
type DeliverablePlanner interface {
	Plan(spec v1.DeliverableSpec) (v1.Deliverable, error)
	Validate(d v1.Deliverable) (ok bool, violations, warnings []string)
}

// TaskExecutor runs one dispatched task to completion. A caller wires this
// to the tri-sandbox Executor for stability-sensitive tasks and to a direct
// single-agent call otherwise; the processor does not know the difference.
type TaskExecutor func(ctx context.Context, task v1.Task) (v1.TaskResult, error)

// MaxDispatchIterations bounds the Execution-phase drive loop so a
// processor with no progress (e.g. an executor that always errors on a task
// whose retries never exhaust within the loop) terminates instead of
// spinning forever; a real deployment drives via the scheduler's own retry
// timers across many DispatchPass calls over wall-clock time, not a tight
// loop, so this cap is generous.
const MaxDispatchIterations = 64

// PhaseError names the phase at which a request failed, for the structured
// error response spec §7 requires C7 to surface to its caller.
type PhaseError struct {
	Phase string
	Kind  cortexerr.Kind
	Code  string
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("phase %s: %s (%s)", e.Phase, e.Kind, e.Code)
}

func (e *PhaseError) Unwrap() error { return e.Err }

// Result is the processor's response for one request.
type Result struct {
	RequestID     string
	Subject       v1.TaskSubject
	QualityReport *QualityReport
	GateOverridden bool
	Deliverables  []v1.Deliverable
	MerkleAnchor  *v1.MerkleAnchor
	Tasks         []v1.Task
}

// Input bundles everything Run needs for one pass through the pipeline.
type Input struct {
	Request              v1.ChatRequest
	SOPRaw               string
	RequestedProcedureID string
	OverrideGate         bool
	Deconstruct          v1.Deconstruct
	Diagnose             v1.Diagnose
	Develop              v1.Develop
	Deliver              v1.Deliver
	Execute              TaskExecutor
	ReproCommand         string
}

// Processor drives the seven-phase pipeline (spec §4.7): Ingestion,
// Analysis & Planning, Resource Allocation, Execution, Verification,
// Integration, Post-Delivery.
type Processor struct {
	ledger    *ledger.Ledger
	tokens    *token.Service
	agents    scheduler.AgentSelector
	msgFabric fabric.Fabric
	cache     *scheduler.ResultCache
	planner   DeliverablePlanner
	gate      config.GateConfig
	log       *zap.Logger
}

// NewProcessor constructs a Processor wired to the shared cluster services.
func NewProcessor(led *ledger.Ledger, tokens *token.Service, agents scheduler.AgentSelector, msgFabric fabric.Fabric, cache *scheduler.ResultCache, planner DeliverablePlanner, gate config.GateConfig, log *zap.Logger) *Processor {
	return &Processor{ledger: led, tokens: tokens, agents: agents, msgFabric: msgFabric, cache: cache, planner: planner, gate: gate, log: log}
}

// Run drives a single request through all seven phases, returning the final
// Result or a *PhaseError naming where it failed.
func (p *Processor) Run(ctx context.Context, in Input) (Result, error) {
	result := Result{RequestID: in.Request.ID}

	// Phase 1: Ingestion.
	if err := p.ingest(in.Request); err != nil {
		return result, err
	}

	// Phase 2: Analysis & Planning.
	sop := ParseSOP(in.SOPRaw)
	subject, report, err := p.analyzeAndPlan(in, sop)
	if err != nil {
		return result, err
	}
	result.Subject = subject
	result.QualityReport = report

	if !subject.Scores.GatePassed {
		if !in.OverrideGate {
			return result, &PhaseError{Phase: "Analysis & Planning", Kind: cortexerr.Validation, Code: "gate_failure"}
		}
		result.GateOverridden = true
		if _, err := p.ledger.Append("GateOverride", in.Request.ID, nil, nil, map[string]string{
			"overall": fmt.Sprintf("%d", subject.Scores.Overall),
		}); err != nil {
			return result, &PhaseError{Phase: "Analysis & Planning", Kind: cortexerr.Storage, Code: "ledger_append_failed", Err: err}
		}
	}

	if _, err := p.ledger.Append("TaskSubjectEmitted", in.Request.ID, nil, nil, map[string]string{
		"overall": fmt.Sprintf("%d", subject.Scores.Overall),
	}); err != nil {
		return result, &PhaseError{Phase: "Analysis & Planning", Kind: cortexerr.Storage, Code: "ledger_append_failed", Err: err}
	}

	// Phase 3: Resource Allocation.
	if err := p.allocateResources(subject); err != nil {
		return result, err
	}

	// Phase 4: Execution.
	graph, taskIDs, err := p.execute(ctx, in, subject)
	if err != nil {
		return result, err
	}
	result.Tasks = graph.All()

	// Phase 5: Verification.
	if err := p.verify(graph, taskIDs); err != nil {
		return result, err
	}

	// Phase 6: Integration.
	deliverables, err := p.integrate(in, subject, graph, taskIDs)
	if err != nil {
		return result, err
	}
	result.Deliverables = deliverables

	anchor, err := p.ledger.Anchor(in.Request.ID)
	if err != nil {
		return result, &PhaseError{Phase: "Integration", Kind: cortexerr.Integrity, Code: "anchor_failed", Err: err}
	}
	result.MerkleAnchor = &anchor

	// Phase 7: Post-Delivery.
	if err := p.postDelivery(in, result); err != nil {
		return result, err
	}

	return result, nil
}

func (p *Processor) ingest(req v1.ChatRequest) error {
	if req.ID == "" || req.Message == "" {
		return &PhaseError{Phase: "Ingestion", Kind: cortexerr.Validation, Code: "malformed_request"}
	}
	if _, err := p.ledger.Append("RequestIngested", req.ID, nil, nil, map[string]string{"subject": req.Subject}); err != nil {
		return &PhaseError{Phase: "Ingestion", Kind: cortexerr.Storage, Code: "ledger_append_failed", Err: err}
	}
	return nil
}

func (p *Processor) analyzeAndPlan(in Input, sop v1.SOPDocument) (v1.TaskSubject, *QualityReport, error) {
	subject := v1.TaskSubject{
		RequestRef:  in.Request.ID,
		Deconstruct: in.Deconstruct,
		Diagnose:    in.Diagnose,
		Develop:     in.Develop,
		Deliver:     in.Deliver,
	}
	scores, report := Score4D(subject, sop, p.gate)
	subject.Scores = scores

	alignment := AlignmentScore(sop, in.RequestedProcedureID)
	if _, err := p.ledger.Append("SOPAnalyzed", in.Request.ID, nil, nil, map[string]string{
		"alignment": fmt.Sprintf("%.4f", alignment),
	}); err != nil {
		return subject, report, &PhaseError{Phase: "Analysis & Planning", Kind: cortexerr.Storage, Code: "ledger_append_failed", Err: err}
	}

	if report != nil {
		if _, err := p.ledger.Append("GateFailure", in.Request.ID, nil, nil, map[string]string{
			"overall": fmt.Sprintf("%d", scores.Overall),
		}); err != nil {
			return subject, report, &PhaseError{Phase: "Analysis & Planning", Kind: cortexerr.Storage, Code: "ledger_append_failed", Err: err}
		}
	}
	return subject, report, nil
}

func (p *Processor) allocateResources(subject v1.TaskSubject) error {
	for _, capability := range subject.Develop.AgentsNeeded {
		if len(p.agents.FindByCapability(capability, "")) == 0 {
			return &PhaseError{Phase: "Resource Allocation", Kind: cortexerr.Capacity, Code: "no_capable_agent", Err: fmt.Errorf("capability %q", capability)}
		}
	}
	return nil
}

// execute builds a task graph of one task per Develop.Plan step and drives
// it to completion (or exhaustion) via in.Execute.
func (p *Processor) execute(ctx context.Context, in Input, subject v1.TaskSubject) (*scheduler.Graph, []v1.TaskID, error) {
	tasks := make([]v1.Task, 0, len(subject.Develop.Plan))
	for i, step := range subject.Develop.Plan {
		tasks = append(tasks, v1.Task{
			ID:                   v1.TaskID(fmt.Sprintf("%s-step-%d", in.Request.ID, i)),
			Type:                 step,
			Priority:             in.Request.Priority,
			RequiredCapabilities: subject.Develop.AgentsNeeded,
			Input:                []byte(step),
		})
	}
	graph, err := scheduler.NewGraph(tasks)
	if err != nil {
		return nil, nil, &PhaseError{Phase: "Execution", Kind: cortexerr.Validation, Code: "graph_build_failed", Err: err}
	}

	s := scheduler.New(graph, p.agents, p.msgFabric, p.ledger, p.tokens, p.cache, p.log)

	var allDispatched []v1.TaskID
	for i := 0; i < MaxDispatchIterations && !graph.AllTerminal(); i++ {
		dispatched := s.DispatchPass()
		if len(dispatched) == 0 {
			break
		}
		allDispatched = append(allDispatched, dispatched...)
		for _, id := range dispatched {
			t, ok := graph.Get(id)
			if !ok {
				continue
			}
			if in.Execute == nil {
				continue
			}
			res, execErr := in.Execute(ctx, t)
			if execErr != nil {
				_ = s.HandleFailure(id, execErr.Error())
				continue
			}
			_ = s.HandleSuccess(id, res)
		}
	}
	return graph, allDispatched, nil
}

func (p *Processor) verify(graph *scheduler.Graph, taskIDs []v1.TaskID) error {
	for _, id := range taskIDs {
		t, ok := graph.Get(id)
		if !ok || t.Status != v1.TaskSucceeded {
			continue
		}
		expected := ledger.HashBytes(t.Output)
		recorded, ok := p.ledger.Manifest().Get(string(id) + ".result")
		if ok && recorded != expected {
			return &PhaseError{Phase: "Verification", Kind: cortexerr.Integrity, Code: "artifact_hash_mismatch", Err: fmt.Errorf("task %s", id)}
		}
	}
	return nil
}

func (p *Processor) integrate(in Input, subject v1.TaskSubject, graph *scheduler.Graph, taskIDs []v1.TaskID) ([]v1.Deliverable, error) {
	var deliverables []v1.Deliverable
	for _, name := range subject.Deliver.Deliverables {
		spec := v1.DeliverableSpec{
			Name:            name,
			RequirementText: name,
			Kind:            v1.KindSource,
			Priority:        in.Request.Priority,
		}
		d, err := p.planner.Plan(spec)
		if err != nil {
			return nil, &PhaseError{Phase: "Integration", Kind: cortexerr.Validation, Code: "deliverable_plan_failed", Err: err}
		}
		if ok, violations, _ := p.planner.Validate(d); !ok {
			return nil, &PhaseError{Phase: "Integration", Kind: cortexerr.Validation, Code: "deliverable_invalid", Err: fmt.Errorf("%v", violations)}
		}
		content := collectOutput(graph, taskIDs)
		if _, err := p.ledger.RecordArtifact(d.PlannedLocation, content, in.Request.ID); err != nil {
			return nil, &PhaseError{Phase: "Integration", Kind: cortexerr.Storage, Code: "artifact_record_failed", Err: err}
		}
		deliverables = append(deliverables, d)
	}
	return deliverables, nil
}

func collectOutput(graph *scheduler.Graph, taskIDs []v1.TaskID) []byte {
	var out []byte
	for _, id := range taskIDs {
		if t, ok := graph.Get(id); ok {
			out = append(out, t.Output...)
		}
	}
	return out
}

func (p *Processor) postDelivery(in Input, result Result) error {
	var artifactPaths []string
	for _, d := range result.Deliverables {
		artifactPaths = append(artifactPaths, d.PlannedLocation)
	}
	notes := map[string]string{}
	if in.ReproCommand != "" {
		notes["repro_command"] = in.ReproCommand
	}
	if _, err := p.ledger.Append("ExecutedTask", in.Request.ID, artifactPaths, nil, notes); err != nil {
		return &PhaseError{Phase: "Post-Delivery", Kind: cortexerr.Storage, Code: "ledger_append_failed", Err: err}
	}
	return nil
}

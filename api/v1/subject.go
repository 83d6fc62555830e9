/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package v1

// Deconstruct is the first 4D phase: what the request is actually asking for.
type Deconstruct struct {
	Inputs              []string `json:"inputs"`
	OutputRequirements   []string `json:"outputRequirements"`
	Constraints          []string `json:"constraints"`
	AcceptanceCriteria   []string `json:"acceptanceCriteria"`
}

// Diagnose is the second 4D phase: what could go wrong and what's missing.
type Diagnose struct {
	Risks []string `json:"risks"`
	Gaps  []string `json:"gaps"`
}

// Develop is the third 4D phase: the plan and the agents it needs.
type Develop struct {
	Plan        []string  `json:"plan"`
	AgentsNeeded []string `json:"agentsNeeded"` // required capabilities
}

// Deliver is the fourth 4D phase: what gets produced and where.
type Deliver struct {
	Deliverables []string `json:"deliverables"`
	Locations    []string `json:"locations"`
}

// FourDScores holds the per-phase and overall quality-gate scores.
type FourDScores struct {
	Deconstruct int  `json:"deconstruct"`
	Diagnose    int  `json:"diagnose"`
	Develop     int  `json:"develop"`
	Deliver     int  `json:"deliver"`
	Overall     int  `json:"overall"`
	GatePassed  bool `json:"gatePassed"`
}

// TaskSubject is the output of the 4D phase, consumed by the Scheduler.
// If GatePassed is false, the subject may only proceed with an explicit,
// ledger-recorded override.
type TaskSubject struct {
	RequestRef  string      `json:"requestRef"`
	Deconstruct Deconstruct `json:"deconstruct"`
	Diagnose    Diagnose    `json:"diagnose"`
	Develop     Develop     `json:"develop"`
	Deliver     Deliver     `json:"deliver"`
	Scores      FourDScores `json:"scores"`
}

// ChatRequest is the ingress shape consumed at phase 1 (Ingestion). Unknown
// fields are the caller's concern to forward; this struct only names the
// required ones.
type ChatRequest struct {
	ID       string            `json:"id"`
	Subject  string            `json:"subject"`
	Message  string            `json:"message"`
	Priority TaskPriority      `json:"priority"`
	Context  map[string]string `json:"context,omitempty"`
	Deadline *string           `json:"deadline,omitempty"`
}

/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package v1

import "time"

// TaskPriority orders dispatch and message delivery bands.
type TaskPriority string

const (
	PriorityLow      TaskPriority = "Low"
	PriorityNormal   TaskPriority = "Normal"
	PriorityHigh     TaskPriority = "High"
	PriorityCritical TaskPriority = "Critical"
)

// TaskStatus is a Task's position in the C5 state machine. Transitions are
// restricted to: Pending -> Ready -> Running -> (Succeeded|Failed|Cancelled),
// with Failed -> Ready permitted while retry_count < max_retries.
type TaskStatus string

const (
	TaskPending   TaskStatus = "Pending"
	TaskReady     TaskStatus = "Ready"
	TaskRunning   TaskStatus = "Running"
	TaskSucceeded TaskStatus = "Succeeded"
	TaskFailed    TaskStatus = "Failed"
	TaskCancelled TaskStatus = "Cancelled"
)

// BudgetSpec is an optional token/cost ceiling for a task or a task tree.
// Supplemental to spec.md, grounded on the teacher's BudgetSpec.
type BudgetSpec struct {
	MaxTokens  *int64  `json:"maxTokens,omitempty"`
	MaxCostUSD *float64 `json:"maxCostUsd,omitempty"`
}

// Task is owned exclusively by the Scheduler (C5); agents receive immutable
// snapshots and return a TaskResult by value.
type Task struct {
	ID                   TaskID            `json:"id"`
	Type                 string            `json:"type"`
	Priority             TaskPriority      `json:"priority"`
	Status               TaskStatus        `json:"status"`
	Input                []byte            `json:"input"`
	Output               []byte            `json:"output,omitempty"`
	CreatedAt            time.Time         `json:"createdAt"`
	StartedAt            *time.Time        `json:"startedAt,omitempty"`
	CompletedAt          *time.Time        `json:"completedAt,omitempty"`
	Timeout              *time.Duration    `json:"timeout,omitempty"`
	RetryCount           int               `json:"retryCount"`
	MaxRetries           int               `json:"maxRetries"`
	RequiredCapabilities []string          `json:"requiredCapabilities,omitempty"`
	Dependencies         []TaskID          `json:"dependencies,omitempty"`
	AssignedAgent        *AgentID          `json:"assignedAgent,omitempty"`
	StabilitySensitive   bool              `json:"stabilitySensitive,omitempty"`
	Budget               *BudgetSpec       `json:"budget,omitempty"`
	TierHint             AgentTier         `json:"tierHint,omitempty"`
	Degraded             bool              `json:"degraded,omitempty"`
}

// TaskResult is returned by value from an executing agent. Exactly one of
// OutputData or ErrorMessage is set.
type TaskResult struct {
	TaskID       TaskID            `json:"taskId"`
	OutputData   []byte            `json:"outputData,omitempty"`
	ErrorMessage string            `json:"errorMessage,omitempty"`
	CompletedAt  time.Time         `json:"completedAt"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// IsSuccess reports whether the result carries output rather than an error.
func (r TaskResult) IsSuccess() bool { return r.ErrorMessage == "" }

/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

// Package v1 holds the domain types shared by every Cortex component: agents,
// tasks, messages, capability tokens, the SOP document, the 4D task subject,
// deliverables, and the integrity ledger records. Nothing in this package
// talks to a transport, a store, or a clock — it is pure data.
package v1

import "github.com/google/uuid"

// AgentID opaquely identifies an agent for its entire lifetime.
type AgentID string

// TaskID opaquely identifies a task.
type TaskID string

// MessageID opaquely identifies a message.
type MessageID string

// NewAgentID mints a fresh 128-bit agent identifier.
func NewAgentID() AgentID { return AgentID(uuid.NewString()) }

// NewTaskID mints a fresh 128-bit task identifier.
func NewTaskID() TaskID { return TaskID(uuid.NewString()) }

// NewMessageID mints a fresh 128-bit message identifier.
func NewMessageID() MessageID { return MessageID(uuid.NewString()) }

func (a AgentID) String() string { return string(a) }
func (t TaskID) String() string  { return string(t) }
func (m MessageID) String() string { return string(m) }

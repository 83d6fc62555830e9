/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package v1

import "time"

// MessageKind selects how a message is routed. Alert bypasses standard
// priority bands and is always delivered at Critical priority.
type MessageKind string

const (
	KindDirect    MessageKind = "Direct"
	KindBroadcast MessageKind = "Broadcast"
	KindAlert     MessageKind = "Alert"
	KindControl   MessageKind = "Control"
)

// Recipient names either a single agent, every agent in a tier, or everyone.
type Recipient struct {
	Agent     AgentID   `json:"agent,omitempty"`
	Tier      AgentTier `json:"tier,omitempty"`
	Broadcast bool      `json:"broadcast,omitempty"` // tier-wide when Tier set, else all agents
	All       bool      `json:"all,omitempty"`
}

// RecipientAgent addresses a single agent directly.
func RecipientAgent(id AgentID) Recipient { return Recipient{Agent: id} }

// RecipientTier addresses every agent in a tier.
func RecipientTier(tier AgentTier) Recipient { return Recipient{Tier: tier, Broadcast: true} }

// RecipientAll addresses every registered agent.
func RecipientAll() Recipient { return Recipient{All: true} }

// AgentMessage is owned by the Message Fabric until dequeued, after which
// ownership transfers to the receiving agent.
type AgentMessage struct {
	ID       MessageID     `json:"id"`
	From     AgentID       `json:"from"`
	To       Recipient     `json:"to"`
	Kind     MessageKind   `json:"kind"`
	Priority TaskPriority  `json:"priority"`
	Payload  []byte        `json:"payload"`
	Deadline *time.Time    `json:"deadline,omitempty"`
	ReplyTo  *MessageID    `json:"replyTo,omitempty"`
}

// EffectivePriority returns the priority actually used for queue placement:
// Alert messages always resolve to Critical regardless of the stated field.
func (m AgentMessage) EffectivePriority() TaskPriority {
	if m.Kind == KindAlert {
		return PriorityCritical
	}
	return m.Priority
}

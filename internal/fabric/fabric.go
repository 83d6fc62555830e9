/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

// Package fabric implements the Message Fabric (C3): per-agent priority
// queues carrying directed, broadcast, alert, and control messages, with
// explicit back-pressure and deadline/cancellation semantics — grounded on
// the teacher's warm_pool claim/injectTask handshake (internal/controller
// /warm_pool.go) generalized from a pod-exec handoff into a standing
// in-process channel transport, with an optional NATS-backed transport for
// multi-process deployments.
package fabric

import (
	"context"
	"time"

	v1 "github.com/hortator-ai/cortex/api/v1"
)

// SendResult is the outcome of a Send call (spec §4.3 contract).
type SendResult int

const (
	Ok SendResult = iota
	QueueFull
	UnknownRecipient
	DeadlineInThePast
)

func (r SendResult) String() string {
	switch r {
	case Ok:
		return "Ok"
	case QueueFull:
		return "QueueFull"
	case UnknownRecipient:
		return "UnknownRecipient"
	case DeadlineInThePast:
		return "DeadlineInThePast"
	default:
		return "Unknown"
	}
}

// ControlReason labels a synthesized Control message returned to a sender.
type ControlReason string

const (
	DeliveryTimeout   ControlReason = "DeliveryTimeout"
	DeliveryCancelled ControlReason = "DeliveryCancelled"
)

// TierResolver reports the current membership of a tier, used by Broadcast.
// The Fabric does not own agent membership (that's the Registry's job, C4);
// it only needs read access to resolve a broadcast's recipient set.
type TierResolver interface {
	MembersOf(tier v1.AgentTier) []v1.AgentID
}

// Fabric is the C3 contract.
type Fabric interface {
	// RegisterAgent creates the per-agent queue with the given capacity,
	// shared across all priority bands. Sending to an unregistered agent
	// returns UnknownRecipient.
	RegisterAgent(id v1.AgentID, capacity int)
	// UnregisterAgent tears down id's queue, returning DeliveryCancelled
	// control messages to the senders of any undelivered mail.
	UnregisterAgent(id v1.AgentID)

	Send(msg v1.AgentMessage) SendResult
	// Receive streams messages addressed to id until ctx is cancelled, at
	// which point any remaining undelivered non-broadcast mail addressed
	// to id is returned to its senders as DeliveryCancelled.
	Receive(ctx context.Context, id v1.AgentID) <-chan v1.AgentMessage
	Broadcast(tier v1.AgentTier, msg v1.AgentMessage) int
	Ack(msgID v1.MessageID)
}

// pendingAck tracks a delivered-but-unacked message's deadline.
type pendingAck struct {
	msg     v1.AgentMessage
	timer   *time.Timer
}

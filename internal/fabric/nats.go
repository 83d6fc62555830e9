/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package fabric

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	v1 "github.com/hortator-ai/cortex/api/v1"
	"github.com/hortator-ai/cortex/internal/cortexerr"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Subject builds the NATS subject an agent's mailbox publishes/subscribes
// to: "cortex.msg.<tier>.<agentID>.<priority>", letting a subscriber use
// wildcard subjects ("cortex.msg.*.<agentID>.>") to drain every priority at
// once while still allowing priority-scoped consumers.
func Subject(tier v1.AgentTier, id v1.AgentID, priority v1.TaskPriority) string {
	return fmt.Sprintf("cortex.msg.%s.%s.%s", tier, id, priority)
}

// NATSFabric is an optional multi-process transport for deployments that
// run scheduler and agent hosts as separate processes, grounded on the
// pack's use of nats.go for cross-process delivery (dataparency-dev/AI-
// delegation). It implements the same Fabric contract as InProcess but
// without the in-memory priority-band ordering guarantee across processes:
// ordering is only preserved to the extent NATS core pub/sub preserves
// per-subject publish order to a single subscriber, which is sufficient for
// the per-(sender,receiver,priority) FIFO guarantee since each tuple maps
// to one subject.
type NATSFabric struct {
	mu    sync.RWMutex
	conn  *nats.Conn
	tiers map[v1.AgentID]v1.AgentTier
	subs  map[v1.AgentID][]*nats.Subscription
	log   *zap.Logger
}

// NewNATSFabric connects to a NATS server at url.
func NewNATSFabric(url string, log *zap.Logger) (*NATSFabric, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, cortexerr.New(cortexerr.Fatal, "fabric.NewNATSFabric", "connect_failed", err)
	}
	return &NATSFabric{
		conn:  conn,
		tiers: make(map[v1.AgentID]v1.AgentTier),
		subs:  make(map[v1.AgentID][]*nats.Subscription),
		log:   log,
	}, nil
}

func (f *NATSFabric) RegisterAgent(id v1.AgentID, _ int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tiers[id]; !ok {
		f.tiers[id] = v1.TierMicro
	}
}

func (f *NATSFabric) UnregisterAgent(id v1.AgentID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.subs[id] {
		_ = s.Unsubscribe()
	}
	delete(f.subs, id)
	delete(f.tiers, id)
}

func (f *NATSFabric) tierOf(id v1.AgentID) v1.AgentTier {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.tiers[id]
}

func (f *NATSFabric) Send(msg v1.AgentMessage) SendResult {
	if msg.To.Agent == "" {
		return UnknownRecipient
	}
	subject := Subject(f.tierOf(msg.To.Agent), msg.To.Agent, msg.EffectivePriority())
	b, err := json.Marshal(msg)
	if err != nil {
		return UnknownRecipient
	}
	if err := f.conn.Publish(subject, b); err != nil {
		return QueueFull
	}
	return Ok
}

func (f *NATSFabric) Broadcast(tier v1.AgentTier, msg v1.AgentMessage) int {
	subject := fmt.Sprintf("cortex.msg.%s.*.>", tier)
	b, err := json.Marshal(msg)
	if err != nil {
		return 0
	}
	if err := f.conn.Publish(subject, b); err != nil {
		return 0
	}
	return 1 // best-effort: NATS core pub/sub does not report subscriber count synchronously
}

func (f *NATSFabric) Ack(v1.MessageID) {
	// NATS core pub/sub (as opposed to JetStream) has no broker-side
	// redelivery to ack against; ack is a no-op here and delivery-timeout
	// tracking is the in-process transport's responsibility.
}

func (f *NATSFabric) Receive(ctx context.Context, id v1.AgentID) <-chan v1.AgentMessage {
	out := make(chan v1.AgentMessage)
	sub, err := f.conn.SubscribeSync(fmt.Sprintf("cortex.msg.*.%s.>", id))
	if err != nil {
		close(out)
		return out
	}
	f.mu.Lock()
	f.subs[id] = append(f.subs[id], sub)
	f.mu.Unlock()

	go func() {
		defer close(out)
		defer sub.Unsubscribe()
		for {
			natsMsg, err := sub.NextMsgWithContext(ctx)
			if err != nil {
				return
			}
			var m v1.AgentMessage
			if err := json.Unmarshal(natsMsg.Data, &m); err != nil {
				continue
			}
			select {
			case out <- m:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Close drains the underlying connection.
func (f *NATSFabric) Close() {
	f.conn.Close()
}

/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package fabric

import (
	"context"
	"sync"
	"time"

	v1 "github.com/hortator-ai/cortex/api/v1"
	"github.com/hortator-ai/cortex/internal/metrics"
	"go.uber.org/zap"
)

// bandCount is the number of priority bands: Low, Normal, High, Critical.
const bandCount = 4

func bandIndex(p v1.TaskPriority) int {
	switch p {
	case v1.PriorityLow:
		return 0
	case v1.PriorityNormal:
		return 1
	case v1.PriorityHigh:
		return 2
	case v1.PriorityCritical:
		return 3
	default:
		return 1
	}
}

// agentQueue holds one agent's mailbox: four FIFO bands drained
// highest-priority-first, a shared capacity across all bands, pending-ack
// tracking, and a notify signal that wakes Receive's forwarding goroutine.
type agentQueue struct {
	mu       sync.Mutex
	id       v1.AgentID
	capacity int
	size     int
	bands    [bandCount][]v1.AgentMessage
	notify   chan struct{}
	pending  map[v1.MessageID]*pendingAck
	closed   bool
}

func newAgentQueue(id v1.AgentID, capacity int) *agentQueue {
	return &agentQueue{
		id:       id,
		capacity: capacity,
		notify:   make(chan struct{}, 1),
		pending:  make(map[v1.MessageID]*pendingAck),
	}
}

// enqueue appends msg to its priority band if capacity allows and wakes
// any goroutine blocked in pop. The band itself is the only buffer: which
// message comes out next is decided by pop at receive time, not by the
// order Send calls arrived in.
func (q *agentQueue) enqueue(msg v1.AgentMessage) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	if q.size >= q.capacity {
		q.mu.Unlock()
		return false
	}
	idx := bandIndex(msg.EffectivePriority())
	q.bands[idx] = append(q.bands[idx], msg)
	q.size++
	q.mu.Unlock()
	q.signal()
	return true
}

func (q *agentQueue) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// pop removes and returns the head of the highest non-empty band, strictly
// preempting lower bands regardless of arrival order.
func (q *agentQueue) pop() (v1.AgentMessage, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := bandCount - 1; i >= 0; i-- {
		if len(q.bands[i]) > 0 {
			m := q.bands[i][0]
			q.bands[i] = q.bands[i][1:]
			q.size--
			return m, true
		}
	}
	return v1.AgentMessage{}, false
}

// drainRemaining empties every band in priority order, used when tearing a
// queue down.
func (q *agentQueue) drainRemaining() []v1.AgentMessage {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	var out []v1.AgentMessage
	for i := bandCount - 1; i >= 0; i-- {
		out = append(out, q.bands[i]...)
		q.bands[i] = nil
	}
	q.size = 0
	return out
}

// InProcess is the default Fabric: everything lives in process memory,
// suitable for a single-host scheduler instance.
type InProcess struct {
	mu       sync.RWMutex
	queues   map[v1.AgentID]*agentQueue
	resolver TierResolver
	log      *zap.Logger

	sendMu sync.Mutex // serializes control-message synthesis for deterministic tests
}

// NewInProcess constructs an in-process Fabric. resolver may be nil if
// Broadcast is never used directly (e.g. tests exercising only Send).
func NewInProcess(resolver TierResolver, log *zap.Logger) *InProcess {
	return &InProcess{
		queues:   make(map[v1.AgentID]*agentQueue),
		resolver: resolver,
		log:      log,
	}
}

func (f *InProcess) RegisterAgent(id v1.AgentID, capacity int) {
	if capacity <= 0 {
		capacity = 64
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queues[id] = newAgentQueue(id, capacity)
}

func (f *InProcess) UnregisterAgent(id v1.AgentID) {
	f.mu.Lock()
	q, ok := f.queues[id]
	if ok {
		delete(f.queues, id)
	}
	f.mu.Unlock()
	if !ok {
		return
	}
	for _, msg := range q.drainRemaining() {
		f.returnControl(msg, DeliveryCancelled)
	}
}

func (f *InProcess) Send(msg v1.AgentMessage) SendResult {
	if msg.Deadline != nil && msg.Deadline.Before(time.Now()) {
		return DeadlineInThePast
	}
	switch {
	case msg.To.All:
		f.mu.RLock()
		ids := make([]v1.AgentID, 0, len(f.queues))
		for id := range f.queues {
			ids = append(ids, id)
		}
		f.mu.RUnlock()
		delivered := 0
		for _, id := range ids {
			m := msg
			m.To = RecipientOf(id)
			if f.deliverOne(id, m) == Ok {
				delivered++
			}
		}
		if delivered == 0 {
			return UnknownRecipient
		}
		return Ok
	case msg.To.Broadcast && msg.To.Tier != "":
		n := f.Broadcast(msg.To.Tier, msg)
		if n == 0 {
			return UnknownRecipient
		}
		return Ok
	default:
		return f.deliverOne(msg.To.Agent, msg)
	}
}

// RecipientOf is a small helper building a direct Recipient, exported so
// Send's fan-out can stamp an explicit target on a broadcast copy.
func RecipientOf(id v1.AgentID) v1.Recipient { return v1.Recipient{Agent: id} }

func (f *InProcess) deliverOne(id v1.AgentID, msg v1.AgentMessage) SendResult {
	f.mu.RLock()
	q, ok := f.queues[id]
	f.mu.RUnlock()
	if !ok {
		return UnknownRecipient
	}
	if !q.enqueue(msg) {
		metrics.FabricQueueDepth.WithLabelValues(string(id), string(msg.EffectivePriority())).Inc()
		return QueueFull
	}
	if msg.Deadline != nil {
		f.trackAck(q, msg)
	}
	if f.log != nil {
		f.log.Debug("message enqueued",
			zap.String("to", string(id)),
			zap.String("kind", string(msg.Kind)),
			zap.String("priority", string(msg.EffectivePriority())),
		)
	}
	return Ok
}

func (f *InProcess) trackAck(q *agentQueue, msg v1.AgentMessage) {
	deadline := *msg.Deadline
	wait := time.Until(deadline)
	if wait < 0 {
		wait = 0
	}
	timer := time.AfterFunc(wait, func() {
		q.mu.Lock()
		p, still := q.pending[msg.ID]
		if still {
			delete(q.pending, msg.ID)
		}
		q.mu.Unlock()
		if still {
			f.returnControl(p.msg, DeliveryTimeout)
		}
	})
	q.mu.Lock()
	q.pending[msg.ID] = &pendingAck{msg: msg, timer: timer}
	q.mu.Unlock()
}

// Ack marks a delivered message consumed, cancelling its timeout timer.
// Since multiple agents' queues could in principle share a message id, Ack
// scans all registered queues; in practice a caller acks from the queue
// that handed it the message.
func (f *InProcess) Ack(msgID v1.MessageID) {
	f.mu.RLock()
	queues := make([]*agentQueue, 0, len(f.queues))
	for _, q := range f.queues {
		queues = append(queues, q)
	}
	f.mu.RUnlock()
	for _, q := range queues {
		q.mu.Lock()
		p, ok := q.pending[msgID]
		if ok {
			delete(q.pending, msgID)
		}
		q.mu.Unlock()
		if ok {
			p.timer.Stop()
			return
		}
	}
}

func (f *InProcess) Broadcast(tier v1.AgentTier, msg v1.AgentMessage) int {
	if f.resolver == nil {
		return 0
	}
	members := f.resolver.MembersOf(tier)
	delivered := 0
	for _, id := range members {
		m := msg
		m.To = v1.Recipient{Agent: id, Tier: tier, Broadcast: true}
		if f.deliverOne(id, m) == Ok {
			delivered++
		}
	}
	return delivered
}

func (f *InProcess) Receive(ctx context.Context, id v1.AgentID) <-chan v1.AgentMessage {
	f.mu.RLock()
	q, ok := f.queues[id]
	f.mu.RUnlock()
	out := make(chan v1.AgentMessage)
	if !ok {
		close(out)
		return out
	}
	go func() {
		defer close(out)
		for {
			msg, ok := q.pop()
			if !ok {
				select {
				case <-ctx.Done():
					for _, rest := range q.drainRemaining() {
						f.returnControl(rest, DeliveryCancelled)
					}
					return
				case <-q.notify:
					continue
				}
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				f.returnControl(msg, DeliveryCancelled)
				for _, rest := range q.drainRemaining() {
					f.returnControl(rest, DeliveryCancelled)
				}
				return
			}
		}
	}()
	return out
}

// returnControl synthesizes a Control message back to msg's sender
// reporting reason, delivered best-effort (dropped if the sender's own
// queue has since been torn down or is full).
func (f *InProcess) returnControl(msg v1.AgentMessage, reason ControlReason) {
	if msg.Kind == v1.KindControl {
		return // never bounce a control message itself
	}
	f.sendMu.Lock()
	defer f.sendMu.Unlock()
	control := v1.AgentMessage{
		ID:       v1.NewMessageID(),
		From:     msg.To.Agent,
		To:       v1.Recipient{Agent: msg.From},
		Kind:     v1.KindControl,
		Priority: v1.PriorityHigh,
		Payload:  []byte(reason),
		ReplyTo:  &msg.ID,
	}
	f.mu.RLock()
	q, ok := f.queues[msg.From]
	f.mu.RUnlock()
	if !ok {
		return
	}
	q.enqueue(control)
}

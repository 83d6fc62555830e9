/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package fabric

import (
	"context"
	"testing"
	"time"

	v1 "github.com/hortator-ai/cortex/api/v1"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSendUnknownRecipient(t *testing.T) {
	f := NewInProcess(nil, nil)
	msg := v1.AgentMessage{ID: v1.NewMessageID(), To: v1.RecipientAgent("ghost")}
	if res := f.Send(msg); res != UnknownRecipient {
		t.Errorf("expected UnknownRecipient, got %v", res)
	}
}

func TestSendDeadlineInThePast(t *testing.T) {
	f := NewInProcess(nil, nil)
	f.RegisterAgent("a1", 4)
	past := time.Now().Add(-time.Hour)
	msg := v1.AgentMessage{ID: v1.NewMessageID(), To: v1.RecipientAgent("a1"), Deadline: &past}
	if res := f.Send(msg); res != DeadlineInThePast {
		t.Errorf("expected DeadlineInThePast, got %v", res)
	}
}

func TestSendQueueFull(t *testing.T) {
	f := NewInProcess(nil, nil)
	f.RegisterAgent("a1", 1)
	first := v1.AgentMessage{ID: v1.NewMessageID(), To: v1.RecipientAgent("a1"), Priority: v1.PriorityNormal}
	if res := f.Send(first); res != Ok {
		t.Fatalf("expected Ok, got %v", res)
	}
	second := v1.AgentMessage{ID: v1.NewMessageID(), To: v1.RecipientAgent("a1"), Priority: v1.PriorityNormal}
	if res := f.Send(second); res != QueueFull {
		t.Errorf("expected QueueFull, got %v", res)
	}
}

func TestCriticalDrainsBeforeLow(t *testing.T) {
	f := NewInProcess(nil, nil)
	f.RegisterAgent("a1", 8)

	low := v1.AgentMessage{ID: v1.NewMessageID(), To: v1.RecipientAgent("a1"), Priority: v1.PriorityLow, Payload: []byte("low")}
	crit := v1.AgentMessage{ID: v1.NewMessageID(), To: v1.RecipientAgent("a1"), Priority: v1.PriorityCritical, Payload: []byte("crit")}
	f.Send(low)
	f.Send(crit)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := f.Receive(ctx, "a1")

	first := <-ch
	if string(first.Payload) != "crit" {
		t.Errorf("expected Critical message to drain first, got %q", first.Payload)
	}
}

func TestAlertBypassesToCritical(t *testing.T) {
	f := NewInProcess(nil, nil)
	f.RegisterAgent("a1", 8)

	normal := v1.AgentMessage{ID: v1.NewMessageID(), To: v1.RecipientAgent("a1"), Priority: v1.PriorityNormal, Payload: []byte("normal")}
	alert := v1.AgentMessage{ID: v1.NewMessageID(), To: v1.RecipientAgent("a1"), Kind: v1.KindAlert, Priority: v1.PriorityLow, Payload: []byte("alert")}
	f.Send(normal)
	f.Send(alert)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := f.Receive(ctx, "a1")

	first := <-ch
	if string(first.Payload) != "alert" {
		t.Errorf("expected Alert to bypass to Critical band, got %q", first.Payload)
	}
}

func TestFIFOWithinSamePriorityBand(t *testing.T) {
	f := NewInProcess(nil, nil)
	f.RegisterAgent("a1", 8)

	for _, p := range []string{"one", "two", "three"} {
		f.Send(v1.AgentMessage{ID: v1.NewMessageID(), To: v1.RecipientAgent("a1"), Priority: v1.PriorityNormal, Payload: []byte(p)})
	}

	ctx, cancel := context.WithCancel(context.Background())
	ch := f.Receive(ctx, "a1")
	order := []string{}
	for i := 0; i < 3; i++ {
		m := <-ch
		order = append(order, string(m.Payload))
	}
	cancel()
	<-ch // allow Receive goroutine to observe cancellation and exit
	for i, want := range []string{"one", "two", "three"} {
		if order[i] != want {
			t.Errorf("FIFO violated: position %d = %q, want %q", i, order[i], want)
		}
	}
}

func TestReceiveCancellationReturnsUndeliveredAsDeliveryCancelled(t *testing.T) {
	f := NewInProcess(nil, nil)
	f.RegisterAgent("sender", 8)
	f.RegisterAgent("receiver", 1)

	msg := v1.AgentMessage{ID: v1.NewMessageID(), From: "sender", To: v1.RecipientAgent("receiver"), Priority: v1.PriorityNormal}
	f.Send(msg)

	ctx, cancel := context.WithCancel(context.Background())
	_ = f.Receive(ctx, "receiver")
	cancel()

	senderCtx, senderCancel := context.WithCancel(context.Background())
	defer senderCancel()
	senderCh := f.Receive(senderCtx, "sender")
	select {
	case control := <-senderCh:
		if control.Kind != v1.KindControl || string(control.Payload) != string(DeliveryCancelled) {
			t.Errorf("expected DeliveryCancelled control message, got %+v", control)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for DeliveryCancelled control message")
	}
}

type fixedResolver struct {
	members []v1.AgentID
}

func (r fixedResolver) MembersOf(tier v1.AgentTier) []v1.AgentID { return r.members }

func TestBroadcastDeliversToEachMember(t *testing.T) {
	f := NewInProcess(fixedResolver{members: []v1.AgentID{"a1", "a2", "a3"}}, nil)
	f.RegisterAgent("a1", 4)
	f.RegisterAgent("a2", 4)
	f.RegisterAgent("a3", 4)

	n := f.Broadcast(v1.TierSpecialist, v1.AgentMessage{ID: v1.NewMessageID(), Kind: v1.KindBroadcast, Priority: v1.PriorityNormal})
	if n != 3 {
		t.Errorf("expected 3 deliveries, got %d", n)
	}
}

package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spec-kit/facility-tickets/internal/domain"
)

func TestInMemoryDispatcherContinuesAfterHandlerError(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	var calls int32
	d.Subscribe(EventTicketAssigned, func(context.Context, Event) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("smtp down")
	})
	d.Subscribe(EventTicketAssigned, func(context.Context, Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	d.Subscribe(EventTicketVerified, func(context.Context, Event) error {
		t.Fatal("handler for another type invoked")
		return nil
	})

	if err := d.Publish(context.Background(), Event{Type: EventTicketAssigned}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("calls = %d, want 2", got)
	}
}

func TestAsyncDispatcherDeliversBeforeClose(t *testing.T) {
	d := NewAsyncDispatcher(nil, 3, 4)
	var delivered int32
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		time.Sleep(time.Millisecond)
		atomic.AddInt32(&delivered, 1)
		return nil
	})

	const n = 20
	for i := 0; i < n; i++ {
		if err := d.Publish(context.Background(), Event{Type: EventTicketCreated}); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}
	if err := d.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := atomic.LoadInt32(&delivered); got != n {
		t.Fatalf("delivered = %d, want %d", got, n)
	}
	if err := d.Publish(context.Background(), Event{Type: EventTicketCreated}); !errors.Is(err, ErrDispatcherClosed) {
		t.Fatalf("publish after close err = %v", err)
	}
}

func TestAsyncDispatcherDetachesCancellation(t *testing.T) {
	d := NewAsyncDispatcher(nil, 1, 1)
	got := make(chan error, 1)
	d.Subscribe(EventTicketCompleted, func(ctx context.Context, _ Event) error {
		got <- ctx.Err()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Publish(ctx, Event{Type: EventTicketCompleted}); err != nil {
		t.Fatal(err)
	}
	cancel()
	_ = d.Close()
	if err := <-got; err != nil {
		t.Fatalf("handler saw cancelled context: %v", err)
	}
}

func TestPayloadAs(t *testing.T) {
	event := Event{Type: EventTicketAssigned, Payload: TicketAssignedPayload{WorkerID: "w1"}}
	p, err := PayloadAs[TicketAssignedPayload](event)
	if err != nil || p.WorkerID != "w1" {
		t.Fatalf("PayloadAs = %+v, %v", p, err)
	}

	event.Payload = &TicketAssignedPayload{WorkerID: "w2"}
	if p, err = PayloadAs[TicketAssignedPayload](event); err != nil || p.WorkerID != "w2" {
		t.Fatalf("PayloadAs pointer = %+v, %v", p, err)
	}

	if _, err := PayloadAs[TicketVerifiedPayload](event); err == nil {
		t.Fatal("expected type mismatch error")
	}
}

func TestWireEventRoundTrip(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	sent := Event{
		ID:        "e1",
		Type:      EventVerificationRequested,
		TicketID:  "t1",
		Actor:     Actor{UserID: "s1", Role: domain.RoleStudent},
		Timestamp: at,
		Payload:   VerificationRequestedPayload{StudentEmail: "s@uni.edu", Code: "048213", ExpiresAt: at.Add(10 * time.Minute)},
	}
	raw, err := json.Marshal(sent)
	if err != nil {
		t.Fatal(err)
	}

	received, err := decodeWireEvent(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if received.Type != sent.Type || received.Actor.Role != domain.RoleStudent || !received.Timestamp.Equal(at) {
		t.Fatalf("received %+v", received)
	}
	p, err := PayloadAs[VerificationRequestedPayload](received)
	if err != nil {
		t.Fatalf("payload: %v", err)
	}
	if p.Code != "048213" || p.StudentEmail != "s@uni.edu" {
		t.Fatalf("payload %+v", p)
	}
}

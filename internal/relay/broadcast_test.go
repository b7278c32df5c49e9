package relay

import (
	"fmt"
	"testing"
)

func drain(ch <-chan string) []string {
	var out []string
	for {
		select {
		case s := <-ch:
			out = append(out, s)
		default:
			return out
		}
	}
}

func TestBroadcast_NoEcho(t *testing.T) {
	r := NewRegistry(8)
	b := NewBroadcaster(r)

	origin, originOut := r.Register()
	_, otherOut := r.Register()

	delivered := b.Broadcast(Event{From: origin, Payload: "hello"})
	if delivered != 1 {
		t.Errorf("expected 1 delivery, got %d", delivered)
	}
	if got := drain(originOut); len(got) != 0 {
		t.Errorf("sender received its own message: %v", got)
	}
	if got := drain(otherOut); len(got) != 1 || got[0] != "hello" {
		t.Errorf("other client got %v", got)
	}
}

func TestBroadcast_FanOutCompleteness(t *testing.T) {
	r := NewRegistry(8)
	b := NewBroadcaster(r)

	origin, _ := r.Register()
	outs := make([]<-chan string, 0, 4)
	for i := 0; i < 4; i++ {
		_, out := r.Register()
		outs = append(outs, out)
	}

	delivered := b.Broadcast(Event{From: origin, Payload: "x"})
	if delivered != 4 {
		t.Errorf("expected N-1=4 deliveries, got %d", delivered)
	}
	for i, out := range outs {
		if got := drain(out); len(got) != 1 {
			t.Errorf("target %d got %d messages, expected 1", i, len(got))
		}
	}
}

func TestBroadcast_PartialFailureIsolation(t *testing.T) {
	// Queue size 1 so a target that never drains fills up after one
	// message and is treated as dead on the next broadcast.
	r := NewRegistry(1)
	b := NewBroadcaster(r)

	origin, _ := r.Register()
	stalled, _ := r.Register()
	_, healthyOut := r.Register()

	if delivered := b.Broadcast(Event{From: origin, Payload: "m1"}); delivered != 2 {
		t.Errorf("expected 2 deliveries on first broadcast, got %d", delivered)
	}
	if got := drain(healthyOut); len(got) != 1 || got[0] != "m1" {
		t.Errorf("healthy target got %v before second broadcast", got)
	}

	// The stalled queue is still full of m1, the healthy one is empty.
	delivered := b.Broadcast(Event{From: origin, Payload: "m2"})

	// m2 still reached the healthy target even though the stalled one
	// failed.
	if delivered != 1 {
		t.Errorf("expected 1 delivery on second broadcast, got %d", delivered)
	}
	if got := drain(healthyOut); len(got) != 1 || got[0] != "m2" {
		t.Errorf("healthy target got %v, expected m2", got)
	}

	// The dead target is gone from subsequent snapshots.
	for _, tgt := range r.Snapshot(origin) {
		if tgt.ID == stalled {
			t.Error("stalled target still present after delivery failure")
		}
	}
	if r.Count() != 2 {
		t.Errorf("expected count 2 after dead-target removal, got %d", r.Count())
	}
}

func TestBroadcast_PerOriginFIFO(t *testing.T) {
	r := NewRegistry(64)
	b := NewBroadcaster(r)

	origin, _ := r.Register()
	_, out := r.Register()

	for i := 0; i < 20; i++ {
		b.Broadcast(Event{From: origin, Payload: fmt.Sprintf("msg %d", i)})
	}

	got := drain(out)
	if len(got) != 20 {
		t.Fatalf("expected 20 messages, got %d", len(got))
	}
	for i, s := range got {
		if want := fmt.Sprintf("msg %d", i); s != want {
			t.Fatalf("order violated at %d: got %q, want %q", i, s, want)
		}
	}
}

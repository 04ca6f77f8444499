package stream

import (
	"context"
	"testing"
	"time"

	"paperdesk.org/internal/audit"
)

func TestPublishReachesSubscribers(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := s.Subscribe(ctx)
	entry, err := audit.NewEntry("user-m", "doc-1", audit.ActionCreated, nil)
	if err != nil {
		t.Fatalf("audit.NewEntry: %v", err)
	}
	s.Publish(entry)

	select {
	case got := <-ch:
		if got.ID != entry.ID {
			t.Fatalf("entry mismatch: %s vs %s", got.ID, entry.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("entry never delivered")
	}
}

func TestCancelClosesChannel(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	ch := s.Subscribe(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel never closed")
	}

	deadline := time.Now().Add(time.Second)
	for s.SubscriberCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never removed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.Subscribe(ctx) // never drained
	entry, err := audit.NewEntry("user-m", "doc-1", audit.ActionUpdated, nil)
	if err != nil {
		t.Fatalf("audit.NewEntry: %v", err)
	}
	// buffer is 16; publishing past it must not deadlock
	for i := 0; i < 64; i++ {
		s.Publish(entry)
	}
}

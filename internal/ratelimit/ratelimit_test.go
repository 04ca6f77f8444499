package ratelimit

import (
	"testing"
	"time"
)

func TestCapacityWithinWindow(t *testing.T) {
	l := NewSlidingWindow(Config{Window: time.Minute, Capacity: 20})
	key := Key{ActorID: "user-1", Class: "search"}
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 20; i++ {
		if !l.Allow(key, start.Add(time.Duration(i)*time.Second)) {
			t.Fatalf("request %d unexpectedly rejected", i+1)
		}
	}
	if l.Allow(key, start.Add(21*time.Second)) {
		t.Fatal("21st request within window must be rejected")
	}
}

func TestWindowSlides(t *testing.T) {
	l := NewSlidingWindow(Config{Window: time.Minute, Capacity: 20})
	key := Key{ActorID: "user-1", Class: "search"}
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 20; i++ {
		l.Allow(key, start)
	}
	if l.Allow(key, start.Add(59*time.Second)) {
		t.Fatal("window still full at 59s")
	}
	if !l.Allow(key, start.Add(61*time.Second)) {
		t.Fatal("request 61s after a full window must succeed")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l := NewSlidingWindow(Config{Window: time.Minute, Capacity: 1})
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if !l.Allow(Key{ActorID: "user-1", Class: "search"}, now) {
		t.Fatal("first request rejected")
	}
	if l.Allow(Key{ActorID: "user-1", Class: "search"}, now) {
		t.Fatal("second request for same key admitted")
	}
	if !l.Allow(Key{ActorID: "user-2", Class: "search"}, now) {
		t.Fatal("different actor must be counted independently")
	}
	if !l.Allow(Key{ActorID: "user-1", Class: "export"}, now) {
		t.Fatal("different class must be counted independently")
	}
}

func TestRejectionsAreNotCounted(t *testing.T) {
	l := NewSlidingWindow(Config{Window: time.Minute, Capacity: 2})
	key := Key{ActorID: "user-1", Class: "search"}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	l.Allow(key, now)
	l.Allow(key, now)
	for i := 0; i < 10; i++ {
		l.Allow(key, now.Add(time.Duration(i)*time.Second))
	}
	if got := l.Len(key); got != 2 {
		t.Fatalf("rejections must not extend the window, live=%d", got)
	}
	if !l.Allow(key, now.Add(61*time.Second)) {
		t.Fatal("caller must recover once admissions age out")
	}
}

func TestLazyPruning(t *testing.T) {
	l := NewSlidingWindow(Config{Window: time.Minute, Capacity: 20})
	key := Key{ActorID: "user-1", Class: "search"}
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 20; i++ {
		l.Allow(key, start)
	}
	l.Allow(key, start.Add(2*time.Minute))
	if got := l.Len(key); got != 1 {
		t.Fatalf("expired admissions must be pruned on access, live=%d", got)
	}
}

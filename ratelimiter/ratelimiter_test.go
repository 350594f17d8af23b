package ratelimiter

import (
	"context"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	tb := New(5, 100*time.Millisecond)
	defer tb.Stop()

	if tb.Size() != 5 {
		t.Errorf("expected bucket size 5, got %d", tb.Size())
	}
	if tb.RefillRate() != 100*time.Millisecond {
		t.Errorf("expected refill rate 100ms, got %v", tb.RefillRate())
	}
	if tb.Available() != 5 {
		t.Errorf("expected 5 available tokens, got %d", tb.Available())
	}
}

func TestNewDefaults(t *testing.T) {
	tb := New(0, 0)
	defer tb.Stop()

	if tb.Size() != DefaultBucketSize {
		t.Errorf("expected default bucket size %d, got %d", DefaultBucketSize, tb.Size())
	}
	if tb.RefillRate() != DefaultRefillRate {
		t.Errorf("expected default refill rate %v, got %v", DefaultRefillRate, tb.RefillRate())
	}
}

func TestPerMinute(t *testing.T) {
	tb := PerMinute(60)
	defer tb.Stop()

	if tb.Size() != 60 || tb.RefillRate() != time.Second {
		t.Errorf("expected 60 tokens refilled every second, got %d every %v", tb.Size(), tb.RefillRate())
	}
}

func TestAllow(t *testing.T) {
	tb := New(3, time.Hour)
	defer tb.Stop()

	for i := 0; i < 3; i++ {
		if !tb.Allow() {
			t.Errorf("expected Allow() to return true for token %d", i+1)
		}
	}
	if tb.Allow() {
		t.Error("expected Allow() to return false when bucket is empty")
	}
}

func TestRefill(t *testing.T) {
	tb := New(2, 50*time.Millisecond)
	defer tb.Stop()

	tb.Allow()
	tb.Allow()

	time.Sleep(70 * time.Millisecond)

	if !tb.Allow() {
		t.Error("expected Allow() to return true after refill")
	}
}

func TestWaitN(t *testing.T) {
	tb := New(4, time.Hour)
	defer tb.Stop()

	if err := tb.WaitN(context.Background(), 3); err != nil {
		t.Fatalf("WaitN failed: %v", err)
	}
	if tb.Available() != 1 {
		t.Errorf("expected 1 token left, got %d", tb.Available())
	}
}

func TestWaitNCapsAtBucketSize(t *testing.T) {
	tb := New(2, time.Hour)
	defer tb.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := tb.WaitN(ctx, 1000); err != nil {
		t.Fatalf("oversized WaitN should drain the bucket instead of blocking: %v", err)
	}
}

func TestWaitTimeout(t *testing.T) {
	tb := New(1, time.Hour)
	defer tb.Stop()

	tb.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if err := tb.Wait(ctx); err != context.DeadlineExceeded {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestStop(t *testing.T) {
	tb := New(5, time.Hour)

	if !tb.Allow() {
		t.Error("expected Allow() to return true before stop")
	}

	tb.Stop()
	tb.Stop()

	if tb.Allow() {
		t.Error("expected Allow() to return false after stop")
	}
	if err := tb.Wait(context.Background()); err != ErrStopped {
		t.Errorf("expected ErrStopped, got %v", err)
	}
}

func TestConcurrentWait(t *testing.T) {
	tb := New(10, 10*time.Millisecond)
	defer tb.Stop()

	const workers = 20
	results := make(chan bool, workers)

	for i := 0; i < workers; i++ {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
			defer cancel()
			results <- tb.Wait(ctx) == nil
		}()
	}

	ok := 0
	for i := 0; i < workers; i++ {
		if <-results {
			ok++
		}
	}
	if ok < 10 {
		t.Errorf("expected at least 10 successful waits, got %d", ok)
	}
}

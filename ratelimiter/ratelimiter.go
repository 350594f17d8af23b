// Package ratelimiter provides a channel based token bucket used to keep
// generation calls under the provider's per-minute quotas.
package ratelimiter

import (
	"context"
	"errors"
	"sync"
	"time"
)

const (
	DefaultBucketSize = 10
	DefaultRefillRate = time.Second
)

// ErrStopped is returned by Wait and WaitN once the bucket has been stopped.
var ErrStopped = errors.New("rate limiter stopped")

// TokenBucket holds up to size tokens and adds one back every refill interval.
type TokenBucket struct {
	size    int
	refill  time.Duration
	tokens  chan struct{}
	ticker  *time.Ticker
	done    chan struct{}
	mu      sync.RWMutex
	stopped bool
}

// New returns a full bucket. Non-positive arguments fall back to the defaults.
func New(size int, refill time.Duration) *TokenBucket {
	if size <= 0 {
		size = DefaultBucketSize
	}
	if refill <= 0 {
		refill = DefaultRefillRate
	}

	tb := &TokenBucket{
		size:   size,
		refill: refill,
		tokens: make(chan struct{}, size),
		ticker: time.NewTicker(refill),
		done:   make(chan struct{}),
	}
	for i := 0; i < size; i++ {
		tb.tokens <- struct{}{}
	}

	go tb.run()
	return tb
}

// PerMinute returns a bucket sized for limit operations per minute.
func PerMinute(limit int) *TokenBucket {
	if limit <= 0 {
		return New(0, 0)
	}
	return New(limit, time.Minute/time.Duration(limit))
}

func (tb *TokenBucket) run() {
	for {
		select {
		case <-tb.ticker.C:
			select {
			case tb.tokens <- struct{}{}:
			default:
			}
		case <-tb.done:
			return
		}
	}
}

func (tb *TokenBucket) isStopped() bool {
	tb.mu.RLock()
	defer tb.mu.RUnlock()
	return tb.stopped
}

// Allow takes a token if one is available without blocking.
func (tb *TokenBucket) Allow() bool {
	if tb.isStopped() {
		return false
	}
	select {
	case <-tb.tokens:
		return true
	default:
		return false
	}
}

// Wait blocks until a token is available or ctx is done.
func (tb *TokenBucket) Wait(ctx context.Context) error {
	return tb.WaitN(ctx, 1)
}

// WaitN blocks until n tokens have been taken. Requests larger than the
// bucket are capped at its size so they cannot block forever.
func (tb *TokenBucket) WaitN(ctx context.Context, n int) error {
	if tb.isStopped() {
		return ErrStopped
	}
	if n > tb.size {
		n = tb.size
	}
	for i := 0; i < n; i++ {
		select {
		case <-tb.tokens:
		case <-tb.done:
			return ErrStopped
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Stop releases the refill goroutine. It is safe to call more than once.
func (tb *TokenBucket) Stop() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if tb.stopped {
		return
	}
	tb.stopped = true
	tb.ticker.Stop()
	close(tb.done)
}

// Available returns the number of tokens currently in the bucket.
func (tb *TokenBucket) Available() int {
	return len(tb.tokens)
}

func (tb *TokenBucket) Size() int {
	return tb.size
}

func (tb *TokenBucket) RefillRate() time.Duration {
	return tb.refill
}

// Package ratelimit limits how often each client may use model-backed
// intent parsing. A refused request is not an error: callers answer it with
// the rule parser instead.
package ratelimit

import (
	"sync"
	"time"
)

// Clock returns the current time. Tests substitute a fake.
type Clock func() time.Time

// Bucket is a token bucket. It is safe for concurrent use.
//
// Tokens refill continuously at perSecond up to capacity; each allowed
// request takes one.
type Bucket struct {
	mu        sync.Mutex
	tokens    float64
	capacity  float64
	perSecond float64
	last      time.Time
	now       Clock
}

// NewBucket returns a full bucket. A nil clock uses time.Now.
func NewBucket(capacity, perSecond float64, now Clock) *Bucket {
	if now == nil {
		now = time.Now
	}
	return &Bucket{
		tokens:    capacity,
		capacity:  capacity,
		perSecond: perSecond,
		last:      now(),
		now:       now,
	}
}

// refillLocked must be called with mu held.
func (b *Bucket) refillLocked() {
	t := b.now()
	if elapsed := t.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens = min(b.capacity, b.tokens+elapsed*b.perSecond)
	}
	b.last = t
}

// Take consumes one token if available.
func (b *Bucket) Take() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillLocked()
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Tokens returns the tokens currently available.
func (b *Bucket) Tokens() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillLocked()
	return b.tokens
}

// Full reports whether the bucket has refilled to capacity, i.e. the
// client has been idle long enough to forget.
func (b *Bucket) Full() bool {
	return b.Tokens() >= b.capacity
}

// RetryAfter returns how long until the next token, or 0 if one is ready.
func (b *Bucket) RetryAfter() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillLocked()
	if b.tokens >= 1 || b.perSecond <= 0 {
		return 0
	}
	return time.Duration((1 - b.tokens) / b.perSecond * float64(time.Second))
}

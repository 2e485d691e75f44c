package ratelimit

import (
	"sync"
	"time"
)

// Recorder receives limiter observations.
type Recorder interface {
	RecordRateLimiterDrop(limiterType string)
	SetRateLimiterActive(limiterType string, n int)
}

// KeyedConfig configures a KeyedLimiter instance.
type KeyedConfig struct {
	// Name identifies this limiter for metrics (e.g., "llm")
	Name string

	// Burst is the bucket capacity per key. Burst <= 0 disables limiting.
	Burst float64
	// RefillPerHour is tokens restored per key per hour.
	RefillPerHour float64

	// CleanupPeriod is how often idle keys are dropped; 0 disables the sweeper.
	CleanupPeriod time.Duration

	Metrics Recorder
	Clock   Clock
}

// KeyedLimiter keeps one token bucket per client key and periodically
// forgets clients whose bucket has refilled.
type KeyedLimiter struct {
	cfg KeyedConfig

	mu      sync.Mutex
	buckets map[string]*Bucket

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewKeyedLimiter creates a per-key limiter. Call Stop to end the sweeper.
func NewKeyedLimiter(cfg KeyedConfig) *KeyedLimiter {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	kl := &KeyedLimiter{
		cfg:     cfg,
		buckets: make(map[string]*Bucket),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	if cfg.CleanupPeriod > 0 {
		go kl.sweepLoop()
	} else {
		close(kl.done)
	}
	return kl
}

// Enabled reports whether the limiter refuses anything at all.
func (kl *KeyedLimiter) Enabled() bool {
	return kl != nil && kl.cfg.Burst > 0
}

// Allow takes a token for key. An empty key is never limited. The lookup
// and the take happen under one lock so Sweep cannot drop the bucket in
// between.
func (kl *KeyedLimiter) Allow(key string) bool {
	if !kl.Enabled() || key == "" {
		return true
	}
	kl.mu.Lock()
	ok := kl.bucketLocked(key).Take()
	kl.mu.Unlock()
	if ok {
		return true
	}
	if kl.cfg.Metrics != nil {
		kl.cfg.Metrics.RecordRateLimiterDrop(kl.cfg.Name)
	}
	return false
}

// Available returns the tokens left for key; unknown keys have a full bucket.
func (kl *KeyedLimiter) Available(key string) float64 {
	kl.mu.Lock()
	b, ok := kl.buckets[key]
	kl.mu.Unlock()
	if !ok {
		return kl.cfg.Burst
	}
	return b.Tokens()
}

// Active returns the number of tracked keys.
func (kl *KeyedLimiter) Active() int {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	return len(kl.buckets)
}

func (kl *KeyedLimiter) bucketLocked(key string) *Bucket {
	b, ok := kl.buckets[key]
	if !ok {
		b = NewBucket(kl.cfg.Burst, kl.cfg.RefillPerHour/3600, kl.cfg.Clock)
		kl.buckets[key] = b
	}
	return b
}

// Sweep drops keys whose bucket is full and returns how many remain.
func (kl *KeyedLimiter) Sweep() int {
	kl.mu.Lock()
	for key, b := range kl.buckets {
		if b.Full() {
			delete(kl.buckets, key)
		}
	}
	remaining := len(kl.buckets)
	kl.mu.Unlock()

	if kl.cfg.Metrics != nil {
		kl.cfg.Metrics.SetRateLimiterActive(kl.cfg.Name, remaining)
	}
	return remaining
}

func (kl *KeyedLimiter) sweepLoop() {
	defer close(kl.done)
	ticker := time.NewTicker(kl.cfg.CleanupPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-kl.stop:
			return
		case <-ticker.C:
			kl.Sweep()
		}
	}
}

// Stop ends the sweeper and waits for it. Safe to call multiple times.
func (kl *KeyedLimiter) Stop() {
	if kl == nil {
		return
	}
	kl.stopOnce.Do(func() { close(kl.stop) })
	<-kl.done
}

package service

import (
	"sync"
	"time"
)

// TokenBucket is an in-memory per-key rate limiter. Buckets idle for longer than
// the stale window are dropped by a background sweep until Close is called.
type TokenBucket struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	rate     float64
	capacity float64
	now      func() time.Time
	stop     chan struct{}
	once     sync.Once
}

type bucket struct {
	tokens float64
	last   time.Time
}

const (
	bucketSweepInterval = 5 * time.Minute
	bucketStaleAfter    = 10 * time.Minute
)

// NewTokenBucket allows bursts of capacity per key, refilling at rate tokens per
// second.
func NewTokenBucket(rate, capacity float64) *TokenBucket {
	tb := &TokenBucket{
		buckets:  make(map[string]*bucket),
		rate:     rate,
		capacity: capacity,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go tb.sweep()
	return tb
}

// NewPerMinuteLimiter allows perMinute calls per key per minute, all of which may
// be spent at once. A non-positive perMinute disables limiting.
func NewPerMinuteLimiter(perMinute int) *TokenBucket {
	if perMinute <= 0 {
		return nil
	}
	return NewTokenBucket(float64(perMinute)/60, float64(perMinute))
}

// Allow consumes one token for key. A nil bucket allows everything.
func (tb *TokenBucket) Allow(key string) bool {
	if tb == nil {
		return true
	}
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	b, ok := tb.buckets[key]
	if !ok {
		b = &bucket{tokens: tb.capacity, last: now}
		tb.buckets[key] = b
	}

	elapsed := now.Sub(b.last).Seconds()
	b.tokens = min(b.tokens+elapsed*tb.rate, tb.capacity)
	b.last = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

func (tb *TokenBucket) Close() {
	if tb == nil {
		return
	}
	tb.once.Do(func() { close(tb.stop) })
}

func (tb *TokenBucket) sweep() {
	ticker := time.NewTicker(bucketSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-tb.stop:
			return
		case <-ticker.C:
			tb.removeStale()
		}
	}
}

func (tb *TokenBucket) removeStale() {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	cutoff := tb.now().Add(-bucketStaleAfter)
	for key, b := range tb.buckets {
		if b.last.Before(cutoff) {
			delete(tb.buckets, key)
		}
	}
}

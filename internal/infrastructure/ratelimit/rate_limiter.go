package ratelimit

import (
	"sync"
	"time"
)

// bucket is a token bucket refilled lazily on access.
type bucket struct {
	mu         sync.Mutex
	tokens     int
	maxTokens  int
	refillRate int
	refillTime time.Duration
	lastRefill time.Time
}

func newBucket(maxTokens, refillRate int, refillTime time.Duration) *bucket {
	return &bucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		refillTime: refillTime,
		lastRefill: time.Now(),
	}
}

func (b *bucket) allow() (bool, time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(b.lastRefill)
	if add := int(elapsed/b.refillTime) * b.refillRate; add > 0 {
		b.tokens += add
		if b.tokens > b.maxTokens {
			b.tokens = b.maxTokens
		}
		b.lastRefill = now
	}

	if b.tokens > 0 {
		b.tokens--
		return true, 0
	}
	return false, b.lastRefill.Add(b.refillTime).Sub(now)
}

// idleSince reads lastRefill under the bucket lock; allow writes it there.
func (b *bucket) idleSince() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastRefill
}

// RateLimiter throttles per-user actions on the chat and negotiation
// surfaces. Buckets are created on first use with per-action tiers and
// reaped after an hour of inactivity.
type RateLimiter struct {
	mu      sync.RWMutex
	buckets map[string]*bucket
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{buckets: make(map[string]*bucket)}
}

// Allow reports whether userID may perform action now. When throttled it
// returns how long to wait for the next token.
func (rl *RateLimiter) Allow(userID, action string) (bool, time.Duration) {
	key := userID + ":" + action

	rl.mu.RLock()
	b, ok := rl.buckets[key]
	rl.mu.RUnlock()

	if !ok {
		rl.mu.Lock()
		if b, ok = rl.buckets[key]; !ok {
			b = bucketFor(action)
			rl.buckets[key] = b
		}
		rl.mu.Unlock()
	}

	return b.allow()
}

func bucketFor(action string) *bucket {
	switch action {
	case "send_message":
		// 10 messages per minute
		return newBucket(10, 1, 6*time.Second)
	case "create_chat":
		// 5 new rooms per hour
		return newBucket(5, 1, 12*time.Minute)
	case "create_offer":
		// 6 offers per hour; negotiation is deliberate, not chatty
		return newBucket(6, 1, 10*time.Minute)
	case "typing":
		return newBucket(30, 1, 2*time.Second)
	default:
		return newBucket(20, 1, 3*time.Second)
	}
}

// Cleanup drops buckets idle for over an hour.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for key, b := range rl.buckets {
		if now.Sub(b.idleSince()) > time.Hour {
			delete(rl.buckets, key)
		}
	}
}

// StartCleanupRoutine reaps idle buckets every 30 minutes for the lifetime of
// the process.
func (rl *RateLimiter) StartCleanupRoutine() {
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			rl.Cleanup()
		}
	}()
}

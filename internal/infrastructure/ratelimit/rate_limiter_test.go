package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowExhaustsBucketAndReportsWait(t *testing.T) {
	rl := NewRateLimiter()

	for i := 0; i < 6; i++ {
		allowed, _ := rl.Allow("buyer-1", "create_offer")
		assert.True(t, allowed, "offer %d", i)
	}

	allowed, wait := rl.Allow("buyer-1", "create_offer")
	assert.False(t, allowed)
	assert.Greater(t, wait, time.Duration(0))

	// A different user is unaffected.
	allowed, _ = rl.Allow("buyer-2", "create_offer")
	assert.True(t, allowed)
}

func TestCleanupConcurrentWithTraffic(t *testing.T) {
	rl := NewRateLimiter()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				rl.Allow(fmt.Sprintf("user-%d", i), "send_message")
			}
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 200; j++ {
			rl.Cleanup()
		}
	}()
	wg.Wait()

	// Fresh buckets are never idle long enough to reap.
	allowed, _ := rl.Allow("user-0", "create_chat")
	assert.True(t, allowed)
}

package resilient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_UnlimitedByDefault(t *testing.T) {
	r := NewRateLimiter(RateLimitConfig{})
	for i := 0; i < 100; i++ {
		assert.True(t, r.Allow())
	}
}

func TestRateLimiter_Burst(t *testing.T) {
	r := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2})
	assert.True(t, r.Allow())
	assert.True(t, r.Allow())
	assert.False(t, r.Allow(), "burst exhausted")
}

func TestRateLimiter_RecordRateLimit(t *testing.T) {
	r := NewRateLimiter(RateLimitConfig{})
	r.RecordRateLimit(time.Hour)
	assert.False(t, r.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Wait(ctx), context.DeadlineExceeded)
}

func TestRateLimiter_RecordRateLimitKeepsLongestPause(t *testing.T) {
	r := NewRateLimiter(RateLimitConfig{})
	r.RecordRateLimit(time.Hour)
	r.RecordRateLimit(time.Millisecond)
	assert.False(t, r.Allow())
}

func TestRateLimiter_WaitAfterShortBackoff(t *testing.T) {
	r := NewRateLimiter(RateLimitConfig{})
	r.RecordRateLimit(5 * time.Millisecond)

	start := time.Now()
	assert.NoError(t, r.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 4*time.Millisecond)
}

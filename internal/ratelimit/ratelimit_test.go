package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyedRateLimiterBurstPerKey(t *testing.T) {
	krl := New(1, 2)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	krl.now = func() time.Time { return now }

	assert.True(t, krl.Allow("10.0.0.1"))
	assert.True(t, krl.Allow("10.0.0.1"))
	assert.False(t, krl.Allow("10.0.0.1"), "burst exhausted")
	assert.True(t, krl.Allow("10.0.0.2"), "other keys are independent")

	now = now.Add(1500 * time.Millisecond)
	assert.True(t, krl.Allow("10.0.0.1"), "token refilled")
}

func TestKeyedRateLimiterSweep(t *testing.T) {
	krl := PerMinute(5)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	krl.now = func() time.Time { return now }

	krl.Allow("a")
	now = now.Add(5 * time.Minute)
	krl.Allow("b")
	now = now.Add(6 * time.Minute)

	assert.Equal(t, 1, krl.Sweep())
	assert.Equal(t, 1, krl.Len())
}

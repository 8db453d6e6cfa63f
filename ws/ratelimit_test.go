package ws

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := newRateLimiter(3)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, rl.allow("u", now))
	assert.True(t, rl.allow("u", now.Add(time.Second)))
	assert.True(t, rl.allow("u", now.Add(2*time.Second)))
	assert.False(t, rl.allow("u", now.Add(3*time.Second)))

	// Rejected attempts are not recorded against the window.
	assert.False(t, rl.allow("u", now.Add(4*time.Second)))
	assert.Len(t, rl.windows["u"], 3)
}

func TestRateLimiterSlidingWindow(t *testing.T) {
	rl := newRateLimiter(2)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, rl.allow("u", now))
	assert.True(t, rl.allow("u", now.Add(30*time.Second)))
	assert.False(t, rl.allow("u", now.Add(45*time.Second)))

	// Once the first entry ages past 60s, capacity frees up.
	assert.True(t, rl.allow("u", now.Add(61*time.Second)))
}

func TestRateLimiterIsolatesUsers(t *testing.T) {
	rl := newRateLimiter(1)
	now := time.Now()

	assert.True(t, rl.allow("a", now))
	assert.False(t, rl.allow("a", now))
	assert.True(t, rl.allow("b", now))
}

func TestRateLimiterPrune(t *testing.T) {
	rl := newRateLimiter(5)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	rl.allow("stale", now)
	rl.allow("fresh", now.Add(90*time.Second))

	rl.prune(now.Add(2 * time.Minute))

	assert.NotContains(t, rl.windows, "stale")
	assert.Contains(t, rl.windows, "fresh")
}

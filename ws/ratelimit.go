package ws

import "time"

const rateWindow = 60 * time.Second

// rateLimiter tracks a sliding window of message timestamps per user.
// It carries no mutex of its own: all access happens under the registry
// mutex so the check stays atomic with the rest of message handling.
type rateLimiter struct {
	limit   int
	windows map[string][]time.Time
}

func newRateLimiter(limit int) *rateLimiter {
	return &rateLimiter{
		limit:   limit,
		windows: make(map[string][]time.Time),
	}
}

// allow prunes entries older than the window, then admits the message if
// the user is still under the limit. Admitted messages are recorded.
func (rl *rateLimiter) allow(userID string, now time.Time) bool {
	cutoff := now.Add(-rateWindow)
	window := rl.windows[userID]

	kept := window[:0]
	for _, ts := range window {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= rl.limit {
		rl.windows[userID] = kept
		return false
	}

	rl.windows[userID] = append(kept, now)
	return true
}

// prune drops windows with no entries inside the trailing window. Called
// from the idle sweep so abandoned users do not leak window slices.
func (rl *rateLimiter) prune(now time.Time) {
	cutoff := now.Add(-rateWindow)
	for userID, window := range rl.windows {
		live := false
		for _, ts := range window {
			if ts.After(cutoff) {
				live = true
				break
			}
		}
		if !live {
			delete(rl.windows, userID)
		}
	}
}

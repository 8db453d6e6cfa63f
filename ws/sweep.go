package ws

import (
	"context"
	"time"
)

// RunSweeper periodically evicts idle connections until ctx is cancelled.
// Run it as a background goroutine next to the HTTP server.
func (r *Registry) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := r.sweepOnce(r.now()); evicted > 0 {
				r.logger.Info("idle sweep evicted %d stale connections", evicted)
			}
		}
	}
}

// sweepOnce disconnects every connection idle beyond the threshold. It
// works off a snapshot of ids, so connections that disappear between the
// scan and the disconnect are simply no-ops.
func (r *Registry) sweepOnce(now time.Time) int {
	cutoff := now.UTC().Add(-r.cfg.IdleTimeout)

	r.mu.Lock()
	var stale []string
	for id, conn := range r.connections {
		if conn.lastActivity.Before(cutoff) {
			stale = append(stale, id)
		}
	}
	r.limiter.prune(now)
	r.mu.Unlock()

	for _, id := range stale {
		r.Disconnect(id, "stale")
		metricStaleEvictions.Inc()
	}
	return len(stale)
}

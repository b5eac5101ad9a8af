package conn

import (
	"context"
	"log/slog"
	"math/rand"
	"time"
)

// Backoff shape grounded on the teacher's internal/streams.Supervisor:
// a doubling delay capped at a ceiling, with uniform jitter so that a
// fleet of clients reconnecting to the same AVR after a shared outage
// does not all retry in lockstep.
const (
	reconnectBaseDelay = 1 * time.Second
	reconnectMaxDelay  = 30 * time.Second
)

// scheduleReconnect starts the reconnect task if one is not already
// running. It is called from Disconnect(reconnect=true) and is a
// no-op if a reconnect task is already in flight.
func (e *Engine) scheduleReconnect() {
	e.mu.Lock()
	if e.cancelReconnect != nil {
		e.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.cancelReconnect = cancel
	e.state = Reconnecting
	e.mu.Unlock()

	go e.reconnectLoop(ctx)
}

// reconnectLoop retries Connect with exponential backoff until it
// succeeds or ctx is cancelled (by Disconnect/Shutdown, or by a
// concurrent successful Connect). On success it runs the on_reconnect
// hook, matching spec.md §4.F's "dedicated reconnect task, looping
// until cancelled or connected".
func (e *Engine) reconnectLoop(ctx context.Context) {
	attempt := 0
	for {
		delay := backoffDelay(attempt)
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		attempt++

		if err := e.Connect(ctx, true); err != nil {
			slog.Debug("conn: reconnect attempt failed", "attempt", attempt, "err", err)
			continue
		}

		e.mu.Lock()
		e.cancelReconnect = nil
		e.mu.Unlock()

		slog.Info("conn: reconnected", "attempts", attempt)
		if e.onReconnect != nil {
			e.onReconnect()
		}
		return
	}
}

// backoffDelay doubles reconnectBaseDelay per attempt, capped at
// reconnectMaxDelay, then jitters uniformly over the upper half of the
// resulting window: the delay falls in [d/2, d).
func backoffDelay(attempt int) time.Duration {
	shift := min(attempt, 8)
	d := reconnectBaseDelay * time.Duration(uint64(1)<<uint(shift))
	if d > reconnectMaxDelay {
		d = reconnectMaxDelay
	}
	half := d / 2
	jitter := time.Duration(0)
	if half > 0 {
		jitter = time.Duration(rand.Int63n(int64(half)))
	}
	return half + jitter
}

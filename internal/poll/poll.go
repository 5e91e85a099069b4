// Package poll is the recurring-fetch primitive behind the activity log and
// notification feeds.
package poll

import (
	"context"
	"time"
)

// Handle controls one recurring fetch loop.
type Handle struct {
	runNow chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

// Start calls fetch once synchronously, then launches a loop invoking it on
// every interval tick until the handle is stopped or ctx is canceled. The
// first fetch has completed by the time Start returns; subsequent calls each
// run in their own goroutine, so a slow fetch never blocks the next tick and
// invocations may overlap — fetch must be idempotent-safe.
func Start(ctx context.Context, interval time.Duration, fetch func(context.Context)) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{
		runNow: make(chan struct{}, 1),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	fetch(ctx)
	go h.loop(ctx, interval, fetch)
	return h
}

// RunNow requests one out-of-band invocation without disturbing the regular
// cadence. Requests arriving while one is already pending coalesce.
func (h *Handle) RunNow() {
	select {
	case h.runNow <- struct{}{}:
	default:
	}
}

// Stop cancels the loop. No fetch is started after Stop returns; a fetch
// already in flight keeps the canceled context, so its result is discarded
// by the caller rather than applied.
func (h *Handle) Stop() {
	h.cancel()
	<-h.done
}

func (h *Handle) loop(ctx context.Context, interval time.Duration, fetch func(context.Context)) {
	defer close(h.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			go fetch(ctx)
		case <-h.runNow:
			go fetch(ctx)
		}
	}
}

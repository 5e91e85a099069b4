package store

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// TransientController implements momentary actions: active immediately on
// trigger, auto-reverted after a fixed window regardless of any server
// round trip.
type TransientController struct {
	mu     sync.Mutex
	store  *ActionStore
	window time.Duration
	logger *zap.Logger
	timers map[string]*time.Timer
	seqs   map[string]uint64
	seq    uint64
	closed bool
}

// NewTransientController builds a controller over the given store. window is
// how long a triggered action stays active before reverting.
func NewTransientController(s *ActionStore, window time.Duration, logger *zap.Logger) *TransientController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransientController{
		store:  s,
		window: window,
		logger: logger,
		timers: make(map[string]*time.Timer),
		seqs:   make(map[string]uint64),
	}
}

// Trigger activates the action now, then schedules the revert. The action
// is active before the timer exists, so even an immediately-expiring window
// reverts an activation rather than racing it. A second trigger before
// expiry cancels and replaces the pending timer, so the revert is always
// timed from the latest trigger and at most one revert is pending per id.
// Unknown ids are a no-op.
func (c *TransientController) Trigger(id string) {
	if _, ok := c.store.Get(id); !ok {
		c.logger.Debug("trigger on unknown action", zap.String("action_id", id))
		return
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if t, ok := c.timers[id]; ok {
		t.Stop()
	}
	c.seq++
	seq := c.seq
	c.seqs[id] = seq
	c.mu.Unlock()

	c.store.SetActive(id, true)

	c.mu.Lock()
	// A concurrent newer trigger or Close owns the id now; its timer (or
	// absence of one) stands and this one is never scheduled.
	if !c.closed && c.seqs[id] == seq {
		c.timers[id] = time.AfterFunc(c.window, func() { c.expire(id, seq) })
	}
	c.mu.Unlock()
}

// expire reverts the action unless the timer was replaced or the controller
// closed while the callback was in flight.
func (c *TransientController) expire(id string, seq uint64) {
	c.mu.Lock()
	if c.closed || c.seqs[id] != seq {
		c.mu.Unlock()
		return
	}
	delete(c.timers, id)
	delete(c.seqs, id)
	c.mu.Unlock()
	c.store.SetActive(id, false)
}

// Close cancels every pending revert. Timer callbacks racing with Close are
// discarded rather than applied.
func (c *TransientController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for _, t := range c.timers {
		t.Stop()
	}
	c.timers = make(map[string]*time.Timer)
	c.seqs = make(map[string]uint64)
}

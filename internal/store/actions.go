// Package store holds the client-side state containers: the action list and
// the notification inbox. Each list is single-owner; everything else reads
// and mutates it through the store's methods.
package store

import (
	"sync"

	"go.uber.org/zap"

	"homesync/internal/domain"
)

// Listener observes action mutations. It is invoked synchronously after
// every mutation with a snapshot of the full current list; consumers diff
// if they need deltas.
type Listener func(actions []domain.Action)

// ActionStore is the in-memory state of the dashboard controls, in registry
// order.
type ActionStore struct {
	mu        sync.Mutex
	actions   []domain.Action
	index     map[string]int
	listeners []Listener
	logger    *zap.Logger
}

// NewActionStore seeds a store from the registry catalog.
func NewActionStore(actions []domain.Action, logger *zap.Logger) *ActionStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ActionStore{
		actions: make([]domain.Action, len(actions)),
		index:   make(map[string]int, len(actions)),
		logger:  logger,
	}
	copy(s.actions, actions)
	for i, a := range actions {
		s.index[a.ID] = i
	}
	return s
}

// All returns a snapshot of every action in registry order.
func (s *ActionStore) All() []domain.Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Get returns one action by id.
func (s *ActionStore) Get(id string) (domain.Action, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return domain.Action{}, false
	}
	return s.actions[i], true
}

// Toggle flips the active flag and returns the new value. Unknown ids are a
// no-op reported by the second return; late server data may reference slots
// the registry no longer has, and that must never throw.
func (s *ActionStore) Toggle(id string) (bool, bool) {
	s.mu.Lock()
	i, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		s.logger.Debug("toggle on unknown action", zap.String("action_id", id))
		return false, false
	}
	s.actions[i].Active = !s.actions[i].Active
	active := s.actions[i].Active
	snap := s.snapshot()
	s.mu.Unlock()
	s.notify(snap)
	return active, true
}

// SetActive sets the active flag, optionally replacing the display subtitle
// in the same mutation. Unknown ids are a no-op.
func (s *ActionStore) SetActive(id string, active bool, subtitle ...string) {
	s.mu.Lock()
	i, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		s.logger.Debug("set-active on unknown action", zap.String("action_id", id))
		return
	}
	s.actions[i].Active = active
	if len(subtitle) > 0 {
		s.actions[i].Subtitle = subtitle[0]
	}
	snap := s.snapshot()
	s.mu.Unlock()
	s.notify(snap)
}

// OnChange registers a mutation listener.
func (s *ActionStore) OnChange(fn Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *ActionStore) snapshot() []domain.Action {
	snap := make([]domain.Action, len(s.actions))
	copy(snap, s.actions)
	return snap
}

// notify runs outside the lock so listeners may call back into the store.
func (s *ActionStore) notify(snap []domain.Action) {
	s.mu.Lock()
	ls := make([]Listener, len(s.listeners))
	copy(ls, s.listeners)
	s.mu.Unlock()
	for _, fn := range ls {
		fn(snap)
	}
}

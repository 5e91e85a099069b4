package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"homesync/internal/domain"
	"homesync/internal/registry"
)

func TestToggleTwiceRestoresState(t *testing.T) {
	s := NewActionStore(registry.Default(), nil)
	var notified int
	s.OnChange(func([]domain.Action) { notified++ })

	active, ok := s.Toggle("light")
	require.True(t, ok)
	require.True(t, active)

	active, ok = s.Toggle("light")
	require.True(t, ok)
	require.False(t, active)

	got, _ := s.Get("light")
	require.False(t, got.Active)
	require.Equal(t, 2, notified, "each mutation notifies once")
}

func TestToggleUnknownIDIsNoOp(t *testing.T) {
	s := NewActionStore(registry.Default(), nil)
	var notified int
	s.OnChange(func([]domain.Action) { notified++ })

	_, ok := s.Toggle("fridge")
	require.False(t, ok)
	require.Zero(t, notified)
	for _, a := range s.All() {
		require.False(t, a.Active)
	}
}

func TestSetActiveReplacesSubtitle(t *testing.T) {
	s := NewActionStore(registry.Default(), nil)
	s.SetActive("ac", true, "26°C · 制冷")
	got, ok := s.Get("ac")
	require.True(t, ok)
	require.True(t, got.Active)
	require.Equal(t, "26°C · 制冷", got.Subtitle)

	// Without a subtitle argument the existing one is kept.
	s.SetActive("ac", false)
	got, _ = s.Get("ac")
	require.False(t, got.Active)
	require.Equal(t, "26°C · 制冷", got.Subtitle)
}

func TestAllReturnsIsolatedSnapshot(t *testing.T) {
	s := NewActionStore(registry.Default(), nil)
	snap := s.All()
	snap[0].Active = true
	require.False(t, s.All()[0].Active)
}

func TestListenerSeesFullSnapshot(t *testing.T) {
	s := NewActionStore(registry.Default(), nil)
	var last []domain.Action
	s.OnChange(func(actions []domain.Action) { last = actions })
	s.Toggle("door")
	require.Len(t, last, 6)
	for _, a := range last {
		if a.ID == "door" {
			require.True(t, a.Active)
		}
	}
}

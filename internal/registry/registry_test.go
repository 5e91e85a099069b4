package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"homesync/internal/domain"
)

func TestDefaultCatalog(t *testing.T) {
	actions := Default()
	require.Len(t, actions, 6)
	for _, a := range actions {
		require.False(t, a.Active, "catalog actions start inactive: %s", a.ID)
		require.NotEmpty(t, a.Name)
	}
	byID := map[string]domain.Action{}
	for _, a := range actions {
		byID[a.ID] = a
	}
	require.True(t, byID["water"].Type.Momentary())
	require.True(t, byID["faucet"].Type.Momentary())
	require.False(t, byID["light"].Type.Momentary())
	require.False(t, byID["heater"].Type.Momentary())
}

func TestDefaultReturnsFreshSlice(t *testing.T) {
	a := Default()
	a[0].Active = true
	require.False(t, Default()[0].Active)
}

func TestTemperature(t *testing.T) {
	cases := []struct {
		subtitle string
		want     int
		ok       bool
	}{
		{"24°C · 自动", 24, true},
		{"恒温 45°C", 45, true},
		{"暖白光 · 80%", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := Temperature(tc.subtitle)
		require.Equal(t, tc.ok, ok, tc.subtitle)
		require.Equal(t, tc.want, got, tc.subtitle)
	}
}

func TestAmount(t *testing.T) {
	cases := []struct {
		subtitle string
		want     int
		ok       bool
	}{
		{"2200ml / 3000ml", 2200, true},
		{"500ml", 500, true},
		{"水质优", 0, false},
	}
	for _, tc := range cases {
		got, ok := Amount(tc.subtitle)
		require.Equal(t, tc.ok, ok, tc.subtitle)
		require.Equal(t, tc.want, got, tc.subtitle)
	}
}

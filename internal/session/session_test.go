package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"homesync/internal/config"
	"homesync/internal/domain"
)

type fakeService struct {
	mu       sync.Mutex
	reports  []domain.BehaviorRecord
	activity []domain.ActivityLogEntry
	notifs   []domain.Notification
	polls    int
}

func (f *fakeService) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/users/101", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(domain.User{ID: 101, Username: "chenxiaoming", FullName: "陈小明", IsActive: true})
	})
	mux.HandleFunc("/api/v1/behavior/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if r.Method == http.MethodPost {
			var rec domain.BehaviorRecord
			json.NewDecoder(r.Body).Decode(&rec)
			f.reports = append(f.reports, rec)
			f.activity = append([]domain.ActivityLogEntry{{
				ID:         int64(len(f.activity) + 1),
				UserID:     rec.UserID,
				DeviceID:   rec.DeviceID,
				ActionType: rec.ActionType,
				RawContent: rec.RawContent,
			}}, f.activity...)
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":1,"status":"recorded"}`))
			return
		}
		f.polls++
		json.NewEncoder(w).Encode(f.activity)
	})
	mux.HandleFunc("/api/v1/notifications/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		json.NewEncoder(w).Encode(f.notifs)
	})
	return mux
}

func testConfig(baseURL string) *config.Config {
	cfg := config.Default()
	cfg.Server.BaseURL = baseURL
	cfg.Poll.ActivityIntervalMS = 30
	cfg.Poll.NotificationsIntervalMS = 30
	cfg.Transient.RevertWindowMS = 40
	cfg.Transient.ReportNudgeMS = 5
	return cfg
}

func startSession(t *testing.T, f *fakeService) *Session {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	s := New(testConfig(srv.URL), nil)
	s.Start(context.Background())
	t.Cleanup(s.Close)
	return s
}

func TestStartFetchesProfileAndPolls(t *testing.T) {
	now := time.Now().UTC().Format(time.RFC3339)
	f := &fakeService{notifs: []domain.Notification{
		{ID: 1, UserID: 101, Category: domain.CategorySystem, Title: "t", CreatedAt: now},
	}}
	s := startSession(t, f)

	require.Equal(t, "陈小明", s.User().FullName)
	require.Eventually(t, func() bool {
		return len(s.Notifications.All()) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestPressTogglesAndReports(t *testing.T) {
	f := &fakeService{}
	s := startSession(t, f)

	s.Press(context.Background(), "light")
	a, _ := s.Actions.Get("light")
	require.True(t, a.Active, "press lands before the report resolves")

	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return len(f.reports) == 1
	}, time.Second, 5*time.Millisecond)
	f.mu.Lock()
	require.Equal(t, "toggle_light", f.reports[0].ActionType)
	require.Equal(t, "on", f.reports[0].Details["status"])
	f.mu.Unlock()

	// The nudged poll delivers the confirmed entry.
	require.Eventually(t, func() bool {
		entries := s.Activity()
		return len(entries) == 1 && entries[0].DeviceID == "light"
	}, time.Second, 5*time.Millisecond)
}

func TestPressMomentarySelfReverts(t *testing.T) {
	f := &fakeService{}
	s := startSession(t, f)

	s.Press(context.Background(), "water")
	a, _ := s.Actions.Get("water")
	require.True(t, a.Active)

	require.Eventually(t, func() bool {
		a, _ := s.Actions.Get("water")
		return !a.Active
	}, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return len(f.reports) == 1 && f.reports[0].ActionType == "drink_water"
	}, time.Second, 5*time.Millisecond)
}

func TestPressUnknownIDIsNoOp(t *testing.T) {
	f := &fakeService{}
	s := startSession(t, f)

	s.Press(context.Background(), "fridge")
	time.Sleep(30 * time.Millisecond)
	f.mu.Lock()
	require.Empty(t, f.reports)
	f.mu.Unlock()
}

func TestCloseStopsPolling(t *testing.T) {
	f := &fakeService{}
	s := startSession(t, f)

	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.polls >= 2
	}, time.Second, 5*time.Millisecond)

	s.Close()
	// Let any fetch already in flight drain before sampling.
	time.Sleep(50 * time.Millisecond)
	f.mu.Lock()
	seen := f.polls
	f.mu.Unlock()
	time.Sleep(100 * time.Millisecond)
	f.mu.Lock()
	require.Equal(t, seen, f.polls)
	f.mu.Unlock()
}

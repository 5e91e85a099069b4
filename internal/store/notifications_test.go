package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"homesync/internal/api"
	"homesync/internal/domain"
)

type notifBackend struct {
	mu        sync.Mutex
	items     []domain.Notification
	readCalls []string
	allCalls  int
	fail      bool
}

func (b *notifBackend) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.fail {
			http.Error(w, "backend unavailable", http.StatusInternalServerError)
			return
		}
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/notifications/":
			json.NewEncoder(w).Encode(b.items)
		case r.Method == http.MethodPut && r.URL.Path == "/api/v1/notifications/read-all":
			b.allCalls++
			w.Write([]byte(`{"status":"ok"}`))
		case r.Method == http.MethodPut && strings.HasSuffix(r.URL.Path, "/read"):
			b.readCalls = append(b.readCalls, r.URL.Path)
			w.Write([]byte(`{"status":"ok"}`))
		default:
			http.NotFound(w, r)
		}
	})
}

func newNotifStore(t *testing.T, b *notifBackend) (*NotificationStore, func()) {
	t.Helper()
	srv := httptest.NewServer(b.handler())
	s := NewNotificationStore(api.New(srv.URL), 101, nil)
	return s, srv.Close
}

func wire(id int, category, createdAt string, read bool) domain.Notification {
	return domain.Notification{
		ID: id, UserID: 101, Category: category,
		Title: "t", IsRead: read, CreatedAt: createdAt,
	}
}

func TestRefreshReplacesSnapshot(t *testing.T) {
	now := time.Now().UTC().Format(time.RFC3339)
	b := &notifBackend{items: []domain.Notification{
		wire(1, domain.CategorySystem, now, false),
		wire(2, domain.CategoryAlert, now, true),
	}}
	s, done := newNotifStore(t, b)
	defer done()

	require.NoError(t, s.Refresh(context.Background()))
	require.Len(t, s.All(), 2)
	require.Equal(t, 1, s.UnreadCount())

	// The next poll is authoritative: locally unknown state is discarded.
	b.mu.Lock()
	b.items = []domain.Notification{wire(3, domain.CategoryReminder, now, false)}
	b.mu.Unlock()
	require.NoError(t, s.Refresh(context.Background()))
	all := s.All()
	require.Len(t, all, 1)
	require.Equal(t, 3, all[0].ID)
}

func TestRefreshFailureKeepsPriorState(t *testing.T) {
	now := time.Now().UTC().Format(time.RFC3339)
	b := &notifBackend{items: []domain.Notification{wire(1, domain.CategorySystem, now, false)}}
	s, done := newNotifStore(t, b)
	defer done()

	require.NoError(t, s.Refresh(context.Background()))
	b.mu.Lock()
	b.fail = true
	b.mu.Unlock()
	require.Error(t, s.Refresh(context.Background()))
	require.Len(t, s.All(), 1)
}

func TestFilterAlertIncludesReminders(t *testing.T) {
	now := time.Now().UTC().Format(time.RFC3339)
	b := &notifBackend{items: []domain.Notification{
		wire(1, domain.CategoryAlert, now, false),
		wire(2, domain.CategorySystem, now, false),
		wire(3, domain.CategoryReminder, now, false),
	}}
	s, done := newNotifStore(t, b)
	defer done()
	require.NoError(t, s.Refresh(context.Background()))

	alerts := s.Filter(FilterAlert)
	require.Len(t, alerts, 2)
	require.Equal(t, 1, alerts[0].ID)
	require.Equal(t, 3, alerts[1].ID)

	system := s.Filter(FilterSystem)
	require.Len(t, system, 1)
	require.Equal(t, 2, system[0].ID)
}

func TestMarkReadWritesThroughOnce(t *testing.T) {
	now := time.Now().UTC().Format(time.RFC3339)
	b := &notifBackend{items: []domain.Notification{
		wire(7, domain.CategorySystem, now, false),
		wire(8, domain.CategorySystem, now, true),
	}}
	s, done := newNotifStore(t, b)
	defer done()
	require.NoError(t, s.Refresh(context.Background()))

	s.MarkRead(context.Background(), 7)
	require.Zero(t, s.UnreadCount(), "flag applies before the write resolves")
	b.mu.Lock()
	require.Equal(t, []string{"/api/v1/notifications/7/read"}, b.readCalls)
	b.mu.Unlock()

	// Already read and unknown ids issue no call.
	s.MarkRead(context.Background(), 8)
	s.MarkRead(context.Background(), 99)
	b.mu.Lock()
	require.Len(t, b.readCalls, 1)
	b.mu.Unlock()
}

func TestMarkReadKeepsFlagWhenWriteFails(t *testing.T) {
	now := time.Now().UTC().Format(time.RFC3339)
	b := &notifBackend{items: []domain.Notification{wire(7, domain.CategorySystem, now, false)}}
	s, done := newNotifStore(t, b)
	defer done()
	require.NoError(t, s.Refresh(context.Background()))

	b.mu.Lock()
	b.fail = true
	b.mu.Unlock()
	s.MarkRead(context.Background(), 7)
	require.Zero(t, s.UnreadCount(), "optimistic flag stands until the next poll")
}

func TestMarkAllReadSkipsCallWhenNothingUnread(t *testing.T) {
	now := time.Now().UTC().Format(time.RFC3339)
	b := &notifBackend{items: []domain.Notification{
		wire(1, domain.CategorySystem, now, false),
		wire(2, domain.CategoryAlert, now, false),
	}}
	s, done := newNotifStore(t, b)
	defer done()
	require.NoError(t, s.Refresh(context.Background()))

	s.MarkAllRead(context.Background())
	require.Zero(t, s.UnreadCount())
	s.MarkAllRead(context.Background())
	b.mu.Lock()
	require.Equal(t, 1, b.allCalls)
	b.mu.Unlock()
}

func TestRefreshAfterCloseIsDiscarded(t *testing.T) {
	now := time.Now().UTC().Format(time.RFC3339)
	b := &notifBackend{items: []domain.Notification{wire(1, domain.CategorySystem, now, false)}}
	s, done := newNotifStore(t, b)
	defer done()

	s.Close()
	require.NoError(t, s.Refresh(context.Background()))
	require.Empty(t, s.All())
}

func TestRelativeLabels(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	cases := []struct {
		ts   time.Time
		want string
	}{
		{time.Date(2026, 3, 10, 9, 5, 0, 0, time.UTC), "09:05"},
		{time.Date(2026, 3, 9, 23, 0, 0, 0, time.UTC), "昨天"},
		{time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC), "3月1日"},
		{time.Date(2025, 12, 31, 8, 0, 0, 0, time.UTC), "12月31日"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, relativeLabel(tc.ts, now))
	}
	require.Empty(t, relativeLabel(time.Time{}, now))
}

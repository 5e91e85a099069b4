package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"homesync/internal/api"
	"homesync/internal/domain"
)

// Filter categories accepted by NotificationStore.Filter. "alert" is a UI
// grouping covering the server categories alert and reminder.
const (
	FilterAll    = "all"
	FilterSystem = "system"
	FilterAlert  = "alert"
)

// Notification is the view form of a message-center item: the server's
// category becomes Type and created_at becomes a relative display label.
type Notification struct {
	ID        int
	Type      string
	Title     string
	Content   string
	Time      string
	Read      bool
	CreatedAt time.Time
}

// NotificationStore holds the message-center list. Poll results are
// authoritative snapshots: Refresh replaces the contents wholesale,
// including read flags, while MarkRead/MarkAllRead apply optimistic local
// writes that are pushed through to the service without rollback.
type NotificationStore struct {
	mu     sync.Mutex
	client *api.Client
	userID int
	items  []Notification
	logger *zap.Logger
	now    func() time.Time
	closed bool
}

// NewNotificationStore builds a store polling on behalf of one user.
func NewNotificationStore(client *api.Client, userID int, logger *zap.Logger) *NotificationStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationStore{
		client: client,
		userID: userID,
		logger: logger,
		now:    time.Now,
	}
}

// Refresh fetches the full current list and replaces the store's contents in
// returned order. On error the prior state is left untouched; after Close
// results are discarded rather than applied.
func (s *NotificationStore) Refresh(ctx context.Context) error {
	list, err := s.client.Notifications(ctx, s.userID, "", 0, 100)
	if err != nil {
		return fmt.Errorf("refresh notifications: %w", err)
	}
	now := s.now()
	items := make([]Notification, 0, len(list))
	for _, n := range list {
		items = append(items, s.fromWire(n, now))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.items = items
	return nil
}

// Filter returns the items matching a UI category, in stored order.
func (s *NotificationStore) Filter(category string) []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	if category == "" || category == FilterAll {
		out := make([]Notification, len(s.items))
		copy(out, s.items)
		return out
	}
	var out []Notification
	for _, n := range s.items {
		switch category {
		case FilterAlert:
			if n.Type == domain.CategoryAlert || n.Type == domain.CategoryReminder {
				out = append(out, n)
			}
		default:
			if n.Type == category {
				out = append(out, n)
			}
		}
	}
	return out
}

// All returns every item in stored order.
func (s *NotificationStore) All() []Notification {
	return s.Filter(FilterAll)
}

// UnreadCount reports the locally-known unread total.
func (s *NotificationStore) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, n := range s.items {
		if !n.Read {
			count++
		}
	}
	return count
}

// MarkRead optimistically flags the item read, then writes through to the
// service. Already-read or unknown ids issue no network call; a failed
// write-through is logged and the optimistic flag stands until the next
// authoritative poll.
func (s *NotificationStore) MarkRead(ctx context.Context, id int) {
	s.mu.Lock()
	found := false
	for i := range s.items {
		if s.items[i].ID == id {
			if s.items[i].Read {
				s.mu.Unlock()
				return
			}
			s.items[i].Read = true
			found = true
			break
		}
	}
	s.mu.Unlock()
	if !found {
		s.logger.Debug("mark-read on unknown notification", zap.Int("notification_id", id))
		return
	}
	if err := s.client.MarkRead(ctx, id, s.userID); err != nil {
		s.logger.Warn("mark-read write-through failed",
			zap.Int("notification_id", id), zap.Error(err))
	}
}

// MarkAllRead applies the optimistic-then-write-through pattern to every
// item at once. When nothing is unread no network call is issued.
func (s *NotificationStore) MarkAllRead(ctx context.Context) {
	s.mu.Lock()
	dirty := false
	for i := range s.items {
		if !s.items[i].Read {
			s.items[i].Read = true
			dirty = true
		}
	}
	s.mu.Unlock()
	if !dirty {
		return
	}
	if err := s.client.MarkAllRead(ctx, s.userID); err != nil {
		s.logger.Warn("mark-all-read write-through failed", zap.Error(err))
	}
}

// Close freezes the store: refreshes resolving afterwards are discarded.
func (s *NotificationStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *NotificationStore) fromWire(n domain.Notification, now time.Time) Notification {
	created, err := time.Parse(time.RFC3339, n.CreatedAt)
	if err != nil {
		s.logger.Warn("unparseable notification timestamp",
			zap.Int("notification_id", n.ID), zap.String("created_at", n.CreatedAt))
	}
	return Notification{
		ID:        n.ID,
		Type:      n.Category,
		Title:     n.Title,
		Content:   n.Content,
		Time:      relativeLabel(created, now),
		Read:      n.IsRead,
		CreatedAt: created,
	}
}

// relativeLabel renders a timestamp the way the message center displays it:
// today as time-of-day, yesterday literally, anything older as month/day.
func relativeLabel(ts, now time.Time) string {
	if ts.IsZero() {
		return ""
	}
	ts = ts.In(now.Location())
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	switch {
	case !ts.Before(today):
		return ts.Format("15:04")
	case !ts.Before(today.AddDate(0, 0, -1)):
		return "昨天"
	default:
		return fmt.Sprintf("%d月%d日", int(ts.Month()), ts.Day())
	}
}

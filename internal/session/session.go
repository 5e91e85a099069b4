// Package session wires the dashboard components together: the action
// store, the transient controller, the behavior reporter, and the pollers
// that keep the activity log and message center synchronized.
package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"homesync/internal/api"
	"homesync/internal/config"
	"homesync/internal/domain"
	"homesync/internal/poll"
	"homesync/internal/registry"
	"homesync/internal/report"
	"homesync/internal/store"
)

// Session is one live dashboard instance for one user. Local presses take
// effect immediately; the pollers deliver the authoritative view and always
// win over anything applied locally in between.
type Session struct {
	cfg    *config.Config
	client *api.Client
	logger *zap.Logger

	Actions       *store.ActionStore
	Transient     *store.TransientController
	Notifications *store.NotificationStore
	Reporter      *report.Reporter

	mu       sync.Mutex
	user     domain.User
	activity []domain.ActivityLogEntry

	activityPoll      *poll.Handle
	notificationsPoll *poll.Handle
	cancel            context.CancelFunc
}

// New builds a stopped session from config. Call Start to begin polling.
func New(cfg *config.Config, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := api.New(cfg.Server.BaseURL)
	client.BearerToken = cfg.Server.Token
	client.Timeout = cfg.RequestTimeout()

	actions := store.NewActionStore(registry.Default(), logger)
	return &Session{
		cfg:           cfg,
		client:        client,
		logger:        logger,
		Actions:       actions,
		Transient:     store.NewTransientController(actions, cfg.RevertWindow(), logger),
		Notifications: store.NewNotificationStore(client, cfg.User.ID, logger),
	}
}

// Client exposes the underlying API client for one-shot commands.
func (s *Session) Client() *api.Client { return s.client }

// Start fetches the user profile and launches both pollers. The profile
// fetch is best-effort: a failure is logged and the session still starts.
func (s *Session) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	if u, err := s.client.User(ctx, s.cfg.User.ID); err != nil {
		s.logger.Warn("user profile fetch failed", zap.Int("user_id", s.cfg.User.ID), zap.Error(err))
	} else {
		s.mu.Lock()
		s.user = u
		s.mu.Unlock()
	}

	s.activityPoll = poll.Start(ctx, s.cfg.ActivityInterval(), s.fetchActivity)
	s.notificationsPoll = poll.Start(ctx, s.cfg.NotificationsInterval(), s.fetchNotifications)
	s.Reporter = report.New(s.client, s.cfg.User.ID, s.activityPoll, s.cfg.ReportNudge(), s.logger)
}

// Close stops the pollers and freezes the stores. In-flight fetches finish
// against a canceled context and their results are discarded.
func (s *Session) Close() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.activityPoll != nil {
		s.activityPoll.Stop()
	}
	if s.notificationsPoll != nil {
		s.notificationsPoll.Stop()
	}
	s.Transient.Close()
	s.Notifications.Close()
}

// Press routes one dashboard press: momentary actions trigger and
// self-revert, everything else toggles. Either way the press is reported
// in the background without blocking the caller.
func (s *Session) Press(ctx context.Context, id string) {
	action, ok := s.Actions.Get(id)
	if !ok {
		s.logger.Debug("press on unknown action", zap.String("action_id", id))
		return
	}
	if action.Type.Momentary() {
		s.Transient.Trigger(id)
		s.reportAsync(ctx, id, true)
		return
	}
	active, ok := s.Actions.Toggle(id)
	if !ok {
		return
	}
	s.reportAsync(ctx, id, active)
}

func (s *Session) reportAsync(ctx context.Context, id string, active bool) {
	if s.Reporter == nil {
		return
	}
	action, ok := s.Actions.Get(id)
	if !ok {
		return
	}
	go s.Reporter.Report(ctx, action, active)
}

// User returns the last fetched profile, zero before the first fetch.
func (s *Session) User() domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Activity returns the last polled activity snapshot in server order.
func (s *Session) Activity() []domain.ActivityLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ActivityLogEntry, len(s.activity))
	copy(out, s.activity)
	return out
}

func (s *Session) fetchActivity(ctx context.Context) {
	entries, err := s.client.ActivityLog(ctx, s.cfg.User.ID, s.cfg.Poll.ActivityLimit)
	if err != nil {
		s.logger.Warn("activity poll failed", zap.Error(err))
		return
	}
	if ctx.Err() != nil {
		return
	}
	s.mu.Lock()
	s.activity = entries
	s.mu.Unlock()
}

func (s *Session) fetchNotifications(ctx context.Context) {
	if err := s.Notifications.Refresh(ctx); err != nil {
		s.logger.Warn("notifications poll failed", zap.Error(err))
	}
}

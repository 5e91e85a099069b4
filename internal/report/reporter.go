// Package report builds and sends behavior records for dashboard presses.
// Reporting is fire-and-forget: failures are logged and dropped, never
// retried, and never roll back the local state that triggered them.
package report

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"homesync/internal/api"
	"homesync/internal/domain"
	"homesync/internal/poll"
	"homesync/internal/registry"
)

// Reporter sends behavior records and nudges the activity poller shortly
// after a successful send so the confirmed entry shows up without waiting
// for the next scheduled tick.
type Reporter struct {
	client   *api.Client
	userID   int
	activity *poll.Handle
	delay    time.Duration
	logger   *zap.Logger
}

// New builds a Reporter. activity may be nil when no poller should be
// nudged, e.g. in one-shot CLI invocations.
func New(client *api.Client, userID int, activity *poll.Handle, delay time.Duration, logger *zap.Logger) *Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reporter{
		client:   client,
		userID:   userID,
		activity: activity,
		delay:    delay,
		logger:   logger,
	}
}

// BuildRecord assembles the outbound record for one press. Momentary
// actions carry the amount parsed from the subtitle, stateful toggles the
// temperature; either detail is omitted when the subtitle has no reading.
func BuildRecord(userID int, action domain.Action, active bool) domain.BehaviorRecord {
	verb := "关闭"
	status := "off"
	if active {
		verb = "开启"
		status = "on"
	}
	details := map[string]any{"status": status}
	raw := fmt.Sprintf("用户%s了%s", verb, action.Name)
	if action.Type.Momentary() {
		if amount, ok := registry.Amount(action.Subtitle); ok {
			details["amount"] = amount
			raw += fmt.Sprintf("，水量为 %dml", amount)
		}
	} else {
		if temp, ok := registry.Temperature(action.Subtitle); ok {
			details["temperature"] = temp
			raw += fmt.Sprintf("，设定的温度为 %d°C", temp)
		}
	}
	return domain.BehaviorRecord{
		UserID:     userID,
		DeviceID:   action.ID,
		ActionType: string(action.Type),
		Details:    details,
		RawContent: raw,
	}
}

// Report sends one record. Errors are swallowed after logging; on success
// the activity poller is asked to run again after the nudge delay, giving
// the service time to persist before the read.
func (r *Reporter) Report(ctx context.Context, action domain.Action, active bool) {
	rec := BuildRecord(r.userID, action, active)
	if err := r.client.ReportBehavior(ctx, rec); err != nil {
		r.logger.Warn("behavior report dropped",
			zap.String("device_id", rec.DeviceID),
			zap.String("action_type", rec.ActionType),
			zap.Error(err))
		return
	}
	r.logger.Debug("behavior reported",
		zap.String("device_id", rec.DeviceID),
		zap.String("action_type", rec.ActionType))
	if r.activity != nil {
		time.AfterFunc(r.delay, r.activity.RunNow)
	}
}

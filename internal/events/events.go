// Package events appends behavior rows for the stub service. Behaviors are
// an append-only log: rows are never updated or deleted once written.
package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"homesync/internal/domain"
)

type Writer struct {
	DB  *sql.DB
	Now func() time.Time
}

// Append persists one behavior record and returns its row id. The semantic
// content is derived server-side from the details so clients that only send
// a raw line still get a normalized entry back.
func (w Writer) Append(ctx context.Context, rec domain.BehaviorRecord) (int64, error) {
	if w.Now == nil {
		w.Now = time.Now
	}
	ts := w.Now().UTC().Format(time.RFC3339)
	var detailsJSON any
	if len(rec.Details) > 0 {
		data, err := json.Marshal(rec.Details)
		if err != nil {
			return 0, fmt.Errorf("marshal behavior details: %w", err)
		}
		detailsJSON = string(data)
	}
	res, err := w.DB.ExecContext(ctx,
		`INSERT INTO behaviors(user_id,device_id,action_type,details_json,raw_content,semantic_content,ts,created_at) VALUES (?,?,?,?,?,?,?,?)`,
		rec.UserID, rec.DeviceID, rec.ActionType, detailsJSON,
		nullable(rec.RawContent), nullable(semantic(rec)), ts, ts)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func semantic(rec domain.BehaviorRecord) string {
	status, _ := rec.Details["status"].(string)
	switch {
	case status == "on":
		return fmt.Sprintf("%s: on", rec.ActionType)
	case status == "off":
		return fmt.Sprintf("%s: off", rec.ActionType)
	default:
		return ""
	}
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

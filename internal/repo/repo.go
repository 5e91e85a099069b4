package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"homesync/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

func (r Repo) GetUser(ctx context.Context, id int) (domain.User, error) {
	var u domain.User
	var fullName sql.NullString
	var active int
	err := r.DB.QueryRowContext(ctx,
		`SELECT id,username,email,full_name,is_active,created_at FROM users WHERE id=?`, id).
		Scan(&u.ID, &u.Username, &u.Email, &fullName, &active, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	if fullName.Valid {
		u.FullName = fullName.String
	}
	u.IsActive = active != 0
	return u, err
}

func (r Repo) InsertUser(ctx context.Context, u domain.User) (int, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users(id,username,email,full_name,is_active,created_at) VALUES (?,?,?,?,?,?)`,
		u.ID, u.Username, u.Email, nullable(u.FullName), boolInt(u.IsActive), u.CreatedAt)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return int(id), err
}

// ListBehaviors returns the most recent behaviors for a user, newest first.
func (r Repo) ListBehaviors(ctx context.Context, userID, skip, limit int) ([]domain.ActivityLogEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id,user_id,device_id,action_type,COALESCE(details_json,''),COALESCE(raw_content,''),COALESCE(semantic_content,''),ts,created_at
		 FROM behaviors WHERE user_id=? ORDER BY ts DESC, id DESC LIMIT ? OFFSET ?`,
		userID, limit, skip)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.ActivityLogEntry
	for rows.Next() {
		var e domain.ActivityLogEntry
		var detailsJSON string
		if err := rows.Scan(&e.ID, &e.UserID, &e.DeviceID, &e.ActionType, &detailsJSON,
			&e.RawContent, &e.SemanticContent, &e.Timestamp, &e.CreatedAt); err != nil {
			return nil, err
		}
		if detailsJSON != "" {
			if err := json.Unmarshal([]byte(detailsJSON), &e.Details); err != nil {
				return nil, fmt.Errorf("behavior %d details: %w", e.ID, err)
			}
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// ListNotifications returns a user's notifications, newest first, optionally
// filtered to one category.
func (r Repo) ListNotifications(ctx context.Context, userID int, category string, skip, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id,user_id,category,title,COALESCE(content,''),is_read,created_at FROM notifications WHERE user_id=?`
	args := []any{userID}
	if category != "" {
		query += ` AND category=?`
		args = append(args, strings.ToLower(category))
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, skip)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var read int
		if err := rows.Scan(&n.ID, &n.UserID, &n.Category, &n.Title, &n.Content, &read, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.IsRead = read != 0
		res = append(res, n)
	}
	return res, rows.Err()
}

func (r Repo) InsertNotification(ctx context.Context, n domain.Notification) (int, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO notifications(user_id,category,title,content,is_read,created_at) VALUES (?,?,?,?,?,?)`,
		n.UserID, n.Category, n.Title, nullable(n.Content), boolInt(n.IsRead), n.CreatedAt)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return int(id), err
}

// MarkNotificationRead flags one of a user's notifications read.
func (r Repo) MarkNotificationRead(ctx context.Context, id, userID int) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE notifications SET is_read=1 WHERE id=? AND user_id=?`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllNotificationsRead flags every notification of a user read and
// returns how many rows changed.
func (r Repo) MarkAllNotificationsRead(ctx context.Context, userID int) (int, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE notifications SET is_read=1 WHERE user_id=? AND is_read=0`, userID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r Repo) UnreadNotificationCount(ctx context.Context, userID int) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id=? AND is_read=0`, userID).Scan(&count)
	return count, err
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

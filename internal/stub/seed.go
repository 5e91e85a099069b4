package stub

import (
	"context"
	"database/sql"
	"time"

	"homesync/internal/domain"
	"homesync/internal/repo"
)

// Seed inserts the demo user and a handful of notifications so a fresh stub
// is immediately usable by the client. It is idempotent: an already-seeded
// database is left alone.
func Seed(ctx context.Context, conn *sql.DB, userID int, now func() time.Time) error {
	if now == nil {
		now = time.Now
	}
	r := repo.Repo{DB: conn}
	if _, err := r.GetUser(ctx, userID); err == nil {
		return nil
	} else if err != repo.ErrNotFound {
		return err
	}

	ts := now().UTC()
	stamp := func(d time.Duration) string { return ts.Add(-d).Format(time.RFC3339) }

	if _, err := r.InsertUser(ctx, domain.User{
		ID:        userID,
		Username:  "chenxiaoming",
		Email:     "chenxiaoming@example.com",
		FullName:  "陈小明",
		IsActive:  true,
		CreatedAt: stamp(30 * 24 * time.Hour),
	}); err != nil {
		return err
	}

	seedNotifications := []domain.Notification{
		{UserID: userID, Category: domain.CategorySystem, Title: "固件更新完成", Content: "网关固件已更新到最新版本。", CreatedAt: stamp(10 * time.Minute)},
		{UserID: userID, Category: domain.CategoryReminder, Title: "喝水提醒", Content: "今天的饮水量还差 800ml，记得喝水。", CreatedAt: stamp(2 * time.Hour)},
		{UserID: userID, Category: domain.CategoryAlert, Title: "门锁异常", Content: "入户门连续三次指纹识别失败。", IsRead: true, CreatedAt: stamp(26 * time.Hour)},
		{UserID: userID, Category: domain.CategorySystem, Title: "欢迎使用", Content: "设备已全部接入，开始体验智能家居吧。", IsRead: true, CreatedAt: stamp(21 * 24 * time.Hour)},
	}
	for _, n := range seedNotifications {
		if _, err := r.InsertNotification(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

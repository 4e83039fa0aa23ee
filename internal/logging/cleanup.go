package logging

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/account-service/internal/models"
)

// StartCleanup prunes system_logs older than retention once a day until ctx
// is done.
func StartCleanup(ctx context.Context, db *gorm.DB, retention time.Duration) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				deleted, err := Prune(ctx, db, time.Now().Add(-retention))
				if err != nil {
					slog.Error("log cleanup failed", "error", err)
				} else if deleted > 0 {
					slog.Info("log cleanup completed", "deleted", deleted)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Prune deletes system_logs recorded before cutoff.
func Prune(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	result := db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	return result.RowsAffected, result.Error
}

package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cafedoko/pkg/db"
	"cafedoko/pkg/store"
)

// lastRunKey records when maintenance last completed.
const lastRunKey = "maintenance_last_run"

// Run executes all maintenance tasks. Failures are logged and do not stop startup.
// A non-positive retention keeps history forever.
func Run(ctx context.Context, s store.StateStore, d *db.DB, retention time.Duration) error {
	slog.Info("Starting database maintenance...")

	if retention > 0 {
		if n, err := d.PruneHistory(retention); err != nil {
			slog.Error("History pruning failed", "error", err)
		} else {
			slog.Info("History pruning completed", "removed", n, "retention", retention)
		}
	}

	if err := d.PingContext(ctx); err != nil {
		return fmt.Errorf("database unavailable after maintenance: %w", err)
	}
	if err := s.SetState(ctx, lastRunKey, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to record maintenance run: %w", err)
	}
	return nil
}

// LastRun returns when maintenance last completed.
func LastRun(ctx context.Context, s store.StateStore) (time.Time, bool) {
	v, ok := s.GetState(ctx, lastRunKey)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

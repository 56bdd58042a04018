package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"newsmesh/internal/logger"
)

// RunLockRepo manages the single-row advisory lock that keeps cycles from
// overlapping. A missing lock table means "no lock needed" so a fresh
// deployment can run before migrations settle.
type RunLockRepo struct {
	db *sql.DB
}

// Acquire takes the lock if no cycle is running, or if the holder's
// started_at is older than the timeout (a crashed cycle never released it).
func (r *RunLockRepo) Acquire(ctx context.Context, now time.Time, timeout time.Duration) (bool, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO pipeline_run_lock (id, is_running, started_at)
		 VALUES (1, FALSE, $1) ON CONFLICT (id) DO NOTHING`,
		now,
	)
	if err != nil {
		if isUndefinedTable(err) {
			logger.Warn("Run lock table missing, proceeding without lock")
			return true, nil
		}
		return false, fmt.Errorf("failed to seed run lock: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE pipeline_run_lock
		 SET is_running = TRUE, started_at = $1, finished_at = NULL
		 WHERE id = 1 AND (is_running = FALSE OR started_at < $2)`,
		now, now.Add(-timeout),
	)
	if err != nil {
		return false, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// Release drops the lock. Called on every cycle exit, success or failure.
func (r *RunLockRepo) Release(ctx context.Context, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE pipeline_run_lock SET is_running = FALSE, finished_at = $1 WHERE id = 1`,
		now,
	)
	if err != nil {
		if isUndefinedTable(err) {
			return nil
		}
		return fmt.Errorf("failed to release run lock: %w", err)
	}
	return nil
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"skill-radar/internal/database"
	"skill-radar/internal/domain/syncrun"
)

const (
	defaultRecentRuns = 20
	defaultKeepRuns   = 1000
)

// SyncRunRepository stores batch run summaries in sync_runs, keeping the newest keep rows.
type SyncRunRepository struct {
	db   database.DB
	keep int
}

func NewSyncRunRepository(db database.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db, keep: defaultKeepRuns}
}

func (r *SyncRunRepository) Record(ctx context.Context, run syncrun.Run) error {
	return database.WithTx(ctx, r.db, func(tx database.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO sync_runs (id, trigger, attempted, succeeded, failed, duration_ms, started_at, finished_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			run.ID, run.Trigger, run.Attempted, run.Succeeded, run.Failed,
			run.Duration.Milliseconds(), run.StartedAt, run.FinishedAt,
		); err != nil {
			return fmt.Errorf("insert sync run: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`DELETE FROM sync_runs
			 WHERE id IN (SELECT id FROM sync_runs ORDER BY started_at DESC OFFSET $1)`,
			r.keep,
		); err != nil {
			return fmt.Errorf("prune sync runs: %w", err)
		}
		return nil
	})
}

func (r *SyncRunRepository) Recent(ctx context.Context, limit int) ([]syncrun.Run, error) {
	if limit <= 0 {
		limit = defaultRecentRuns
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, trigger, attempted, succeeded, failed, duration_ms, started_at, finished_at
		 FROM sync_runs
		 ORDER BY started_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]syncrun.Run, 0, limit)
	for rows.Next() {
		var (
			run        syncrun.Run
			durationMS int64
		)
		if err := rows.Scan(&run.ID, &run.Trigger, &run.Attempted, &run.Succeeded, &run.Failed,
			&durationMS, &run.StartedAt, &run.FinishedAt); err != nil {
			return nil, err
		}
		run.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

var _ syncrun.Store = (*SyncRunRepository)(nil)

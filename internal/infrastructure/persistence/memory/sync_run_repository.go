package memory

import (
	"context"
	"sort"
	"sync"

	"skill-radar/internal/domain/syncrun"
)

const maxRuns = 100

// SyncRunRepository keeps the most recent batch runs in memory.
type SyncRunRepository struct {
	mu   sync.Mutex
	runs []syncrun.Run
}

func NewSyncRunRepository() *SyncRunRepository {
	return &SyncRunRepository{}
}

func (r *SyncRunRepository) Record(ctx context.Context, run syncrun.Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.runs = append(r.runs, run)
	if len(r.runs) > maxRuns {
		r.runs = r.runs[len(r.runs)-maxRuns:]
	}
	return nil
}

func (r *SyncRunRepository) Recent(ctx context.Context, limit int) ([]syncrun.Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	out := append([]syncrun.Run(nil), r.runs...)
	r.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ syncrun.Store = (*SyncRunRepository)(nil)

package syncrun

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Run is the stored summary of one batch sync.
type Run struct {
	ID         uuid.UUID     `json:"id"`
	Trigger    string        `json:"trigger"`
	Attempted  int           `json:"attempted"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
	Duration   time.Duration `json:"duration"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

// Store persists runs. Recent returns newest first; limit <= 0 means the store default.
type Store interface {
	Record(ctx context.Context, r Run) error
	Recent(ctx context.Context, limit int) ([]Run, error)
}

package subject

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("subject not found")

	// ErrCodeHostTaken is returned by Upsert when another subject already holds the
	// code-host account.
	ErrCodeHostTaken = errors.New("code host account already linked")
)

// Repository is the persistence gateway. It is the sole source of truth for subjects;
// callers must not cache records across calls.
type Repository interface {
	Get(ctx context.Context, id uuid.UUID) (Subject, error)
	Upsert(ctx context.Context, s Subject) (Subject, error)
	FindEligible(ctx context.Context) ([]Subject, error)
	FindByCodeHostID(ctx context.Context, codeHostID int64) (Subject, error)
}

// Counts is a snapshot of how far subjects have progressed through the pipeline.
type Counts struct {
	Total         int `json:"total"`
	Eligible      int `json:"eligible"`
	Analyzed      int `json:"analyzed"`
	WithInsights  int `json:"with_insights"`
	MatchesSynced int `json:"matches_synced"`
}

type Counter interface {
	Counts(ctx context.Context) (Counts, error)
}

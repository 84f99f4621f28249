package memory

import (
	"context"
	"testing"
	"time"

	"skill-radar/internal/domain/syncrun"

	"github.com/google/uuid"
)

func TestSyncRunRepository_RecentNewestFirst(t *testing.T) {
	ctx := context.Background()
	r := NewSyncRunRepository()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		run := syncrun.Run{ID: uuid.New(), Trigger: "manual", Attempted: i, StartedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := r.Record(ctx, run); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}

	got, err := r.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 2 || got[0].Attempted != 2 || got[1].Attempted != 1 {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestSyncRunRepository_KeepsBoundedHistory(t *testing.T) {
	ctx := context.Background()
	r := NewSyncRunRepository()
	for i := 0; i < maxRuns+5; i++ {
		_ = r.Record(ctx, syncrun.Run{ID: uuid.New()})
	}

	got, _ := r.Recent(ctx, 0)
	if len(got) != maxRuns {
		t.Fatalf("expected %d runs, got %d", maxRuns, len(got))
	}
}

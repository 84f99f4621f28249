package pipeline

import (
	"context"
	"time"

	"skill-radar/internal/domain/matching"
	"skill-radar/internal/domain/source"
	"skill-radar/internal/domain/subject"

	"github.com/google/uuid"
)

type CodeHostSource interface {
	Fetch(ctx context.Context, s subject.Subject) (*source.CodeHostRaw, error)
}

type JudgeSource interface {
	Fetch(ctx context.Context, s subject.Subject) (*source.JudgeRaw, error)
}

type SelfReportSource interface {
	Fetch(ctx context.Context, s subject.Subject) (*source.SelfReportRaw, error)
}

// Sources groups the adapters. A nil adapter behaves as not configured.
type Sources struct {
	CodeHost   CodeHostSource
	Judge      JudgeSource
	SelfReport SelfReportSource
}

// Pacer is waited on after every source step of a full sync.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Locker guards a subject against concurrent runs.
type Locker interface {
	TryLock(ctx context.Context, id uuid.UUID) (acquired bool, release func(), err error)
}

// MatchCache holds fit lists keyed by subject and the analysis they were computed from.
type MatchCache interface {
	Get(ctx context.Context, id uuid.UUID, analyzedAt time.Time) ([]matching.FitResult, bool)
	Put(ctx context.Context, id uuid.UUID, analyzedAt time.Time, results []matching.FitResult)
	Invalidate(ctx context.Context, id uuid.UUID) error
}

type Event struct {
	Type      string    `json:"type"`
	SubjectID uuid.UUID `json:"subject_id"`
	Step      string    `json:"step"`
	At        time.Time `json:"at"`
}

const (
	EventStageCompleted = "stage_completed"
	EventSubjectSynced  = "subject_synced"
)

type Notifier interface {
	Notify(ctx context.Context, e Event)
}

// Recorder receives pipeline measurements.
type Recorder interface {
	SourceFetched(source, result string)
	StageObserved(stage, status string, d time.Duration)
	ReposExcluded(n int)
	SyncRejected()
	BatchFinished(trigger string, succeeded, failed int, d time.Duration)
}

type nopLocker struct{}

func (nopLocker) TryLock(context.Context, uuid.UUID) (bool, func(), error) {
	return true, func() {}, nil
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Event) {}

type nopRecorder struct{}

func (nopRecorder) SourceFetched(string, string) {}
func (nopRecorder) StageObserved(string, string, time.Duration) {}
func (nopRecorder) ReposExcluded(int) {}
func (nopRecorder) SyncRejected() {}
func (nopRecorder) BatchFinished(string, int, int, time.Duration) {}

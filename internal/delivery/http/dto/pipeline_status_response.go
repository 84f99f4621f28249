package dto

import (
	"time"

	"skill-radar/internal/domain/syncrun"

	"github.com/google/uuid"
)

type PipelineStatusResponseData struct {
	Subjects    PipelineSubjectCounts `json:"subjects"`
	RecentRuns  []SyncRunResponse     `json:"recent_runs"`
	Settings    PipelineSettings      `json:"settings"`
	LastUpdated time.Time             `json:"last_updated"`
}

type PipelineSubjectCounts struct {
	Total         int `json:"total"`
	Eligible      int `json:"eligible"`
	Analyzed      int `json:"analyzed"`
	WithInsights  int `json:"with_insights"`
	MatchesSynced int `json:"matches_synced"`
}

type PipelineSettings struct {
	PacingDelayMS     int64  `json:"pacing_delay_ms"`
	BatchWorkers      int    `json:"batch_workers"`
	SchedulerEnabled  bool   `json:"scheduler_enabled"`
	SchedulerInterval string `json:"scheduler_interval"`
	InsightProvider   string `json:"insight_provider"`
}

type SyncRunResponse struct {
	ID         uuid.UUID `json:"id"`
	Trigger    string    `json:"trigger"`
	Attempted  int       `json:"attempted"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	DurationMS int64     `json:"duration_ms"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

func NewSyncRunResponse(r syncrun.Run) SyncRunResponse {
	return SyncRunResponse{
		ID:         r.ID,
		Trigger:    r.Trigger,
		Attempted:  r.Attempted,
		Succeeded:  r.Succeeded,
		Failed:     r.Failed,
		DurationMS: r.Duration.Milliseconds(),
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
}

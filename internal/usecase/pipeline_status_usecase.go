package usecase

import (
	"context"
	"sync"
	"time"

	"skill-radar/internal/delivery/http/dto"
	"skill-radar/internal/domain/subject"
	"skill-radar/internal/domain/syncrun"
	"skill-radar/internal/logger"

	"go.uber.org/zap"
)

const recentRunsLimit = 10

type PipelineStatusUsecase interface {
	GetStatus(ctx context.Context) (dto.PipelineStatusResponseData, error)
}

// PipelineSettings is the static part of the status report.
type PipelineSettings struct {
	PacingDelay       time.Duration
	BatchWorkers      int
	SchedulerEnabled  bool
	SchedulerInterval time.Duration
	InsightProvider   string
}

type PipelineStatus struct {
	counts   subject.Counter
	runs     syncrun.Store
	settings PipelineSettings
	log      *zap.Logger
	now      func() time.Time
}

func NewPipelineStatusUsecase(counts subject.Counter, runs syncrun.Store, settings PipelineSettings, log *zap.Logger) *PipelineStatus {
	return &PipelineStatus{counts: counts, runs: runs, settings: settings, log: logger.OrNop(log), now: time.Now}
}

// GetStatus never fails: a section whose query errors is logged and left empty.
func (u *PipelineStatus) GetStatus(ctx context.Context) (dto.PipelineStatusResponseData, error) {
	data := dto.PipelineStatusResponseData{
		Settings: dto.PipelineSettings{
			PacingDelayMS:     u.settings.PacingDelay.Milliseconds(),
			BatchWorkers:      u.settings.BatchWorkers,
			SchedulerEnabled:  u.settings.SchedulerEnabled,
			SchedulerInterval: u.settings.SchedulerInterval.String(),
			InsightProvider:   u.settings.InsightProvider,
		},
		RecentRuns: make([]dto.SyncRunResponse, 0),
	}

	var (
		counts subject.Counts
		runs   []syncrun.Run

		errCounts error
		errRuns   error
	)

	wg := sync.WaitGroup{}

	if u.counts != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			counts, errCounts = u.counts.Counts(ctx)
			if errCounts != nil {
				u.log.Error("pipeline status query failed", append(logger.Step("pipeline_status", "subjects", "error"), zap.Error(errCounts))...)
			}
		}()
	}

	if u.runs != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runs, errRuns = u.runs.Recent(ctx, recentRunsLimit)
			if errRuns != nil {
				u.log.Error("pipeline status query failed", append(logger.Step("pipeline_status", "runs", "error"), zap.Error(errRuns))...)
			}
		}()
	}

	wg.Wait()

	if errCounts == nil {
		data.Subjects = dto.PipelineSubjectCounts{
			Total:         counts.Total,
			Eligible:      counts.Eligible,
			Analyzed:      counts.Analyzed,
			WithInsights:  counts.WithInsights,
			MatchesSynced: counts.MatchesSynced,
		}
	}
	if errRuns == nil {
		for _, r := range runs {
			data.RecentRuns = append(data.RecentRuns, dto.NewSyncRunResponse(r))
		}
	}
	data.LastUpdated = u.now().UTC()
	return data, nil
}

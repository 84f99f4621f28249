package scheduler

import (
	"context"
	"sync"
	"time"

	"skill-radar/internal/logger"
	"skill-radar/internal/pipeline"

	"go.uber.org/zap"
)

// BatchRunner is satisfied by *pipeline.SyncPipeline.
type BatchRunner interface {
	RunBatch(ctx context.Context, trigger string) (pipeline.BatchReport, error)
}

// Scheduler triggers a batch sync every interval. Batches never overlap; one that
// overruns the interval delays the next.
type Scheduler struct {
	runner   BatchRunner
	interval time.Duration
	log      *zap.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func New(runner BatchRunner, interval time.Duration, log *zap.Logger) *Scheduler {
	return &Scheduler{runner: runner, interval: interval, log: logger.OrNop(log)}
}

// Start runs the loop in the background until ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	if s == nil || s.runner == nil || s.interval <= 0 {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(ctx)
	}()
	s.log.Info("scheduler started", zap.Duration("interval", s.interval))
}

func (s *Scheduler) loop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	report, err := s.runner.RunBatch(ctx, pipeline.TriggerScheduler)
	if err != nil {
		s.log.Error("scheduled batch failed", append(logger.Step("batch", "scheduler", "error"), zap.Error(err))...)
		return
	}
	s.log.Info("scheduled batch done",
		append(logger.Step("batch", "scheduler", "ok"),
			zap.Int("attempted", report.Attempted),
			zap.Int("failed", report.Failed),
		)...,
	)
}

// Stop cancels the loop and waits for an in-flight batch to return.
func (s *Scheduler) Stop() {
	if s == nil || s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
}

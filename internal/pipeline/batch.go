package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"skill-radar/internal/domain/subject"
	"skill-radar/internal/domain/syncrun"
	"skill-radar/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Batch triggers.
const (
	TriggerManual    = "manual"
	TriggerScheduler = "scheduler"
	TriggerCLI       = "cli"
	TriggerAPI       = "api"
)

type SubjectOutcome struct {
	SubjectID uuid.UUID     `json:"subject_id"`
	Stage     Stage         `json:"stage"`
	Err       error         `json:"-"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
}

type BatchReport struct {
	Trigger   string           `json:"trigger"`
	Attempted int              `json:"attempted"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Duration  time.Duration    `json:"duration"`
	StartedAt time.Time        `json:"started_at"`
	Outcomes  []SubjectOutcome `json:"outcomes"`
}

// RunBatchSync is RunBatch with the manual trigger.
func (p *SyncPipeline) RunBatchSync(ctx context.Context) (BatchReport, error) {
	return p.RunBatch(ctx, TriggerManual)
}

// RunBatch runs the full sequence for every eligible subject. A failing subject is
// counted and logged and the batch moves on. The returned error is non-nil only when the
// eligible set could not be loaded or ctx ended before every subject was attempted.
func (p *SyncPipeline) RunBatch(ctx context.Context, trigger string) (BatchReport, error) {
	const name = "batch"
	started := p.now()
	report := BatchReport{Trigger: trigger, StartedAt: started.UTC()}

	p.log.Info("batch started", append(logger.Step(name, "all", "started"), zap.String("trigger", trigger))...)

	subjects, err := p.subjects.FindEligible(ctx)
	if err != nil {
		p.log.Error("batch aborted", append(logger.Step(name, "load", "error"), zap.Error(err))...)
		return report, fmt.Errorf("find eligible subjects: %w", err)
	}

	outcomes := make([]SubjectOutcome, len(subjects))
	attempted := make([]bool, len(subjects))

	runOne := func(ctx context.Context, i int) {
		outcomes[i] = p.runBatchSubject(ctx, name, subjects[i])
		attempted[i] = true
	}

	if p.batchWorkers <= 1 {
		for i := range subjects {
			if ctx.Err() != nil {
				break
			}
			runOne(ctx, i)
		}
	} else {
		pool := newWorkerPool(p.batchWorkers, p.batchWorkers)
		pool.start(ctx)
		var mu sync.Mutex
		for i := range subjects {
			i := i
			if !pool.submit(ctx, func(ctx context.Context) {
				o := p.runBatchSubject(ctx, name, subjects[i])
				mu.Lock()
				outcomes[i] = o
				attempted[i] = true
				mu.Unlock()
			}) {
				break
			}
		}
		pool.closeAndWait()
	}

	for i, o := range outcomes {
		if !attempted[i] {
			continue
		}
		report.Attempted++
		if o.Err != nil {
			report.Failed++
		} else {
			report.Succeeded++
		}
		report.Outcomes = append(report.Outcomes, o)
	}
	report.Duration = p.now().Sub(started)

	p.recorder.BatchFinished(trigger, report.Succeeded, report.Failed, report.Duration)
	p.recordRun(report)
	p.log.Info("batch finished",
		append(logger.Step(name, "all", "finished"),
			zap.String("trigger", trigger),
			zap.Int("attempted", report.Attempted),
			zap.Int("succeeded", report.Succeeded),
			zap.Int("failed", report.Failed),
			zap.Int("eligible", len(subjects)),
			zap.Duration("duration", report.Duration),
		)...,
	)

	if report.Attempted < len(subjects) {
		return report, fmt.Errorf("batch interrupted after %d of %d subjects: %w", report.Attempted, len(subjects), ctx.Err())
	}
	return report, nil
}

func (p *SyncPipeline) runBatchSubject(ctx context.Context, name string, s subject.Subject) SubjectOutcome {
	start := p.now()
	out := SubjectOutcome{SubjectID: s.ID}

	role := s.LastRole()
	if role == "" {
		role = p.defaultRole
	}

	var res FullSyncResult
	release, err := p.lock(ctx, s.ID)
	if err == nil {
		res, err = p.runFullSync(ctx, name, s.ID, role)
		release()
	}

	out.Stage = res.Stage
	out.Duration = p.now().Sub(start)
	if err != nil {
		out.Err = err
		out.Error = err.Error()
		level := p.log.Error
		if errors.Is(err, ErrSyncInProgress) {
			level = p.log.Warn
		}
		level("subject failed, continuing batch",
			append(logger.Step(name, "subject", "error"),
				zap.String(logger.FieldSubjectID, s.ID.String()),
				zap.Stringer("stage", res.Stage),
				zap.Error(err),
			)...,
		)
	}
	return out
}

func (p *SyncPipeline) recordRun(r BatchReport) {
	if p.runs == nil {
		return
	}
	rec := syncrun.Run{
		ID:         uuid.New(),
		Trigger:    r.Trigger,
		Attempted:  r.Attempted,
		Succeeded:  r.Succeeded,
		Failed:     r.Failed,
		Duration:   r.Duration,
		StartedAt:  r.StartedAt,
		FinishedAt: r.StartedAt.Add(r.Duration),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.runs.Record(ctx, rec); err != nil {
		p.log.Warn("record batch run failed", zap.Error(err))
	}
}

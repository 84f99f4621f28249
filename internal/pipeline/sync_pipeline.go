package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"skill-radar/internal/domain/analysis"
	"skill-radar/internal/domain/insight"
	"skill-radar/internal/domain/matching"
	"skill-radar/internal/domain/source"
	"skill-radar/internal/domain/subject"
	"skill-radar/internal/domain/syncrun"
	"skill-radar/internal/logger"
	"skill-radar/internal/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Config carries the tunables of the orchestrator. Zero values fall back to defaults.
// Config tunes the pipeline. PacingDelay and SubjectTimeout are used as given: zero
// means no pacing and no whole-run deadline. The service defaults live in config.New.
type Config struct {
	PacingDelay    time.Duration
	SubjectTimeout time.Duration
	BatchWorkers   int
	DefaultRole    string
}

type Deps struct {
	Subjects  subject.Repository
	Sources   Sources
	Generator insight.Generator
	Catalog   []matching.TargetProfile

	Pacer    Pacer
	Locker   Locker
	Matches  MatchCache
	Notifier Notifier
	Recorder Recorder
	Runs     syncrun.Store
	Logger   *zap.Logger
	Now      func() time.Time
}

// SyncPipeline drives source sync, analysis, insights and matching for subjects. Every
// public entry point holds the subject's lock for its whole duration.
type SyncPipeline struct {
	subjects  subject.Repository
	sources   Sources
	generator insight.Generator
	catalog   []matching.TargetProfile

	pacer    Pacer
	locker   Locker
	matches  MatchCache
	notifier Notifier
	recorder Recorder
	runs     syncrun.Store
	log      *zap.Logger
	now      func() time.Time

	subjectTimeout time.Duration
	batchWorkers   int
	defaultRole    string
}

func NewSyncPipeline(cfg Config, deps Deps) *SyncPipeline {
	p := &SyncPipeline{
		subjects:       deps.Subjects,
		sources:        deps.Sources,
		generator:      deps.Generator,
		catalog:        deps.Catalog,
		pacer:          deps.Pacer,
		locker:         deps.Locker,
		matches:        deps.Matches,
		notifier:       deps.Notifier,
		recorder:       deps.Recorder,
		runs:           deps.Runs,
		log:            logger.OrNop(deps.Logger),
		now:            deps.Now,
		subjectTimeout: cfg.SubjectTimeout,
		batchWorkers:   cfg.BatchWorkers,
		defaultRole:    cfg.DefaultRole,
	}
	if p.generator == nil {
		p.generator = insight.NewHeuristic()
	}
	if p.pacer == nil {
		p.pacer = FixedDelay(cfg.PacingDelay)
	}
	if p.locker == nil {
		p.locker = nopLocker{}
	}
	if p.notifier == nil {
		p.notifier = nopNotifier{}
	}
	if p.recorder == nil {
		p.recorder = nopRecorder{}
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.batchWorkers <= 0 {
		p.batchWorkers = 1
	}
	if p.defaultRole == "" {
		p.defaultRole = insight.DefaultRole
	}
	return p
}

// FullSyncResult is what a complete run produced. Stage is the last stage reached.
type FullSyncResult struct {
	Analysis analysis.Analysis
	Insights insight.Insights
	Matches  []matching.FitResult
	Stage    Stage
}

// SyncSource runs one adapter and folds its raw data into the subject. Nothing is
// stamped. A source that is not configured is skipped without error.
func (p *SyncPipeline) SyncSource(ctx context.Context, id uuid.UUID, kind source.Kind) error {
	release, err := p.lock(ctx, id)
	if err != nil {
		return err
	}
	defer release()

	return p.syncSource(ctx, "single", id, kind)
}

// UpdateSubject applies fn to the stored subject under the subject's lock and saves the
// result. An error from fn aborts without saving.
func (p *SyncPipeline) UpdateSubject(ctx context.Context, id uuid.UUID, fn func(*subject.Subject) error) (subject.Subject, error) {
	release, err := p.lock(ctx, id)
	if err != nil {
		return subject.Subject{}, err
	}
	defer release()

	s, err := p.load(ctx, id)
	if err != nil {
		return subject.Subject{}, err
	}
	before := s
	if err := fn(&s); err != nil {
		return subject.Subject{}, err
	}
	saved, err := p.subjects.Upsert(ctx, s)
	if err != nil {
		return subject.Subject{}, err
	}
	if p.matches != nil && droppedSourceData(before, saved) {
		if err := p.matches.Invalidate(ctx, id); err != nil {
			p.log.Warn("match cache invalidation failed",
				zap.String(logger.FieldSubjectID, id.String()), zap.Error(err))
		}
	}
	return saved, nil
}

// droppedSourceData reports whether raw data held by before is gone in after.
func droppedSourceData(before, after subject.Subject) bool {
	return (before.CodeHostRaw != nil && after.CodeHostRaw == nil) ||
		(before.JudgeRaw != nil && after.JudgeRaw == nil) ||
		(before.SelfReportRaw != nil && after.SelfReportRaw == nil)
}

// RefreshAnalysis re-derives the analysis from the raw data currently stored.
func (p *SyncPipeline) RefreshAnalysis(ctx context.Context, id uuid.UUID) (analysis.Analysis, error) {
	release, err := p.lock(ctx, id)
	if err != nil {
		return analysis.Analysis{}, err
	}
	defer release()

	s, err := p.refreshAnalysis(ctx, "single", id)
	if err != nil {
		return analysis.Analysis{}, err
	}
	return *s.Analysis, nil
}

// RefreshInsights generates insights for role, deriving the analysis first when the
// subject has none.
func (p *SyncPipeline) RefreshInsights(ctx context.Context, id uuid.UUID, role string) (insight.Insights, error) {
	release, err := p.lock(ctx, id)
	if err != nil {
		return insight.Insights{}, err
	}
	defer release()

	return p.refreshInsights(ctx, "single", id, role)
}

// RefreshMatches ranks the catalog against the subject's analysis, deriving it first when
// absent. Only the run timestamp is stored.
func (p *SyncPipeline) RefreshMatches(ctx context.Context, id uuid.UUID) ([]matching.FitResult, error) {
	release, err := p.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	return p.refreshMatches(ctx, "single", id)
}

// RunFullSync syncs every source in order, pacing after each, then refreshes analysis,
// insights and matches. The first failure stops the run and comes back as a *StageError.
func (p *SyncPipeline) RunFullSync(ctx context.Context, id uuid.UUID, role string) (FullSyncResult, error) {
	release, err := p.lock(ctx, id)
	if err != nil {
		return FullSyncResult{}, err
	}
	defer release()

	return p.runFullSync(ctx, "full", id, role)
}

func (p *SyncPipeline) runFullSync(ctx context.Context, name string, id uuid.UUID, role string) (FullSyncResult, error) {
	if p.subjectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.subjectTimeout)
		defer cancel()
	}

	start := p.now()
	log := p.log.With(zap.String(logger.FieldSubjectID, id.String()))
	log.Info("pipeline started", logger.Step(name, "all", "started")...)

	var res FullSyncResult
	fail := func(step string, err error) (FullSyncResult, error) {
		log.Error("pipeline aborted",
			append(logger.Step(name, step, "error"),
				zap.Stringer("stage", res.Stage),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)...,
		)
		return res, stageErr(id, step, err)
	}

	for _, kind := range source.Kinds {
		// Pace after every attempt, failed ones included.
		err := p.syncSource(ctx, name, id, kind)
		waitErr := p.pacer.Wait(ctx)
		if err != nil {
			return fail(string(kind), err)
		}
		if waitErr != nil {
			return fail(string(kind), waitErr)
		}
	}
	res.Stage.advance(StageSourcesSynced)

	s, err := p.refreshAnalysis(ctx, name, id)
	if err != nil {
		return fail(StepAnalysis, err)
	}
	res.Analysis = *s.Analysis
	res.Stage.advance(StageAnalyzed)

	ins, err := p.refreshInsights(ctx, name, id, role)
	if err != nil {
		return fail(StepInsights, err)
	}
	res.Insights = ins
	res.Stage.advance(StageInsightsReady)

	fits, err := p.refreshMatches(ctx, name, id)
	if err != nil {
		return fail(StepMatches, err)
	}
	res.Matches = fits
	res.Stage.advance(StageMatchesComputed)

	p.notifier.Notify(ctx, Event{Type: EventSubjectSynced, SubjectID: id, Step: "all", At: p.now().UTC()})
	log.Info("pipeline finished",
		append(logger.Step(name, "all", "finished"),
			zap.Duration("duration", time.Since(start)),
			zap.Int("readiness_score", ins.ReadinessScore),
			zap.Int("matches", len(fits)),
		)...,
	)
	return res, nil
}

func (p *SyncPipeline) lock(ctx context.Context, id uuid.UUID) (func(), error) {
	ok, release, err := p.locker.TryLock(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lock subject %s: %w", id, err)
	}
	if !ok {
		p.recorder.SyncRejected()
		return nil, fmt.Errorf("%w: %s", ErrSyncInProgress, id)
	}
	return release, nil
}

func (p *SyncPipeline) load(ctx context.Context, id uuid.UUID) (subject.Subject, error) {
	s, err := p.subjects.Get(ctx, id)
	if err != nil {
		return subject.Subject{}, fmt.Errorf("load subject: %w", err)
	}
	return s, nil
}

func (p *SyncPipeline) syncSource(ctx context.Context, name string, id uuid.UUID, kind source.Kind) error {
	start := p.now()
	step := string(kind)
	log := p.log.With(zap.String(logger.FieldSubjectID, id.String()), zap.String(logger.FieldSource, step))

	s, err := p.load(ctx, id)
	if err != nil {
		return err
	}

	err = p.fetchInto(ctx, &s, kind)
	switch {
	case errors.Is(err, source.ErrNotConfigured):
		p.recorder.SourceFetched(step, metrics.ResultSkipped)
		log.Info("source skipped", logger.Step(name, step, "skipped")...)
		return nil
	case err != nil:
		p.recorder.SourceFetched(step, metrics.ResultFailed)
		p.recorder.StageObserved(step, "error", time.Since(start))
		log.Error("source sync failed", append(logger.Step(name, step, "error"), zap.Error(err))...)
		return err
	}

	if _, err := p.subjects.Upsert(ctx, s); err != nil {
		p.recorder.StageObserved(step, "error", time.Since(start))
		return fmt.Errorf("save %s data: %w", kind, err)
	}

	p.recorder.SourceFetched(step, metrics.ResultSuccess)
	p.recorder.StageObserved(step, "ok", time.Since(start))
	log.Info("source synced", append(logger.Step(name, step, "ok"), zap.Duration("duration", time.Since(start)))...)
	return nil
}

// fetchInto calls the adapter for kind and stores its raw result on s.
func (p *SyncPipeline) fetchInto(ctx context.Context, s *subject.Subject, kind source.Kind) error {
	switch kind {
	case source.KindCodeHost:
		if p.sources.CodeHost == nil {
			return source.ErrNotConfigured
		}
		raw, err := p.sources.CodeHost.Fetch(ctx, *s)
		if err != nil {
			return err
		}
		s.CodeHostRaw = raw
	case source.KindJudge:
		if p.sources.Judge == nil {
			return source.ErrNotConfigured
		}
		raw, err := p.sources.Judge.Fetch(ctx, *s)
		if err != nil {
			return err
		}
		s.JudgeRaw = raw
	case source.KindSelfReport:
		if p.sources.SelfReport == nil {
			return source.ErrNotConfigured
		}
		raw, err := p.sources.SelfReport.Fetch(ctx, *s)
		if err != nil {
			return err
		}
		s.SelfReportRaw = raw
	default:
		return fmt.Errorf("%w: %q", source.ErrUnknownKind, kind)
	}
	return nil
}

func (p *SyncPipeline) refreshAnalysis(ctx context.Context, name string, id uuid.UUID) (subject.Subject, error) {
	start := p.now()
	log := p.log.With(zap.String(logger.FieldSubjectID, id.String()))

	s, err := p.load(ctx, id)
	if err != nil {
		return subject.Subject{}, err
	}

	a := analysis.Analyze(s.AnalysisInput())
	at := p.now().UTC()
	s.Analysis = &a
	s.AnalysisSyncedAt = &at

	saved, err := p.subjects.Upsert(ctx, s)
	if err != nil {
		p.recorder.StageObserved(StepAnalysis, "error", time.Since(start))
		return subject.Subject{}, fmt.Errorf("save analysis: %w", err)
	}

	if a.CodeHost != nil {
		p.recorder.ReposExcluded(a.CodeHost.ReposExcludedFromStats)
	}
	p.recorder.StageObserved(StepAnalysis, "ok", time.Since(start))
	p.notifier.Notify(ctx, Event{Type: EventStageCompleted, SubjectID: id, Step: StepAnalysis, At: at})
	log.Info("analysis refreshed",
		append(logger.Step(name, StepAnalysis, "ok"),
			zap.Int("detected_skills", len(a.DetectedSkills)),
			zap.Int("missing_skills", len(a.MissingSkills)),
		)...,
	)
	return saved, nil
}

// ensureAnalysis returns the subject with an analysis, deriving one when absent.
func (p *SyncPipeline) ensureAnalysis(ctx context.Context, name string, id uuid.UUID) (subject.Subject, error) {
	s, err := p.load(ctx, id)
	if err != nil {
		return subject.Subject{}, err
	}
	if s.Analysis != nil {
		return s, nil
	}

	p.log.Info("analysis missing, deriving first",
		append(logger.Step(name, StepAnalysis, "self_heal"), zap.String(logger.FieldSubjectID, id.String()))...,
	)
	s, err = p.refreshAnalysis(ctx, name, id)
	if err != nil {
		return subject.Subject{}, fmt.Errorf("%w: %w", ErrPrerequisiteMissing, err)
	}
	return s, nil
}

func (p *SyncPipeline) refreshInsights(ctx context.Context, name string, id uuid.UUID, role string) (insight.Insights, error) {
	start := p.now()
	s, err := p.ensureAnalysis(ctx, name, id)
	if err != nil {
		return insight.Insights{}, err
	}

	ins, err := p.generator.Generate(ctx, *s.Analysis, role)
	if err != nil {
		p.recorder.StageObserved(StepInsights, "error", time.Since(start))
		return insight.Insights{}, fmt.Errorf("generate insights: %w", err)
	}

	at := p.now().UTC()
	s.Insights = &ins
	s.InsightsSyncedAt = &at
	if _, err := p.subjects.Upsert(ctx, s); err != nil {
		p.recorder.StageObserved(StepInsights, "error", time.Since(start))
		return insight.Insights{}, fmt.Errorf("save insights: %w", err)
	}

	p.recorder.StageObserved(StepInsights, "ok", time.Since(start))
	p.notifier.Notify(ctx, Event{Type: EventStageCompleted, SubjectID: id, Step: StepInsights, At: at})
	p.log.Info("insights refreshed",
		append(logger.Step(name, StepInsights, "ok"),
			zap.String(logger.FieldSubjectID, id.String()),
			zap.String("role", ins.Role),
			zap.Int("readiness_score", ins.ReadinessScore),
		)...,
	)
	return ins, nil
}

func (p *SyncPipeline) refreshMatches(ctx context.Context, name string, id uuid.UUID) ([]matching.FitResult, error) {
	start := p.now()
	s, err := p.ensureAnalysis(ctx, name, id)
	if err != nil {
		return nil, err
	}

	fits := p.computeMatches(ctx, s)

	at := p.now().UTC()
	s.MatchesSyncedAt = &at
	if _, err := p.subjects.Upsert(ctx, s); err != nil {
		p.recorder.StageObserved(StepMatches, "error", time.Since(start))
		return nil, fmt.Errorf("save match timestamp: %w", err)
	}

	p.recorder.StageObserved(StepMatches, "ok", time.Since(start))
	p.notifier.Notify(ctx, Event{Type: EventStageCompleted, SubjectID: id, Step: StepMatches, At: at})
	p.log.Info("matches refreshed",
		append(logger.Step(name, StepMatches, "ok"),
			zap.String(logger.FieldSubjectID, id.String()),
			zap.Int("profiles", len(fits)),
		)...,
	)
	return fits, nil
}

func (p *SyncPipeline) computeMatches(ctx context.Context, s subject.Subject) []matching.FitResult {
	if p.matches != nil && s.AnalysisSyncedAt != nil {
		if cached, ok := p.matches.Get(ctx, s.ID, *s.AnalysisSyncedAt); ok {
			return cached
		}
	}
	fits := matching.Match(s.Analysis.DetectedSkills, p.catalog)
	if p.matches != nil && s.AnalysisSyncedAt != nil {
		p.matches.Put(ctx, s.ID, *s.AnalysisSyncedAt, fits)
	}
	return fits
}

package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"skill-radar/internal/domain/analysis"
	"skill-radar/internal/domain/insight"
	"skill-radar/internal/domain/matching"
	"skill-radar/internal/domain/source"
	"skill-radar/internal/domain/subject"
	"skill-radar/internal/domain/syncrun"
	"skill-radar/internal/infrastructure/persistence/memory"

	"github.com/google/uuid"
)

type fakeCodeHost struct {
	calls atomic.Int32
	fail  map[uuid.UUID]error
}

func (f *fakeCodeHost) Fetch(_ context.Context, s subject.Subject) (*source.CodeHostRaw, error) {
	f.calls.Add(1)
	if !s.HasCodeHostCredentials() {
		return nil, source.ErrNotConfigured
	}
	if err := f.fail[s.ID]; err != nil {
		return nil, source.FetchError(source.KindCodeHost, err)
	}
	return &source.CodeHostRaw{Repositories: []source.Repository{{
		Name:        "svc",
		Description: "gin api",
		Languages:   source.LanguageTotals{{Language: "Go", Bytes: 1000}},
		CommitWeeks: []int{30, 30},
	}}}, nil
}

type fakeJudge struct {
	calls atomic.Int32
	err   error
}

func (f *fakeJudge) Fetch(_ context.Context, s subject.Subject) (*source.JudgeRaw, error) {
	f.calls.Add(1)
	if !s.HasJudgeHandle() {
		return nil, source.ErrNotConfigured
	}
	if f.err != nil {
		return nil, source.FetchError(source.KindJudge, f.err)
	}
	return &source.JudgeRaw{Handle: s.JudgeHandle, Easy: 50, Medium: 20, Hard: 2}, nil
}

type fakeSelfReport struct {
	calls atomic.Int32
}

func (f *fakeSelfReport) Fetch(_ context.Context, s subject.Subject) (*source.SelfReportRaw, error) {
	f.calls.Add(1)
	if !s.HasSelfReport() {
		return nil, source.ErrNotConfigured
	}
	return &source.SelfReportRaw{Skills: []string{"Docker"}}, nil
}

type countingPacer struct {
	waits atomic.Int32
}

func (p *countingPacer) Wait(ctx context.Context) error {
	p.waits.Add(1)
	return ctx.Err()
}

type failingGenerator struct{}

func (failingGenerator) Generate(context.Context, analysis.Analysis, string) (insight.Insights, error) {
	return insight.Insights{}, errors.New("model unavailable")
}

type refusingLocker struct{}

func (refusingLocker) TryLock(context.Context, uuid.UUID) (bool, func(), error) {
	return false, nil, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (n *recordingNotifier) Notify(_ context.Context, e Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

type memRuns struct {
	mu   sync.Mutex
	runs []syncrun.Run
}

func (m *memRuns) Record(_ context.Context, r syncrun.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, r)
	return nil
}

func (m *memRuns) Recent(context.Context, int) ([]syncrun.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]syncrun.Run(nil), m.runs...), nil
}

type harness struct {
	repo       *memory.SubjectRepository
	codeHost   *fakeCodeHost
	judge      *fakeJudge
	selfReport *fakeSelfReport
	pacer      *countingPacer
	notifier   *recordingNotifier
	runs       *memRuns
}

func newHarness() *harness {
	return &harness{
		repo:       memory.NewSubjectRepository(),
		codeHost:   &fakeCodeHost{fail: map[uuid.UUID]error{}},
		judge:      &fakeJudge{},
		selfReport: &fakeSelfReport{},
		pacer:      &countingPacer{},
		notifier:   &recordingNotifier{},
		runs:       &memRuns{},
	}
}

func (h *harness) pipeline(cfg Config, mutate ...func(*Deps)) *SyncPipeline {
	catalog := []matching.TargetProfile{
		{Company: "Acme", Role: "Backend", Skills: []string{"go", "docker", "kubernetes"}},
		{Company: "Globex", Role: "Frontend", Skills: []string{"react"}},
	}
	deps := Deps{
		Subjects: h.repo,
		Sources: Sources{
			CodeHost:   h.codeHost,
			Judge:      h.judge,
			SelfReport: h.selfReport,
		},
		Generator: insight.NewHeuristic(),
		Catalog:   catalog,
		Pacer:     h.pacer,
		Notifier:  h.notifier,
		Runs:      h.runs,
	}
	for _, m := range mutate {
		m(&deps)
	}
	return NewSyncPipeline(cfg, deps)
}

func (h *harness) seed(t *testing.T, mutate func(*subject.Subject)) subject.Subject {
	t.Helper()
	s := subject.New()
	if mutate != nil {
		mutate(&s)
	}
	saved, err := h.repo.Upsert(context.Background(), s)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return saved
}

func fullyConfigured(s *subject.Subject) {
	s.CodeHost = &subject.CodeHostAccount{ID: int64(s.ID.ID()), Login: "dev", AccessToken: "tok"}
	s.JudgeHandle = "dev"
	s.SelfReportPayload = json.RawMessage(`{"skills": ["Docker"]}`)
}

func TestRunFullSync_ProducesEveryArtifact(t *testing.T) {
	h := newHarness()
	p := h.pipeline(Config{})
	s := h.seed(t, fullyConfigured)

	res, err := p.RunFullSync(context.Background(), s.ID, "Backend Engineer")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Stage != StageMatchesComputed {
		t.Fatalf("expected final stage, got %s", res.Stage)
	}
	if len(res.Matches) != 2 || res.Matches[0].Company != "Acme" {
		t.Fatalf("unexpected matches: %+v", res.Matches)
	}
	if res.Insights.Role != "Backend Engineer" {
		t.Fatalf("expected role to flow through, got %q", res.Insights.Role)
	}

	got, _ := h.repo.Get(context.Background(), s.ID)
	if got.Analysis == nil || got.Insights == nil {
		t.Fatalf("expected persisted analysis and insights")
	}
	if got.AnalysisSyncedAt == nil || got.InsightsSyncedAt == nil || got.MatchesSyncedAt == nil {
		t.Fatalf("expected all three stamps")
	}
	if got.CodeHostRaw == nil || got.JudgeRaw == nil || got.SelfReportRaw == nil {
		t.Fatalf("expected raw data folded in")
	}
	if n := h.pacer.waits.Load(); n != 3 {
		t.Fatalf("expected one pause per source, got %d", n)
	}
	last := h.notifier.events[len(h.notifier.events)-1]
	if last.Type != EventSubjectSynced || last.SubjectID != s.ID {
		t.Fatalf("expected a subject_synced event last, got %+v", last)
	}
}

func TestRunFullSync_FailFast(t *testing.T) {
	h := newHarness()
	h.judge.err = errors.New("judge down")
	p := h.pipeline(Config{})
	s := h.seed(t, fullyConfigured)

	res, err := p.RunFullSync(context.Background(), s.ID, "")
	if err == nil {
		t.Fatalf("expected failure")
	}

	var se *StageError
	if !errors.As(err, &se) || se.Step != string(source.KindJudge) || se.SubjectID != s.ID {
		t.Fatalf("expected judge StageError, got %v", err)
	}
	if !errors.Is(err, source.ErrFetchFailed) {
		t.Fatalf("expected fetch failure to unwrap, got %v", err)
	}
	if res.Stage != StageNotStarted {
		t.Fatalf("expected no stage reached, got %s", res.Stage)
	}
	if h.selfReport.calls.Load() != 0 {
		t.Fatalf("expected later sources to be skipped")
	}
	if h.pacer.waits.Load() != 2 {
		t.Fatalf("expected a pause after the failed attempt too, got %d", h.pacer.waits.Load())
	}

	got, _ := h.repo.Get(context.Background(), s.ID)
	if got.Analysis != nil || got.AnalysisSyncedAt != nil {
		t.Fatalf("expected no analysis after an aborted run")
	}
	if got.CodeHostRaw == nil {
		t.Fatalf("expected the earlier source to stay persisted")
	}
}

func TestRunFullSync_NotConfiguredSourcesAreSkipped(t *testing.T) {
	h := newHarness()
	p := h.pipeline(Config{})
	s := h.seed(t, func(s *subject.Subject) { s.JudgeHandle = "only-judge" })

	res, err := p.RunFullSync(context.Background(), s.ID, "")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Analysis.CodeHost != nil || res.Analysis.SelfReport != nil {
		t.Fatalf("expected nil summaries for unconfigured sources")
	}
	if res.Analysis.Judge == nil || res.Analysis.Judge.TotalSolved != 72 {
		t.Fatalf("expected judge summary, got %+v", res.Analysis.Judge)
	}
	if res.Insights.Role != insight.DefaultRole {
		t.Fatalf("expected default role, got %q", res.Insights.Role)
	}
}

func TestRunFullSync_InsightFailureStopsAfterAnalysis(t *testing.T) {
	h := newHarness()
	p := h.pipeline(Config{}, func(d *Deps) { d.Generator = failingGenerator{} })
	s := h.seed(t, fullyConfigured)

	res, err := p.RunFullSync(context.Background(), s.ID, "")
	var se *StageError
	if !errors.As(err, &se) || se.Step != StepInsights {
		t.Fatalf("expected insights StageError, got %v", err)
	}
	if res.Stage != StageAnalyzed {
		t.Fatalf("expected run to stop at analyzed, got %s", res.Stage)
	}
	got, _ := h.repo.Get(context.Background(), s.ID)
	if got.MatchesSyncedAt != nil {
		t.Fatalf("expected matches not to run")
	}
}

func TestRefreshInsights_SelfHealsAnalysis(t *testing.T) {
	h := newHarness()
	p := h.pipeline(Config{})
	s := h.seed(t, func(s *subject.Subject) {
		s.JudgeRaw = &source.JudgeRaw{Easy: 10, Medium: 1}
	})

	ins, err := p.RefreshInsights(context.Background(), s.ID, "SRE")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if ins.Role != "SRE" {
		t.Fatalf("unexpected role %q", ins.Role)
	}

	got, _ := h.repo.Get(context.Background(), s.ID)
	if got.Analysis == nil || got.AnalysisSyncedAt == nil {
		t.Fatalf("expected analysis persisted by the same call")
	}
	if got.Insights == nil || got.InsightsSyncedAt == nil {
		t.Fatalf("expected insights persisted")
	}
	if h.codeHost.calls.Load() != 0 || h.judge.calls.Load() != 0 {
		t.Fatalf("expected self-heal to analyze stored data without fetching")
	}
}

func TestRefreshMatches_StampsOnly(t *testing.T) {
	h := newHarness()
	p := h.pipeline(Config{})
	s := h.seed(t, func(s *subject.Subject) {
		s.SelfReportRaw = &source.SelfReportRaw{Skills: []string{"React"}}
	})

	fits, err := p.RefreshMatches(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(fits) != 2 || fits[0].Company != "Globex" || fits[0].FitScore != 100 {
		t.Fatalf("unexpected fits: %+v", fits)
	}

	got, _ := h.repo.Get(context.Background(), s.ID)
	if got.MatchesSyncedAt == nil || got.Analysis == nil {
		t.Fatalf("expected match stamp and self-healed analysis")
	}
	if got.Insights != nil || got.InsightsSyncedAt != nil {
		t.Fatalf("expected insights untouched")
	}
}

func TestSyncSource_DoesNotStamp(t *testing.T) {
	h := newHarness()
	p := h.pipeline(Config{})
	s := h.seed(t, fullyConfigured)

	if err := p.SyncSource(context.Background(), s.ID, source.KindCodeHost); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	got, _ := h.repo.Get(context.Background(), s.ID)
	if got.CodeHostRaw == nil {
		t.Fatalf("expected raw data stored")
	}
	if got.AnalysisSyncedAt != nil || got.InsightsSyncedAt != nil || got.MatchesSyncedAt != nil {
		t.Fatalf("expected no stamps from a source sync")
	}
	if h.pacer.waits.Load() != 0 {
		t.Fatalf("expected single source sync not to pause")
	}
}

func TestSyncSource_UnknownSubject(t *testing.T) {
	h := newHarness()
	p := h.pipeline(Config{})

	err := p.SyncSource(context.Background(), uuid.New(), source.KindJudge)
	if !errors.Is(err, subject.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	_, err = p.RunFullSync(context.Background(), uuid.New(), "")
	if !errors.Is(err, subject.ErrNotFound) {
		t.Fatalf("expected ErrNotFound through StageError, got %v", err)
	}
}

func TestLockedSubjectIsRejected(t *testing.T) {
	h := newHarness()
	p := h.pipeline(Config{}, func(d *Deps) { d.Locker = refusingLocker{} })
	s := h.seed(t, fullyConfigured)

	if _, err := p.RefreshAnalysis(context.Background(), s.ID); !errors.Is(err, ErrSyncInProgress) {
		t.Fatalf("expected ErrSyncInProgress, got %v", err)
	}
}

func TestRunBatchSync_FailSoft(t *testing.T) {
	for _, workers := range []int{1, 3} {
		h := newHarness()
		p := h.pipeline(Config{BatchWorkers: workers})

		first := h.seed(t, fullyConfigured)
		second := h.seed(t, fullyConfigured)
		third := h.seed(t, func(s *subject.Subject) { s.JudgeHandle = "third" })
		h.seed(t, nil)
		h.codeHost.fail[second.ID] = errors.New("502 bad gateway")

		report, err := p.RunBatchSync(context.Background())
		if err != nil {
			t.Fatalf("workers=%d: unexpected err: %v", workers, err)
		}
		if report.Attempted != 3 || report.Succeeded != 2 || report.Failed != 1 {
			t.Fatalf("workers=%d: unexpected counters %+v", workers, report)
		}
		if report.Duration < 0 || report.Trigger != TriggerManual {
			t.Fatalf("workers=%d: unexpected report %+v", workers, report)
		}

		for _, id := range []uuid.UUID{first.ID, third.ID} {
			got, _ := h.repo.Get(context.Background(), id)
			if got.Insights == nil || got.MatchesSyncedAt == nil {
				t.Fatalf("workers=%d: expected subject %s fully synced", workers, id)
			}
		}
		failed, _ := h.repo.Get(context.Background(), second.ID)
		if failed.Analysis != nil {
			t.Fatalf("workers=%d: expected failing subject to have no analysis", workers)
		}

		var sawFailure bool
		for _, o := range report.Outcomes {
			if o.SubjectID == second.ID {
				sawFailure = o.Err != nil && o.Error != "" && o.Stage == StageNotStarted
			}
		}
		if !sawFailure {
			t.Fatalf("workers=%d: expected outcome for the failing subject", workers)
		}
		if len(h.runs.runs) != 1 || h.runs.runs[0].Failed != 1 {
			t.Fatalf("workers=%d: expected run to be recorded, got %+v", workers, h.runs.runs)
		}
	}
}

func TestRunBatchSync_UsesLastRole(t *testing.T) {
	h := newHarness()
	p := h.pipeline(Config{DefaultRole: "Platform Engineer"})

	withRole := h.seed(t, func(s *subject.Subject) {
		s.JudgeHandle = "a"
		s.Insights = &insight.Insights{Role: "Data Engineer"}
	})
	withoutRole := h.seed(t, func(s *subject.Subject) { s.JudgeHandle = "b" })

	if _, err := p.RunBatchSync(context.Background()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	a, _ := h.repo.Get(context.Background(), withRole.ID)
	b, _ := h.repo.Get(context.Background(), withoutRole.ID)
	if a.Insights.Role != "Data Engineer" || b.Insights.Role != "Platform Engineer" {
		t.Fatalf("unexpected roles %q / %q", a.Insights.Role, b.Insights.Role)
	}
}

func TestRunBatchSync_CancelledContext(t *testing.T) {
	h := newHarness()
	p := h.pipeline(Config{})
	h.seed(t, fullyConfigured)
	h.seed(t, fullyConfigured)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := p.RunBatchSync(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation error, got %v", err)
	}
	if report.Attempted != 0 {
		t.Fatalf("expected nothing attempted, got %d", report.Attempted)
	}
}

func TestFixedDelay_Waits(t *testing.T) {
	start := time.Now()
	if err := FixedDelay(20 * time.Millisecond).Wait(context.Background()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Fatalf("expected the full delay")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := FixedDelay(time.Hour).Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestStage_AdvanceIsStrictlyForward(t *testing.T) {
	var s Stage
	s.advance(StageSourcesSynced)
	if s != StageSourcesSynced {
		t.Fatalf("unexpected stage %s", s)
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic when skipping a stage")
		}
	}()
	s.advance(StageInsightsReady)
}

func TestUpdateSubject(t *testing.T) {
	h := newHarness()
	p := h.pipeline(Config{})
	s := h.seed(t, nil)

	updated, err := p.UpdateSubject(context.Background(), s.ID, func(s *subject.Subject) error {
		s.JudgeHandle = "carol"
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if updated.JudgeHandle != "carol" {
		t.Fatalf("unexpected subject %+v", updated)
	}

	boom := errors.New("rejected")
	_, err = p.UpdateSubject(context.Background(), s.ID, func(s *subject.Subject) error {
		s.JudgeHandle = "dave"
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
	got, _ := h.repo.Get(context.Background(), s.ID)
	if got.JudgeHandle != "carol" {
		t.Fatalf("expected failed update not to be saved")
	}
}

type blockingCodeHost struct{}

func (blockingCodeHost) Fetch(ctx context.Context, _ subject.Subject) (*source.CodeHostRaw, error) {
	<-ctx.Done()
	return nil, source.FetchError(source.KindCodeHost, ctx.Err())
}

func TestRunFullSync_SubjectTimeoutBoundsTheRun(t *testing.T) {
	h := newHarness()
	p := h.pipeline(Config{SubjectTimeout: 50 * time.Millisecond}, func(d *Deps) {
		d.Sources.CodeHost = blockingCodeHost{}
	})
	s := h.seed(t, fullyConfigured)
	ctx := context.Background()

	_, err := p.RunFullSync(ctx, s.ID, "Backend Engineer")
	var se *StageError
	if !errors.As(err, &se) || se.Step != string(source.KindCodeHost) {
		t.Fatalf("expected a code host stage error, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected the run deadline to surface, got %v", err)
	}
	if ctx.Err() != nil {
		t.Fatalf("the run deadline must not cancel the caller")
	}
	if h.judge.calls.Load() != 0 {
		t.Fatalf("later sources must not run after the deadline")
	}
}

func TestNewSyncPipeline_ZeroPacingDelayWaitsNothing(t *testing.T) {
	h := newHarness()
	p := h.pipeline(Config{}, func(d *Deps) { d.Pacer = nil })
	s := h.seed(t, fullyConfigured)

	start := time.Now()
	if _, err := p.RunFullSync(context.Background(), s.ID, "Backend Engineer"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 400*time.Millisecond {
		t.Fatalf("expected no pacing with a zero delay, took %s", elapsed)
	}
}

type recordingMatchCache struct {
	mu          sync.Mutex
	invalidated []uuid.UUID
}

func (c *recordingMatchCache) Get(context.Context, uuid.UUID, time.Time) ([]matching.FitResult, bool) {
	return nil, false
}

func (c *recordingMatchCache) Put(context.Context, uuid.UUID, time.Time, []matching.FitResult) {}

func (c *recordingMatchCache) Invalidate(_ context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, id)
	return nil
}

func TestUpdateSubject_InvalidatesMatchesWhenSourceDataIsDropped(t *testing.T) {
	h := newHarness()
	cache := &recordingMatchCache{}
	p := h.pipeline(Config{}, func(d *Deps) { d.Matches = cache })
	s := h.seed(t, fullyConfigured)
	ctx := context.Background()

	if err := p.SyncSource(ctx, s.ID, source.KindJudge); err != nil {
		t.Fatalf("sync judge: %v", err)
	}

	if _, err := p.UpdateSubject(ctx, s.ID, func(s *subject.Subject) error {
		s.JudgeHandle = "renamed"
		return nil
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(cache.invalidated) != 0 {
		t.Fatalf("keeping source data must not touch the cache")
	}

	if _, err := p.UpdateSubject(ctx, s.ID, func(s *subject.Subject) error {
		s.JudgeHandle = ""
		s.JudgeRaw = nil
		return nil
	}); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(cache.invalidated) != 1 || cache.invalidated[0] != s.ID {
		t.Fatalf("expected one invalidation for the subject, got %v", cache.invalidated)
	}
}

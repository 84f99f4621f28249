package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"skill-radar/internal/domain/source"
	"skill-radar/internal/domain/subject"
	"skill-radar/internal/infrastructure/codehost"
	"skill-radar/internal/infrastructure/persistence/memory"
	"skill-radar/internal/infrastructure/selfreport"
	"skill-radar/internal/pipeline"

	"github.com/google/uuid"
)

type noWait struct{}

func (noWait) Wait(context.Context) error { return nil }

type stubJudge struct{}

func (stubJudge) Fetch(_ context.Context, s subject.Subject) (*source.JudgeRaw, error) {
	if !s.HasJudgeHandle() {
		return nil, source.ErrNotConfigured
	}
	return &source.JudgeRaw{Handle: s.JudgeHandle, Easy: 40, Medium: 12, Hard: 2, SyncedAt: time.Now().UTC()}, nil
}

type stubIdentity struct {
	ident codehost.Identity
	err   error
}

func (s stubIdentity) Identify(context.Context, string) (codehost.Identity, error) {
	return s.ident, s.err
}

type stubTokens struct{}

func (stubTokens) GenerateSubjectToken(id uuid.UUID) (string, error) {
	return "token-" + id.String(), nil
}

func newSubjectUsecase(t *testing.T, identity CodeHostIdentifier) (*Subject, *memory.SubjectRepository) {
	t.Helper()
	repo := memory.NewSubjectRepository()
	p := pipeline.NewSyncPipeline(pipeline.Config{}, pipeline.Deps{
		Subjects: repo,
		Sources: pipeline.Sources{
			Judge:      stubJudge{},
			SelfReport: selfreport.New(),
		},
		Pacer: noWait{},
	})
	return NewSubjectUsecase(repo, p, identity, stubTokens{}, nil), repo
}

func TestSubject_CreateNormalizesEmail(t *testing.T) {
	uc, _ := newSubjectUsecase(t, nil)

	sess, err := uc.Create(context.Background(), CreateSubjectInput{Email: " Dev@Example.COM "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sess.Subject.Email != "dev@example.com" {
		t.Fatalf("unexpected email %q", sess.Subject.Email)
	}
	if !sess.Created || sess.Token != "token-"+sess.Subject.ID.String() {
		t.Fatalf("unexpected session %+v", sess)
	}

	if _, err := uc.Create(context.Background(), CreateSubjectInput{Email: "Dev <dev@example.com>"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSubject_ConnectCodeHostCreatesThenUpdates(t *testing.T) {
	uc, repo := newSubjectUsecase(t, stubIdentity{ident: codehost.Identity{ID: 42, Login: "octo", Email: "octo@example.com"}})

	first, err := uc.ConnectCodeHost(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if !first.Created || first.Subject.CodeHost == nil || first.Subject.CodeHost.Login != "octo" {
		t.Fatalf("unexpected first session %+v", first)
	}

	second, err := uc.ConnectCodeHost(context.Background(), "tok-2")
	if err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	if second.Created || second.Subject.ID != first.Subject.ID {
		t.Fatalf("expected the same subject, got %+v", second)
	}

	stored, err := repo.Get(context.Background(), first.Subject.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.CodeHost.AccessToken != "tok-2" {
		t.Fatalf("expected refreshed token, got %q", stored.CodeHost.AccessToken)
	}
}

// staleLookup misses on its first code-host lookup, as if another connect committed
// right after it.
type staleLookup struct {
	*memory.SubjectRepository
	missed bool
}

func (r *staleLookup) FindByCodeHostID(ctx context.Context, id int64) (subject.Subject, error) {
	if !r.missed {
		r.missed = true
		return subject.Subject{}, subject.ErrNotFound
	}
	return r.SubjectRepository.FindByCodeHostID(ctx, id)
}

func TestSubject_ConnectCodeHostLosesRace(t *testing.T) {
	mem := memory.NewSubjectRepository()
	winner := subject.New()
	winner.CodeHost = &subject.CodeHostAccount{ID: 42, Login: "octo", AccessToken: "tok-1"}
	if _, err := mem.Upsert(context.Background(), winner); err != nil {
		t.Fatalf("seed: %v", err)
	}

	repo := &staleLookup{SubjectRepository: mem}
	p := pipeline.NewSyncPipeline(pipeline.Config{}, pipeline.Deps{Subjects: repo, Pacer: noWait{}})
	uc := NewSubjectUsecase(repo, p, stubIdentity{ident: codehost.Identity{ID: 42, Login: "octo"}}, stubTokens{}, nil)

	sess, err := uc.ConnectCodeHost(context.Background(), "tok-2")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if sess.Created || sess.Subject.ID != winner.ID {
		t.Fatalf("expected to attach to the existing subject, got %+v", sess)
	}
	if sess.Subject.CodeHost.AccessToken != "tok-2" {
		t.Fatalf("expected the new token stored, got %q", sess.Subject.CodeHost.AccessToken)
	}
}

func TestSubject_ConnectCodeHostErrors(t *testing.T) {
	uc, _ := newSubjectUsecase(t, stubIdentity{err: codehost.ErrUnauthorized})
	if _, err := uc.ConnectCodeHost(context.Background(), "bad"); !errors.Is(err, codehost.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := uc.ConnectCodeHost(context.Background(), "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	none, _ := newSubjectUsecase(t, nil)
	if _, err := none.ConnectCodeHost(context.Background(), "tok"); !errors.Is(err, source.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestSubject_SetJudgeHandle(t *testing.T) {
	uc, _ := newSubjectUsecase(t, nil)
	sess, err := uc.Create(context.Background(), CreateSubjectInput{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := sess.Subject.ID

	if _, err := uc.SetJudgeHandle(context.Background(), id, "a/b"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	s, err := uc.SetJudgeHandle(context.Background(), id, " coder ")
	if err != nil {
		t.Fatalf("set handle: %v", err)
	}
	if s.JudgeHandle != "coder" || s.JudgeRaw == nil || s.JudgeRaw.Easy != 40 {
		t.Fatalf("expected synced judge data, got %+v", s)
	}
	if s.AnalysisSyncedAt != nil {
		t.Fatalf("a source sync must not stamp analysis")
	}

	s, err = uc.SetJudgeHandle(context.Background(), id, "")
	if err != nil {
		t.Fatalf("clear handle: %v", err)
	}
	if s.JudgeHandle != "" || s.JudgeRaw != nil {
		t.Fatalf("expected judge cleared, got %+v", s)
	}

	if _, err := uc.SetJudgeHandle(context.Background(), uuid.New(), "coder"); !errors.Is(err, subject.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSubject_UploadSelfReport(t *testing.T) {
	uc, _ := newSubjectUsecase(t, nil)
	sess, err := uc.Create(context.Background(), CreateSubjectInput{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := sess.Subject.ID

	if _, err := uc.UploadSelfReport(context.Background(), id, json.RawMessage(`{"skills":`)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	s, err := uc.UploadSelfReport(context.Background(), id, json.RawMessage(`{"skills":["Go",{"name":"SQL"},3]}`))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if s.SelfReportRaw == nil || len(s.SelfReportRaw.Skills) != 2 {
		t.Fatalf("expected two extracted skills, got %+v", s.SelfReportRaw)
	}

	s, err = uc.UploadSelfReport(context.Background(), id, json.RawMessage(`null`))
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if s.HasSelfReport() || s.SelfReportRaw != nil {
		t.Fatalf("expected self report cleared, got %+v", s)
	}
}

func TestSubject_RefreshRunsEveryStage(t *testing.T) {
	uc, _ := newSubjectUsecase(t, nil)
	sess, err := uc.Create(context.Background(), CreateSubjectInput{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := sess.Subject.ID
	if _, err := uc.UploadSelfReport(context.Background(), id, json.RawMessage(`{"skills":["Go","Docker"]}`)); err != nil {
		t.Fatalf("upload: %v", err)
	}

	res, err := uc.Refresh(context.Background(), id, "Backend Engineer")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if res.Stage != pipeline.StageMatchesComputed {
		t.Fatalf("expected all stages, got %s", res.Stage)
	}
	if res.Insights.Role != "Backend Engineer" {
		t.Fatalf("unexpected role %q", res.Insights.Role)
	}

	got, err := uc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.AnalysisSyncedAt == nil || got.InsightsSyncedAt == nil || got.MatchesSyncedAt == nil {
		t.Fatalf("expected every stamp set, got %+v", got)
	}
}

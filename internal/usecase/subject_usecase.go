package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"skill-radar/internal/domain/analysis"
	"skill-radar/internal/domain/insight"
	"skill-radar/internal/domain/matching"
	"skill-radar/internal/domain/source"
	"skill-radar/internal/domain/subject"
	"skill-radar/internal/infrastructure/codehost"
	"skill-radar/internal/pipeline"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrInvalidInput = errors.New("invalid input")

// SyncService is the part of the sync pipeline the usecases drive.
type SyncService interface {
	UpdateSubject(ctx context.Context, id uuid.UUID, fn func(*subject.Subject) error) (subject.Subject, error)
	SyncSource(ctx context.Context, id uuid.UUID, kind source.Kind) error
	RefreshAnalysis(ctx context.Context, id uuid.UUID) (analysis.Analysis, error)
	RefreshInsights(ctx context.Context, id uuid.UUID, role string) (insight.Insights, error)
	RefreshMatches(ctx context.Context, id uuid.UUID) ([]matching.FitResult, error)
	RunFullSync(ctx context.Context, id uuid.UUID, role string) (pipeline.FullSyncResult, error)
	RunBatch(ctx context.Context, trigger string) (pipeline.BatchReport, error)
}

type CodeHostIdentifier interface {
	Identify(ctx context.Context, accessToken string) (codehost.Identity, error)
}

type TokenIssuer interface {
	GenerateSubjectToken(subjectID uuid.UUID) (string, error)
}

type SubjectUsecase interface {
	Create(ctx context.Context, in CreateSubjectInput) (SubjectSession, error)
	Get(ctx context.Context, id uuid.UUID) (subject.Subject, error)
	ConnectCodeHost(ctx context.Context, accessToken string) (SubjectSession, error)
	SetJudgeHandle(ctx context.Context, id uuid.UUID, handle string) (subject.Subject, error)
	UploadSelfReport(ctx context.Context, id uuid.UUID, payload json.RawMessage) (subject.Subject, error)

	SyncSource(ctx context.Context, id uuid.UUID, kind source.Kind) (subject.Subject, error)
	Analysis(ctx context.Context, id uuid.UUID) (analysis.Analysis, error)
	Insights(ctx context.Context, id uuid.UUID, role string) (insight.Insights, error)
	Matches(ctx context.Context, id uuid.UUID) ([]matching.FitResult, error)
	Refresh(ctx context.Context, id uuid.UUID, role string) (pipeline.FullSyncResult, error)
	RunBatch(ctx context.Context, trigger string) (pipeline.BatchReport, error)
}

type CreateSubjectInput struct {
	Email string
}

// SubjectSession is a subject plus a token scoped to it. Token is empty when no issuer
// is configured.
type SubjectSession struct {
	Subject subject.Subject
	Token   string
	Created bool
}

type Subject struct {
	subjects subject.Repository
	sync     SyncService
	identity CodeHostIdentifier
	tokens   TokenIssuer
	log      *zap.Logger
}

func NewSubjectUsecase(subjects subject.Repository, sync SyncService, identity CodeHostIdentifier, tokens TokenIssuer, logger *zap.Logger) *Subject {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Subject{subjects: subjects, sync: sync, identity: identity, tokens: tokens, log: logger}
}

func (u *Subject) Create(ctx context.Context, in CreateSubjectInput) (SubjectSession, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return SubjectSession{}, err
	}

	s := subject.New()
	s.Email = email
	saved, err := u.subjects.Upsert(ctx, s)
	if err != nil {
		return SubjectSession{}, fmt.Errorf("create subject: %w", err)
	}
	return u.session(saved, true)
}

func (u *Subject) Get(ctx context.Context, id uuid.UUID) (subject.Subject, error) {
	return u.subjects.Get(ctx, id)
}

// ConnectCodeHost resolves the token's identity and attaches it to the subject already
// linked to that account, creating one on first sight.
func (u *Subject) ConnectCodeHost(ctx context.Context, accessToken string) (SubjectSession, error) {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return SubjectSession{}, fmt.Errorf("%w: access token is required", ErrInvalidInput)
	}
	if u.identity == nil {
		return SubjectSession{}, fmt.Errorf("code host identity: %w", source.ErrNotConfigured)
	}

	ident, err := u.identity.Identify(ctx, accessToken)
	if err != nil {
		return SubjectSession{}, err
	}
	account := &subject.CodeHostAccount{ID: ident.ID, Login: ident.Login, AccessToken: accessToken}

	existing, err := u.subjects.FindByCodeHostID(ctx, ident.ID)
	switch {
	case errors.Is(err, subject.ErrNotFound):
		s := subject.New()
		s.Email = strings.TrimSpace(ident.Email)
		s.CodeHost = account
		saved, err := u.subjects.Upsert(ctx, s)
		if err == nil {
			u.log.Info("subject created from code host identity",
				zap.String("subject_id", saved.ID.String()), zap.String("login", ident.Login))
			return u.session(saved, true)
		}
		if !errors.Is(err, subject.ErrCodeHostTaken) {
			return SubjectSession{}, fmt.Errorf("create subject: %w", err)
		}
		// A concurrent connect linked the account first; attach to its subject.
		if existing, err = u.subjects.FindByCodeHostID(ctx, ident.ID); err != nil {
			return SubjectSession{}, fmt.Errorf("find subject by code host id: %w", err)
		}
	case err != nil:
		return SubjectSession{}, fmt.Errorf("find subject by code host id: %w", err)
	}

	saved, err := u.sync.UpdateSubject(ctx, existing.ID, func(s *subject.Subject) error {
		s.CodeHost = account
		if s.Email == "" {
			s.Email = strings.TrimSpace(ident.Email)
		}
		return nil
	})
	if err != nil {
		return SubjectSession{}, err
	}
	return u.session(saved, false)
}

// SetJudgeHandle stores the handle and syncs the judge right away. An empty handle
// disconnects the judge and drops its stored data.
func (u *Subject) SetJudgeHandle(ctx context.Context, id uuid.UUID, handle string) (subject.Subject, error) {
	handle = strings.TrimSpace(handle)
	if strings.ContainsAny(handle, "/?# ") {
		return subject.Subject{}, fmt.Errorf("%w: judge handle %q", ErrInvalidInput, handle)
	}

	if _, err := u.sync.UpdateSubject(ctx, id, func(s *subject.Subject) error {
		s.JudgeHandle = handle
		if handle == "" {
			s.JudgeRaw = nil
		}
		return nil
	}); err != nil {
		return subject.Subject{}, err
	}
	if handle == "" {
		return u.subjects.Get(ctx, id)
	}
	return u.SyncSource(ctx, id, source.KindJudge)
}

// UploadSelfReport stores the payload and syncs it right away. An empty or null payload
// clears the self report.
func (u *Subject) UploadSelfReport(ctx context.Context, id uuid.UUID, payload json.RawMessage) (subject.Subject, error) {
	trimmed := strings.TrimSpace(string(payload))
	reset := trimmed == "" || trimmed == "null"
	if !reset && !json.Valid([]byte(trimmed)) {
		return subject.Subject{}, fmt.Errorf("%w: self report is not valid JSON", ErrInvalidInput)
	}

	if _, err := u.sync.UpdateSubject(ctx, id, func(s *subject.Subject) error {
		if reset {
			s.SelfReportPayload = nil
			s.SelfReportRaw = nil
			return nil
		}
		s.SelfReportPayload = json.RawMessage(trimmed)
		return nil
	}); err != nil {
		return subject.Subject{}, err
	}
	if reset {
		return u.subjects.Get(ctx, id)
	}
	return u.SyncSource(ctx, id, source.KindSelfReport)
}

func (u *Subject) SyncSource(ctx context.Context, id uuid.UUID, kind source.Kind) (subject.Subject, error) {
	if err := u.sync.SyncSource(ctx, id, kind); err != nil {
		return subject.Subject{}, err
	}
	return u.subjects.Get(ctx, id)
}

func (u *Subject) Analysis(ctx context.Context, id uuid.UUID) (analysis.Analysis, error) {
	return u.sync.RefreshAnalysis(ctx, id)
}

func (u *Subject) Insights(ctx context.Context, id uuid.UUID, role string) (insight.Insights, error) {
	return u.sync.RefreshInsights(ctx, id, role)
}

func (u *Subject) Matches(ctx context.Context, id uuid.UUID) ([]matching.FitResult, error) {
	return u.sync.RefreshMatches(ctx, id)
}

func (u *Subject) Refresh(ctx context.Context, id uuid.UUID, role string) (pipeline.FullSyncResult, error) {
	return u.sync.RunFullSync(ctx, id, role)
}

func (u *Subject) RunBatch(ctx context.Context, trigger string) (pipeline.BatchReport, error) {
	return u.sync.RunBatch(ctx, trigger)
}

func (u *Subject) session(s subject.Subject, created bool) (SubjectSession, error) {
	out := SubjectSession{Subject: s, Created: created}
	if u.tokens == nil {
		return out, nil
	}
	tok, err := u.tokens.GenerateSubjectToken(s.ID)
	if err != nil {
		return SubjectSession{}, fmt.Errorf("issue subject token: %w", err)
	}
	out.Token = tok
	return out, nil
}

func normalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", fmt.Errorf("%w: email %q", ErrInvalidInput, raw)
	}
	return strings.ToLower(addr.Address), nil
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"skill-radar/internal/database"
	"skill-radar/internal/domain/analysis"
	"skill-radar/internal/domain/insight"
	"skill-radar/internal/domain/source"
	"skill-radar/internal/domain/subject"
	"skill-radar/internal/pkg/secret"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const subjectColumns = `id, email, codehost_id, codehost_login, codehost_token, judge_handle,
	self_report_payload, codehost_raw, judge_raw, self_report_raw, analysis, insights,
	analysis_synced_at, insights_synced_at, matches_synced_at, created_at, updated_at`

// SubjectRepository stores subjects in the subjects table. Raw source data, analysis and
// insights live in JSONB columns; the code-host token is sealed before it is written.
type SubjectRepository struct {
	db     database.DB
	sealer *secret.Sealer
}

// NewSubjectRepository returns a repository over db. A nil sealer stores tokens as-is.
func NewSubjectRepository(db database.DB, sealer *secret.Sealer) *SubjectRepository {
	return &SubjectRepository{db: db, sealer: sealer}
}

func (r *SubjectRepository) Get(ctx context.Context, id uuid.UUID) (subject.Subject, error) {
	row := r.db.QueryRow(ctx, `SELECT `+subjectColumns+` FROM subjects WHERE id = $1`, id)
	return r.scan(row)
}

func (r *SubjectRepository) FindByCodeHostID(ctx context.Context, codeHostID int64) (subject.Subject, error) {
	row := r.db.QueryRow(ctx, `SELECT `+subjectColumns+` FROM subjects WHERE codehost_id = $1`, codeHostID)
	return r.scan(row)
}

func (r *SubjectRepository) FindEligible(ctx context.Context) ([]subject.Subject, error) {
	rows, err := r.db.Query(ctx, `SELECT `+subjectColumns+` FROM subjects
		WHERE codehost_token IS NOT NULL
		   OR NULLIF(judge_handle, '') IS NOT NULL
		   OR self_report_payload IS NOT NULL
		ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]subject.Subject, 0)
	for rows.Next() {
		s, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		// The SQL filter is coarse; blank tokens and "null" payloads are dropped here.
		if s.Eligible() {
			out = append(out, s)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SubjectRepository) Upsert(ctx context.Context, s subject.Subject) (subject.Subject, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	rec, err := r.encode(s)
	if err != nil {
		return subject.Subject{}, err
	}

	row := r.db.QueryRow(ctx, `
INSERT INTO subjects (`+subjectColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, COALESCE($16, now()), now())
ON CONFLICT (id) DO UPDATE SET
	email = EXCLUDED.email,
	codehost_id = EXCLUDED.codehost_id,
	codehost_login = EXCLUDED.codehost_login,
	codehost_token = EXCLUDED.codehost_token,
	judge_handle = EXCLUDED.judge_handle,
	self_report_payload = EXCLUDED.self_report_payload,
	codehost_raw = EXCLUDED.codehost_raw,
	judge_raw = EXCLUDED.judge_raw,
	self_report_raw = EXCLUDED.self_report_raw,
	analysis = EXCLUDED.analysis,
	insights = EXCLUDED.insights,
	analysis_synced_at = EXCLUDED.analysis_synced_at,
	insights_synced_at = EXCLUDED.insights_synced_at,
	matches_synced_at = EXCLUDED.matches_synced_at,
	updated_at = now()
RETURNING `+subjectColumns,
		rec.id, rec.email, rec.codeHostID, rec.codeHostLogin, rec.codeHostToken, rec.judgeHandle,
		rec.selfReportPayload, rec.codeHostRaw, rec.judgeRaw, rec.selfReportRaw, rec.analysis, rec.insights,
		rec.analysisSyncedAt, rec.insightsSyncedAt, rec.matchesSyncedAt, rec.createdAt,
	)
	saved, err := r.scan(row)
	if errors.Is(err, database.ErrUniqueViolation) {
		return subject.Subject{}, fmt.Errorf("%w: %w", subject.ErrCodeHostTaken, err)
	}
	return saved, err
}

// subjectRecord is the column-level shape of a subject.
type subjectRecord struct {
	id                uuid.UUID
	email             *string
	codeHostID        *int64
	codeHostLogin     *string
	codeHostToken     []byte
	judgeHandle       *string
	selfReportPayload []byte
	codeHostRaw       []byte
	judgeRaw          []byte
	selfReportRaw     []byte
	analysis          []byte
	insights          []byte
	analysisSyncedAt  *time.Time
	insightsSyncedAt  *time.Time
	matchesSyncedAt   *time.Time
	createdAt         *time.Time
	updatedAt         *time.Time
}

func (r *SubjectRepository) encode(s subject.Subject) (subjectRecord, error) {
	rec := subjectRecord{
		id:               s.ID,
		email:            nullString(s.Email),
		judgeHandle:      nullString(s.JudgeHandle),
		analysisSyncedAt: s.AnalysisSyncedAt,
		insightsSyncedAt: s.InsightsSyncedAt,
		matchesSyncedAt:  s.MatchesSyncedAt,
	}
	if !s.CreatedAt.IsZero() {
		t := s.CreatedAt
		rec.createdAt = &t
	}
	if s.HasSelfReport() {
		rec.selfReportPayload = []byte(s.SelfReportPayload)
	}
	if s.CodeHost != nil {
		id := s.CodeHost.ID
		rec.codeHostID = &id
		rec.codeHostLogin = nullString(s.CodeHost.Login)
		token, err := r.sealer.Seal(s.CodeHost.AccessToken)
		if err != nil {
			return subjectRecord{}, fmt.Errorf("seal code host token: %w", err)
		}
		rec.codeHostToken = token
	}

	var err error
	if rec.codeHostRaw, err = marshalNullable(s.CodeHostRaw); err != nil {
		return subjectRecord{}, err
	}
	if rec.judgeRaw, err = marshalNullable(s.JudgeRaw); err != nil {
		return subjectRecord{}, err
	}
	if rec.selfReportRaw, err = marshalNullable(s.SelfReportRaw); err != nil {
		return subjectRecord{}, err
	}
	if rec.analysis, err = marshalNullable(s.Analysis); err != nil {
		return subjectRecord{}, err
	}
	if rec.insights, err = marshalNullable(s.Insights); err != nil {
		return subjectRecord{}, err
	}
	return rec, nil
}

func (r *SubjectRepository) decode(rec subjectRecord) (subject.Subject, error) {
	s := subject.Subject{
		ID:                rec.id,
		Email:             deref(rec.email),
		JudgeHandle:       deref(rec.judgeHandle),
		SelfReportPayload: rec.selfReportPayload,
		AnalysisSyncedAt:  utc(rec.analysisSyncedAt),
		InsightsSyncedAt:  utc(rec.insightsSyncedAt),
		MatchesSyncedAt:   utc(rec.matchesSyncedAt),
	}
	if rec.createdAt != nil {
		s.CreatedAt = rec.createdAt.UTC()
	}
	if rec.updatedAt != nil {
		s.UpdatedAt = rec.updatedAt.UTC()
	}
	if rec.codeHostID != nil {
		token, err := r.sealer.Open(rec.codeHostToken)
		if err != nil {
			return subject.Subject{}, fmt.Errorf("open code host token: %w", err)
		}
		s.CodeHost = &subject.CodeHostAccount{
			ID:          *rec.codeHostID,
			Login:       deref(rec.codeHostLogin),
			AccessToken: token,
		}
	}

	var err error
	if s.CodeHostRaw, err = unmarshalNullable[source.CodeHostRaw](rec.codeHostRaw); err != nil {
		return subject.Subject{}, err
	}
	if s.JudgeRaw, err = unmarshalNullable[source.JudgeRaw](rec.judgeRaw); err != nil {
		return subject.Subject{}, err
	}
	if s.SelfReportRaw, err = unmarshalNullable[source.SelfReportRaw](rec.selfReportRaw); err != nil {
		return subject.Subject{}, err
	}
	if s.Analysis, err = unmarshalNullable[analysis.Analysis](rec.analysis); err != nil {
		return subject.Subject{}, err
	}
	if s.Insights, err = unmarshalNullable[insight.Insights](rec.insights); err != nil {
		return subject.Subject{}, err
	}
	return s, nil
}

func (r *SubjectRepository) scan(row database.Row) (subject.Subject, error) {
	var rec subjectRecord
	err := row.Scan(
		&rec.id, &rec.email, &rec.codeHostID, &rec.codeHostLogin, &rec.codeHostToken, &rec.judgeHandle,
		&rec.selfReportPayload, &rec.codeHostRaw, &rec.judgeRaw, &rec.selfReportRaw, &rec.analysis, &rec.insights,
		&rec.analysisSyncedAt, &rec.insightsSyncedAt, &rec.matchesSyncedAt, &rec.createdAt, &rec.updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
			return subject.Subject{}, subject.ErrNotFound
		}
		return subject.Subject{}, err
	}
	return r.decode(rec)
}

func marshalNullable[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return b, nil
}

func unmarshalNullable[T any](b []byte) (*T, error) {
	if len(b) == 0 || string(b) == "null" {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("decode %T: %w", v, err)
	}
	return &v, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

func (r *SubjectRepository) Counts(ctx context.Context) (subject.Counts, error) {
	var out subject.Counts
	row := r.db.QueryRow(ctx,
		`SELECT COUNT(1),
		        COUNT(1) FILTER (WHERE codehost_token IS NOT NULL
		                            OR NULLIF(judge_handle, '') IS NOT NULL
		                            OR self_report_payload IS NOT NULL),
		        COUNT(analysis_synced_at),
		        COUNT(insights_synced_at),
		        COUNT(matches_synced_at)
		 FROM subjects`,
	)
	if err := row.Scan(&out.Total, &out.Eligible, &out.Analyzed, &out.WithInsights, &out.MatchesSynced); err != nil {
		return subject.Counts{}, err
	}
	return out, nil
}

var (
	_ subject.Repository = (*SubjectRepository)(nil)
	_ subject.Counter    = (*SubjectRepository)(nil)
)

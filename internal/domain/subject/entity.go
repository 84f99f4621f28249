package subject

import (
	"encoding/json"
	"strings"
	"time"

	"skill-radar/internal/domain/analysis"
	"skill-radar/internal/domain/insight"
	"skill-radar/internal/domain/source"

	"github.com/google/uuid"
)

// CodeHostAccount is the identity resolved from a code-host access token.
type CodeHostAccount struct {
	ID          int64  `json:"id"`
	Login       string `json:"login"`
	AccessToken string `json:"-"`
}

// Subject is the aggregate root: one record per person.
type Subject struct {
	ID    uuid.UUID
	Email string

	CodeHost          *CodeHostAccount
	JudgeHandle       string
	SelfReportPayload json.RawMessage

	CodeHostRaw   *source.CodeHostRaw
	JudgeRaw      *source.JudgeRaw
	SelfReportRaw *source.SelfReportRaw

	Analysis *analysis.Analysis
	Insights *insight.Insights

	AnalysisSyncedAt *time.Time
	InsightsSyncedAt *time.Time
	MatchesSyncedAt  *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func New() Subject {
	now := time.Now().UTC()
	return Subject{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

func (s Subject) HasCodeHostCredentials() bool {
	return s.CodeHost != nil && strings.TrimSpace(s.CodeHost.AccessToken) != ""
}

func (s Subject) HasJudgeHandle() bool {
	return strings.TrimSpace(s.JudgeHandle) != ""
}

func (s Subject) HasSelfReport() bool {
	p := strings.TrimSpace(string(s.SelfReportPayload))
	return p != "" && p != "null"
}

// Eligible reports whether a batch sync has anything to fetch for this subject.
func (s Subject) Eligible() bool {
	return s.HasCodeHostCredentials() || s.HasJudgeHandle() || s.HasSelfReport()
}

// AnalysisInput collects whatever raw data the subject currently holds.
func (s Subject) AnalysisInput() analysis.Input {
	return analysis.Input{
		CodeHost:   s.CodeHostRaw,
		Judge:      s.JudgeRaw,
		SelfReport: s.SelfReportRaw,
	}
}

// LastRole is the role of the latest insights, or "" when none exist.
func (s Subject) LastRole() string {
	if s.Insights == nil {
		return ""
	}
	return s.Insights.Role
}

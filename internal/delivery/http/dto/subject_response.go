package dto

import (
	"time"

	"skill-radar/internal/domain/subject"

	"github.com/google/uuid"
)

type CodeHostAccountResponse struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
}

// SourceStatusResponse says whether a source is connected and when it last synced.
type SourceStatusResponse struct {
	Connected bool       `json:"connected"`
	SyncedAt  *time.Time `json:"synced_at"`
}

type SubjectResponse struct {
	ID          uuid.UUID                `json:"id"`
	Email       string                   `json:"email,omitempty"`
	CodeHost    *CodeHostAccountResponse `json:"codehost"`
	JudgeHandle string                   `json:"judge_handle,omitempty"`

	Sources map[string]SourceStatusResponse `json:"sources"`

	AnalysisSyncedAt *time.Time `json:"analysis_synced_at"`
	InsightsSyncedAt *time.Time `json:"insights_synced_at"`
	MatchesSyncedAt  *time.Time `json:"matches_synced_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// SubjectSessionResponse is returned when a subject is created or resolved from a
// code-host token.
type SubjectSessionResponse struct {
	Subject     SubjectResponse `json:"subject"`
	AccessToken string          `json:"access_token,omitempty"`
	Created     bool            `json:"created"`
}

func NewSubjectResponse(s subject.Subject) SubjectResponse {
	out := SubjectResponse{
		ID:               s.ID,
		Email:            s.Email,
		JudgeHandle:      s.JudgeHandle,
		AnalysisSyncedAt: s.AnalysisSyncedAt,
		InsightsSyncedAt: s.InsightsSyncedAt,
		MatchesSyncedAt:  s.MatchesSyncedAt,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
		Sources:          make(map[string]SourceStatusResponse, 3),
	}
	if s.CodeHost != nil {
		out.CodeHost = &CodeHostAccountResponse{ID: s.CodeHost.ID, Login: s.CodeHost.Login}
	}

	codeHost := SourceStatusResponse{Connected: s.HasCodeHostCredentials()}
	if s.CodeHostRaw != nil {
		codeHost.SyncedAt = timePtr(s.CodeHostRaw.SyncedAt)
	}
	judge := SourceStatusResponse{Connected: s.HasJudgeHandle()}
	if s.JudgeRaw != nil {
		judge.SyncedAt = timePtr(s.JudgeRaw.SyncedAt)
	}
	selfReport := SourceStatusResponse{Connected: s.HasSelfReport()}
	if s.SelfReportRaw != nil {
		selfReport.SyncedAt = timePtr(s.SelfReportRaw.SyncedAt)
	}
	out.Sources["codehost"] = codeHost
	out.Sources["judge"] = judge
	out.Sources["self_report"] = selfReport
	return out
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

package dto

import (
	"skill-radar/internal/domain/analysis"
	"skill-radar/internal/domain/insight"
	"skill-radar/internal/domain/matching"
	"skill-radar/internal/pipeline"
)

type MatchesResponse struct {
	Matches []matching.FitResult `json:"matches"`
}

type FullSyncResponse struct {
	Stage    string               `json:"stage"`
	Analysis analysis.Analysis    `json:"analysis"`
	Insights insight.Insights     `json:"insights"`
	Matches  []matching.FitResult `json:"matches"`
}

func NewFullSyncResponse(r pipeline.FullSyncResult) FullSyncResponse {
	matches := r.Matches
	if matches == nil {
		matches = []matching.FitResult{}
	}
	return FullSyncResponse{
		Stage:    r.Stage.String(),
		Analysis: r.Analysis,
		Insights: r.Insights,
		Matches:  matches,
	}
}

type BatchResponse struct {
	Trigger    string           `json:"trigger"`
	Attempted  int              `json:"attempted"`
	Succeeded  int              `json:"succeeded"`
	Failed     int              `json:"failed"`
	DurationMS int64            `json:"duration_ms"`
	Outcomes   []SubjectOutcome `json:"outcomes"`
}

type SubjectOutcome struct {
	SubjectID  string `json:"subject_id"`
	Stage      string `json:"stage"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

func NewBatchResponse(r pipeline.BatchReport) BatchResponse {
	out := BatchResponse{
		Trigger:    r.Trigger,
		Attempted:  r.Attempted,
		Succeeded:  r.Succeeded,
		Failed:     r.Failed,
		DurationMS: r.Duration.Milliseconds(),
		Outcomes:   make([]SubjectOutcome, 0, len(r.Outcomes)),
	}
	for _, o := range r.Outcomes {
		out.Outcomes = append(out.Outcomes, SubjectOutcome{
			SubjectID:  o.SubjectID.String(),
			Stage:      o.Stage.String(),
			Error:      o.Error,
			DurationMS: o.Duration.Milliseconds(),
		})
	}
	return out
}

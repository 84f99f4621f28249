package source

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Kind string

const (
	KindCodeHost   Kind = "codehost"
	KindJudge      Kind = "judge"
	KindSelfReport Kind = "self_report"
)

// Kinds lists the sources in the fixed order a full sync visits them.
var Kinds = []Kind{KindCodeHost, KindJudge, KindSelfReport}

var (
	// ErrNotConfigured means the subject has no credentials or handle for a source.
	// It is an expected state, not a failure.
	ErrNotConfigured = errors.New("source not configured")
	ErrFetchFailed   = errors.New("source fetch failed")
	ErrUnknownKind   = errors.New("unknown source")
)

func ParseKind(raw string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(raw)))
	switch k {
	case KindCodeHost, KindJudge, KindSelfReport:
		return k, nil
	case "github", "code-host", "code_host":
		return KindCodeHost, nil
	case "leetcode":
		return KindJudge, nil
	case "self-report", "selfreport", "linkedin":
		return KindSelfReport, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, raw)
	}
}

// FetchError wraps a whole-source failure so callers can match ErrFetchFailed.
func FetchError(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrFetchFailed, kind, err)
}

type LanguageBytes struct {
	Language string `json:"language"`
	Bytes    int64  `json:"bytes"`
}

// LanguageTotals is an insertion-ordered language -> bytes map.
type LanguageTotals []LanguageBytes

// Add accumulates bytes for lang, appending it when seen for the first time.
func (t LanguageTotals) Add(lang string, bytes int64) LanguageTotals {
	for i := range t {
		if t[i].Language == lang {
			t[i].Bytes += bytes
			return t
		}
	}
	return append(t, LanguageBytes{Language: lang, Bytes: bytes})
}

func (t LanguageTotals) Get(lang string) (int64, bool) {
	for _, lb := range t {
		if lb.Language == lang {
			return lb.Bytes, true
		}
	}
	return 0, false
}

type Repository struct {
	Name        string   `json:"name"`
	FullName    string   `json:"full_name"`
	Description string   `json:"description,omitempty"`
	Topics      []string `json:"topics,omitempty"`

	Languages LanguageTotals `json:"languages,omitempty"`

	// CommitWeeks is nil when the commit-activity call failed for this repository.
	CommitWeeks []int `json:"commit_weeks"`
}

func (r Repository) CommitStatsAvailable() bool {
	return r.CommitWeeks != nil
}

type CodeHostRaw struct {
	Repositories []Repository `json:"repositories"`
	SyncedAt     time.Time    `json:"synced_at"`
}

type TopicCount struct {
	Name   string `json:"name"`
	Solved int    `json:"solved"`
}

type JudgeRaw struct {
	Handle string `json:"handle"`
	Easy   int    `json:"easy"`
	Medium int    `json:"medium"`
	Hard   int    `json:"hard"`

	// TotalSolved is the total reported by the judge, nil when absent.
	TotalSolved *int         `json:"total_solved,omitempty"`
	Topics      []TopicCount `json:"topics,omitempty"`
	SyncedAt    time.Time    `json:"synced_at"`
}

type SelfReportRaw struct {
	Skills   []string  `json:"skills"`
	SyncedAt time.Time `json:"synced_at"`
}

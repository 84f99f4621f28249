package pipeline

import "fmt"

// Stage is how far one run got. Runs only move forward.
type Stage int

const (
	StageNotStarted Stage = iota
	StageSourcesSynced
	StageAnalyzed
	StageInsightsReady
	StageMatchesComputed
)

func (s Stage) String() string {
	switch s {
	case StageNotStarted:
		return "not_started"
	case StageSourcesSynced:
		return "sources_synced"
	case StageAnalyzed:
		return "analyzed"
	case StageInsightsReady:
		return "insights_ready"
	case StageMatchesComputed:
		return "matches_computed"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// advance moves to the next stage. Skipping or going back is a programming error.
func (s *Stage) advance(to Stage) {
	if to != *s+1 {
		panic(fmt.Sprintf("pipeline: invalid stage transition %s -> %s", *s, to))
	}
	*s = to
}

// Step names used in logs, metrics and StageError.
const (
	StepAnalysis = "analysis"
	StepInsights = "insights"
	StepMatches  = "matches"
	StepLoad     = "load"
)

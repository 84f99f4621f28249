package analysis

import "skill-radar/internal/domain/source"

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

var difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

type CodeHostSummary struct {
	TotalRepos             int                   `json:"total_repos"`
	Languages              source.LanguageTotals `json:"languages"`
	DominantLanguages      []string              `json:"dominant_languages"`
	FrameworksAndLibraries []string              `json:"frameworks_and_libraries"`
	DominantStack          []string              `json:"dominant_stack"`
	CommitFrequencyScore   int                   `json:"commit_frequency_score"`
	TotalCommits           int                   `json:"total_commits"`
	ReposAnalyzedForCommit int                   `json:"repos_analyzed_for_commits"`
	ReposExcludedFromStats int                   `json:"repos_excluded_from_commits"`
}

type JudgeSummary struct {
	TotalSolved      int                `json:"total_solved"`
	SolvedByTier     map[Difficulty]int `json:"solved_by_difficulty"`
	WeakDifficulties []Difficulty       `json:"weak_difficulties"`
	WeakTopics       []string           `json:"weak_topics"`
}

type SelfReportSummary struct {
	Skills           []string `json:"skills"`
	NormalizedSkills []string `json:"normalized_skills"`
}

// Analysis is the persisted snapshot derived from whatever raw source data exists.
type Analysis struct {
	DetectedSkills []string `json:"detected_skills"`
	StrongAreas    []string `json:"strong_areas"`
	WeakAreas      []string `json:"weak_areas"`
	MissingSkills  []string `json:"missing_skills"`

	CodeHost   *CodeHostSummary   `json:"codehost_summary"`
	Judge      *JudgeSummary      `json:"judge_summary"`
	SelfReport *SelfReportSummary `json:"self_report_summary"`
}

// TotalJudgeSolved returns 0 when the judge source never synced.
func (a Analysis) TotalJudgeSolved() int {
	if a.Judge == nil {
		return 0
	}
	return a.Judge.TotalSolved
}

// CommitFrequencyScore returns 0 when the code host never synced.
func (a Analysis) CommitFrequencyScore() int {
	if a.CodeHost == nil {
		return 0
	}
	return a.CodeHost.CommitFrequencyScore
}

// Input carries the raw data of one pipeline run. Nil fields mean the source never synced.
type Input struct {
	CodeHost   *source.CodeHostRaw
	Judge      *source.JudgeRaw
	SelfReport *source.SelfReportRaw
}

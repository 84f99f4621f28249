package analysis

import "skill-radar/internal/domain/source"

const (
	weakTierRatio       = 0.3
	weakTopicUpperBound = 5
)

func summarizeJudge(raw *source.JudgeRaw) *JudgeSummary {
	if raw == nil {
		return nil
	}

	byTier := map[Difficulty]int{
		DifficultyEasy:   raw.Easy,
		DifficultyMedium: raw.Medium,
		DifficultyHard:   raw.Hard,
	}

	total := raw.Easy + raw.Medium + raw.Hard
	if raw.TotalSolved != nil {
		total = *raw.TotalSolved
	}

	maxSolved := 0
	for _, d := range difficulties {
		if byTier[d] > maxSolved {
			maxSolved = byTier[d]
		}
	}

	weak := make([]Difficulty, 0)
	if maxSolved > 0 {
		threshold := float64(maxSolved) * weakTierRatio
		for _, d := range difficulties {
			if float64(byTier[d]) < threshold {
				weak = append(weak, d)
			}
		}
	}

	topics := make([]string, 0)
	for _, t := range raw.Topics {
		if t.Name == "" {
			continue
		}
		if t.Solved > 0 && t.Solved < weakTopicUpperBound {
			topics = append(topics, t.Name)
		}
	}

	return &JudgeSummary{
		TotalSolved:      total,
		SolvedByTier:     byTier,
		WeakDifficulties: weak,
		WeakTopics:       topics,
	}
}

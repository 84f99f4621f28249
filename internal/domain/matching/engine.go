package matching

import (
	"math"
	"sort"

	"skill-radar/internal/domain/analysis"
)

type FitResult struct {
	Company              string   `json:"company"`
	Role                 string   `json:"role"`
	FitScore             int      `json:"fit_score"`
	MatchedSkills        []string `json:"matched_skills"`
	MissingCompanySkills []string `json:"missing_company_skills"`
}

// Match scores every catalog profile against the detected skills, best fit first.
// Ties keep catalog order.
func Match(detectedSkills []string, catalog []TargetProfile) []FitResult {
	have := make(map[string]struct{}, len(detectedSkills))
	for _, s := range detectedSkills {
		have[analysis.NormalizeSkill(s)] = struct{}{}
	}

	out := make([]FitResult, 0, len(catalog))
	for _, p := range catalog {
		out = append(out, Calculate(have, p))
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FitScore > out[j].FitScore
	})
	return out
}

// Calculate partitions the profile's required skills by membership in have, which must
// already hold normalized skills.
func Calculate(have map[string]struct{}, p TargetProfile) FitResult {
	matched := make([]string, 0, len(p.Skills))
	missing := make([]string, 0, len(p.Skills))

	for _, raw := range p.Skills {
		s := analysis.NormalizeSkill(raw)
		if _, ok := have[s]; ok {
			matched = append(matched, s)
			continue
		}
		missing = append(missing, s)
	}

	total := len(p.Skills)
	if total == 0 {
		total = 1
	}
	score := int(math.Round(100 * float64(len(matched)) / float64(total)))

	return FitResult{
		Company:              p.Company,
		Role:                 p.Role,
		FitScore:             clampInt(score, 0, 100),
		MatchedSkills:        matched,
		MissingCompanySkills: missing,
	}
}

func clampInt(v, minV, maxV int) int {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

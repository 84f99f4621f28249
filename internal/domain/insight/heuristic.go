package insight

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"skill-radar/internal/domain/analysis"
)

const (
	roadmapSampleSize     = 3
	missingSampleSize     = 5
	recommendationCap     = 10
	readinessBase         = 40.0
	strongAreaWeight      = 4.0
	strongAreaBoostCap    = 20.0
	solvedDivisor         = 10.0
	solvedBoostCap        = 20.0
	commitFrequencyWeight = 4.0
	missingSkillPenalty   = 2.0
)

const seniorFeedback = "Based on your current profile, double down on your strongest technologies while " +
	"deliberately closing the most critical gaps for your target role. Prioritize one or two high-impact " +
	"projects that showcase real-world problem solving, and align your interview prep with the patterns " +
	"and technologies you use most often."

const balancedProfileStep = "You have a balanced profile. Continue building real-world projects and preparing for interviews."

// Heuristic is the rule-based Generator. It never fails.
type Heuristic struct {
	now func() time.Time
}

func NewHeuristic() *Heuristic {
	return &Heuristic{now: time.Now}
}

// NewHeuristicWithClock pins the timestamp source, mostly for tests.
func NewHeuristicWithClock(now func() time.Time) *Heuristic {
	if now == nil {
		now = time.Now
	}
	return &Heuristic{now: now}
}

func (h *Heuristic) Generate(_ context.Context, a analysis.Analysis, role string) (Insights, error) {
	now := time.Now
	if h != nil && h.now != nil {
		now = h.now
	}
	return Derive(a, role, now().UTC()), nil
}

// Derive is the deterministic core of Heuristic.
func Derive(a analysis.Analysis, role string, at time.Time) Insights {
	role = strings.TrimSpace(role)
	if role == "" {
		role = DefaultRole
	}

	strong := head(a.StrongAreas, roadmapSampleSize)
	weak := head(a.WeakAreas, roadmapSampleSize)
	missing := head(a.MissingSkills, missingSampleSize)

	recommended := recommend(weak, missing)
	gaps := make([]string, len(recommended))
	copy(gaps, recommended)

	return Insights{
		Roadmap:           roadmap(head(missing, roadmapSampleSize), weak, strong),
		SkillGaps:         gaps,
		RecommendedSkills: recommended,
		ReadinessScore:    ReadinessScore(a),
		Feedback:          seniorFeedback,
		Role:              role,
		GeneratedAt:       at,
	}
}

func roadmap(missing, weak, strong []string) []string {
	steps := make([]string, 0, 3)
	if len(missing) > 0 {
		steps = append(steps, fmt.Sprintf("Focus on acquiring foundational skills: %s.", strings.Join(missing, ", ")))
	}
	if len(weak) > 0 {
		steps = append(steps, fmt.Sprintf("Deepen knowledge in weak areas: %s via targeted practice and projects.", strings.Join(weak, ", ")))
	}
	if len(strong) > 0 {
		steps = append(steps, fmt.Sprintf("Leverage strong areas (%s) to build portfolio projects aligned with your target role.", strings.Join(strong, ", ")))
	}
	if len(steps) == 0 {
		steps = append(steps, balancedProfileStep)
	}
	return steps
}

func recommend(weak, missing []string) []string {
	seen := make(map[string]struct{}, len(weak)+len(missing))
	out := make([]string, 0, len(weak)+len(missing))
	for _, group := range [][]string{weak, missing} {
		for _, s := range group {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
			if len(out) == recommendationCap {
				return out
			}
		}
	}
	return out
}

// ReadinessScore is always within [0,100].
func ReadinessScore(a analysis.Analysis) int {
	strongBoost := math.Min(float64(len(a.StrongAreas))*strongAreaWeight, strongAreaBoostCap)
	solvedBoost := math.Min(float64(a.TotalJudgeSolved())/solvedDivisor, solvedBoostCap)
	if solvedBoost < 0 {
		solvedBoost = 0
	}
	commitBoost := float64(a.CommitFrequencyScore()) * commitFrequencyWeight
	penalty := float64(len(head(a.MissingSkills, missingSampleSize))) * missingSkillPenalty

	score := int(math.Round(readinessBase + strongBoost + solvedBoost + commitBoost - penalty))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func head(items []string, n int) []string {
	if len(items) <= n {
		out := make([]string, len(items))
		copy(out, items)
		return out
	}
	out := make([]string, n)
	copy(out, items[:n])
	return out
}

var _ Generator = (*Heuristic)(nil)

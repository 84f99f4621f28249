package insight

import (
	"context"
	"time"

	"skill-radar/internal/domain/analysis"
)

const DefaultRole = "Software Engineer"

type Insights struct {
	Roadmap []string `json:"roadmap"`

	// SkillGaps and RecommendedSkills are built identically today. Consumers should not rely
	// on that staying true once a real model produces them.
	SkillGaps         []string `json:"skill_gaps"`
	RecommendedSkills []string `json:"recommended_skills"`

	ReadinessScore int       `json:"readiness_score"`
	Feedback       string    `json:"feedback"`
	Role           string    `json:"role"`
	GeneratedAt    time.Time `json:"generated_at"`
}

// Generator turns an analysis snapshot into insights for a target role. Callers must
// pass an existing analysis; a generator has no way to recover a missing one.
type Generator interface {
	Generate(ctx context.Context, a analysis.Analysis, role string) (Insights, error)
}

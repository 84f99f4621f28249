package analysis

import "skill-radar/internal/domain/source"

func summarizeSelfReport(raw *source.SelfReportRaw) *SelfReportSummary {
	if raw == nil || len(raw.Skills) == 0 {
		return nil
	}

	set := newOrderedSet()
	for _, s := range raw.Skills {
		set.add(NormalizeSkill(s))
	}

	skills := make([]string, len(raw.Skills))
	copy(skills, raw.Skills)

	return &SelfReportSummary{
		Skills:           skills,
		NormalizedSkills: set.list(),
	}
}

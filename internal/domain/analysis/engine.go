package analysis

import "fmt"

const consistentCommitArea = "consistent-commit-activity"

// Analyze derives an Analysis from raw source data. It is pure: identical input yields an
// identical snapshot, and absent sources only drop their own contribution.
func Analyze(in Input) Analysis {
	ch := summarizeCodeHost(in.CodeHost)
	jd := summarizeJudge(in.Judge)
	sr := summarizeSelfReport(in.SelfReport)

	detected := detectedSkills(ch, jd, sr)

	return Analysis{
		DetectedSkills: detected.list(),
		StrongAreas:    strongAreas(ch),
		WeakAreas:      weakAreas(jd),
		MissingSkills:  missingSkills(detected),
		CodeHost:       ch,
		Judge:          jd,
		SelfReport:     sr,
	}
}

func detectedSkills(ch *CodeHostSummary, jd *JudgeSummary, sr *SelfReportSummary) *orderedSet {
	skills := newOrderedSet()

	if ch != nil {
		for _, lb := range ch.Languages {
			skills.add(NormalizeSkill(lb.Language))
		}
		for _, fw := range ch.FrameworksAndLibraries {
			skills.add(NormalizeSkill(fw))
		}
		for _, s := range ch.DominantStack {
			skills.add(NormalizeSkill(s))
		}
	}

	if jd != nil && jd.TotalSolved > 0 {
		skills.add("dsa")
		skills.add("algorithms")
	}

	if sr != nil {
		for _, s := range sr.NormalizedSkills {
			skills.add(s)
		}
	}

	return skills
}

func strongAreas(ch *CodeHostSummary) []string {
	strong := newOrderedSet()
	if ch == nil {
		return strong.list()
	}
	for _, l := range ch.DominantLanguages {
		strong.add(NormalizeSkill(l))
	}
	for _, s := range ch.DominantStack {
		strong.add(NormalizeSkill(s))
	}
	if ch.CommitFrequencyScore >= 4 {
		strong.add(consistentCommitArea)
	}
	return strong.list()
}

func weakAreas(jd *JudgeSummary) []string {
	weak := newOrderedSet()
	if jd == nil {
		return weak.list()
	}
	for _, d := range jd.WeakDifficulties {
		weak.add(fmt.Sprintf("judge-%s", d))
	}
	for _, t := range jd.WeakTopics {
		weak.add("dsa-" + NormalizeSkill(t))
	}
	return weak.list()
}

func missingSkills(detected *orderedSet) []string {
	missing := newOrderedSet()
	for _, s := range BaselineSkills {
		n := NormalizeSkill(s)
		if !detected.has(n) {
			missing.add(n)
		}
	}
	return missing.list()
}

package analysis

import (
	"sort"
	"strings"

	"skill-radar/internal/domain/source"
)

const dominantLanguageCount = 3

// stackRule adds Label when any of Languages is dominant and any of Frameworks was detected.
// An empty Languages list means the rule only depends on frameworks.
type stackRule struct {
	Label      string
	Languages  []string
	Frameworks []string
}

var stackRules = []stackRule{
	{Label: "react", Languages: []string{"typescript", "javascript"}, Frameworks: []string{"react", "next"}},
	{Label: "node.js", Languages: []string{"typescript", "javascript"}, Frameworks: []string{"node", "express"}},
	{Label: "django", Languages: []string{"python"}, Frameworks: []string{"django"}},
	{Label: "flask", Languages: []string{"python"}, Frameworks: []string{"flask"}},
	{Label: "spring", Languages: []string{"java"}, Frameworks: []string{"spring"}},
	{Label: "tailwindcss", Frameworks: []string{"tailwind"}},
}

func summarizeCodeHost(raw *source.CodeHostRaw) *CodeHostSummary {
	if raw == nil {
		return nil
	}

	var totals source.LanguageTotals
	totalCommits := 0
	analyzed := 0
	excluded := 0
	texts := make([]string, 0, len(raw.Repositories))

	for _, repo := range raw.Repositories {
		for _, lb := range repo.Languages {
			totals = totals.Add(lb.Language, lb.Bytes)
		}

		if repo.CommitStatsAvailable() {
			for _, w := range repo.CommitWeeks {
				totalCommits += w
			}
			analyzed++
		} else {
			excluded++
		}

		texts = append(texts, repo.Name+" "+repo.Description+" "+strings.Join(repo.Topics, " "))
	}

	dominant := dominantLanguages(totals, dominantLanguageCount)
	frameworks := matchKeywords(strings.Join(texts, " "), FrameworkKeywords)

	return &CodeHostSummary{
		TotalRepos:             len(raw.Repositories),
		Languages:              totals,
		DominantLanguages:      dominant,
		FrameworksAndLibraries: frameworks,
		DominantStack:          deriveStack(dominant, frameworks),
		CommitFrequencyScore:   CommitFrequencyScore(totalCommits),
		TotalCommits:           totalCommits,
		ReposAnalyzedForCommit: analyzed,
		ReposExcludedFromStats: excluded,
	}
}

// dominantLanguages orders by descending bytes; ties keep first-seen order.
func dominantLanguages(totals source.LanguageTotals, n int) []string {
	ordered := make(source.LanguageTotals, len(totals))
	copy(ordered, totals)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Bytes > ordered[j].Bytes
	})
	if len(ordered) > n {
		ordered = ordered[:n]
	}
	out := make([]string, 0, len(ordered))
	for _, lb := range ordered {
		out = append(out, lb.Language)
	}
	return out
}

// matchKeywords reports every dictionary keyword found anywhere in text, so
// "preact-widgets" counts as react.
func matchKeywords(text string, dictionary []string) []string {
	lower := strings.ToLower(text)
	set := newOrderedSet()
	for _, kw := range dictionary {
		if strings.Contains(lower, kw) {
			set.add(NormalizeSkill(kw))
		}
	}
	return set.list()
}

func deriveStack(dominant, frameworks []string) []string {
	langs := newOrderedSet()
	for _, l := range dominant {
		langs.add(NormalizeSkill(l))
	}
	fw := newOrderedSet()
	for _, f := range frameworks {
		fw.add(NormalizeSkill(f))
	}

	stack := newOrderedSet()
	for _, rule := range stackRules {
		if len(rule.Languages) > 0 && !anyIn(langs, rule.Languages) {
			continue
		}
		if !anyIn(fw, rule.Frameworks) {
			continue
		}
		stack.add(rule.Label)
	}
	return stack.list()
}

func anyIn(set *orderedSet, values []string) bool {
	for _, v := range values {
		if set.has(v) {
			return true
		}
	}
	return false
}

// CommitFrequencyScore maps total commits onto 1..5.
func CommitFrequencyScore(totalCommits int) int {
	switch {
	case totalCommits <= 0:
		return 1
	case totalCommits < 50:
		return 2
	case totalCommits < 200:
		return 3
	case totalCommits < 500:
		return 4
	default:
		return 5
	}
}

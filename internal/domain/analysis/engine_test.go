package analysis

import (
	"encoding/json"
	"reflect"
	"testing"

	"skill-radar/internal/domain/source"
)

func intPtr(v int) *int { return &v }

func sampleInput() Input {
	return Input{
		CodeHost: &source.CodeHostRaw{Repositories: []source.Repository{
			{
				Name:        "web-shop",
				Description: "Next.js storefront with Tailwind",
				Topics:      []string{"react", "ecommerce"},
				Languages:   source.LanguageTotals{{Language: "TypeScript", Bytes: 900}, {Language: "CSS", Bytes: 100}},
				CommitWeeks: []int{10, 20, 30},
			},
			{
				Name:        "api",
				Description: "express backend",
				Languages:   source.LanguageTotals{{Language: "JavaScript", Bytes: 400}},
				CommitWeeks: nil,
			},
		}},
		Judge: &source.JudgeRaw{
			Easy: 100, Medium: 100, Hard: 10,
			Topics: []source.TopicCount{{Name: "Dynamic Programming", Solved: 3}, {Name: "Array", Solved: 40}, {Name: "Trie", Solved: 0}},
		},
		SelfReport: &source.SelfReportRaw{Skills: []string{" Docker ", "docker", "Go"}},
	}
}

func TestAnalyze_Idempotent(t *testing.T) {
	in := sampleInput()

	a, err := json.Marshal(Analyze(in))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b, err := json.Marshal(Analyze(in))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("expected identical snapshots\n%s\n%s", a, b)
	}
}

func TestAnalyze_AllSourcesAbsent(t *testing.T) {
	got := Analyze(Input{})

	if got.CodeHost != nil || got.Judge != nil || got.SelfReport != nil {
		t.Fatalf("expected nil summaries, got %+v", got)
	}
	if len(got.DetectedSkills) != 0 || len(got.StrongAreas) != 0 || len(got.WeakAreas) != 0 {
		t.Fatalf("expected empty derived sets, got %+v", got)
	}
	if len(got.MissingSkills) != len(BaselineSkills) {
		t.Fatalf("expected every baseline skill missing, got %d", len(got.MissingSkills))
	}
}

func TestAnalyze_DerivedSets(t *testing.T) {
	got := Analyze(sampleInput())

	ch := got.CodeHost
	if ch == nil {
		t.Fatalf("expected code host summary")
	}
	if ch.TotalRepos != 2 {
		t.Fatalf("expected 2 repos, got %d", ch.TotalRepos)
	}
	if ch.TotalCommits != 60 || ch.ReposAnalyzedForCommit != 1 || ch.ReposExcludedFromStats != 1 {
		t.Fatalf("unexpected commit stats: total=%d analyzed=%d excluded=%d", ch.TotalCommits, ch.ReposAnalyzedForCommit, ch.ReposExcludedFromStats)
	}
	if ch.CommitFrequencyScore != 3 {
		t.Fatalf("expected commit score 3, got %d", ch.CommitFrequencyScore)
	}
	if !reflect.DeepEqual(ch.DominantLanguages, []string{"TypeScript", "JavaScript", "CSS"}) {
		t.Fatalf("unexpected dominant languages: %v", ch.DominantLanguages)
	}
	if !reflect.DeepEqual(ch.FrameworksAndLibraries, []string{"react", "next", "express", "tailwind"}) {
		t.Fatalf("unexpected frameworks: %v", ch.FrameworksAndLibraries)
	}
	if !reflect.DeepEqual(ch.DominantStack, []string{"react", "node.js", "tailwindcss"}) {
		t.Fatalf("unexpected stack: %v", ch.DominantStack)
	}

	for _, want := range []string{"typescript", "javascript", "css", "react", "node.js", "dsa", "algorithms", "docker", "go"} {
		if !contains(got.DetectedSkills, want) {
			t.Fatalf("expected detected skill %q in %v", want, got.DetectedSkills)
		}
	}

	if !reflect.DeepEqual(got.WeakAreas, []string{"judge-hard", "dsa-dynamic programming"}) {
		t.Fatalf("unexpected weak areas: %v", got.WeakAreas)
	}
	if contains(got.StrongAreas, consistentCommitArea) {
		t.Fatalf("commit score 3 must not be a strong area")
	}
	if contains(got.MissingSkills, "go") || contains(got.MissingSkills, "docker") {
		t.Fatalf("detected skills must not be missing: %v", got.MissingSkills)
	}
	if !contains(got.MissingSkills, "kubernetes") || !contains(got.MissingSkills, "system design") {
		t.Fatalf("expected kubernetes and system design missing: %v", got.MissingSkills)
	}
}

func TestSummarizeCodeHost_KeywordsMatchInsideWords(t *testing.T) {
	raw := &source.CodeHostRaw{Repositories: []source.Repository{
		{Name: "preact-widgets", Description: "guardrails for vuejs", Languages: source.LanguageTotals{{Language: "JavaScript", Bytes: 500}}},
		{Name: "webnode", Description: "expressjs api"},
	}}

	got := summarizeCodeHost(raw)
	if !reflect.DeepEqual(got.FrameworksAndLibraries, []string{"react", "vue", "node", "express", "rails"}) {
		t.Fatalf("unexpected frameworks: %v", got.FrameworksAndLibraries)
	}
	if !reflect.DeepEqual(got.DominantStack, []string{"react", "node.js"}) {
		t.Fatalf("unexpected stack: %v", got.DominantStack)
	}
}

func TestDominantLanguages_TieKeepsInsertionOrder(t *testing.T) {
	var totals source.LanguageTotals
	totals = totals.Add("Go", 100)
	totals = totals.Add("Python", 100)
	totals = totals.Add("Rust", 50)
	totals = totals.Add("C", 10)

	got := dominantLanguages(totals, dominantLanguageCount)
	if !reflect.DeepEqual(got, []string{"Go", "Python", "Rust"}) {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestCommitFrequencyScore_Breakpoints(t *testing.T) {
	cases := map[int]int{0: 1, 1: 2, 49: 2, 50: 3, 199: 3, 200: 4, 499: 4, 500: 5, 10000: 5}
	for commits, want := range cases {
		if got := CommitFrequencyScore(commits); got != want {
			t.Fatalf("commits=%d: expected %d, got %d", commits, want, got)
		}
	}
}

func TestSummarizeJudge_WeakTierRule(t *testing.T) {
	got := summarizeJudge(&source.JudgeRaw{Easy: 100, Medium: 100, Hard: 10})
	if !reflect.DeepEqual(got.WeakDifficulties, []Difficulty{DifficultyHard}) {
		t.Fatalf("expected only hard weak, got %v", got.WeakDifficulties)
	}
	if got.TotalSolved != 210 {
		t.Fatalf("expected summed total 210, got %d", got.TotalSolved)
	}
}

func TestSummarizeJudge_ReportedTotalAndZeroMax(t *testing.T) {
	got := summarizeJudge(&source.JudgeRaw{TotalSolved: intPtr(7)})
	if got.TotalSolved != 7 {
		t.Fatalf("expected reported total 7, got %d", got.TotalSolved)
	}
	if len(got.WeakDifficulties) != 0 {
		t.Fatalf("weak tiers must not be evaluated when max is 0, got %v", got.WeakDifficulties)
	}
}

func TestSummarizeJudge_WeakTopicBounds(t *testing.T) {
	got := summarizeJudge(&source.JudgeRaw{Easy: 1, Topics: []source.TopicCount{
		{Name: "zero", Solved: 0},
		{Name: "one", Solved: 1},
		{Name: "four", Solved: 4},
		{Name: "five", Solved: 5},
	}})
	if !reflect.DeepEqual(got.WeakTopics, []string{"one", "four"}) {
		t.Fatalf("unexpected weak topics: %v", got.WeakTopics)
	}
}

func TestAnalyze_SelfReportNormalizationMatchesBaseline(t *testing.T) {
	got := Analyze(Input{SelfReport: &source.SelfReportRaw{Skills: []string{"  System Design ", "KUBERNETES"}}})

	if contains(got.MissingSkills, "system design") || contains(got.MissingSkills, "kubernetes") {
		t.Fatalf("normalized self-reported skills must satisfy the baseline: %v", got.MissingSkills)
	}
	if !reflect.DeepEqual(got.SelfReport.NormalizedSkills, []string{"system design", "kubernetes"}) {
		t.Fatalf("unexpected normalized skills: %v", got.SelfReport.NormalizedSkills)
	}
}

func TestAnalyze_JudgeWithoutSolvedAddsNoDSA(t *testing.T) {
	got := Analyze(Input{Judge: &source.JudgeRaw{}})
	if contains(got.DetectedSkills, "dsa") {
		t.Fatalf("dsa requires at least one solved problem")
	}
	if got.Judge == nil {
		t.Fatalf("synced judge must still produce a summary")
	}
}

func contains(items []string, want string) bool {
	for _, it := range items {
		if it == want {
			return true
		}
	}
	return false
}

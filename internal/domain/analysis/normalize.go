package analysis

import "strings"

// NormalizeSkill is the single normalization used for every skill set comparison.
func NormalizeSkill(skill string) string {
	return strings.ToLower(strings.TrimSpace(skill))
}

// BaselineSkills is the vocabulary gap analysis checks detected skills against.
var BaselineSkills = []string{
	"javascript",
	"typescript",
	"python",
	"java",
	"c++",
	"go",
	"react",
	"node",
	"express",
	"mongodb",
	"postgresql",
	"docker",
	"kubernetes",
	"aws",
	"azure",
	"gcp",
	"graphql",
	"rest",
	"dsa",
	"algorithms",
	"system design",
}

// FrameworkKeywords are matched against repository names, descriptions and topics.
var FrameworkKeywords = []string{
	"react",
	"next",
	"vue",
	"angular",
	"svelte",
	"node",
	"express",
	"nestjs",
	"django",
	"flask",
	"spring",
	"laravel",
	"rails",
	"tailwind",
	"bootstrap",
	"graphql",
	"redux",
	"mobx",
	"prisma",
}

// orderedSet keeps first-seen order and drops empty and duplicate entries.
type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: map[string]struct{}{}}
}

func (s *orderedSet) add(v string) {
	if v == "" {
		return
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}

func (s *orderedSet) has(v string) bool {
	_, ok := s.seen[v]
	return ok
}

func (s *orderedSet) list() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

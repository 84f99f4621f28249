package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"skill-radar/internal/domain/analysis"
	"skill-radar/internal/domain/insight"
	"skill-radar/internal/logger"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	defaultModel   = "gemini-2.5-flash"
	defaultTimeout = 20 * time.Second
	maxFeedbackLen = 1200
)

const systemPrompt = "You are a senior engineering career coach. Write one short paragraph of direct, " +
	"practical feedback for a developer. Use only the facts provided. No lists, no headings, no greetings."

var ErrEmptyResponse = errors.New("gemini api returned empty response")

// contentGenerator is the slice of genai.Models the narrator needs.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Options struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	Logger  *zap.Logger
}

// Narrator is an insight.Generator that keeps every field computed by base and asks
// Gemini for the feedback paragraph. Any model failure keeps base's feedback.
type Narrator struct {
	base    insight.Generator
	models  contentGenerator
	model   string
	timeout time.Duration
	log     *zap.Logger
}

func NewNarrator(ctx context.Context, base insight.Generator, opts Options) (*Narrator, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newNarrator(base, client.Models, opts), nil
}

func newNarrator(base insight.Generator, models contentGenerator, opts Options) *Narrator {
	if base == nil {
		base = insight.NewHeuristic()
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Narrator{
		base:    base,
		models:  models,
		model:   model,
		timeout: timeout,
		log:     logger.OrNop(opts.Logger),
	}
}

func (n *Narrator) Model() string {
	return n.model
}

func (n *Narrator) Generate(ctx context.Context, a analysis.Analysis, role string) (insight.Insights, error) {
	ins, err := n.base.Generate(ctx, a, role)
	if err != nil {
		return insight.Insights{}, err
	}

	text, err := n.narrate(ctx, buildPrompt(a, ins))
	if err != nil {
		if ctx.Err() != nil {
			return insight.Insights{}, ctx.Err()
		}
		n.log.Warn("narrator failed, keeping heuristic feedback",
			append(logger.Step("insights", "narrate", "fallback"), zap.String("model", n.model), zap.Error(err))...,
		)
		return ins, nil
	}

	ins.Feedback = text
	return ins, nil
}

func (n *Narrator) narrate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.4),
	}
	resp, err := n.models.GenerateContent(ctx, n.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if resp == nil {
		return "", ErrEmptyResponse
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString(" ")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", ErrEmptyResponse
	}
	return truncateFeedback(output), nil
}

// truncateFeedback cuts s to at most maxFeedbackLen bytes without splitting a rune.
func truncateFeedback(s string) string {
	if len(s) <= maxFeedbackLen {
		return s
	}
	cut := maxFeedbackLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return strings.TrimSpace(s[:cut])
}

func buildPrompt(a analysis.Analysis, ins insight.Insights) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Target role: %s\n", ins.Role)
	fmt.Fprintf(&b, "Readiness score: %d/100\n", ins.ReadinessScore)
	writeList(&b, "Detected skills", a.DetectedSkills)
	writeList(&b, "Strong areas", a.StrongAreas)
	writeList(&b, "Weak areas", a.WeakAreas)
	writeList(&b, "Recommended next skills", ins.RecommendedSkills)
	if a.CodeHost != nil {
		fmt.Fprintf(&b, "Repositories: %d, commit frequency score: %d/5\n",
			a.CodeHost.TotalRepos, a.CodeHost.CommitFrequencyScore)
	}
	if a.Judge != nil {
		fmt.Fprintf(&b, "Algorithm problems solved: %d\n", a.Judge.TotalSolved)
	}
	b.WriteString("Write the feedback paragraph now.")
	return b.String()
}

func writeList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		fmt.Fprintf(b, "%s: none\n", label)
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, strings.Join(items, ", "))
}

var _ insight.Generator = (*Narrator)(nil)

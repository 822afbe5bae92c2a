// Package extract turns free-text job descriptions into structured
// requirements through a layered fallback chain: a primary generative tier,
// a secondary generative tier, and a deterministic heuristic tier that is
// always available. Extraction never fails from the caller's point of view.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hireloop/hireloop/internal/models"
	"github.com/qri-io/jsonschema"
	"go.uber.org/zap"
)

// Defaults substituted when a tier leaves a field missing or falsy. Callers
// must never observe an empty field.
const (
	DefaultRole            = "Software Engineer"
	DefaultExperienceYears = 3
	DefaultLocation        = "Remote"

	// generativeDefaultLocation backfills a blank location from the
	// generative tiers; the heuristic tier defaults to Remote instead.
	generativeDefaultLocation = "Sydney"
)

// DefaultSkills is the placeholder skill set used when no skill can be
// extracted at all.
var DefaultSkills = []string{"JavaScript", "Python", "React"}

// keywordsSchema validates the JSON object we demand from generative tiers.
// A response missing any of the four fields fails the tier and falls
// through the chain.
const keywordsSchema = `{
	"type": "object",
	"required": ["role", "skills", "min_experience_years", "location"],
	"properties": {
		"role": {"type": "string"},
		"skills": {"type": "array", "items": {"type": "string"}},
		"min_experience_years": {"type": "integer", "minimum": 0},
		"location": {"type": "string"}
	}
}`

const promptTemplate = `You are a technical recruiter. Extract structured requirements from the job posting below.

Respond with strict JSON only, no prose and no markdown fences, exactly matching this schema:
{"role": string, "skills": [string], "min_experience_years": integer, "location": string}

Job title: %s

Job description:
%s`

// Generator produces text from a prompt. Both LLM clients satisfy it.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Chain is the layered extractor. Either generative tier may be nil, in
// which case it is skipped; the heuristic tier always runs last.
type Chain struct {
	primary   Generator
	secondary Generator
	schema    *jsonschema.Schema
	timeout   time.Duration
	logger    *zap.Logger
}

// NewChain builds the extraction chain. The embedded response schema is
// compiled once here; compilation failure is a programming error.
func NewChain(primary, secondary Generator, timeout time.Duration, logger *zap.Logger) (*Chain, error) {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	schema := &jsonschema.Schema{}
	if err := json.Unmarshal([]byte(keywordsSchema), schema); err != nil {
		return nil, fmt.Errorf("compile keywords schema: %w", err)
	}

	return &Chain{
		primary:   primary,
		secondary: secondary,
		schema:    schema,
		timeout:   timeout,
		logger:    logger,
	}, nil
}

// Extract runs the fallback chain. It never returns an error: every tier
// failure is absorbed and the heuristic tier guarantees a populated result.
func (c *Chain) Extract(ctx context.Context, description, title string) models.Keywords {
	for i, gen := range []Generator{c.primary, c.secondary} {
		if gen == nil {
			continue
		}
		kw, err := c.generativeTier(ctx, gen, description, title)
		if err != nil {
			c.logger.Warn("extraction tier failed, falling through",
				zap.Int("tier", i+1),
				zap.Error(err),
			)
			continue
		}
		return backfill(kw, title, generativeDefaultLocation)
	}

	return Heuristic(description, title)
}

func (c *Chain) generativeTier(ctx context.Context, gen Generator, description, title string) (models.Keywords, error) {
	var kw models.Keywords

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	prompt := fmt.Sprintf(promptTemplate, title, description)
	out, err := gen.GenerateText(ctx, prompt)
	if err != nil {
		return kw, fmt.Errorf("generate: %w", err)
	}

	j := extractJSON(stripFences(out))
	if j == "" {
		return kw, fmt.Errorf("no JSON object found in response")
	}

	verrs, err := c.schema.ValidateBytes(ctx, []byte(j))
	if err != nil {
		return kw, fmt.Errorf("schema validate: %w", err)
	}
	if len(verrs) > 0 {
		var sb strings.Builder
		for _, v := range verrs {
			sb.WriteString(v.Message)
			sb.WriteString("; ")
		}
		return kw, fmt.Errorf("response does not match schema: %s", sb.String())
	}

	if err := json.Unmarshal([]byte(j), &kw); err != nil {
		return kw, fmt.Errorf("json unmarshal: %w", err)
	}
	return kw, nil
}

// backfill substitutes defaults for falsy fields so callers never observe
// an empty requirement.
func backfill(kw models.Keywords, title, locationDefault string) models.Keywords {
	if strings.TrimSpace(kw.Role) == "" {
		kw.Role = strings.TrimSpace(title)
	}
	if kw.Role == "" {
		kw.Role = DefaultRole
	}
	if len(kw.Skills) == 0 {
		kw.Skills = append([]string(nil), DefaultSkills...)
	}
	if kw.MinExperienceYears <= 0 {
		kw.MinExperienceYears = DefaultExperienceYears
	}
	if strings.TrimSpace(kw.Location) == "" {
		kw.Location = locationDefault
	}
	return kw
}

// stripFences removes an optional markdown code fence wrapping.
func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	return strings.TrimSpace(raw)
}

// extractJSON returns the substring from the first '{' to the last '}' so
// model output wrapped in prose still parses.
func extractJSON(s string) string {
	first := strings.Index(s, "{")
	last := strings.LastIndex(s, "}")
	if first == -1 || last == -1 || last < first {
		return ""
	}
	return s[first : last+1]
}

package concept

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/launchbrief/campaigner/internal/apperr"
	"github.com/launchbrief/campaigner/internal/brief"
	"github.com/launchbrief/campaigner/internal/llm"
	"github.com/launchbrief/campaigner/internal/retry"
)

// TemplateModel marks concepts produced by the deterministic fallback
// instead of an LLM.
const TemplateModel = "template"

// GeneratorOptions controls a concept generation run.
type GeneratorOptions struct {
	Count       int
	Model       string
	Temperature float64
	MaxTokens   int
	Languages   []string
	// Strict disables the template fallback so API failures surface.
	Strict bool
}

// Generator turns campaign briefs into creative concepts.
type Generator struct {
	client llm.Client
	retry  retry.Config
}

// NewGenerator creates a generator backed by the given LLM client.
func NewGenerator(client llm.Client) *Generator {
	return &Generator{
		client: client,
		retry:  retry.DefaultConfig(),
	}
}

// llmConcept is the JSON shape requested from the model.
type llmConcept struct {
	VisualPrompt   string          `json:"visual_prompt"`
	NegativePrompt string          `json:"negative_prompt"`
	Headline       string          `json:"headline"`
	Body           string          `json:"body"`
	CallToAction   string          `json:"call_to_action"`
	Rationale      string          `json:"rationale"`
	LocalizedCopy  map[string]Copy `json:"localized_copy,omitempty"`
}

// Generate produces opts.Count concepts for one product at one aspect ratio.
// When the LLM fails after retries the generator falls back to template
// concepts unless opts.Strict is set. Configuration errors never fall back:
// a missing credential fails every product, so the error is returned.
func (g *Generator) Generate(ctx context.Context, b *brief.CampaignBrief, product brief.Product, ratio string, opts GeneratorOptions) ([]*Concept, error) {
	if opts.Count <= 0 {
		opts.Count = 3
	}

	prompt := buildPrompt(b, product, opts)

	var raw string
	cfg := llm.Config{Model: opts.Model, Temperature: opts.Temperature, MaxTokens: opts.MaxTokens}
	result, err := retry.Do(ctx, g.retry, func() error {
		var callErr error
		raw, callErr = g.client.Complete(ctx, cfg, prompt)
		return callErr
	})
	if err == nil {
		var parsed []llmConcept
		if parseErr := llm.UnmarshalResponse(raw, &parsed); parseErr != nil {
			err = fmt.Errorf("model returned unusable concepts: %w", parseErr)
		} else if len(parsed) == 0 {
			err = fmt.Errorf("model returned no concepts")
		} else {
			return g.assemble(parsed, b, product, ratio, opts), nil
		}
	}

	// Missing or broken configuration fails every product the same way, so
	// the whole run aborts instead of silently producing template concepts.
	var cfgErr *apperr.ConfigError
	if errors.As(err, &cfgErr) {
		return nil, err
	}

	if opts.Strict {
		return nil, err
	}

	slog.Warn("Falling back to template concepts", "campaign", b.CampaignID, "product", product.Name, "attempts", result.Attempts, "error", err)
	return templateConcepts(b, product, ratio, opts.Count), nil
}

func (g *Generator) assemble(parsed []llmConcept, b *brief.CampaignBrief, product brief.Product, ratio string, opts GeneratorOptions) []*Concept {
	if len(parsed) > opts.Count {
		parsed = parsed[:opts.Count]
	}

	model := opts.Model
	if model == "" {
		model = llm.DefaultModel
	}

	concepts := make([]*Concept, 0, len(parsed))
	for i, lc := range parsed {
		concepts = append(concepts, &Concept{
			ConceptID:      ID(b.CampaignID, product.Name, ratio, i+1),
			CampaignID:     b.CampaignID,
			ProductName:    product.Name,
			AspectRatio:    ratio,
			GeneratedAt:    time.Now().UTC(),
			Model:          model,
			VisualPrompt:   strings.TrimSpace(lc.VisualPrompt),
			NegativePrompt: strings.TrimSpace(lc.NegativePrompt),
			Copy: Copy{
				Headline:     strings.TrimSpace(lc.Headline),
				Body:         strings.TrimSpace(lc.Body),
				CallToAction: strings.TrimSpace(lc.CallToAction),
			},
			Rationale:     strings.TrimSpace(lc.Rationale),
			LocalizedCopy: lc.LocalizedCopy,
		})
	}
	return concepts
}

func buildPrompt(b *brief.CampaignBrief, product brief.Product, opts GeneratorOptions) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are a senior creative director. Generate %d distinct marketing concepts for the product below.\n\n", opts.Count)
	fmt.Fprintf(&sb, "Campaign: %s\n", b.CampaignName)
	fmt.Fprintf(&sb, "Campaign message: %s\n", b.CampaignMessage)
	fmt.Fprintf(&sb, "Target audience: %s\n", b.TargetAudience)
	if b.TargetRegion != "" {
		fmt.Fprintf(&sb, "Target region: %s\n", b.TargetRegion)
	}
	fmt.Fprintf(&sb, "\nProduct: %s\n", product.Name)
	if product.Description != "" {
		fmt.Fprintf(&sb, "Description: %s\n", product.Description)
	}
	if len(product.Features) > 0 {
		fmt.Fprintf(&sb, "Key features: %s\n", strings.Join(product.Features, ", "))
	}
	if b.BrandGuidelines != nil {
		if b.BrandGuidelines.PrimaryColor != "" {
			fmt.Fprintf(&sb, "Brand primary color: %s\n", b.BrandGuidelines.PrimaryColor)
		}
		if b.BrandGuidelines.SecondaryColor != "" {
			fmt.Fprintf(&sb, "Brand secondary color: %s\n", b.BrandGuidelines.SecondaryColor)
		}
		if len(b.BrandGuidelines.ProhibitedWords) > 0 {
			fmt.Fprintf(&sb, "Never use these words in any copy: %s\n", strings.Join(b.BrandGuidelines.ProhibitedWords, ", "))
		}
		if len(b.BrandGuidelines.ProhibitedImagery) > 0 {
			fmt.Fprintf(&sb, "The imagery must avoid: %s\n", strings.Join(b.BrandGuidelines.ProhibitedImagery, ", "))
		}
	}

	sb.WriteString(`
Respond with ONLY a JSON array. Each element must have these fields:
- "visual_prompt": a rich, specific text-to-image prompt for the concept's hero image (no text in the image)
- "negative_prompt": elements the image must avoid (may be empty)
- "headline": short headline copy (under 8 words)
- "body": one supporting sentence
- "call_to_action": a short imperative phrase
- "rationale": one sentence on why this concept fits the audience
`)

	extra := extraLanguages(opts.Languages)
	if len(extra) > 0 {
		fmt.Fprintf(&sb, `- "localized_copy": an object keyed by language code (%s), each value an object with "headline", "body", and "call_to_action" translated for that market
`, strings.Join(extra, ", "))
	}

	return sb.String()
}

// extraLanguages filters out English, which is the copy's source language.
func extraLanguages(langs []string) []string {
	var extra []string
	for _, lang := range langs {
		if lang != "" && lang != "en" {
			extra = append(extra, lang)
		}
	}
	return extra
}

// templateConcepts builds deterministic concepts from the brief alone so a
// campaign run always yields artifacts even when the model is down.
func templateConcepts(b *brief.CampaignBrief, product brief.Product, ratio string, count int) []*Concept {
	angles := []struct {
		scene     string
		rationale string
	}{
		{"a clean studio product shot with soft directional lighting", "focuses attention on the product itself"},
		{"the product in use in a real-world lifestyle scene", "helps the audience picture themselves using it"},
		{"a bold close-up highlighting a key feature with dramatic contrast", "leads with the strongest differentiator"},
		{"a flat-lay arrangement with complementary props on a neutral background", "gives a premium editorial feel"},
		{"the product against an abstract gradient background with generous negative space", "leaves room for overlay copy"},
	}

	feature := ""
	if len(product.Features) > 0 {
		feature = product.Features[0]
	}

	concepts := make([]*Concept, 0, count)
	for i := 0; i < count; i++ {
		angle := angles[i%len(angles)]

		prompt := fmt.Sprintf("Professional marketing photograph of %s, %s, aimed at %s.", product.Name, angle.scene, b.TargetAudience)
		if feature != "" {
			prompt += fmt.Sprintf(" Emphasize: %s.", feature)
		}

		headline := product.Name
		if feature != "" {
			headline = fmt.Sprintf("%s. %s.", product.Name, capitalize(feature))
		}

		concepts = append(concepts, &Concept{
			ConceptID:   ID(b.CampaignID, product.Name, ratio, i+1),
			CampaignID:  b.CampaignID,
			ProductName: product.Name,
			AspectRatio: ratio,
			GeneratedAt: time.Now().UTC(),
			Model:       TemplateModel,
			VisualPrompt: prompt,
			Copy: Copy{
				Headline:     headline,
				Body:         b.CampaignMessage,
				CallToAction: "Learn more",
			},
			Rationale: angle.rationale,
		})
	}
	return concepts
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

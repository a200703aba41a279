// Package brief defines the campaign brief input format and its validation.
package brief

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/launchbrief/campaigner/internal/apperr"
)

// CampaignBrief is the JSON input that drives concept and asset generation.
type CampaignBrief struct {
	CampaignID      string          `json:"campaign_id"`
	CampaignName    string          `json:"campaign_name,omitempty"`
	Products        []Product       `json:"products"`
	TargetRegion    string          `json:"target_region,omitempty"`
	TargetAudience  string          `json:"target_audience"`
	CampaignMessage string          `json:"campaign_message"`
	AspectRatios    []string        `json:"aspect_ratios,omitempty"`
	TargetLanguages []string        `json:"target_languages,omitempty"`
	CampaignAssets  *CampaignAssets `json:"campaign_assets,omitempty"`
	BrandGuidelines *Guidelines     `json:"brand_guidelines,omitempty"`
	Output          *OutputOptions  `json:"output,omitempty"`
}

// Product is a single product covered by the campaign.
type Product struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Features    []string `json:"features,omitempty"`
}

// CampaignAssets points at brand assets referenced by the brief.
type CampaignAssets struct {
	Logo string `json:"logo,omitempty"`
}

// Guidelines carries brand styling hints used during post-processing.
type Guidelines struct {
	PrimaryColor      string   `json:"primary_color,omitempty"`
	SecondaryColor    string   `json:"secondary_color,omitempty"`
	Font              string   `json:"font,omitempty"`
	LogoPosition      string   `json:"logo_position,omitempty"`
	ProhibitedWords   []string `json:"prohibited_words,omitempty"`
	ProhibitedImagery []string `json:"prohibited_imagery,omitempty"`
}

// OutputOptions carries rendering preferences from the brief.
type OutputOptions struct {
	TextPosition string `json:"text_position,omitempty"`
}

// AspectRatioDimensions maps every supported aspect ratio to its render size.
var AspectRatioDimensions = map[string][2]int{
	"1:1":  {1024, 1024},
	"9:16": {1024, 1792},
	"16:9": {1792, 1024},
}

// Load reads and validates a campaign brief from a JSON file.
func Load(path string) (*CampaignBrief, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read brief: %w", err)
	}

	var b CampaignBrief
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse brief %s: %w", path, err)
	}

	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("brief %s: %w", path, err)
	}

	b.ApplyDefaults()
	return &b, nil
}

// Validate checks the brief and reports every problem at once.
func (b *CampaignBrief) Validate() error {
	var errs apperr.ValidationErrors

	if strings.TrimSpace(b.CampaignID) == "" {
		errs.Add("campaign_id", "must not be empty")
	}
	if len(b.Products) == 0 {
		errs.Add("products", "at least one product is required")
	}
	for i, p := range b.Products {
		if strings.TrimSpace(p.Name) == "" {
			errs.Add(fmt.Sprintf("products[%d].name", i), "must not be empty")
		}
	}
	if strings.TrimSpace(b.TargetAudience) == "" {
		errs.Add("target_audience", "must not be empty")
	}
	if strings.TrimSpace(b.CampaignMessage) == "" {
		errs.Add("campaign_message", "must not be empty")
	}

	for i, ratio := range b.AspectRatios {
		normalized := NormalizeRatio(ratio)
		if _, ok := AspectRatioDimensions[normalized]; !ok {
			errs.Add("aspect_ratios", fmt.Sprintf("unsupported ratio %q (supported: %s)", ratio, strings.Join(SupportedRatios(), ", ")))
			continue
		}
		b.AspectRatios[i] = normalized
	}

	return errs.OrNil()
}

// ApplyDefaults fills in the optional fields the brief omitted.
func (b *CampaignBrief) ApplyDefaults() {
	if len(b.AspectRatios) == 0 {
		b.AspectRatios = []string{"1:1"}
	}
	if len(b.TargetLanguages) == 0 {
		b.TargetLanguages = []string{"en"}
	}
}

// SupportedRatios returns the allowed aspect ratios in a stable order.
func SupportedRatios() []string {
	return []string{"1:1", "9:16", "16:9"}
}

// Dimensions returns the pixel size for a supported aspect ratio.
func Dimensions(ratio string) (width, height int, err error) {
	dims, ok := AspectRatioDimensions[ratio]
	if !ok {
		return 0, 0, &apperr.ValidationError{
			Field: "aspect_ratio",
			Msg:   fmt.Sprintf("unsupported ratio %q (supported: %s)", ratio, strings.Join(SupportedRatios(), ", ")),
		}
	}
	return dims[0], dims[1], nil
}

// NormalizeRatio maps the separator variants briefs use in the wild ("1_1",
// "16x9") onto the canonical colon form.
func NormalizeRatio(ratio string) string {
	ratio = strings.ReplaceAll(ratio, "_", ":")
	return strings.ReplaceAll(ratio, "x", ":")
}

// RatioSlug converts an aspect ratio to a filesystem-safe form, e.g. "9:16" -> "9x16".
func RatioSlug(ratio string) string {
	return strings.ReplaceAll(ratio, ":", "x")
}

// Slugify converts a human name to a lowercase filesystem-safe slug.
func Slugify(name string) string {
	var sb strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				sb.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(sb.String(), "-")
}

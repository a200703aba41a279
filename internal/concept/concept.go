// Package concept defines creative concepts and their on-disk layout.
package concept

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/launchbrief/campaigner/internal/brief"
)

// Copy is the text rendered onto an asset.
type Copy struct {
	Headline     string `json:"headline"`
	Body         string `json:"body,omitempty"`
	CallToAction string `json:"call_to_action,omitempty"`
}

// Overlay overrides the text rendering defaults for one concept. It can be
// hand-edited between the concept and asset stages.
type Overlay struct {
	Position string `json:"position,omitempty"` // top, center, bottom
	Font     string `json:"font,omitempty"`
	Color    string `json:"color,omitempty"`
	NoShadow bool   `json:"no_shadow,omitempty"`
}

// Concept is a single creative direction for one product at one aspect ratio.
type Concept struct {
	ConceptID         string          `json:"concept_id"`
	CampaignID        string          `json:"campaign_id"`
	ProductName       string          `json:"product_name"`
	AspectRatio       string          `json:"aspect_ratio"`
	GeneratedAt       time.Time       `json:"generated_at"`
	Model             string          `json:"model"`
	VisualPrompt      string          `json:"visual_prompt"`
	NegativePrompt    string          `json:"negative_prompt,omitempty"`
	ReferenceImage    string          `json:"reference_image,omitempty"` // path or URL
	ReferenceStrength float64         `json:"reference_strength,omitempty"`
	Copy              Copy            `json:"copy"`
	Overlay           *Overlay        `json:"overlay,omitempty"`
	Rationale         string          `json:"rationale,omitempty"`
	LocalizedCopy     map[string]Copy `json:"localized_copy,omitempty"`
}

// Validate checks that a loaded concept has the fields the pipeline needs.
func (c *Concept) Validate() error {
	if c.VisualPrompt == "" {
		return fmt.Errorf("concept %s has no visual_prompt", c.ConceptID)
	}
	if c.AspectRatio == "" {
		return fmt.Errorf("concept %s has no aspect_ratio", c.ConceptID)
	}
	if _, _, err := brief.Dimensions(c.AspectRatio); err != nil {
		return fmt.Errorf("concept %s: %w", c.ConceptID, err)
	}
	return nil
}

// ID builds a concept identifier, e.g. summer-24-trail-shoe-1x1-c03. The
// product and ratio slugs keep IDs unique across a campaign, and the number
// matches the concept's file number so metrics and ledger rows trace back to
// one file.
func ID(campaignID, productName, ratio string, number int) string {
	return fmt.Sprintf("%s-%s-%s-c%02d", campaignID, brief.Slugify(productName), brief.RatioSlug(ratio), number)
}

// Dir returns the output directory for a campaign/product/ratio combination.
func Dir(outRoot, campaignID, productName, ratio string) string {
	return filepath.Join(outRoot, campaignID, brief.Slugify(productName), brief.RatioSlug(ratio))
}

var conceptNumberRe = regexp.MustCompile(`^concept(\d+)_`)

// NextNumber scans a directory for existing concept files and returns the
// next free number. Gaps are not reused: the result is one past the highest
// number seen.
func NextNumber(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 1, nil
		}
		return 0, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	max := 0
	for _, entry := range entries {
		m := conceptNumberRe.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max + 1, nil
}

// FileName builds the concept file name for a number and aspect ratio,
// e.g. concept2_9x16.json.
func FileName(number int, ratio string) string {
	return fmt.Sprintf("concept%d_%s.json", number, brief.RatioSlug(ratio))
}

// BaseName strips the .json extension, giving the stem shared by the
// concept's rendered images.
func BaseName(conceptPath string) string {
	name := filepath.Base(conceptPath)
	return name[:len(name)-len(filepath.Ext(name))]
}

// Save writes a concept as indented JSON.
func Save(c *Concept, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create concept directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal concept: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write concept file: %w", err)
	}
	return nil
}

// Load reads and validates a concept file.
func Load(path string) (*Concept, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read concept: %w", err)
	}

	var c Concept
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse concept %s: %w", path, err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

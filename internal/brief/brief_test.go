package brief

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/launchbrief/campaigner/internal/apperr"
)

func validBrief() *CampaignBrief {
	return &CampaignBrief{
		CampaignID:      "summer-24",
		CampaignName:    "Summer Launch",
		Products:        []Product{{Name: "Trail Shoe", Features: []string{"waterproof", "lightweight"}}},
		TargetAudience:  "outdoor enthusiasts",
		CampaignMessage: "Go further this summer",
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	b := &CampaignBrief{}
	err := b.Validate()
	if err == nil {
		t.Fatal("Expected validation error for empty brief")
	}

	var ve *apperr.ValidationErrors
	if !errors.As(err, &ve) {
		t.Fatalf("Expected *apperr.ValidationErrors, got %T", err)
	}

	// campaign_id, products, target_audience, campaign_message
	if len(ve.Errors) != 4 {
		t.Errorf("Expected 4 validation errors, got %d: %v", len(ve.Errors), err)
	}
}

func TestValidateRejectsUnknownRatio(t *testing.T) {
	b := validBrief()
	b.AspectRatios = []string{"1:1", "4:3"}

	err := b.Validate()
	if err == nil {
		t.Fatal("Expected error for unsupported ratio")
	}
	if !strings.Contains(err.Error(), "4:3") {
		t.Errorf("Error should name the bad ratio: %v", err)
	}
	if !strings.Contains(err.Error(), "16:9") {
		t.Errorf("Error should list supported ratios: %v", err)
	}
}

func TestValidateNormalizesRatios(t *testing.T) {
	b := validBrief()
	b.AspectRatios = []string{"1_1", "16x9"}

	if err := b.Validate(); err != nil {
		t.Fatalf("Separator variants should validate: %v", err)
	}
	if b.AspectRatios[0] != "1:1" || b.AspectRatios[1] != "16:9" {
		t.Errorf("Expected canonical ratios, got %v", b.AspectRatios)
	}
}

func TestValidateProductName(t *testing.T) {
	b := validBrief()
	b.Products = append(b.Products, Product{Name: "  "})

	err := b.Validate()
	if err == nil {
		t.Fatal("Expected error for blank product name")
	}
	if !strings.Contains(err.Error(), "products[1].name") {
		t.Errorf("Error should name the offending product: %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	b := validBrief()
	b.ApplyDefaults()

	if len(b.AspectRatios) != 1 || b.AspectRatios[0] != "1:1" {
		t.Errorf("Expected default aspect ratio 1:1, got %v", b.AspectRatios)
	}
	if len(b.TargetLanguages) != 1 || b.TargetLanguages[0] != "en" {
		t.Errorf("Expected default language en, got %v", b.TargetLanguages)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "brief.json")

	data := `{
		"campaign_id": "fall-25",
		"products": [{"name": "Thermal Jacket"}],
		"target_audience": "commuters",
		"campaign_message": "Stay warm",
		"aspect_ratios": ["9:16"],
		"brand_guidelines": {"primary_color": "#FF6600", "logo_position": "top_left"}
	}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	b, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if b.CampaignID != "fall-25" {
		t.Errorf("Expected campaign_id fall-25, got %s", b.CampaignID)
	}
	if b.BrandGuidelines == nil || b.BrandGuidelines.LogoPosition != "top_left" {
		t.Error("Expected brand guidelines to round-trip")
	}
	if len(b.TargetLanguages) != 1 || b.TargetLanguages[0] != "en" {
		t.Error("Expected default language applied on load")
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "broken.json")
	if err := os.WriteFile(path, []byte("{nope"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Expected error for malformed JSON")
	}
}

func TestDimensions(t *testing.T) {
	tests := []struct {
		ratio  string
		width  int
		height int
		ok     bool
	}{
		{"1:1", 1024, 1024, true},
		{"9:16", 1024, 1792, true},
		{"16:9", 1792, 1024, true},
		{"3:2", 0, 0, false},
	}

	for _, tt := range tests {
		w, h, err := Dimensions(tt.ratio)
		if tt.ok && err != nil {
			t.Errorf("Dimensions(%s) unexpected error: %v", tt.ratio, err)
		}
		if !tt.ok && err == nil {
			t.Errorf("Dimensions(%s) expected error", tt.ratio)
		}
		if w != tt.width || h != tt.height {
			t.Errorf("Dimensions(%s) = %dx%d, want %dx%d", tt.ratio, w, h, tt.width, tt.height)
		}
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Trail Shoe", "trail-shoe"},
		{"  Ultra  Boost 3000! ", "ultra-boost-3000"},
		{"already-slugged", "already-slugged"},
		{"ÜberProduct", "berproduct"},
	}

	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRatioSlug(t *testing.T) {
	if got := RatioSlug("9:16"); got != "9x16" {
		t.Errorf("RatioSlug(9:16) = %s, want 9x16", got)
	}
}

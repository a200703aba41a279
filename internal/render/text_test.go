package render

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/goregular"
)

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestParseHexColor(t *testing.T) {
	white := color.RGBA{255, 255, 255, 255}

	tests := []struct {
		name string
		in   string
		want color.RGBA
	}{
		{"rgb", "#FF6600", color.RGBA{255, 102, 0, 255}},
		{"rgba", "#FF660080", color.RGBA{255, 102, 0, 128}},
		{"lowercase", "#00ff00", color.RGBA{0, 255, 0, 255}},
		{"no hash", "336699", color.RGBA{51, 102, 153, 255}},
		{"empty falls back", "", white},
		{"too short falls back", "#FFF", white},
		{"garbage falls back", "#ZZZZZZ", white},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseHexColor(tt.in, white); got != tt.want {
				t.Errorf("ParseHexColor(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestScaledFontSize(t *testing.T) {
	base := 100.0
	tests := []struct {
		text string
		want float64
	}{
		{"Short", 100},
		{"Between fifteen..", 90},                                 // 17 chars
		{"This text is over thirty chars!", 80},                   // 31 chars
		{"This is a very long piece of headline copy over fifty characters", 70},
	}

	for _, tt := range tests {
		if got := scaledFontSize(base, tt.text); got != tt.want {
			t.Errorf("scaledFontSize(%q) = %.0f, want %.0f", tt.text, got, tt.want)
		}
	}
}

func TestApplyTextChangesImage(t *testing.T) {
	base := solidImage(400, 400, color.RGBA{10, 20, 30, 255})

	out, err := ApplyText(base, TextOptions{
		Headline:     "Go further",
		Body:         "Built for every trail",
		CallToAction: "Shop now",
		Position:     PositionBottom,
	})
	if err != nil {
		t.Fatalf("ApplyText failed: %v", err)
	}

	if out.Bounds() != base.Bounds() {
		t.Errorf("Output bounds changed: %v", out.Bounds())
	}

	changed := 0
	for i := range out.Pix {
		if out.Pix[i] != base.Pix[i] {
			changed++
		}
	}
	if changed == 0 {
		t.Error("Expected text overlay to change pixels")
	}
}

func TestApplyTextNoCopy(t *testing.T) {
	base := solidImage(100, 100, color.RGBA{0, 0, 0, 255})
	if _, err := ApplyText(base, TextOptions{}); err == nil {
		t.Error("Expected error when there is no text to apply")
	}
}

func TestApplyTextRespectsTopPadding(t *testing.T) {
	base := solidImage(400, 400, color.RGBA{0, 0, 0, 255})

	out, err := ApplyText(base, TextOptions{Headline: "Top", Position: PositionTop})
	if err != nil {
		t.Fatalf("ApplyText failed: %v", err)
	}

	// Padding is max(3% of height, 20) = 20 for a 400px image. Rows above
	// the padding must be untouched.
	for y := 0; y < 20; y++ {
		for x := 0; x < 400; x++ {
			if out.RGBAAt(x, y) != base.RGBAAt(x, y) {
				t.Fatalf("Pixel (%d,%d) inside top padding was modified", x, y)
			}
		}
	}
}

func TestWrapTextFitsWidth(t *testing.T) {
	fnt := ResolveFont("", "")
	face, err := NewFace(fnt, 20)
	if err != nil {
		t.Fatal(err)
	}

	lines := wrapText(face, "the quick brown fox jumps over the lazy dog again and again", 200)
	if len(lines) < 2 {
		t.Fatalf("Expected wrapping into multiple lines, got %d", len(lines))
	}
}

func TestFontNameVariants(t *testing.T) {
	variants := fontNameVariants("Open Sans")
	want := []string{"open sans.ttf", "open-sans.ttf", "open_sans.ttf", "opensans.ttf"}
	if len(variants) != len(want) {
		t.Fatalf("Expected %d variants, got %d: %v", len(want), len(variants), variants)
	}
	for i, v := range variants {
		if v != want[i] {
			t.Errorf("variant[%d] = %s, want %s", i, v, want[i])
		}
	}

	// Single-word names collapse to one variant.
	if got := fontNameVariants("Roboto"); len(got) != 1 || got[0] != "roboto.ttf" {
		t.Errorf("Expected single variant for Roboto, got %v", got)
	}
}

func TestResolveFontFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	// A real face under a dashed variant name.
	if err := os.WriteFile(filepath.Join(tmpDir, "open-sans.ttf"), goregular.TTF, 0644); err != nil {
		t.Fatal(err)
	}

	f := ResolveFont("Open Sans", tmpDir)
	if f == nil {
		t.Fatal("ResolveFont returned nil")
	}
}

func TestResolveFontFallsBack(t *testing.T) {
	f := ResolveFont("No Such Font", t.TempDir())
	if f == nil {
		t.Fatal("ResolveFont must never return nil")
	}
	if _, err := NewFace(f, 16); err != nil {
		t.Errorf("Fallback font unusable: %v", err)
	}
}

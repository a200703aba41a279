// Package render applies local post-processing to generated images: text
// overlay, logo overlay, and color adjustments.
package render

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// systemFontDirs are searched after the configured font directory.
var systemFontDirs = []string{
	"/usr/share/fonts",
	"/usr/local/share/fonts",
	"/Library/Fonts",
	"/System/Library/Fonts",
}

// fontNameVariants lists the file names tried for a font name, in order.
// "Open Sans" tries open sans.ttf, open-sans.ttf, open_sans.ttf, opensans.ttf.
func fontNameVariants(name string) []string {
	lower := strings.ToLower(strings.TrimSpace(name))
	variants := []string{
		lower + ".ttf",
		strings.ReplaceAll(lower, " ", "-") + ".ttf",
		strings.ReplaceAll(lower, " ", "_") + ".ttf",
		strings.ReplaceAll(lower, " ", "") + ".ttf",
	}

	// Drop duplicates for names without spaces.
	seen := make(map[string]bool, len(variants))
	var unique []string
	for _, v := range variants {
		if !seen[v] {
			seen[v] = true
			unique = append(unique, v)
		}
	}
	return unique
}

// ResolveFont locates a font by name, trying the given directory first, then
// well-known system font directories, then the embedded default. It never
// fails: text rendering always has a face to draw with.
func ResolveFont(name, fontDir string) *opentype.Font {
	if name != "" {
		if fontDir != "" {
			if f := findInDir(name, fontDir); f != nil {
				return f
			}
		}
		for _, dir := range systemFontDirs {
			if f := findInDir(name, dir); f != nil {
				return f
			}
		}
		slog.Warn("Font not found, using default", "font", name, "font_dir", fontDir)
	}

	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		// goregular is embedded and always parses.
		panic(fmt.Sprintf("failed to parse embedded font: %v", err))
	}
	return f
}

func findInDir(name, dir string) *opentype.Font {
	for _, variant := range fontNameVariants(name) {
		path := filepath.Join(dir, variant)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		f, err := opentype.Parse(data)
		if err != nil {
			slog.Warn("Failed to parse font file", "path", path, "error", err)
			continue
		}
		slog.Debug("Resolved font", "font", name, "path", path)
		return f
	}
	return nil
}

// NewFace builds a drawing face at the given pixel size.
func NewFace(f *opentype.Font, size float64) (font.Face, error) {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	return face, nil
}

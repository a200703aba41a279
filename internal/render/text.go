package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Text positions supported by the overlay.
const (
	PositionTop    = "top"
	PositionCenter = "center"
	PositionBottom = "bottom"
)

// TextOptions controls the text overlay stage.
type TextOptions struct {
	Headline     string
	Body         string
	CallToAction string
	Position     string // top, center, or bottom; default bottom
	FontName     string
	FontDir      string
	Color        string // #RRGGBB or #RRGGBBAA; default white
	ShadowColor  string // default #00000080
	NoShadow     bool
}

// Relative font sizes as a fraction of image height.
const (
	headlineScale = 0.10
	bodyScale     = 0.06
	ctaScale      = 0.07
)

// ApplyText draws the copy onto a fresh copy of the image.
func ApplyText(src image.Image, opts TextOptions) (*image.RGBA, error) {
	lines := collectLines(opts)
	if len(lines) == 0 {
		return nil, fmt.Errorf("no text to apply")
	}

	dst := cloneRGBA(src)
	bounds := dst.Bounds()
	height := bounds.Dy()
	width := bounds.Dx()

	textColor := ParseHexColor(opts.Color, color.RGBA{255, 255, 255, 255})
	shadow := opts.ShadowColor
	if shadow == "" {
		shadow = "#00000080"
	}
	shadowColor := ParseHexColor(shadow, color.RGBA{0, 0, 0, 128})

	fnt := ResolveFont(opts.FontName, opts.FontDir)
	padding := maxInt(height*3/100, 20)
	maxWidth := width - 2*padding

	// Lay out every line first so the block can be positioned as a whole.
	type laidLine struct {
		text    string
		face    font.Face
		size    float64
		height  int
		spacing int
	}
	var block []laidLine
	blockHeight := 0

	for _, line := range lines {
		size := scaledFontSize(float64(height)*line.scale, line.text)
		face, err := NewFace(fnt, size)
		if err != nil {
			return nil, err
		}

		spacing := maxInt(int(size*0.15), 10)
		for _, wrapped := range wrapText(face, line.text, maxWidth) {
			lineHeight := face.Metrics().Height.Ceil()
			block = append(block, laidLine{text: wrapped, face: face, size: size, height: lineHeight, spacing: spacing})
			blockHeight += lineHeight + spacing
		}
	}

	var y int
	switch opts.Position {
	case PositionTop:
		y = bounds.Min.Y + padding
	case PositionCenter:
		y = bounds.Min.Y + (height-blockHeight)/2
	case PositionBottom, "":
		y = bounds.Max.Y - padding - blockHeight
	default:
		slog.Warn("Unknown text position, using bottom", "position", opts.Position)
		y = bounds.Max.Y - padding - blockHeight
	}
	if y < bounds.Min.Y+padding {
		y = bounds.Min.Y + padding
	}

	for _, line := range block {
		ascent := line.face.Metrics().Ascent.Ceil()
		lineWidth := font.MeasureString(line.face, line.text).Ceil()
		x := bounds.Min.X + (width-lineWidth)/2
		if x < bounds.Min.X+padding {
			x = bounds.Min.X + padding
		}

		baseline := y + ascent
		if !opts.NoShadow {
			drawString(dst, line.face, line.text, x+2, baseline+2, shadowColor)
		}
		drawString(dst, line.face, line.text, x, baseline, textColor)

		y += line.height + line.spacing
	}

	return dst, nil
}

type copyLine struct {
	text  string
	scale float64
}

func collectLines(opts TextOptions) []copyLine {
	var lines []copyLine
	if strings.TrimSpace(opts.Headline) != "" {
		lines = append(lines, copyLine{opts.Headline, headlineScale})
	}
	if strings.TrimSpace(opts.Body) != "" {
		lines = append(lines, copyLine{opts.Body, bodyScale})
	}
	if strings.TrimSpace(opts.CallToAction) != "" {
		lines = append(lines, copyLine{opts.CallToAction, ctaScale})
	}
	return lines
}

// scaledFontSize shrinks the base size for long copy so it stays on-image.
func scaledFontSize(base float64, text string) float64 {
	n := len(text)
	switch {
	case n > 50:
		return base * 0.7
	case n > 30:
		return base * 0.8
	case n > 15:
		return base * 0.9
	default:
		return base
	}
}

// wrapText breaks text at word boundaries so each line fits maxWidth.
// A single word wider than maxWidth is kept on its own line.
func wrapText(face font.Face, text string, maxWidth int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if font.MeasureString(face, candidate).Ceil() <= maxWidth {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = word
	}
	lines = append(lines, current)
	return lines
}

func drawString(dst draw.Image, face font.Face, text string, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// ParseHexColor parses #RRGGBB or #RRGGBBAA. Anything else falls back to the
// given default with a warning, so rendering never stops on a bad color.
func ParseHexColor(s string, fallback color.RGBA) color.RGBA {
	if s == "" {
		return fallback
	}

	hex := strings.TrimPrefix(s, "#")
	var c color.RGBA
	c.A = 255

	var err error
	switch len(hex) {
	case 6:
		_, err = fmt.Sscanf(hex, "%02x%02x%02x", &c.R, &c.G, &c.B)
	case 8:
		_, err = fmt.Sscanf(hex, "%02x%02x%02x%02x", &c.R, &c.G, &c.B, &c.A)
	default:
		err = fmt.Errorf("hex color must be 6 or 8 digits, got %d", len(hex))
	}

	if err != nil {
		slog.Warn("Failed to parse color, using fallback", "color", s, "error", err)
		return fallback
	}
	return c
}

func cloneRGBA(src image.Image) *image.RGBA {
	bounds := src.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)
	return dst
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

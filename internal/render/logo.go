package render

import (
	"fmt"
	"image"
	"image/color"
	stddraw "image/draw"
	"log/slog"

	xdraw "golang.org/x/image/draw"
)

// Logo placement keywords.
const (
	LogoTopLeft     = "top_left"
	LogoTopRight    = "top_right"
	LogoBottomLeft  = "bottom_left"
	LogoBottomRight = "bottom_right"
	LogoCenter      = "center"
)

// LogoOptions controls the logo overlay stage.
type LogoOptions struct {
	Position  string  // placement keyword; default bottom_right
	WidthFrac float64 // logo width as a fraction of image width; default 0.15
	Padding   int     // distance from the image edge; default 20
	Opacity   int     // 0-100; default 100
}

func (o LogoOptions) withDefaults() LogoOptions {
	if o.Position == "" {
		o.Position = LogoBottomRight
	}
	if o.WidthFrac <= 0 || o.WidthFrac > 1 {
		o.WidthFrac = 0.15
	}
	if o.Padding <= 0 {
		o.Padding = 20
	}
	if o.Opacity <= 0 || o.Opacity > 100 {
		o.Opacity = 100
	}
	return o
}

// ApplyLogo composites the logo onto a fresh copy of the base image.
func ApplyLogo(base image.Image, logo image.Image, opts LogoOptions) (*image.RGBA, error) {
	if logo == nil {
		return nil, fmt.Errorf("no logo image provided")
	}
	opts = opts.withDefaults()

	dst := cloneRGBA(base)
	bounds := dst.Bounds()

	scaled := scaleLogo(logo, int(float64(bounds.Dx())*opts.WidthFrac))
	rect := placementRect(bounds, scaled.Bounds(), opts.Position, opts.Padding)

	var mask image.Image
	if opts.Opacity < 100 {
		alpha := uint8(opts.Opacity * 255 / 100)
		mask = image.NewUniform(color.Alpha{A: alpha})
	}

	stddraw.DrawMask(dst, rect, scaled, scaled.Bounds().Min, mask, image.Point{}, stddraw.Over)
	return dst, nil
}

// scaleLogo resizes the logo to the target width, preserving aspect ratio.
func scaleLogo(logo image.Image, targetWidth int) *image.RGBA {
	lb := logo.Bounds()
	if targetWidth <= 0 || lb.Dx() == 0 {
		return cloneRGBA(logo)
	}

	targetHeight := lb.Dy() * targetWidth / lb.Dx()
	if targetHeight < 1 {
		targetHeight = 1
	}

	scaled := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), logo, lb, xdraw.Over, nil)
	return scaled
}

// placementRect returns where the scaled logo lands on the base image.
func placementRect(base, logo image.Rectangle, position string, padding int) image.Rectangle {
	w, h := logo.Dx(), logo.Dy()

	var x, y int
	switch position {
	case LogoTopLeft:
		x, y = base.Min.X+padding, base.Min.Y+padding
	case LogoTopRight:
		x, y = base.Max.X-padding-w, base.Min.Y+padding
	case LogoBottomLeft:
		x, y = base.Min.X+padding, base.Max.Y-padding-h
	case LogoCenter:
		x, y = base.Min.X+(base.Dx()-w)/2, base.Min.Y+(base.Dy()-h)/2
	case LogoBottomRight:
		x, y = base.Max.X-padding-w, base.Max.Y-padding-h
	default:
		slog.Warn("Unknown logo position, using bottom_right", "position", position)
		x, y = base.Max.X-padding-w, base.Max.Y-padding-h
	}

	return image.Rect(x, y, x+w, y+h)
}

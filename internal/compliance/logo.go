package compliance

import (
	"fmt"
	"image"
	"image/draw"
	"time"

	"github.com/corona10/goimagehash"
)

// DefaultLogoThreshold is the pass mark for logo presence, on a 0-1 scale.
const DefaultLogoThreshold = 0.7

// logoScales are the candidate logo widths checked, as fractions of the
// asset width. The overlay stage renders logos at 15% by default, with the
// neighbors covering resized or cropped assets.
var logoScales = []float64{0.10, 0.15, 0.20, 0.30}

// regionPadding matches the overlay stage's edge padding.
const regionPadding = 20

// LogoChecker scores rendered assets for logo visibility using perceptual
// hashing over the canonical placement regions.
type LogoChecker struct {
	Threshold float64
}

// NewLogoChecker creates a checker. A zero threshold gets the default.
func NewLogoChecker(threshold float64) *LogoChecker {
	if threshold <= 0 {
		threshold = DefaultLogoThreshold
	}
	return &LogoChecker{Threshold: threshold}
}

// AssetResult is the logo check outcome for one asset.
type AssetResult struct {
	File       string  `json:"file" yaml:"file"`
	Confidence float64 `json:"confidence" yaml:"confidence"` // 0-100
	Passed     bool    `json:"passed" yaml:"passed"`
	Error      string  `json:"error,omitempty" yaml:"error,omitempty"`
}

// LogoReport is the result of checking a set of assets against one logo.
type LogoReport struct {
	CheckedAt time.Time     `json:"checked_at" yaml:"checked_at"`
	Threshold float64       `json:"threshold" yaml:"threshold"`
	Passed    int           `json:"passed" yaml:"passed"`
	Failed    int           `json:"failed" yaml:"failed"`
	Assets    []AssetResult `json:"assets" yaml:"assets"`
}

// Score returns a 0-100 confidence that the logo appears in the asset. It
// hashes the logo once, then compares it against the asset as a whole and
// against every canonical placement region at several scales, keeping the
// best match.
func (c *LogoChecker) Score(asset, logo image.Image) (float64, error) {
	logoHash, err := goimagehash.PerceptionHash(logo)
	if err != nil {
		return 0, fmt.Errorf("failed to hash logo: %w", err)
	}

	best := 0.0

	// Whole-asset comparison catches assets that ARE the logo.
	if conf, err := hashConfidence(logoHash, asset); err == nil && conf > best {
		best = conf
	}

	logoAspect := float64(logo.Bounds().Dy()) / float64(logo.Bounds().Dx())
	bounds := asset.Bounds()

	for _, scale := range logoScales {
		w := int(float64(bounds.Dx()) * scale)
		h := int(float64(w) * logoAspect)
		if w < 8 || h < 8 || w > bounds.Dx() || h > bounds.Dy() {
			continue
		}

		for _, region := range placementRegions(bounds, w, h) {
			crop := cropRGBA(asset, region)
			conf, err := hashConfidence(logoHash, crop)
			if err != nil {
				continue
			}
			if conf > best {
				best = conf
			}
		}
	}

	return best, nil
}

// Check scores an asset and applies the threshold.
func (c *LogoChecker) Check(asset, logo image.Image) (AssetResult, error) {
	conf, err := c.Score(asset, logo)
	if err != nil {
		return AssetResult{}, err
	}
	return AssetResult{
		Confidence: conf,
		Passed:     conf/100 >= c.Threshold,
	}, nil
}

// hashConfidence converts the Hamming distance between the logo hash and the
// candidate's hash into a 0-100 confidence. Perception hashes are 64 bits.
func hashConfidence(logoHash *goimagehash.ImageHash, candidate image.Image) (float64, error) {
	h, err := goimagehash.PerceptionHash(candidate)
	if err != nil {
		return 0, err
	}
	dist, err := logoHash.Distance(h)
	if err != nil {
		return 0, err
	}
	return (1 - float64(dist)/64) * 100, nil
}

// placementRegions returns the five canonical logo placements for a w x h
// logo inside the asset bounds.
func placementRegions(bounds image.Rectangle, w, h int) []image.Rectangle {
	p := regionPadding
	return []image.Rectangle{
		image.Rect(bounds.Min.X+p, bounds.Min.Y+p, bounds.Min.X+p+w, bounds.Min.Y+p+h),
		image.Rect(bounds.Max.X-p-w, bounds.Min.Y+p, bounds.Max.X-p, bounds.Min.Y+p+h),
		image.Rect(bounds.Min.X+p, bounds.Max.Y-p-h, bounds.Min.X+p+w, bounds.Max.Y-p),
		image.Rect(bounds.Max.X-p-w, bounds.Max.Y-p-h, bounds.Max.X-p, bounds.Max.Y-p),
		image.Rect(
			bounds.Min.X+(bounds.Dx()-w)/2, bounds.Min.Y+(bounds.Dy()-h)/2,
			bounds.Min.X+(bounds.Dx()+w)/2, bounds.Min.Y+(bounds.Dy()+h)/2,
		),
	}
}

func cropRGBA(src image.Image, region image.Rectangle) *image.RGBA {
	region = region.Intersect(src.Bounds())
	dst := image.NewRGBA(image.Rect(0, 0, region.Dx(), region.Dy()))
	draw.Draw(dst, dst.Bounds(), src, region.Min, draw.Src)
	return dst
}

package render

import (
	"image"
	"math"
)

// Adjustments are percent deltas applied to the whole image. Zero means no
// change; 20 means +20%.
type Adjustments struct {
	Brightness float64
	Contrast   float64
	Saturation float64
	BlurRadius float64
}

// IsZero reports whether the adjustments would leave the image unchanged.
func (a Adjustments) IsZero() bool {
	return a.Brightness == 0 && a.Contrast == 0 && a.Saturation == 0 && a.BlurRadius <= 0
}

// Apply returns an adjusted copy of the image.
func Apply(src image.Image, adj Adjustments) *image.RGBA {
	dst := cloneRGBA(src)
	if adj.IsZero() {
		return dst
	}

	brightness := 1 + adj.Brightness/100
	contrast := 1 + adj.Contrast/100
	saturation := 1 + adj.Saturation/100

	bounds := dst.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			i := dst.PixOffset(x, y)
			r := float64(dst.Pix[i])
			g := float64(dst.Pix[i+1])
			b := float64(dst.Pix[i+2])

			if adj.Brightness != 0 {
				r *= brightness
				g *= brightness
				b *= brightness
			}

			if adj.Contrast != 0 {
				// Pivot on mid-gray so the overall exposure holds.
				r = (r-128)*contrast + 128
				g = (g-128)*contrast + 128
				b = (b-128)*contrast + 128
			}

			if adj.Saturation != 0 {
				// Interpolate against Rec. 601 luminance.
				lum := 0.299*r + 0.587*g + 0.114*b
				r = lum + (r-lum)*saturation
				g = lum + (g-lum)*saturation
				b = lum + (b-lum)*saturation
			}

			dst.Pix[i] = clampByte(r)
			dst.Pix[i+1] = clampByte(g)
			dst.Pix[i+2] = clampByte(b)
		}
	}

	if adj.BlurRadius > 0 {
		dst = gaussianBlur(dst, adj.BlurRadius)
	}
	return dst
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// gaussianBlur applies a separable gaussian kernel with the given radius.
func gaussianBlur(src *image.RGBA, radius float64) *image.RGBA {
	kernel := gaussianKernel(radius)
	half := len(kernel) / 2
	bounds := src.Bounds()

	// Horizontal pass, then vertical.
	tmp := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			var r, g, b, a float64
			for k, weight := range kernel {
				sx := x + k - half
				if sx < bounds.Min.X {
					sx = bounds.Min.X
				}
				if sx >= bounds.Max.X {
					sx = bounds.Max.X - 1
				}
				i := src.PixOffset(sx, y)
				r += float64(src.Pix[i]) * weight
				g += float64(src.Pix[i+1]) * weight
				b += float64(src.Pix[i+2]) * weight
				a += float64(src.Pix[i+3]) * weight
			}
			i := tmp.PixOffset(x, y)
			tmp.Pix[i] = clampByte(r)
			tmp.Pix[i+1] = clampByte(g)
			tmp.Pix[i+2] = clampByte(b)
			tmp.Pix[i+3] = clampByte(a)
		}
	}

	dst := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			var r, g, b, a float64
			for k, weight := range kernel {
				sy := y + k - half
				if sy < bounds.Min.Y {
					sy = bounds.Min.Y
				}
				if sy >= bounds.Max.Y {
					sy = bounds.Max.Y - 1
				}
				i := tmp.PixOffset(x, sy)
				r += float64(tmp.Pix[i]) * weight
				g += float64(tmp.Pix[i+1]) * weight
				b += float64(tmp.Pix[i+2]) * weight
				a += float64(tmp.Pix[i+3]) * weight
			}
			i := dst.PixOffset(x, y)
			dst.Pix[i] = clampByte(r)
			dst.Pix[i+1] = clampByte(g)
			dst.Pix[i+2] = clampByte(b)
			dst.Pix[i+3] = clampByte(a)
		}
	}

	return dst
}

func gaussianKernel(radius float64) []float64 {
	size := int(math.Ceil(radius))*2 + 1
	kernel := make([]float64, size)
	sigma := radius / 2
	if sigma <= 0 {
		sigma = 0.5
	}

	sum := 0.0
	half := size / 2
	for i := range kernel {
		x := float64(i - half)
		kernel[i] = math.Exp(-(x * x) / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

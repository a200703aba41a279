package imagegen

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/kolesa-team/go-webp/decoder"
	"github.com/kolesa-team/go-webp/webp"
)

// Format is a sniffed image container format.
type Format string

const (
	FormatPNG     Format = "png"
	FormatJPEG    Format = "jpeg"
	FormatWEBP    Format = "webp"
	FormatUnknown Format = "unknown"
)

// Sniff identifies an image format from its magic bytes.
func Sniff(data []byte) Format {
	switch {
	case len(data) >= 8 && bytes.Equal(data[:8], []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}):
		return FormatPNG
	case len(data) >= 3 && bytes.Equal(data[:3], []byte{0xFF, 0xD8, 0xFF}):
		return FormatJPEG
	case isWEBP(data):
		return FormatWEBP
	default:
		return FormatUnknown
	}
}

func isWEBP(data []byte) bool {
	return len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP"))
}

// Decode turns image bytes from the API into an image.Image. The API returns
// PNG, JPEG, or WEBP depending on the model.
func Decode(data []byte) (image.Image, error) {
	switch Sniff(data) {
	case FormatPNG:
		return png.Decode(bytes.NewReader(data))
	case FormatJPEG:
		return jpeg.Decode(bytes.NewReader(data))
	case FormatWEBP:
		return webp.Decode(bytes.NewReader(data), &decoder.Options{})
	default:
		// Ask the stdlib registry before giving up entirely.
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("unrecognized image format: %w", err)
		}
		return img, nil
	}
}

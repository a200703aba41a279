// Package fetch loads images referenced by briefs from local paths or URLs.
package fetch

import (
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/launchbrief/campaigner/internal/imagegen"
)

// Fetcher retrieves brand assets from various sources.
type Fetcher struct {
	HTTPClient *http.Client
	// MaxBytes caps downloads so a bad URL can't exhaust memory.
	MaxBytes int64
}

// NewFetcher creates a new asset fetcher.
func NewFetcher() *Fetcher {
	return &Fetcher{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		MaxBytes: 20 * 1024 * 1024,
	}
}

// Image loads an image from a local path or an http(s) URL and decodes it.
func (f *Fetcher) Image(source string) (image.Image, error) {
	data, err := f.Bytes(source)
	if err != nil {
		return nil, err
	}

	img, err := imagegen.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image from %s: %w", source, err)
	}
	return img, nil
}

// Bytes loads raw bytes from a local path or an http(s) URL.
func (f *Fetcher) Bytes(source string) ([]byte, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return f.download(source)
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}
	return data, nil
}

func (f *Fetcher) download(url string) ([]byte, error) {
	slog.Debug("Downloading asset", "url", url)

	resp, err := f.HTTPClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("asset URL returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read asset data: %w", err)
	}

	if int64(len(data)) > f.MaxBytes {
		return nil, fmt.Errorf("asset exceeds %d byte limit", f.MaxBytes)
	}

	// Tiny responses are error pages or placeholders, not images.
	if len(data) < 100 {
		return nil, fmt.Errorf("asset too small (%d bytes), likely not an image", len(data))
	}

	return data, nil
}

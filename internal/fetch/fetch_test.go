package fetch

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{200, 50, 50, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestImageFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "logo.png")
	if err := os.WriteFile(path, pngBytes(t, 32, 16), 0644); err != nil {
		t.Fatal(err)
	}

	f := NewFetcher()
	img, err := f.Image(path)
	if err != nil {
		t.Fatalf("Image failed: %v", err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 16 {
		t.Errorf("Unexpected bounds: %v", img.Bounds())
	}
}

func TestImageFromURL(t *testing.T) {
	data := pngBytes(t, 64, 64)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer server.Close()

	f := NewFetcher()
	img, err := f.Image(server.URL + "/logo.png")
	if err != nil {
		t.Fatalf("Image failed: %v", err)
	}
	if img.Bounds().Dx() != 64 {
		t.Errorf("Unexpected bounds: %v", img.Bounds())
	}
}

func TestDownloadRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	f := NewFetcher()
	if _, err := f.Bytes(server.URL); err == nil {
		t.Error("Expected error for 404")
	}
}

func TestDownloadRejectsTinyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("nope"))
	}))
	defer server.Close()

	f := NewFetcher()
	if _, err := f.Bytes(server.URL); err == nil {
		t.Error("Expected error for tiny response")
	}
}

func TestDownloadRespectsByteLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 4096))
	}))
	defer server.Close()

	f := NewFetcher()
	f.MaxBytes = 1024
	if _, err := f.Bytes(server.URL); err == nil {
		t.Error("Expected error when response exceeds limit")
	}
}

func TestMissingFile(t *testing.T) {
	f := NewFetcher()
	if _, err := f.Image(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("Expected error for missing file")
	}
}

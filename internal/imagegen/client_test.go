package imagegen

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/launchbrief/campaigner/internal/apperr"
	"github.com/launchbrief/campaigner/internal/retry"
)

func fastRetry() retry.Config {
	return retry.Config{
		MaxRetries: 2,
		BaseDelay:  1 * time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
		Multiplier: 2.0,
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Options{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Retry:   fastRetry(),
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client, server
}

func imageResponse(data []byte) string {
	encoded := base64.StdEncoding.EncodeToString(data)
	return fmt.Sprintf(`{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"image/png","data":"%s"}}]}}]}`, encoded)
}

func TestGenerateRequestShape(t *testing.T) {
	var gotPath, gotKey string
	var gotBody generateContentRequest

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("Failed to decode request body: %v", err)
		}
		fmt.Fprint(w, imageResponse([]byte("fake-png")))
	})

	img, err := client.Generate(context.Background(), Request{
		Prompt:      "a shoe on a trail",
		AspectRatio: "9:16",
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if gotPath != "/v1beta/models/gemini-2.5-flash-image:generateContent" {
		t.Errorf("Unexpected path: %s", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("Expected api key header, got %q", gotKey)
	}
	if len(gotBody.Contents) != 1 || gotBody.Contents[0].Parts[0].Text != "a shoe on a trail" {
		t.Errorf("Prompt not carried in request: %+v", gotBody)
	}
	if gotBody.GenerationConfig == nil || gotBody.GenerationConfig.ImageConfig.AspectRatio != "9:16" {
		t.Errorf("Aspect ratio not carried: %+v", gotBody.GenerationConfig)
	}
	if len(gotBody.GenerationConfig.ResponseModalities) != 1 || gotBody.GenerationConfig.ResponseModalities[0] != "IMAGE" {
		t.Errorf("Expected IMAGE response modality: %+v", gotBody.GenerationConfig)
	}

	if string(img.Data) != "fake-png" {
		t.Errorf("Image data not decoded: %q", img.Data)
	}
	if img.MimeType != "image/png" {
		t.Errorf("Unexpected mime type: %s", img.MimeType)
	}
}

func TestGenerateNegativePromptAndReference(t *testing.T) {
	var gotBody generateContentRequest

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("Failed to decode request body: %v", err)
		}
		fmt.Fprint(w, imageResponse([]byte("ok")))
	})

	ref := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00}
	_, err := client.Generate(context.Background(), Request{
		Prompt:         "a shoe",
		NegativePrompt: "text, watermarks",
		AspectRatio:    "1:1",
		ReferenceImage: ref,
		Strength:       0.6,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	parts := gotBody.Contents[0].Parts
	if len(parts) != 2 {
		t.Fatalf("Expected reference and text parts, got %d", len(parts))
	}
	if parts[0].InlineData == nil || parts[0].InlineData.MimeType != "image/jpeg" {
		t.Errorf("Reference image not carried: %+v", parts[0])
	}
	if decoded, err := base64.StdEncoding.DecodeString(parts[0].InlineData.Data); err != nil || string(decoded) != string(ref) {
		t.Errorf("Reference bytes not carried: %v", err)
	}
	text := parts[1].Text
	if !strings.Contains(text, "a shoe") || !strings.Contains(text, "Avoid: text, watermarks") {
		t.Errorf("Prompt missing negative clause: %q", text)
	}
	if !strings.Contains(text, "strength 0.6") {
		t.Errorf("Prompt missing strength instruction: %q", text)
	}
}

func TestGenerateRejectsBadRatio(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("Server should not be called for invalid ratio")
	})

	_, err := client.Generate(context.Background(), Request{Prompt: "x", AspectRatio: "4:3"})
	if err == nil {
		t.Fatal("Expected error for unsupported ratio")
	}
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("Expected validation error, got %T", err)
	}
}

func TestGenerateRetriesServerError(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"error":{"code":503,"message":"overloaded","status":"UNAVAILABLE"}}`)
			return
		}
		fmt.Fprint(w, imageResponse([]byte("ok")))
	})

	img, err := client.Generate(context.Background(), Request{Prompt: "x", AspectRatio: "1:1"})
	if err != nil {
		t.Fatalf("Generate should succeed after retries: %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
	if string(img.Data) != "ok" {
		t.Errorf("Unexpected image data: %q", img.Data)
	}
}

func TestGenerateDoesNotRetryClientError(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"code":400,"message":"invalid prompt","status":"INVALID_ARGUMENT"}}`)
	})

	_, err := client.Generate(context.Background(), Request{Prompt: "x", AspectRatio: "1:1"})
	if err == nil {
		t.Fatal("Expected error")
	}
	if calls != 1 {
		t.Errorf("Expected 1 call for 400, got %d", calls)
	}

	var apiErr *apperr.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %T", err)
	}
	if apiErr.StatusCode != 400 {
		t.Errorf("Expected status 400, got %d", apiErr.StatusCode)
	}
	if apiErr.Msg != "invalid prompt" {
		t.Errorf("Expected message from error body, got %q", apiErr.Msg)
	}
}

func TestGenerateNoImageInResponse(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"sorry, words only"}]}}]}`)
	})

	_, err := client.Generate(context.Background(), Request{Prompt: "x", AspectRatio: "1:1"})
	if err == nil {
		t.Fatal("Expected error when response has no image")
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	_, err := NewClient(Options{})
	if err == nil {
		t.Fatal("Expected error without API key")
	}
	var ce *apperr.ConfigError
	if !errors.As(err, &ce) {
		t.Errorf("Expected ConfigError, got %T", err)
	}
}

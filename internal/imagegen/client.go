// Package imagegen renders base images from text prompts via the Gemini
// image generation API.
package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/launchbrief/campaigner/internal/apperr"
	"github.com/launchbrief/campaigner/internal/brief"
	"github.com/launchbrief/campaigner/internal/retry"
)

const (
	// DefaultModel renders the base images.
	DefaultModel = "gemini-2.5-flash-image"

	defaultBaseURL    = "https://generativelanguage.googleapis.com"
	defaultAPIVersion = "v1beta"
)

// Options configures the image client.
type Options struct {
	APIKey     string
	Model      string
	BaseURL    string
	APIVersion string
	HTTPClient *http.Client
	Retry      retry.Config
}

// Client calls the image generation endpoint.
type Client struct {
	opts Options
}

// NewClient builds an image client, reading GEMINI_API_KEY when no key is
// provided.
func NewClient(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		opts.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if opts.APIKey == "" {
		return nil, &apperr.ConfigError{Key: "GEMINI_API_KEY", Msg: "environment variable not set"}
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.APIVersion == "" {
		opts.APIVersion = defaultAPIVersion
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 120 * time.Second}
	}
	if opts.Retry.MaxRetries == 0 && opts.Retry.BaseDelay == 0 {
		opts.Retry = retry.DefaultConfig()
	}
	return &Client{opts: opts}, nil
}

// Request describes one rendering job.
type Request struct {
	Prompt         string
	NegativePrompt string
	AspectRatio    string
	Seed           int64

	// ReferenceImage, when set, is sent alongside the prompt for style and
	// composition guidance. Strength (0-1) is folded into the instruction
	// since the API has no dedicated parameter for it.
	ReferenceImage []byte
	Strength       float64
}

// Image is one rendered image returned by the API.
type Image struct {
	Data     []byte
	MimeType string
}

// Wire types for the generateContent endpoint.

type generateContentRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string `json:"text,omitempty"`
	InlineData *blob  `json:"inlineData,omitempty"`
}

type blob struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string     `json:"responseModalities,omitempty"`
	ImageConfig        *imageConfig `json:"imageConfig,omitempty"`
	Seed               *int64       `json:"seed,omitempty"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate renders one image for the request, retrying transient failures.
func (c *Client) Generate(ctx context.Context, req Request) (*Image, error) {
	if req.Prompt == "" {
		return nil, &apperr.ValidationError{Field: "prompt", Msg: "must not be empty"}
	}
	if _, _, err := brief.Dimensions(req.AspectRatio); err != nil {
		return nil, err
	}

	var img *Image
	result, err := retry.Do(ctx, c.opts.Retry, func() error {
		var callErr error
		img, callErr = c.generateOnce(ctx, req)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	if result.Attempts > 1 {
		slog.Info("Image generated after retries", "attempts", result.Attempts, "duration", result.TotalDuration)
	}
	return img, nil
}

func (c *Client) generateOnce(ctx context.Context, req Request) (*Image, error) {
	prompt := req.Prompt
	if req.NegativePrompt != "" {
		prompt += "\n\nAvoid: " + req.NegativePrompt
	}

	var parts []part
	if len(req.ReferenceImage) > 0 {
		parts = append(parts, part{InlineData: &blob{
			MimeType: referenceMimeType(req.ReferenceImage),
			Data:     base64.StdEncoding.EncodeToString(req.ReferenceImage),
		}})
		if req.Strength > 0 {
			prompt += fmt.Sprintf("\n\nUse the attached image as a style and composition reference with strength %.1f.", req.Strength)
		} else {
			prompt += "\n\nUse the attached image as a style and composition reference."
		}
	}
	parts = append(parts, part{Text: prompt})

	payload := generateContentRequest{
		Contents: []content{
			{Role: "user", Parts: parts},
		},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"IMAGE"},
			ImageConfig:        &imageConfig{AspectRatio: req.AspectRatio},
		},
	}
	if req.Seed != 0 {
		payload.GenerationConfig.Seed = &req.Seed
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/models/%s:generateContent", c.opts.BaseURL, c.opts.APIVersion, c.opts.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.opts.APIKey)

	resp, err := c.opts.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("image API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := apiErrorMessage(respBody)
		return nil, apperr.NewAPIError("gemini-image", resp.StatusCode, msg)
	}

	var parsed generateContentResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	for _, candidate := range parsed.Candidates {
		for _, p := range candidate.Content.Parts {
			if p.InlineData == nil || p.InlineData.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("failed to decode image data: %w", err)
			}
			return &Image{Data: data, MimeType: p.InlineData.MimeType}, nil
		}
	}

	return nil, apperr.NewAPIError("gemini-image", 0, "response contained no image data")
}

func referenceMimeType(data []byte) string {
	switch Sniff(data) {
	case FormatJPEG:
		return "image/jpeg"
	case FormatWEBP:
		return "image/webp"
	default:
		return "image/png"
	}
}

// apiErrorMessage extracts the error message from an API error body, falling
// back to the raw body when it is not the expected JSON shape.
func apiErrorMessage(body []byte) string {
	var parsed generateContentResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != nil {
		return parsed.Error.Message
	}
	if len(body) > 256 {
		body = body[:256]
	}
	return string(body)
}

// Package llm wraps the text models used for concept generation.
package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/google/generative-ai-go/genai"
	"github.com/launchbrief/campaigner/internal/apperr"
	"google.golang.org/api/option"
)

// DefaultModel is the text model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// Config controls a single completion request.
type Config struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Client produces text completions for a prompt.
type Client interface {
	Complete(ctx context.Context, config Config, prompt string) (string, error)
}

// Gemini is the Google Gemini text client.
type Gemini struct{}

// NewGemini returns a new Gemini client.
func NewGemini() *Gemini {
	return &Gemini{}
}

// Complete generates text for the given prompt using Gemini.
func (g *Gemini) Complete(ctx context.Context, config Config, prompt string) (string, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return "", &apperr.ConfigError{Key: "GEMINI_API_KEY", Msg: "environment variable not set"}
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close()

	if config.Model == "" {
		config.Model = DefaultModel
	}

	model := client.GenerativeModel(config.Model)
	model.SetTemperature(float32(config.Temperature))
	if config.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(config.MaxTokens))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("empty content returned from Gemini")
	}

	if txt, ok := candidate.Content.Parts[0].(genai.Text); ok {
		return string(txt), nil
	}

	return "", fmt.Errorf("unexpected response format from Gemini")
}

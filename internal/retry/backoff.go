// Package retry provides exponential backoff with jitter for upstream API calls.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/launchbrief/campaigner/internal/apperr"
)

// Config controls the backoff schedule.
type Config struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
	Jitter     bool
}

// DefaultConfig is the schedule used for LLM and image API calls.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
		Multiplier: 2.0,
		Jitter:     true,
	}
}

// Result describes how a retried operation concluded.
type Result struct {
	Attempts      int
	TotalDuration time.Duration
	LastError     error
}

// Do runs the operation, retrying retryable failures with exponential
// backoff. Non-retryable errors and context cancellation return immediately.
func Do(ctx context.Context, cfg Config, op func() error) (*Result, error) {
	start := time.Now()
	result := &Result{}

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			result.TotalDuration = time.Since(start)
			return result, fmt.Errorf("aborted before attempt %d: %w", attempt+1, err)
		}

		result.Attempts = attempt + 1
		err := op()
		if err == nil {
			result.TotalDuration = time.Since(start)
			return result, nil
		}

		result.LastError = err

		if !Retryable(err) {
			result.TotalDuration = time.Since(start)
			return result, err
		}

		if attempt == cfg.MaxRetries {
			break
		}

		delay := delayFor(cfg, attempt)
		slog.Warn("Retrying after failure", "attempt", attempt+1, "max_retries", cfg.MaxRetries, "delay", delay, "error", err)

		select {
		case <-ctx.Done():
			result.TotalDuration = time.Since(start)
			return result, fmt.Errorf("aborted during backoff: %w", ctx.Err())
		case <-time.After(delay):
		}
	}

	result.TotalDuration = time.Since(start)
	return result, fmt.Errorf("all %d attempts failed: %w", result.Attempts, result.LastError)
}

// delayFor computes the backoff for a completed attempt: base * multiplier^attempt,
// capped at MaxDelay, with optional ±10% jitter.
func delayFor(cfg Config, attempt int) time.Duration {
	delay := float64(cfg.BaseDelay) * math.Pow(cfg.Multiplier, float64(attempt))
	if delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}

	if cfg.Jitter {
		jitter := delay * 0.1 * (rand.Float64()*2 - 1)
		delay += jitter
	}

	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// transientMarkers are substrings that identify retryable transport failures
// when the error carries no explicit classification.
var transientMarkers = []string{
	"timeout",
	"deadline exceeded",
	"connection refused",
	"connection reset",
	"temporary failure",
	"rate limit",
	"too many requests",
	"429",
	"502",
	"503",
	"504",
	"unavailable",
	"overloaded",
}

// Retryable reports whether an error is worth retrying. Typed API errors
// carry their own classification; anything else is matched against known
// transient transport failures.
func Retryable(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *apperr.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

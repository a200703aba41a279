package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/launchbrief/campaigner/internal/apperr"
)

func fastConfig() Config {
	return Config{
		MaxRetries: 3,
		BaseDelay:  1 * time.Millisecond,
		MaxDelay:   10 * time.Millisecond,
		Multiplier: 2.0,
	}
}

func TestDoSucceedsFirstTry(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), fastConfig(), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
	if result.Attempts != 1 {
		t.Errorf("Expected Attempts=1, got %d", result.Attempts)
	}
}

func TestDoRetriesTransientThenSucceeds(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), fastConfig(), func() error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if result.Attempts != 3 {
		t.Errorf("Expected Attempts=3, got %d", result.Attempts)
	}
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	calls := 0
	apiErr := apperr.NewAPIError("gemini", 400, "bad request")
	_, err := Do(context.Background(), fastConfig(), func() error {
		calls++
		return apiErr
	})
	if err == nil {
		t.Fatal("Expected error")
	}
	if calls != 1 {
		t.Errorf("Expected 1 call for non-retryable error, got %d", calls)
	}
	var got *apperr.APIError
	if !errors.As(err, &got) {
		t.Error("Expected the API error to surface unchanged")
	}
}

func TestDoExhaustsRetries(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), fastConfig(), func() error {
		calls++
		return apperr.NewAPIError("gemini", 503, "overloaded")
	})
	if err == nil {
		t.Fatal("Expected error after exhausting retries")
	}
	if calls != 4 {
		t.Errorf("Expected 4 calls (1 + 3 retries), got %d", calls)
	}
	if result.LastError == nil {
		t.Error("Expected LastError to be recorded")
	}
}

func TestDoCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Do(ctx, fastConfig(), func() error {
		calls++
		return nil
	})
	if err == nil {
		t.Fatal("Expected error for cancelled context")
	}
	if calls != 0 {
		t.Errorf("Expected 0 calls, got %d", calls)
	}
}

func TestDelayForGrowthAndCap(t *testing.T) {
	cfg := Config{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   500 * time.Millisecond,
		Multiplier: 2.0,
	}

	if d := delayFor(cfg, 0); d != 100*time.Millisecond {
		t.Errorf("attempt 0: expected 100ms, got %s", d)
	}
	if d := delayFor(cfg, 1); d != 200*time.Millisecond {
		t.Errorf("attempt 1: expected 200ms, got %s", d)
	}
	if d := delayFor(cfg, 10); d != 500*time.Millisecond {
		t.Errorf("attempt 10: expected cap of 500ms, got %s", d)
	}
}

func TestDelayForJitterBounds(t *testing.T) {
	cfg := Config{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   1 * time.Second,
		Multiplier: 2.0,
		Jitter:     true,
	}

	for i := 0; i < 50; i++ {
		d := delayFor(cfg, 0)
		if d < 90*time.Millisecond || d > 110*time.Millisecond {
			t.Fatalf("jittered delay %s outside ±10%% of 100ms", d)
		}
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"timeout", errors.New("request timeout"), true},
		{"rate limit", errors.New("Rate Limit exceeded"), true},
		{"502", errors.New("upstream returned 502"), true},
		{"plain failure", errors.New("invalid prompt"), false},
		{"api retryable", apperr.NewAPIError("gemini", 429, "slow down"), true},
		{"api client error", apperr.NewAPIError("gemini", 404, "not found"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Retryable(tt.err); got != tt.want {
				t.Errorf("Retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationErrorsCollect(t *testing.T) {
	var ve ValidationErrors
	if err := ve.OrNil(); err != nil {
		t.Errorf("Expected nil for empty collection, got %v", err)
	}

	ve.Add("campaign_id", "must not be empty")
	ve.Add("products", "at least one product is required")

	err := ve.OrNil()
	if err == nil {
		t.Fatal("Expected error after adding problems")
	}

	var got *ValidationErrors
	if !errors.As(err, &got) {
		t.Fatal("Expected errors.As to match *ValidationErrors")
	}
	if len(got.Errors) != 2 {
		t.Errorf("Expected 2 errors, got %d", len(got.Errors))
	}
}

func TestNewAPIErrorRetryable(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{400, false},
		{401, false},
		{404, false},
		{429, true},
		{500, true},
		{502, true},
		{503, true},
	}

	for _, tt := range tests {
		err := NewAPIError("gemini", tt.status, "boom")
		if err.Retryable != tt.retryable {
			t.Errorf("status %d: expected retryable=%v, got %v", tt.status, tt.retryable, err.Retryable)
		}
	}
}

func TestStageErrorUnwrap(t *testing.T) {
	inner := errors.New("font not found")
	err := fmt.Errorf("pipeline: %w", &StageError{Stage: "text", Err: inner})

	var se *StageError
	if !errors.As(err, &se) {
		t.Fatal("Expected errors.As to match *StageError")
	}
	if se.Stage != "text" {
		t.Errorf("Expected stage text, got %s", se.Stage)
	}
	if !errors.Is(err, inner) {
		t.Error("Expected errors.Is to reach the inner error")
	}
}

// Package apperr defines the typed errors shared across the asset pipeline.
package apperr

import (
	"fmt"
	"strings"
)

// ValidationError reports an invalid field in a campaign brief or concept file.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

// ValidationErrors collects every problem found in one validation pass so
// callers see the full list at once.
type ValidationErrors struct {
	Errors []*ValidationError
}

func (e *ValidationErrors) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		msgs[i] = ve.Error()
	}
	return fmt.Sprintf("%d validation error(s): %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Add appends a field error to the collection.
func (e *ValidationErrors) Add(field, msg string) {
	e.Errors = append(e.Errors, &ValidationError{Field: field, Msg: msg})
}

// OrNil returns the collection as an error, or nil when no problems were found.
func (e *ValidationErrors) OrNil() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// ConfigError reports missing or malformed configuration.
type ConfigError struct {
	Key string
	Msg string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error for %s: %s", e.Key, e.Msg)
}

// APIError reports a failure from an upstream LLM or image generation API.
type APIError struct {
	Provider   string
	StatusCode int
	Msg        string
	Retryable  bool
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Msg)
	}
	return fmt.Sprintf("%s API error: %s", e.Provider, e.Msg)
}

// NewAPIError builds an APIError from an HTTP status, marking 429 and all
// 5xx responses as retryable. Other 4xx responses are client errors and
// retrying them would just repeat the mistake.
func NewAPIError(provider string, statusCode int, msg string) *APIError {
	retryable := statusCode == 429 || statusCode >= 500
	return &APIError{
		Provider:   provider,
		StatusCode: statusCode,
		Msg:        msg,
		Retryable:  retryable,
	}
}

// StageError reports a post-processing stage failure. Stage failures are
// recoverable at the pipeline level: the previous stage's image is carried
// forward.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

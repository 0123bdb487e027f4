package models

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Login throttling
	ErrRateLimitExceeded = errors.New("too many failed login attempts")

	// Mission accounting
	ErrMissionLimitReached     = errors.New("quest limit reached")
	ErrMissionAlreadyCompleted = errors.New("mission already completed")
	ErrMissionNotActive        = errors.New("mission is not active yet")
)

// ValidationError reports a caller-supplied field that failed a precondition.
// It is raised before any store call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrBadRequest }

// RateLimitError carries the instant at which a throttled identifier may retry
type RateLimitError struct {
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: retry after %s", ErrRateLimitExceeded, e.ResetAt.UTC().Format(time.RFC3339))
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimitExceeded }

// MinutesRemaining rounds the wait up to whole minutes, never less than one
func (e *RateLimitError) MinutesRemaining(now time.Time) int {
	remaining := e.ResetAt.Sub(now)
	if remaining <= 0 {
		return 1
	}
	minutes := int(remaining / time.Minute)
	if remaining%time.Minute != 0 {
		minutes++
	}
	return minutes
}

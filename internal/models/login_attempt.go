package models

import "time"

// LoginAttempt represents a single login submission for an identifier
type LoginAttempt struct {
	ID          string    `db:"id"`
	Identifier  string    `db:"identifier"`
	Success     bool      `db:"success"`
	AttemptTime time.Time `db:"attempt_time"`
	ExpiresAt   time.Time `db:"expires_at"`
}

// RateDecision is the outcome of a login rate-limit check
type RateDecision struct {
	Allowed        bool
	ResetAt        time.Time
	FailedAttempts int
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// StreakRecord tracks consecutive active days. LongestStreak >= CurrentStreak.
type StreakRecord struct {
	StudentID        uuid.UUID `json:"student_id"`
	CurrentStreak    int       `json:"current_streak"`
	LongestStreak    int       `json:"longest_streak"`
	LastActivityDate time.Time `json:"last_activity_date"`
	UpdatedAt        time.Time `json:"updated_at"`
}

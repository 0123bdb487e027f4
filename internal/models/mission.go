package models

import (
	"time"

	"github.com/google/uuid"
)

// Difficulty is the effort tier a mission is filed under
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// MissionSource tells where a mission came from and therefore which rows a
// completion touches.
type MissionSource string

const (
	MissionSourceCurated      MissionSource = "curated"
	MissionSourceCustom       MissionSource = "custom"
	MissionSourceLifeProgress MissionSource = "life_progress"
)

func (s MissionSource) Valid() bool {
	switch s {
	case MissionSourceCurated, MissionSourceCustom, MissionSourceLifeProgress:
		return true
	}
	return false
}

// Mission XP bounds for curated and custom missions
const (
	MinMissionXP = 10
	MaxMissionXP = 50
)

type Mission struct {
	ID            uuid.UUID     `json:"id"`
	StudentID     *uuid.UUID    `json:"student_id,omitempty"` // set for custom missions
	ClassID       *uuid.UUID    `json:"class_id,omitempty"`   // set for curated missions
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Category      string        `json:"category"`
	Difficulty    Difficulty    `json:"difficulty"`
	XPReward      int           `json:"xp_reward"`
	DeadlineHours int           `json:"deadline_hours"`
	Source        MissionSource `json:"source"`
	SourceEntryID *uuid.UUID    `json:"source_entry_id,omitempty"`
	ScheduledFor  time.Time     `json:"scheduled_for"`
	IsCompleted   bool          `json:"is_completed"`
	IsSuggestion  bool          `json:"is_suggestion"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

// MissionRef addresses a mission for completion
type MissionRef struct {
	Source MissionSource
	ID     uuid.UUID
}

// LifeProgressEntry is a self-reported satisfaction score for one life category
type LifeProgressEntry struct {
	ID                uuid.UUID `json:"id"`
	StudentID         uuid.UUID `json:"student_id"`
	Category          string    `json:"category"`
	SatisfactionScore int       `json:"satisfaction_score"`
	Note              string    `json:"note,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Activity types recorded in the activity log
const (
	ActivityMissionCompleted = "mission_completed"
)

// ActivityLogEntry is the content-addressed record of an XP grant
type ActivityLogEntry struct {
	ID            uuid.UUID
	StudentID     uuid.UUID
	ContentHash   string
	ActivityType  string
	MissionSource MissionSource
	MissionID     uuid.UUID
	XPGranted     int
	Category      string
	Difficulty    Difficulty
	ActivityDate  time.Time
	CreatedAt     time.Time
}

// CalendarEntry aggregates a student's XP and lessons for one day
type CalendarEntry struct {
	StudentID        uuid.UUID `json:"student_id"`
	EventDate        time.Time `json:"event_date"`
	XPEarned         int       `json:"xp_earned"`
	LessonsCompleted int       `json:"lessons_completed"`
}

// CivilDay returns midnight UTC of the calendar date t falls on in loc.
// All stored dates use this form so they compare equal to DATE columns.
func CivilDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

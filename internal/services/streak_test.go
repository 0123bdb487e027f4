package services_test

import (
	"testing"
	"time"

	"github.com/BradenHooton/questboard/internal/models"
	"github.com/BradenHooton/questboard/internal/services"
	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAdvanceStreak(t *testing.T) {
	today := day(2026, 3, 10)

	tests := []struct {
		name        string
		prev        *models.StreakRecord
		wantCurrent int
		wantLongest int
	}{
		{
			name:        "first activity starts at one",
			prev:        nil,
			wantCurrent: 1,
			wantLongest: 1,
		},
		{
			name:        "yesterday extends",
			prev:        &models.StreakRecord{CurrentStreak: 3, LongestStreak: 5, LastActivityDate: day(2026, 3, 9)},
			wantCurrent: 4,
			wantLongest: 5,
		},
		{
			name:        "yesterday extends past longest",
			prev:        &models.StreakRecord{CurrentStreak: 5, LongestStreak: 5, LastActivityDate: day(2026, 3, 9)},
			wantCurrent: 6,
			wantLongest: 6,
		},
		{
			name:        "gap resets",
			prev:        &models.StreakRecord{CurrentStreak: 8, LongestStreak: 8, LastActivityDate: day(2026, 3, 7)},
			wantCurrent: 1,
			wantLongest: 8,
		},
		{
			name:        "same day is a no-op",
			prev:        &models.StreakRecord{CurrentStreak: 2, LongestStreak: 4, LastActivityDate: today},
			wantCurrent: 2,
			wantLongest: 4,
		},
		{
			name:        "month boundary counts as consecutive",
			prev:        &models.StreakRecord{CurrentStreak: 1, LongestStreak: 1, LastActivityDate: day(2026, 2, 28)},
			wantCurrent: 2,
			wantLongest: 2,
		},
		{
			name:        "zero record restarts",
			prev:        &models.StreakRecord{},
			wantCurrent: 1,
			wantLongest: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkDay := today
			if tt.name == "month boundary counts as consecutive" {
				checkDay = day(2026, 3, 1)
			}

			got := services.AdvanceStreak(tt.prev, checkDay)

			assert.Equal(t, tt.wantCurrent, got.CurrentStreak)
			assert.Equal(t, tt.wantLongest, got.LongestStreak)
			assert.Equal(t, checkDay, got.LastActivityDate)
		})
	}
}

func TestAdvanceStreak_DoesNotMutatePrevious(t *testing.T) {
	prev := &models.StreakRecord{CurrentStreak: 3, LongestStreak: 3, LastActivityDate: day(2026, 3, 9)}

	_ = services.AdvanceStreak(prev, day(2026, 3, 10))

	assert.Equal(t, 3, prev.CurrentStreak)
}

func TestAdvanceStreak_EarlierDayIgnored(t *testing.T) {
	prev := &models.StreakRecord{CurrentStreak: 3, LongestStreak: 3, LastActivityDate: day(2026, 3, 9)}

	got := services.AdvanceStreak(prev, day(2026, 3, 5))

	assert.Equal(t, *prev, got)
}

// Longest never decreases and never trails current, whatever order days arrive in
func TestAdvanceStreak_LongestIsMonotonic(t *testing.T) {
	start := day(2026, 1, 1)
	gaps := []int{1, 1, 0, 1, 3, 1, 1, 1, 1, 0, 7, 1, 2, 1, 1, 1, 1, 1, 1, 30, 1}

	var record *models.StreakRecord
	current := start
	prevLongest := 0

	for _, gap := range gaps {
		current = current.AddDate(0, 0, gap)
		next := services.AdvanceStreak(record, current)

		assert.GreaterOrEqual(t, next.LongestStreak, prevLongest)
		assert.GreaterOrEqual(t, next.LongestStreak, next.CurrentStreak)
		assert.GreaterOrEqual(t, next.CurrentStreak, 1)

		prevLongest = next.LongestStreak
		record = &next
	}

	assert.Equal(t, 7, prevLongest)
}

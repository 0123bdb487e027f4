package services

import (
	"time"

	"github.com/BradenHooton/questboard/internal/models"
)

// AdvanceStreak applies one day of activity to prev and returns the new
// record. today must be a civil day (see models.CivilDay). A nil prev starts
// a streak of one. Activity on the same day (or a day already passed) is a
// no-op. Activity the day after extends the streak; anything later restarts it.
func AdvanceStreak(prev *models.StreakRecord, today time.Time) models.StreakRecord {
	if prev == nil {
		return models.StreakRecord{
			CurrentStreak:    1,
			LongestStreak:    1,
			LastActivityDate: today,
		}
	}

	next := *prev
	last := prev.LastActivityDate

	switch {
	case !last.IsZero() && (sameDay(last, today) || last.After(today)):
		return next
	case !last.IsZero() && sameDay(last.AddDate(0, 0, 1), today):
		next.CurrentStreak = prev.CurrentStreak + 1
	default:
		next.CurrentStreak = 1
	}

	next.LastActivityDate = today
	if next.CurrentStreak > next.LongestStreak {
		next.LongestStreak = next.CurrentStreak
	}
	return next
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

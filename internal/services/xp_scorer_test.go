package services_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/BradenHooton/questboard/internal/models"
	"github.com/BradenHooton/questboard/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreMission(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		description string
		difficulty  models.Difficulty
		want        int
	}{
		{
			name:        "easy short without keywords stays at base",
			title:       "Tidy desk",
			description: "Clear the desk today",
			difficulty:  models.DifficultyEasy,
			want:        10,
		},
		{
			name:  "hard long complex is capped",
			title: "Soil health field project",
			description: "Research how compost changes soil moisture in the school garden, " +
				"analyze samples from three beds over two weeks, log the results in a shared notebook, " +
				"compare them with last term's numbers, and present a short summary to the class on Friday afternoon",
			difficulty: models.DifficultyHard,
			want:       50,
		},
		{
			name:  "medium with one length bonus",
			title: "Evening walk",
			description: "Go for a long walk around the neighbourhood after dinner with a friend and talk about " +
				"the best parts of the week so far, then write two lines about it.",
			difficulty: models.DifficultyMedium,
			want:       30,
		},
		{
			name:        "repeated keyword counts once and steps add a bonus",
			title:       "Practice scales",
			description: "Practice scales, then practice chords; practice a song. Practice again.",
			difficulty:  models.DifficultyMedium,
			want:        33,
		},
		{
			name:        "simple keywords cannot push below the floor",
			title:       "Read and watch",
			description: "Read a chapter",
			difficulty:  models.DifficultyEasy,
			want:        10,
		},
		{
			name:        "unknown difficulty scores as easy",
			title:       "Tidy desk",
			description: "Clear the desk today",
			difficulty:  models.Difficulty("legendary"),
			want:        10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, services.ScoreMission(tt.title, tt.description, tt.difficulty))
		})
	}
}

func TestScoreMissionBreakdown_HardLongComplex(t *testing.T) {
	description := "Research how compost changes soil moisture in the school garden, " +
		"analyze samples from three beds over two weeks, log the results in a shared notebook, " +
		"compare them with last term's numbers, and present a short summary to the class on Friday afternoon"
	require.Len(t, []rune(description), 250)

	b := services.ScoreMissionBreakdown("Soil health field project", description, models.DifficultyHard)

	assert.Equal(t, 40, b.Base)
	assert.Equal(t, 10, b.LengthBonus)
	assert.Equal(t, 6, b.KeywordDelta)
	assert.Equal(t, 5, b.StepBonus)
	assert.Equal(t, 50, b.Total)
}

func TestScoreMissionBreakdown_FloorAppliesOnlyAtTheEnd(t *testing.T) {
	b := services.ScoreMissionBreakdown("Read and watch", "Read a chapter", models.DifficultyEasy)

	assert.Equal(t, -4, b.KeywordDelta)
	assert.Equal(t, 6, b.Base+b.LengthBonus+b.KeywordDelta+b.StepBonus)
	assert.Equal(t, 10, b.Total)
}

func TestScoreMission_LengthCountsRunes(t *testing.T) {
	// 101 two-byte runes: over 100 characters but over 200 bytes
	description := strings.Repeat("é", 101)

	b := services.ScoreMissionBreakdown("Tidy", description, models.DifficultyMedium)

	assert.Equal(t, 5, b.LengthBonus)
}

func TestScoreMission_BlankStepsIgnored(t *testing.T) {
	b := services.ScoreMissionBreakdown("Tidy", "one.. two;; ,three", models.DifficultyEasy)

	assert.Zero(t, b.StepBonus)
}

func TestScoreMission_DeterministicAndBounded(t *testing.T) {
	words := []string{
		"research", "read", "garden", "analyze", "watch", "master", "listen", ",", ";", ".",
		"design", "check", "notebook", "review", "study", "create", "build", "implement",
	}
	difficulties := []models.Difficulty{
		models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard, "",
	}

	for i := 0; i < 200; i++ {
		var sb strings.Builder
		for j := 0; j < i%40; j++ {
			sb.WriteString(words[(i*7+j*3)%len(words)])
			sb.WriteString(" ")
		}
		title := fmt.Sprintf("mission %d", i)
		description := sb.String()
		difficulty := difficulties[i%len(difficulties)]

		first := services.ScoreMission(title, description, difficulty)
		second := services.ScoreMission(title, description, difficulty)

		assert.Equal(t, first, second)
		assert.GreaterOrEqual(t, first, models.MinMissionXP)
		assert.LessOrEqual(t, first, models.MaxMissionXP)
	}
}

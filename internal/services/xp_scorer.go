package services

import (
	"strings"
	"unicode/utf8"

	"github.com/BradenHooton/questboard/internal/models"
)

var difficultyBaseXP = map[models.Difficulty]int{
	models.DifficultyEasy:   10,
	models.DifficultyMedium: 25,
	models.DifficultyHard:   40,
}

var (
	complexKeywords = []string{
		"research", "analyze", "create", "develop", "design",
		"implement", "study", "practice", "master",
	}
	simpleKeywords = []string{"read", "watch", "listen", "review", "check"}
)

const (
	complexKeywordXP = 3
	simpleKeywordXP  = -2
	lengthStepXP     = 5
	multiStepXP      = 5
	multiStepMin     = 4 // segments needed for the multi-step bonus
)

// ScoreBreakdown lists the parts that make up a mission's XP reward
type ScoreBreakdown struct {
	Base         int
	LengthBonus  int
	KeywordDelta int
	StepBonus    int
	Total        int // clamped to [MinMissionXP, MaxMissionXP]
}

// ScoreMission maps a mission's text and difficulty to its XP reward
func ScoreMission(title, description string, difficulty models.Difficulty) int {
	return ScoreMissionBreakdown(title, description, difficulty).Total
}

// ScoreMissionBreakdown is ScoreMission with its components exposed
func ScoreMissionBreakdown(title, description string, difficulty models.Difficulty) ScoreBreakdown {
	var b ScoreBreakdown

	base, ok := difficultyBaseXP[difficulty]
	if !ok {
		base = difficultyBaseXP[models.DifficultyEasy]
	}
	b.Base = base

	length := utf8.RuneCountInString(description)
	if length > 100 {
		b.LengthBonus += lengthStepXP
	}
	if length > 200 {
		b.LengthBonus += lengthStepXP
	}

	text := strings.ToLower(title + " " + description)
	for _, kw := range complexKeywords {
		if strings.Contains(text, kw) {
			b.KeywordDelta += complexKeywordXP
		}
	}
	for _, kw := range simpleKeywords {
		if strings.Contains(text, kw) {
			b.KeywordDelta += simpleKeywordXP
		}
	}

	if countSteps(description) >= multiStepMin {
		b.StepBonus = multiStepXP
	}

	b.Total = clampXP(b.Base + b.LengthBonus + b.KeywordDelta + b.StepBonus)
	return b
}

// countSteps counts the non-blank segments between '.', ',' and ';'
func countSteps(description string) int {
	segments := strings.FieldsFunc(description, func(r rune) bool {
		return r == '.' || r == ',' || r == ';'
	})
	steps := 0
	for _, s := range segments {
		if strings.TrimSpace(s) != "" {
			steps++
		}
	}
	return steps
}

func clampXP(xp int) int {
	if xp < models.MinMissionXP {
		return models.MinMissionXP
	}
	if xp > models.MaxMissionXP {
		return models.MaxMissionXP
	}
	return xp
}

package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BradenHooton/questboard/internal/models"
	"github.com/BradenHooton/questboard/internal/repositories"
	pkglogger "github.com/BradenHooton/questboard/pkg/logger"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// MissionConfig holds the daily mission limits
type MissionConfig struct {
	MaxCuratedMissions   int
	MaxActiveMissions    int
	SuggestionThreshold  int // satisfaction scores below this surface a suggestion
	SuggestionXP         int
	LifeProgressLookback int // number of recent entries considered for a suggestion
	Location             *time.Location
}

func DefaultMissionConfig() MissionConfig {
	return MissionConfig{
		MaxCuratedMissions:   6,
		MaxActiveMissions:    7,
		SuggestionThreshold:  70,
		SuggestionXP:         100,
		LifeProgressLookback: 7,
		Location:             time.UTC,
	}
}

// CustomMissionInput is a student-authored mission before scoring
type CustomMissionInput struct {
	Title         string            `json:"title" validate:"required,max=200"`
	Description   string            `json:"description" validate:"required,max=2000"`
	Category      string            `json:"category" validate:"required,max=50"`
	Difficulty    models.Difficulty `json:"difficulty" validate:"required,oneof=easy medium hard"`
	DeadlineHours int               `json:"deadline_hours" validate:"min=1,max=168"`
}

// LifeProgressInput is a self-reported satisfaction score
type LifeProgressInput struct {
	Category          string `json:"category" validate:"required,max=50"`
	SatisfactionScore int    `json:"satisfaction_score" validate:"min=0,max=100"`
	Note              string `json:"note" validate:"max=500"`
}

// CompletionResult reports the effects of a completed mission
type CompletionResult struct {
	Source    models.MissionSource  `json:"source"`
	MissionID uuid.UUID             `json:"mission_id"`
	XPGranted int                   `json:"xp_granted"`
	Calendar  *models.CalendarEntry `json:"calendar"`
	Streak    models.StreakRecord   `json:"streak"`
}

// MissionService derives daily missions and applies completion effects
type MissionService struct {
	store       repositories.MissionStore
	config      MissionConfig
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	validate    *validator.Validate
	now         func() time.Time
}

func NewMissionService(store repositories.MissionStore, config MissionConfig, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *MissionService {
	defaults := DefaultMissionConfig()
	if config.MaxCuratedMissions <= 0 {
		config.MaxCuratedMissions = defaults.MaxCuratedMissions
	}
	if config.MaxActiveMissions <= 0 {
		config.MaxActiveMissions = defaults.MaxActiveMissions
	}
	if config.SuggestionThreshold <= 0 {
		config.SuggestionThreshold = defaults.SuggestionThreshold
	}
	if config.SuggestionXP <= 0 {
		config.SuggestionXP = defaults.SuggestionXP
	}
	if config.LifeProgressLookback <= 0 {
		config.LifeProgressLookback = defaults.LifeProgressLookback
	}
	if config.Location == nil {
		config.Location = defaults.Location
	}
	if auditLogger == nil {
		auditLogger = pkglogger.NewAuditLogger(logger)
	}

	return &MissionService{
		store:       store,
		config:      config,
		logger:      logger,
		auditLogger: auditLogger,
		validate:    newInputValidator(),
		now:         time.Now,
	}
}

// WithClock replaces the service's time source
func (s *MissionService) WithClock(now func() time.Time) *MissionService {
	s.now = now
	return s
}

func (s *MissionService) today() time.Time {
	return models.CivilDay(s.now(), s.config.Location)
}

// activityHash identifies one XP grant. The same mission completed by the
// same student on the same day always hashes to the same value.
func activityHash(studentID uuid.UUID, source models.MissionSource, missionID uuid.UUID, day time.Time) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{
		studentID.String(), string(source), missionID.String(), day.Format(time.DateOnly),
	}, "|")))
	return hex.EncodeToString(sum[:])
}

// GetDailyMissions returns the life-progress suggestion (if any) followed by
// curated and custom missions dated today or later
func (s *MissionService) GetDailyMissions(ctx context.Context, studentID uuid.UUID) ([]*models.Mission, error) {
	today := s.today()

	suggestion, err := s.suggestedMission(ctx, studentID, today)
	if err != nil {
		return nil, err
	}

	listed, err := s.store.ListMissionsFrom(ctx, studentID, today, s.config.MaxCuratedMissions)
	if err != nil {
		s.logger.Error("failed to list missions", slog.String("student_id", studentID.String()), slog.Any("error", err))
		return nil, err
	}

	missions := make([]*models.Mission, 0, s.config.MaxActiveMissions)
	if suggestion != nil {
		missions = append(missions, suggestion)
	}
	for _, m := range listed {
		if len(missions) >= s.config.MaxActiveMissions {
			break
		}
		m.IsSuggestion = false
		missions = append(missions, m)
	}
	return missions, nil
}

// suggestedMission picks the lowest-satisfaction entry among the recent ones.
// Ties go to the most recent entry. Returns nil when nothing is below the
// threshold or the suggestion was already completed today.
func (s *MissionService) suggestedMission(ctx context.Context, studentID uuid.UUID, today time.Time) (*models.Mission, error) {
	entries, err := s.store.RecentLifeProgress(ctx, studentID, s.config.LifeProgressLookback)
	if err != nil {
		s.logger.Error("failed to load life progress", slog.String("student_id", studentID.String()), slog.Any("error", err))
		return nil, err
	}

	lowest := s.pickSuggestion(entries)
	if lowest == nil {
		return nil, nil
	}

	done, err := s.store.HasActivity(ctx, activityHash(studentID, models.MissionSourceLifeProgress, lowest.ID, today))
	if err != nil {
		return nil, err
	}
	if done {
		return nil, nil
	}

	entryID := lowest.ID
	owner := studentID
	return &models.Mission{
		ID:            entryID,
		StudentID:     &owner,
		Title:         fmt.Sprintf("Level up your %s", lowest.Category),
		Description:   fmt.Sprintf("You rated %s at %d/100. Spend some time today on one small step to improve it.", lowest.Category, lowest.SatisfactionScore),
		Category:      lowest.Category,
		Difficulty:    models.DifficultyMedium,
		XPReward:      s.config.SuggestionXP,
		DeadlineHours: 24,
		Source:        models.MissionSourceLifeProgress,
		SourceEntryID: &entryID,
		ScheduledFor:  today,
		IsSuggestion:  true,
		CreatedAt:     lowest.CreatedAt,
	}, nil
}

// pickSuggestion returns the lowest-scoring entry when it falls below the
// suggestion threshold. entries are ordered newest first, so ties keep the
// most recent one.
func (s *MissionService) pickSuggestion(entries []*models.LifeProgressEntry) *models.LifeProgressEntry {
	var lowest *models.LifeProgressEntry
	for _, e := range entries {
		if lowest == nil || e.SatisfactionScore < lowest.SatisfactionScore {
			lowest = e
		}
	}
	if lowest == nil || lowest.SatisfactionScore >= s.config.SuggestionThreshold {
		return nil
	}
	return lowest
}

// CompleteMission grants the mission's XP and advances the streak. All
// writes happen in one transaction; any failure leaves nothing behind.
func (s *MissionService) CompleteMission(ctx context.Context, studentID uuid.UUID, ref models.MissionRef) (*CompletionResult, error) {
	if !ref.Source.Valid() {
		return nil, &models.ValidationError{Field: "source", Message: "must be curated, custom or life_progress"}
	}
	if ref.ID == uuid.Nil {
		return nil, &models.ValidationError{Field: "mission_id", Message: "is required"}
	}

	now := s.now()
	today := models.CivilDay(now, s.config.Location)

	var result *CompletionResult
	err := s.store.InTx(ctx, func(tx repositories.MissionStore) error {
		var (
			xp         int
			category   string
			difficulty models.Difficulty
		)

		switch ref.Source {
		case models.MissionSourceLifeProgress:
			entry, err := tx.GetLifeProgressEntry(ctx, studentID, ref.ID)
			if err != nil {
				return err
			}
			recent, err := tx.RecentLifeProgress(ctx, studentID, s.config.LifeProgressLookback)
			if err != nil {
				return err
			}
			if suggested := s.pickSuggestion(recent); suggested == nil || suggested.ID != entry.ID {
				return models.ErrMissionNotActive
			}
			if err := tx.TouchLifeProgressEntry(ctx, studentID, entry.ID, now); err != nil {
				return err
			}
			xp, category, difficulty = s.config.SuggestionXP, entry.Category, models.DifficultyMedium

		default:
			mission, err := tx.GetMission(ctx, studentID, ref.ID)
			if err != nil {
				return err
			}
			if mission.Source != ref.Source {
				return models.ErrNotFound
			}
			if mission.IsCompleted {
				return models.ErrMissionAlreadyCompleted
			}
			if mission.ScheduledFor.Before(today) || mission.ScheduledFor.After(today) {
				return models.ErrMissionNotActive
			}
			if err := tx.MarkMissionCompleted(ctx, studentID, mission.ID, now); err != nil {
				return err
			}
			xp, category, difficulty = mission.XPReward, mission.Category, mission.Difficulty
		}

		err := tx.InsertActivity(ctx, &models.ActivityLogEntry{
			StudentID:     studentID,
			ContentHash:   activityHash(studentID, ref.Source, ref.ID, today),
			ActivityType:  models.ActivityMissionCompleted,
			MissionSource: ref.Source,
			MissionID:     ref.ID,
			XPGranted:     xp,
			Category:      category,
			Difficulty:    difficulty,
			ActivityDate:  today,
		})
		if errors.Is(err, models.ErrConflict) {
			return models.ErrMissionAlreadyCompleted
		}
		if err != nil {
			return err
		}

		calendar, err := tx.UpsertCalendarEntry(ctx, studentID, today, xp)
		if err != nil {
			return err
		}

		prev, err := tx.GetStreakForUpdate(ctx, studentID)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return err
		}
		streak := AdvanceStreak(prev, today)
		streak.StudentID = studentID
		if err := tx.SaveStreak(ctx, &streak); err != nil {
			return err
		}

		result = &CompletionResult{
			Source:    ref.Source,
			MissionID: ref.ID,
			XPGranted: xp,
			Calendar:  calendar,
			Streak:    streak,
		}
		return nil
	})
	if err != nil {
		s.logger.Info("mission completion failed",
			slog.String("student_id", studentID.String()),
			slog.String("mission_id", ref.ID.String()),
			slog.Any("error", err))
		return nil, err
	}

	s.auditLogger.LogMissionEvent(pkglogger.AuditEvent{
		EventType: models.AuditEventMissionCompleted,
		StudentID: studentID.String(),
		Metadata: models.AuditMetadata{
			"mission_id":     ref.ID.String(),
			"mission_source": string(ref.Source),
			"xp_granted":     strconv.Itoa(result.XPGranted),
			"current_streak": strconv.Itoa(result.Streak.CurrentStreak),
		},
	})
	return result, nil
}

// CreateCustomMission scores and schedules a student-authored mission for
// tomorrow. It is rejected once the student already has the maximum number
// of active missions.
func (s *MissionService) CreateCustomMission(ctx context.Context, studentID uuid.UUID, input CustomMissionInput) (*models.Mission, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Category = strings.TrimSpace(input.Category)
	input.Difficulty = models.Difficulty(strings.ToLower(strings.TrimSpace(string(input.Difficulty))))

	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	today := s.today()
	active, err := s.store.CountActiveMissions(ctx, studentID, today)
	if err != nil {
		s.logger.Error("failed to count active missions", slog.String("student_id", studentID.String()), slog.Any("error", err))
		return nil, err
	}
	suggestion, err := s.suggestedMission(ctx, studentID, today)
	if err != nil {
		return nil, err
	}
	if suggestion != nil {
		active++
	}
	if active >= s.config.MaxActiveMissions {
		s.logger.Info("custom mission rejected: quest limit reached",
			slog.String("student_id", studentID.String()),
			slog.Int("active_missions", active))
		return nil, models.ErrMissionLimitReached
	}

	owner := studentID
	mission := &models.Mission{
		StudentID:     &owner,
		Title:         input.Title,
		Description:   input.Description,
		Category:      input.Category,
		Difficulty:    input.Difficulty,
		XPReward:      ScoreMission(input.Title, input.Description, input.Difficulty),
		DeadlineHours: input.DeadlineHours,
		Source:        models.MissionSourceCustom,
		ScheduledFor:  today.AddDate(0, 0, 1),
	}

	created, err := s.store.CreateMission(ctx, mission)
	if err != nil {
		s.logger.Error("failed to create custom mission", slog.String("student_id", studentID.String()), slog.Any("error", err))
		return nil, err
	}

	s.auditLogger.LogMissionEvent(pkglogger.AuditEvent{
		EventType: models.AuditEventMissionCreated,
		StudentID: studentID.String(),
		Metadata: models.AuditMetadata{
			"mission_id": created.ID.String(),
			"xp_reward":  strconv.Itoa(created.XPReward),
		},
	})
	return created, nil
}

// RecordLifeProgress stores a satisfaction score that later feeds suggestions
func (s *MissionService) RecordLifeProgress(ctx context.Context, studentID uuid.UUID, input LifeProgressInput) (*models.LifeProgressEntry, error) {
	input.Category = strings.TrimSpace(input.Category)
	input.Note = strings.TrimSpace(input.Note)

	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	return s.store.CreateLifeProgressEntry(ctx, &models.LifeProgressEntry{
		StudentID:         studentID,
		Category:          input.Category,
		SatisfactionScore: input.SatisfactionScore,
		Note:              input.Note,
	})
}

// GetStreak returns the student's streak, or a zero record if they have none
func (s *MissionService) GetStreak(ctx context.Context, studentID uuid.UUID) (*models.StreakRecord, error) {
	record, err := s.store.GetStreak(ctx, studentID)
	if errors.Is(err, models.ErrNotFound) {
		return &models.StreakRecord{StudentID: studentID}, nil
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// newInputValidator reports fields by their json names
func newInputValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// validateInput runs struct validation and reports the first failing field
func (s *MissionService) validateInput(input any) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &models.ValidationError{Field: fe.Field(), Message: validationMessage(fe)}
	}
	return &models.ValidationError{Message: err.Error()}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}

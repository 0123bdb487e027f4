//go:build integration

package repositories_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/BradenHooton/questboard/internal/database"
	"github.com/BradenHooton/questboard/internal/models"
	"github.com/BradenHooton/questboard/internal/repositories"
	"github.com/BradenHooton/questboard/internal/services"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var testDB *database.DB

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("questboard"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		slog.Error("failed to start postgres container", slog.Any("error", err))
		os.Exit(1)
	}

	code := func() int {
		defer func() { _ = container.Terminate(ctx) }()

		connStr, err := container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			slog.Error("failed to get connection string", slog.Any("error", err))
			return 1
		}

		pool, err := pgxpool.New(ctx, connStr)
		if err != nil {
			slog.Error("failed to create pool", slog.Any("error", err))
			return 1
		}

		testDB = database.NewFromPool(pool, slog.New(slog.NewTextHandler(io.Discard, nil)))
		defer testDB.Close()

		if err := testDB.Migrate(ctx); err != nil {
			slog.Error("failed to run migrations", slog.Any("error", err))
			return 1
		}
		return m.Run()
	}()

	os.Exit(code)
}

type fixture struct {
	student *models.Student
	classID uuid.UUID
	today   time.Time
	repo    *repositories.MissionRepository
	service *services.MissionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	var classID uuid.UUID
	require.NoError(t, testDB.Pool.QueryRow(ctx,
		`INSERT INTO classes (name) VALUES ($1) RETURNING id`, "class-"+uuid.NewString()[:8],
	).Scan(&classID))

	student, err := repositories.NewStudentRepository(testDB).Create(ctx, &models.Student{
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "not-a-real-hash",
		Name:         "Integration Student",
		ClassID:      &classID,
	})
	require.NoError(t, err)

	now := time.Now()
	repo := repositories.NewMissionRepository(testDB)
	svc := services.NewMissionService(repo, services.DefaultMissionConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)), nil).
		WithClock(func() time.Time { return now })

	return &fixture{
		student: student,
		classID: classID,
		today:   models.CivilDay(now, time.UTC),
		repo:    repo,
		service: svc,
	}
}

func (f *fixture) curatedMission(t *testing.T, day time.Time) *models.Mission {
	t.Helper()
	classID := f.classID
	m, err := f.repo.CreateMission(context.Background(), &models.Mission{
		ClassID:       &classID,
		Title:         "Practice fractions",
		Description:   "Work through the fractions worksheet",
		Category:      "math",
		Difficulty:    models.DifficultyMedium,
		XPReward:      25,
		DeadlineHours: 24,
		Source:        models.MissionSourceCurated,
		ScheduledFor:  day,
	})
	require.NoError(t, err)
	return m
}

func countRows(t *testing.T, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, testDB.Pool.QueryRow(context.Background(), query, args...).Scan(&n))
	return n
}

func TestCompleteMission_CommitsAllEffects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	mission := f.curatedMission(t, f.today)

	result, err := f.service.CompleteMission(ctx, f.student.ID, models.MissionRef{Source: models.MissionSourceCurated, ID: mission.ID})
	require.NoError(t, err)

	assert.Equal(t, 25, result.XPGranted)
	assert.Equal(t, 25, result.Calendar.XPEarned)
	assert.Equal(t, 1, result.Calendar.LessonsCompleted)
	assert.Equal(t, 1, result.Streak.CurrentStreak)

	assert.Equal(t, 1, countRows(t, `SELECT COUNT(*) FROM activity_log WHERE student_id = $1`, f.student.ID))
	assert.Equal(t, 1, countRows(t, `SELECT COUNT(*) FROM mission_progress WHERE student_id = $1 AND completed`, f.student.ID))

	streak, err := f.repo.GetStreak(ctx, f.student.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, streak.CurrentStreak)
	assert.True(t, streak.LastActivityDate.Equal(f.today))

	missions, err := f.service.GetDailyMissions(ctx, f.student.ID)
	require.NoError(t, err)
	require.Len(t, missions, 1)
	assert.True(t, missions[0].IsCompleted)
}

func TestCompleteMission_SecondCompletionRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	mission := f.curatedMission(t, f.today)
	ref := models.MissionRef{Source: models.MissionSourceCurated, ID: mission.ID}

	_, err := f.service.CompleteMission(ctx, f.student.ID, ref)
	require.NoError(t, err)

	_, err = f.service.CompleteMission(ctx, f.student.ID, ref)
	assert.ErrorIs(t, err, models.ErrMissionAlreadyCompleted)

	assert.Equal(t, 25, countRows(t,
		`SELECT xp_earned FROM study_calendar_events WHERE student_id = $1 AND event_date = $2`, f.student.ID, f.today))
}

func TestCompleteMission_FutureMissionNotActive(t *testing.T) {
	f := newFixture(t)
	mission := f.curatedMission(t, f.today.AddDate(0, 0, 1))

	_, err := f.service.CompleteMission(context.Background(), f.student.ID, models.MissionRef{Source: models.MissionSourceCurated, ID: mission.ID})
	assert.ErrorIs(t, err, models.ErrMissionNotActive)
}

func TestCompleteMission_PastMissionNotActive(t *testing.T) {
	f := newFixture(t)
	mission := f.curatedMission(t, f.today.AddDate(0, 0, -1))

	_, err := f.service.CompleteMission(context.Background(), f.student.ID, models.MissionRef{Source: models.MissionSourceCurated, ID: mission.ID})
	assert.ErrorIs(t, err, models.ErrMissionNotActive)
	assert.Zero(t, countRows(t, `SELECT COUNT(*) FROM activity_log WHERE student_id = $1`, f.student.ID))
}

func TestMissionRepository_CountActiveMissions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.curatedMission(t, f.today.AddDate(0, 0, -1))
	for i := 0; i < 8; i++ {
		f.curatedMission(t, f.today)
	}
	done := f.curatedMission(t, f.today)
	require.NoError(t, f.repo.MarkMissionCompleted(ctx, f.student.ID, done.ID, time.Now()))

	active, err := f.repo.CountActiveMissions(ctx, f.student.ID, f.today)
	require.NoError(t, err)
	assert.Equal(t, 8, active, "no limit, yesterday and completed missions excluded")

	_, err = f.service.CreateCustomMission(ctx, f.student.ID, services.CustomMissionInput{
		Title:         "Read a chapter",
		Description:   "Read one chapter of any book",
		Category:      "reading",
		Difficulty:    models.DifficultyEasy,
		DeadlineHours: 24,
	})
	assert.ErrorIs(t, err, models.ErrMissionLimitReached)
}

// failingStreakStore injects a failure at the last write of a completion
type failingStreakStore struct {
	repositories.MissionStore
}

func (s failingStreakStore) InTx(ctx context.Context, fn func(repositories.MissionStore) error) error {
	return s.MissionStore.InTx(ctx, func(tx repositories.MissionStore) error {
		return fn(failingStreakStore{MissionStore: tx})
	})
}

func (s failingStreakStore) SaveStreak(ctx context.Context, record *models.StreakRecord) error {
	return errors.New("streak write failed")
}

func TestCompleteMission_RollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	mission := f.curatedMission(t, f.today)

	svc := services.NewMissionService(failingStreakStore{MissionStore: f.repo}, services.DefaultMissionConfig(),
		slog.New(slog.NewTextHandler(io.Discard, nil)), nil)

	_, err := svc.CompleteMission(ctx, f.student.ID, models.MissionRef{Source: models.MissionSourceCurated, ID: mission.ID})
	require.Error(t, err)

	assert.Zero(t, countRows(t, `SELECT COUNT(*) FROM activity_log WHERE student_id = $1`, f.student.ID))
	assert.Zero(t, countRows(t, `SELECT COUNT(*) FROM mission_progress WHERE student_id = $1`, f.student.ID))
	assert.Zero(t, countRows(t, `SELECT COUNT(*) FROM study_calendar_events WHERE student_id = $1`, f.student.ID))
	assert.Zero(t, countRows(t, `SELECT COUNT(*) FROM streaks WHERE student_id = $1`, f.student.ID))

	// the mission is still completable once the fault is gone
	_, err = f.service.CompleteMission(ctx, f.student.ID, models.MissionRef{Source: models.MissionSourceCurated, ID: mission.ID})
	assert.NoError(t, err)
}

func TestLifeProgressSuggestion_CompletedOncePerDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	entry, err := f.service.RecordLifeProgress(ctx, f.student.ID, services.LifeProgressInput{Category: "sleep", SatisfactionScore: 30})
	require.NoError(t, err)

	missions, err := f.service.GetDailyMissions(ctx, f.student.ID)
	require.NoError(t, err)
	require.Len(t, missions, 1)
	assert.Equal(t, models.MissionSourceLifeProgress, missions[0].Source)
	assert.Equal(t, entry.ID, missions[0].ID)

	result, err := f.service.CompleteMission(ctx, f.student.ID, models.MissionRef{Source: models.MissionSourceLifeProgress, ID: entry.ID})
	require.NoError(t, err)
	assert.Equal(t, services.DefaultMissionConfig().SuggestionXP, result.XPGranted)

	_, err = f.service.CompleteMission(ctx, f.student.ID, models.MissionRef{Source: models.MissionSourceLifeProgress, ID: entry.ID})
	assert.ErrorIs(t, err, models.ErrMissionAlreadyCompleted)

	missions, err = f.service.GetDailyMissions(ctx, f.student.ID)
	require.NoError(t, err)
	assert.Empty(t, missions)
}

func TestCreateCustomMission_ScheduledForTomorrow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	mission, err := f.service.CreateCustomMission(ctx, f.student.ID, services.CustomMissionInput{
		Title:         "Build a birdhouse",
		Description:   "Measure, cut, sand, assemble, and paint",
		Category:      "crafts",
		Difficulty:    models.DifficultyMedium,
		DeadlineHours: 48,
	})
	require.NoError(t, err)

	stored, err := f.repo.GetMission(ctx, f.student.ID, mission.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MissionSourceCustom, stored.Source)
	assert.True(t, stored.ScheduledFor.Equal(f.today.AddDate(0, 0, 1)))
	assert.Equal(t, mission.XPReward, stored.XPReward)
}

func TestStudentRepository_DuplicateEmailConflicts(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewStudentRepository(testDB)
	email := uuid.NewString() + "@example.com"

	_, err := repo.Create(ctx, &models.Student{Email: email, PasswordHash: "h", Name: "One"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &models.Student{Email: email, PasswordHash: "h", Name: "Two"})
	assert.ErrorIs(t, err, models.ErrConflict)

	missingClass := uuid.New()
	_, err = repo.Create(ctx, &models.Student{Email: uuid.NewString() + "@example.com", PasswordHash: "h", Name: "Three", ClassID: &missingClass})
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestLoginAttemptRepository_DeletesExpired(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewLoginAttemptRepository(testDB)
	identifier := uuid.NewString() + "@example.com"
	now := time.Now()

	require.NoError(t, repo.RecordAttempt(ctx, &models.LoginAttempt{Identifier: identifier, AttemptTime: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}))
	require.NoError(t, repo.RecordAttempt(ctx, &models.LoginAttempt{Identifier: identifier, AttemptTime: now, ExpiresAt: now.Add(time.Hour)}))

	deleted, err := repo.DeleteExpiredAttempts(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, deleted, int64(1))
	assert.Equal(t, 1, countRows(t, `SELECT COUNT(*) FROM login_attempts WHERE identifier = $1`, identifier))
}

package services

import (
	"context"
	"sync"
	"time"

	"github.com/BradenHooton/questboard/internal/models"
	"github.com/BradenHooton/questboard/internal/repositories"
	"github.com/google/uuid"
)

// MockStudentRepository implements StudentRepository for testing
type MockStudentRepository struct {
	CreateFunc     func(ctx context.Context, student *models.Student) (*models.Student, error)
	GetByIDFunc    func(ctx context.Context, id uuid.UUID) (*models.Student, error)
	GetByEmailFunc func(ctx context.Context, email string) (*models.Student, error)
}

func (m *MockStudentRepository) Create(ctx context.Context, student *models.Student) (*models.Student, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, student)
	}
	created := *student
	created.ID = uuid.New()
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	return &created, nil
}

func (m *MockStudentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Student, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockStudentRepository) GetByEmail(ctx context.Context, email string) (*models.Student, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

// MockAttemptAuditor implements AttemptAuditor for testing and records
// every attempt it receives
type MockAttemptAuditor struct {
	RecordAttemptFunc func(ctx context.Context, attempt *models.LoginAttempt) error

	mu       sync.Mutex
	Recorded []models.LoginAttempt
}

func (m *MockAttemptAuditor) RecordAttempt(ctx context.Context, attempt *models.LoginAttempt) error {
	m.mu.Lock()
	m.Recorded = append(m.Recorded, *attempt)
	m.mu.Unlock()
	if m.RecordAttemptFunc != nil {
		return m.RecordAttemptFunc(ctx, attempt)
	}
	return nil
}

func (m *MockAttemptAuditor) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Recorded)
}

// MockAttemptWindowStore implements AttemptWindowStore for testing
type MockAttemptWindowStore struct {
	AppendFunc func(ctx context.Context, attempt models.LoginAttempt, window time.Duration) error
	WindowFunc func(ctx context.Context, identifier string, since time.Time) ([]models.LoginAttempt, error)
	ClearFunc  func(ctx context.Context, identifier string) error
}

func (m *MockAttemptWindowStore) Append(ctx context.Context, attempt models.LoginAttempt, window time.Duration) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, attempt, window)
	}
	return nil
}

func (m *MockAttemptWindowStore) Window(ctx context.Context, identifier string, since time.Time) ([]models.LoginAttempt, error) {
	if m.WindowFunc != nil {
		return m.WindowFunc(ctx, identifier, since)
	}
	return nil, nil
}

func (m *MockAttemptWindowStore) Clear(ctx context.Context, identifier string) error {
	if m.ClearFunc != nil {
		return m.ClearFunc(ctx, identifier)
	}
	return nil
}

// MockLoginLimiter implements LoginLimiter for testing
type MockLoginLimiter struct {
	CheckLoginRateLimitFunc func(ctx context.Context, identifier string) (models.RateDecision, error)
	LogLoginAttemptFunc     func(ctx context.Context, identifier string, success bool) error
	ClearAttemptsFunc       func(ctx context.Context, identifier string) error
}

func (m *MockLoginLimiter) CheckLoginRateLimit(ctx context.Context, identifier string) (models.RateDecision, error) {
	if m.CheckLoginRateLimitFunc != nil {
		return m.CheckLoginRateLimitFunc(ctx, identifier)
	}
	return models.RateDecision{Allowed: true}, nil
}

func (m *MockLoginLimiter) LogLoginAttempt(ctx context.Context, identifier string, success bool) error {
	if m.LogLoginAttemptFunc != nil {
		return m.LogLoginAttemptFunc(ctx, identifier, success)
	}
	return nil
}

func (m *MockLoginLimiter) ClearAttempts(ctx context.Context, identifier string) error {
	if m.ClearAttemptsFunc != nil {
		return m.ClearAttemptsFunc(ctx, identifier)
	}
	return nil
}

// MockMissionStore implements repositories.MissionStore for testing.
// InTx runs the callback against the mock itself unless InTxFunc is set.
type MockMissionStore struct {
	ListMissionsFromFunc        func(ctx context.Context, studentID uuid.UUID, from time.Time, limit int) ([]*models.Mission, error)
	CountActiveMissionsFunc     func(ctx context.Context, studentID uuid.UUID, from time.Time) (int, error)
	GetMissionFunc              func(ctx context.Context, studentID, missionID uuid.UUID) (*models.Mission, error)
	CreateMissionFunc           func(ctx context.Context, mission *models.Mission) (*models.Mission, error)
	MarkMissionCompletedFunc    func(ctx context.Context, studentID, missionID uuid.UUID, at time.Time) error
	RecentLifeProgressFunc      func(ctx context.Context, studentID uuid.UUID, limit int) ([]*models.LifeProgressEntry, error)
	GetLifeProgressEntryFunc    func(ctx context.Context, studentID, entryID uuid.UUID) (*models.LifeProgressEntry, error)
	CreateLifeProgressEntryFunc func(ctx context.Context, entry *models.LifeProgressEntry) (*models.LifeProgressEntry, error)
	TouchLifeProgressEntryFunc  func(ctx context.Context, studentID, entryID uuid.UUID, at time.Time) error
	HasActivityFunc             func(ctx context.Context, contentHash string) (bool, error)
	InsertActivityFunc          func(ctx context.Context, entry *models.ActivityLogEntry) error
	UpsertCalendarEntryFunc     func(ctx context.Context, studentID uuid.UUID, day time.Time, xp int) (*models.CalendarEntry, error)
	GetStreakFunc               func(ctx context.Context, studentID uuid.UUID) (*models.StreakRecord, error)
	GetStreakForUpdateFunc      func(ctx context.Context, studentID uuid.UUID) (*models.StreakRecord, error)
	SaveStreakFunc              func(ctx context.Context, record *models.StreakRecord) error
	InTxFunc                    func(ctx context.Context, fn func(repositories.MissionStore) error) error
}

func (m *MockMissionStore) ListMissionsFrom(ctx context.Context, studentID uuid.UUID, from time.Time, limit int) ([]*models.Mission, error) {
	if m.ListMissionsFromFunc != nil {
		return m.ListMissionsFromFunc(ctx, studentID, from, limit)
	}
	return []*models.Mission{}, nil
}

func (m *MockMissionStore) CountActiveMissions(ctx context.Context, studentID uuid.UUID, from time.Time) (int, error) {
	if m.CountActiveMissionsFunc != nil {
		return m.CountActiveMissionsFunc(ctx, studentID, from)
	}
	return 0, nil
}

func (m *MockMissionStore) GetMission(ctx context.Context, studentID, missionID uuid.UUID) (*models.Mission, error) {
	if m.GetMissionFunc != nil {
		return m.GetMissionFunc(ctx, studentID, missionID)
	}
	return nil, models.ErrNotFound
}

func (m *MockMissionStore) CreateMission(ctx context.Context, mission *models.Mission) (*models.Mission, error) {
	if m.CreateMissionFunc != nil {
		return m.CreateMissionFunc(ctx, mission)
	}
	created := *mission
	created.ID = uuid.New()
	created.CreatedAt = time.Now()
	return &created, nil
}

func (m *MockMissionStore) MarkMissionCompleted(ctx context.Context, studentID, missionID uuid.UUID, at time.Time) error {
	if m.MarkMissionCompletedFunc != nil {
		return m.MarkMissionCompletedFunc(ctx, studentID, missionID, at)
	}
	return nil
}

func (m *MockMissionStore) RecentLifeProgress(ctx context.Context, studentID uuid.UUID, limit int) ([]*models.LifeProgressEntry, error) {
	if m.RecentLifeProgressFunc != nil {
		return m.RecentLifeProgressFunc(ctx, studentID, limit)
	}
	return []*models.LifeProgressEntry{}, nil
}

func (m *MockMissionStore) GetLifeProgressEntry(ctx context.Context, studentID, entryID uuid.UUID) (*models.LifeProgressEntry, error) {
	if m.GetLifeProgressEntryFunc != nil {
		return m.GetLifeProgressEntryFunc(ctx, studentID, entryID)
	}
	return nil, models.ErrNotFound
}

func (m *MockMissionStore) CreateLifeProgressEntry(ctx context.Context, entry *models.LifeProgressEntry) (*models.LifeProgressEntry, error) {
	if m.CreateLifeProgressEntryFunc != nil {
		return m.CreateLifeProgressEntryFunc(ctx, entry)
	}
	created := *entry
	created.ID = uuid.New()
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	return &created, nil
}

func (m *MockMissionStore) TouchLifeProgressEntry(ctx context.Context, studentID, entryID uuid.UUID, at time.Time) error {
	if m.TouchLifeProgressEntryFunc != nil {
		return m.TouchLifeProgressEntryFunc(ctx, studentID, entryID, at)
	}
	return nil
}

func (m *MockMissionStore) HasActivity(ctx context.Context, contentHash string) (bool, error) {
	if m.HasActivityFunc != nil {
		return m.HasActivityFunc(ctx, contentHash)
	}
	return false, nil
}

func (m *MockMissionStore) InsertActivity(ctx context.Context, entry *models.ActivityLogEntry) error {
	if m.InsertActivityFunc != nil {
		return m.InsertActivityFunc(ctx, entry)
	}
	return nil
}

func (m *MockMissionStore) UpsertCalendarEntry(ctx context.Context, studentID uuid.UUID, day time.Time, xp int) (*models.CalendarEntry, error) {
	if m.UpsertCalendarEntryFunc != nil {
		return m.UpsertCalendarEntryFunc(ctx, studentID, day, xp)
	}
	return &models.CalendarEntry{StudentID: studentID, EventDate: day, XPEarned: xp, LessonsCompleted: 1}, nil
}

func (m *MockMissionStore) GetStreak(ctx context.Context, studentID uuid.UUID) (*models.StreakRecord, error) {
	if m.GetStreakFunc != nil {
		return m.GetStreakFunc(ctx, studentID)
	}
	return nil, models.ErrNotFound
}

func (m *MockMissionStore) GetStreakForUpdate(ctx context.Context, studentID uuid.UUID) (*models.StreakRecord, error) {
	if m.GetStreakForUpdateFunc != nil {
		return m.GetStreakForUpdateFunc(ctx, studentID)
	}
	return nil, models.ErrNotFound
}

func (m *MockMissionStore) SaveStreak(ctx context.Context, record *models.StreakRecord) error {
	if m.SaveStreakFunc != nil {
		return m.SaveStreakFunc(ctx, record)
	}
	return nil
}

func (m *MockMissionStore) InTx(ctx context.Context, fn func(repositories.MissionStore) error) error {
	if m.InTxFunc != nil {
		return m.InTxFunc(ctx, fn)
	}
	return fn(m)
}

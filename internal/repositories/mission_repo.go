package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BradenHooton/questboard/internal/database"
	"github.com/BradenHooton/questboard/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MissionStore is the persistence boundary for mission and streak accounting
type MissionStore interface {
	ListMissionsFrom(ctx context.Context, studentID uuid.UUID, from time.Time, limit int) ([]*models.Mission, error)
	CountActiveMissions(ctx context.Context, studentID uuid.UUID, from time.Time) (int, error)
	GetMission(ctx context.Context, studentID, missionID uuid.UUID) (*models.Mission, error)
	CreateMission(ctx context.Context, mission *models.Mission) (*models.Mission, error)
	MarkMissionCompleted(ctx context.Context, studentID, missionID uuid.UUID, at time.Time) error

	RecentLifeProgress(ctx context.Context, studentID uuid.UUID, limit int) ([]*models.LifeProgressEntry, error)
	GetLifeProgressEntry(ctx context.Context, studentID, entryID uuid.UUID) (*models.LifeProgressEntry, error)
	CreateLifeProgressEntry(ctx context.Context, entry *models.LifeProgressEntry) (*models.LifeProgressEntry, error)
	TouchLifeProgressEntry(ctx context.Context, studentID, entryID uuid.UUID, at time.Time) error

	HasActivity(ctx context.Context, contentHash string) (bool, error)
	InsertActivity(ctx context.Context, entry *models.ActivityLogEntry) error
	UpsertCalendarEntry(ctx context.Context, studentID uuid.UUID, day time.Time, xp int) (*models.CalendarEntry, error)

	GetStreak(ctx context.Context, studentID uuid.UUID) (*models.StreakRecord, error)
	GetStreakForUpdate(ctx context.Context, studentID uuid.UUID) (*models.StreakRecord, error)
	SaveStreak(ctx context.Context, record *models.StreakRecord) error

	// InTx runs fn against a store bound to a single transaction
	InTx(ctx context.Context, fn func(MissionStore) error) error
}

// MissionRepository is the Postgres MissionStore. A repository created by
// NewMissionRepository owns the pool; the copies handed to InTx callbacks are
// bound to the transaction.
type MissionRepository struct {
	db *database.DB
	q  DBTX
}

func NewMissionRepository(db *database.DB) *MissionRepository {
	return &MissionRepository{db: db, q: db.Pool}
}

func (r *MissionRepository) InTx(ctx context.Context, fn func(MissionStore) error) error {
	if r.db == nil {
		// already inside a transaction
		return fn(r)
	}
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		return fn(&MissionRepository{q: tx})
	})
}

const missionColumns = `
	m.id, m.class_id, m.created_by, m.title, m.description, m.category, m.difficulty,
	m.xp_reward, m.deadline_hours, m.source, m.mission_date, m.created_at,
	COALESCE(p.completed, FALSE), p.completed_at`

func scanMissionRow(row rowScanner) (*models.Mission, error) {
	var m models.Mission
	err := row.Scan(
		&m.ID, &m.ClassID, &m.StudentID, &m.Title, &m.Description, &m.Category, &m.Difficulty,
		&m.XPReward, &m.DeadlineHours, &m.Source, &m.ScheduledFor, &m.CreatedAt,
		&m.IsCompleted, &m.CompletedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &m, nil
}

// ListMissionsFrom returns the class-curated and student-authored missions
// dated on or after from, with the student's completion state.
func (r *MissionRepository) ListMissionsFrom(ctx context.Context, studentID uuid.UUID, from time.Time, limit int) ([]*models.Mission, error) {
	query := `
		SELECT ` + missionColumns + `
		FROM daily_missions m
		LEFT JOIN mission_progress p ON p.mission_id = m.id AND p.student_id = $1
		WHERE m.mission_date >= $2
		  AND (m.created_by = $1 OR m.class_id = (SELECT class_id FROM students WHERE id = $1))
		ORDER BY m.mission_date, m.created_at, m.id
		LIMIT $3
	`

	rows, err := r.q.Query(ctx, query, studentID, from, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list missions: %w", err)
	}
	defer rows.Close()

	missions := make([]*models.Mission, 0, limit)
	for rows.Next() {
		m, err := scanMissionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mission: %w", err)
		}
		missions = append(missions, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mission rows: %w", err)
	}
	return missions, nil
}

// CountActiveMissions counts the uncompleted curated and custom missions
// dated on or after from
func (r *MissionRepository) CountActiveMissions(ctx context.Context, studentID uuid.UUID, from time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM daily_missions m
		LEFT JOIN mission_progress p ON p.mission_id = m.id AND p.student_id = $1
		WHERE m.mission_date >= $2
		  AND (m.created_by = $1 OR m.class_id = (SELECT class_id FROM students WHERE id = $1))
		  AND NOT COALESCE(p.completed, FALSE)
	`

	var count int
	if err := r.q.QueryRow(ctx, query, studentID, from).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count active missions: %w", err)
	}
	return count, nil
}

// GetMission returns a mission visible to the student, or ErrNotFound
func (r *MissionRepository) GetMission(ctx context.Context, studentID, missionID uuid.UUID) (*models.Mission, error) {
	query := `
		SELECT ` + missionColumns + `
		FROM daily_missions m
		LEFT JOIN mission_progress p ON p.mission_id = m.id AND p.student_id = $1
		WHERE m.id = $2
		  AND (m.created_by = $1 OR m.class_id = (SELECT class_id FROM students WHERE id = $1))
	`
	return scanMissionRow(r.q.QueryRow(ctx, query, studentID, missionID))
}

func (r *MissionRepository) CreateMission(ctx context.Context, mission *models.Mission) (*models.Mission, error) {
	query := `
		INSERT INTO daily_missions (
			class_id, created_by, title, description, category, difficulty,
			xp_reward, deadline_hours, source, mission_date
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`

	created := *mission
	err := r.q.QueryRow(ctx, query,
		mission.ClassID, mission.StudentID, mission.Title, mission.Description, mission.Category,
		mission.Difficulty, mission.XPReward, mission.DeadlineHours, mission.Source, mission.ScheduledFor,
	).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &created, nil
}

// MarkMissionCompleted sets the student's join row to completed. A row that is
// already completed is left untouched and reported as ErrMissionAlreadyCompleted.
func (r *MissionRepository) MarkMissionCompleted(ctx context.Context, studentID, missionID uuid.UUID, at time.Time) error {
	query := `
		INSERT INTO mission_progress (student_id, mission_id, completed, completed_at)
		VALUES ($1, $2, TRUE, $3)
		ON CONFLICT (student_id, mission_id) DO UPDATE
		SET completed = TRUE, completed_at = EXCLUDED.completed_at
		WHERE mission_progress.completed = FALSE
	`

	tag, err := r.q.Exec(ctx, query, studentID, missionID, at)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrMissionAlreadyCompleted
	}
	return nil
}

const lifeProgressColumns = `id, student_id, category, satisfaction_score, note, created_at, updated_at`

func scanLifeProgressRow(row rowScanner) (*models.LifeProgressEntry, error) {
	var e models.LifeProgressEntry
	err := row.Scan(&e.ID, &e.StudentID, &e.Category, &e.SatisfactionScore, &e.Note, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &e, nil
}

// RecentLifeProgress returns the student's newest entries first
func (r *MissionRepository) RecentLifeProgress(ctx context.Context, studentID uuid.UUID, limit int) ([]*models.LifeProgressEntry, error) {
	query := `
		SELECT ` + lifeProgressColumns + `
		FROM life_progress_entries
		WHERE student_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, studentID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list life progress entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.LifeProgressEntry, 0, limit)
	for rows.Next() {
		e, err := scanLifeProgressRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan life progress entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating life progress rows: %w", err)
	}
	return entries, nil
}

func (r *MissionRepository) GetLifeProgressEntry(ctx context.Context, studentID, entryID uuid.UUID) (*models.LifeProgressEntry, error) {
	query := `SELECT ` + lifeProgressColumns + ` FROM life_progress_entries WHERE id = $1 AND student_id = $2`
	return scanLifeProgressRow(r.q.QueryRow(ctx, query, entryID, studentID))
}

func (r *MissionRepository) CreateLifeProgressEntry(ctx context.Context, entry *models.LifeProgressEntry) (*models.LifeProgressEntry, error) {
	query := `
		INSERT INTO life_progress_entries (student_id, category, satisfaction_score, note)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + lifeProgressColumns

	return scanLifeProgressRow(r.q.QueryRow(ctx, query,
		entry.StudentID, entry.Category, entry.SatisfactionScore, entry.Note))
}

// TouchLifeProgressEntry marks an entry as addressed without changing its score
func (r *MissionRepository) TouchLifeProgressEntry(ctx context.Context, studentID, entryID uuid.UUID, at time.Time) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE life_progress_entries SET updated_at = $3 WHERE id = $1 AND student_id = $2`,
		entryID, studentID, at)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *MissionRepository) HasActivity(ctx context.Context, contentHash string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM activity_log WHERE content_hash = $1)`, contentHash,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to look up activity: %w", err)
	}
	return exists, nil
}

// InsertActivity writes the activity log entry. A duplicate content hash is
// reported as ErrConflict.
func (r *MissionRepository) InsertActivity(ctx context.Context, entry *models.ActivityLogEntry) error {
	query := `
		INSERT INTO activity_log (
			student_id, content_hash, activity_type, mission_source, mission_id,
			xp_granted, category, difficulty, activity_date
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (content_hash) DO NOTHING
	`

	tag, err := r.q.Exec(ctx, query,
		entry.StudentID, entry.ContentHash, entry.ActivityType, entry.MissionSource, entry.MissionID,
		entry.XPGranted, entry.Category, entry.Difficulty, entry.ActivityDate,
	)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrConflict
	}
	return nil
}

// UpsertCalendarEntry creates the day's aggregate or adds one lesson and xp to it
func (r *MissionRepository) UpsertCalendarEntry(ctx context.Context, studentID uuid.UUID, day time.Time, xp int) (*models.CalendarEntry, error) {
	query := `
		INSERT INTO study_calendar_events (student_id, event_date, xp_earned, lessons_completed)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (student_id, event_date) DO UPDATE
		SET xp_earned = study_calendar_events.xp_earned + EXCLUDED.xp_earned,
		    lessons_completed = study_calendar_events.lessons_completed + 1
		RETURNING student_id, event_date, xp_earned, lessons_completed
	`

	var e models.CalendarEntry
	err := r.q.QueryRow(ctx, query, studentID, day, xp).
		Scan(&e.StudentID, &e.EventDate, &e.XPEarned, &e.LessonsCompleted)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &e, nil
}

const streakColumns = `student_id, current_streak, longest_streak, last_activity_date, updated_at`

func scanStreakRow(row rowScanner) (*models.StreakRecord, error) {
	var s models.StreakRecord
	err := row.Scan(&s.StudentID, &s.CurrentStreak, &s.LongestStreak, &s.LastActivityDate, &s.UpdatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &s, nil
}

func (r *MissionRepository) GetStreak(ctx context.Context, studentID uuid.UUID) (*models.StreakRecord, error) {
	return scanStreakRow(r.q.QueryRow(ctx,
		`SELECT `+streakColumns+` FROM streaks WHERE student_id = $1`, studentID))
}

// GetStreakForUpdate locks the streak row for the rest of the transaction
func (r *MissionRepository) GetStreakForUpdate(ctx context.Context, studentID uuid.UUID) (*models.StreakRecord, error) {
	return scanStreakRow(r.q.QueryRow(ctx,
		`SELECT `+streakColumns+` FROM streaks WHERE student_id = $1 FOR UPDATE`, studentID))
}

func (r *MissionRepository) SaveStreak(ctx context.Context, record *models.StreakRecord) error {
	query := `
		INSERT INTO streaks (student_id, current_streak, longest_streak, last_activity_date, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (student_id) DO UPDATE
		SET current_streak = EXCLUDED.current_streak,
		    longest_streak = GREATEST(streaks.longest_streak, EXCLUDED.longest_streak),
		    last_activity_date = EXCLUDED.last_activity_date,
		    updated_at = NOW()
	`

	_, err := r.q.Exec(ctx, query, record.StudentID, record.CurrentStreak, record.LongestStreak, record.LastActivityDate)
	if err != nil {
		mapped := database.MapPostgresError(err)
		if errors.Is(mapped, models.ErrBadRequest) {
			return fmt.Errorf("streak invariant violated: %w", mapped)
		}
		return mapped
	}
	return nil
}

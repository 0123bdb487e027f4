package repositories

import (
	"context"

	"github.com/BradenHooton/questboard/internal/database"
	"github.com/BradenHooton/questboard/internal/models"
)

// LoginAttemptRepository is the audit trail of login attempts.
// Throttling decisions never read from it.
type LoginAttemptRepository struct {
	db DBTX
}

func NewLoginAttemptRepository(db *database.DB) *LoginAttemptRepository {
	return &LoginAttemptRepository{db: db.Pool}
}

// RecordAttempt records a login attempt in the database
func (r *LoginAttemptRepository) RecordAttempt(ctx context.Context, attempt *models.LoginAttempt) error {
	query := `
		INSERT INTO login_attempts (identifier, success, attempt_time, expires_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.Exec(ctx, query,
		attempt.Identifier,
		attempt.Success,
		attempt.AttemptTime,
		attempt.ExpiresAt,
	)
	return database.MapPostgresError(err)
}

// DeleteExpiredAttempts removes audit rows past their retention time
func (r *LoginAttemptRepository) DeleteExpiredAttempts(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM login_attempts WHERE expires_at <= CURRENT_TIMESTAMP`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

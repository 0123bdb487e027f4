package repositories

import (
	"context"

	"github.com/BradenHooton/questboard/internal/database"
	"github.com/BradenHooton/questboard/internal/models"
	"github.com/google/uuid"
)

type StudentRepository struct {
	db DBTX
}

func NewStudentRepository(db *database.DB) *StudentRepository {
	return &StudentRepository{db: db.Pool}
}

const studentColumns = `id, email, password_hash, name, class_id, created_at, updated_at`

func scanStudentRow(row rowScanner) (*models.Student, error) {
	var s models.Student
	err := row.Scan(&s.ID, &s.Email, &s.PasswordHash, &s.Name, &s.ClassID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &s, nil
}

func (r *StudentRepository) Create(ctx context.Context, student *models.Student) (*models.Student, error) {
	query := `
		INSERT INTO students (email, password_hash, name, class_id)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + studentColumns

	return scanStudentRow(r.db.QueryRow(ctx, query,
		student.Email, student.PasswordHash, student.Name, student.ClassID))
}

func (r *StudentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`
	return scanStudentRow(r.db.QueryRow(ctx, query, id))
}

func (r *StudentRepository) GetByEmail(ctx context.Context, email string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE email = $1`
	return scanStudentRow(r.db.QueryRow(ctx, query, email))
}

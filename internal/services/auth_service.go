package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/BradenHooton/questboard/internal/auth"
	"github.com/BradenHooton/questboard/internal/models"
	pkgauth "github.com/BradenHooton/questboard/pkg/auth"
	pkglogger "github.com/BradenHooton/questboard/pkg/logger"
	"github.com/google/uuid"
)

// StudentRepository defines the student lookups the auth flow needs
type StudentRepository interface {
	Create(ctx context.Context, student *models.Student) (*models.Student, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Student, error)
	GetByEmail(ctx context.Context, email string) (*models.Student, error)
}

// LoginLimiter is the part of LoginRateLimiter the auth flow depends on
type LoginLimiter interface {
	CheckLoginRateLimit(ctx context.Context, identifier string) (models.RateDecision, error)
	LogLoginAttempt(ctx context.Context, identifier string, success bool) error
	ClearAttempts(ctx context.Context, identifier string) error
}

// AuthService handles registration and login
type AuthService struct {
	repo        StudentRepository
	limiter     LoginLimiter
	tm          *auth.TokenManager
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	hash        func(password string) (string, error)
}

// NewAuthService creates a new AuthService
func NewAuthService(repo StudentRepository, limiter LoginLimiter, tm *auth.TokenManager, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AuthService {
	if auditLogger == nil {
		auditLogger = pkglogger.NewAuditLogger(logger)
	}
	return &AuthService{
		repo:        repo,
		limiter:     limiter,
		tm:          tm,
		logger:      logger,
		auditLogger: auditLogger,
		hash:        pkgauth.HashPassword,
	}
}

// StudentResponse represents a student in the HTTP response
type StudentResponse struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Name      string  `json:"name"`
	ClassID   *string `json:"class_id,omitempty"`
	CreatedAt string  `json:"created_at"`
}

// AuthResponse represents the response from auth operations
type AuthResponse struct {
	AccessToken string           `json:"access_token"`
	Student     *StudentResponse `json:"student"`
}

// RegisterInput holds the fields of a new student account
type RegisterInput struct {
	Email    string     `json:"email" validate:"required,email,max=255"`
	Password string     `json:"password" validate:"required"`
	Name     string     `json:"name" validate:"required,max=100"`
	ClassID  *uuid.UUID `json:"class_id,omitempty"`
}

// Register creates a new student account and signs them in
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResponse, error) {
	email := normalizeIdentifier(input.Email)
	name := strings.TrimSpace(input.Name)

	if email == "" {
		return nil, &models.ValidationError{Field: "email", Message: "is required"}
	}
	if name == "" {
		return nil, &models.ValidationError{Field: "name", Message: "is required"}
	}
	if err := pkgauth.ValidatePassword(input.Password); err != nil {
		return nil, &models.ValidationError{Field: "password", Message: "must be 8-72 characters with a letter and a digit"}
	}

	_, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		s.logger.Info("registration failed: student already exists")
		return nil, models.ErrConflict
	}
	if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check if student exists", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	hashedPassword, err := s.hash(input.Password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	created, err := s.repo.Create(ctx, &models.Student{
		Email:        email,
		PasswordHash: hashedPassword,
		Name:         name,
		ClassID:      input.ClassID,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		if errors.Is(err, models.ErrBadRequest) {
			return nil, &models.ValidationError{Field: "class_id", Message: "does not exist"}
		}
		s.logger.Error("failed to create student", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("student registered", slog.String("student_id", created.ID.String()))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: models.AuditEventStudentRegistered,
		StudentID: created.ID.String(),
		Success:   true,
	})

	return s.issue(created)
}

// Login authenticates a student. Repeated failures for the same email lock
// it out with a *models.RateLimitError until the window rolls past them.
func (s *AuthService) Login(ctx context.Context, email, password, ipAddress string) (*AuthResponse, error) {
	if email = normalizeIdentifier(email); email == "" {
		s.logger.Warn("login attempt with empty email")
		return nil, models.ErrUnauthorized
	}

	decision, err := s.limiter.CheckLoginRateLimit(ctx, email)
	if err != nil {
		s.logger.Error("failed to check login rate limit", slog.Any("error", err))
	} else if !decision.Allowed {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     models.AuditEventLoginBlocked,
			Identifier:    email,
			IPAddress:     ipAddress,
			FailureReason: "rate_limited",
		})
		return nil, &models.RateLimitError{ResetAt: decision.ResetAt}
	}

	student, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.recordFailure(ctx, email, ipAddress, "")
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get student by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := pkgauth.ComparePassword(student.PasswordHash, password); err != nil {
		s.recordFailure(ctx, email, ipAddress, student.ID.String())
		return nil, models.ErrUnauthorized
	}

	resp, err := s.issue(student)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.LogLoginAttempt(ctx, email, true); err != nil {
		s.logger.Error("failed to log login attempt", slog.Any("error", err))
	}
	if err := s.limiter.ClearAttempts(ctx, email); err != nil {
		s.logger.Error("failed to clear login attempts", slog.Any("error", err))
	}

	s.logger.Info("student logged in", slog.String("student_id", student.ID.String()))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:  models.AuditEventLoginSuccess,
		StudentID:  student.ID.String(),
		Identifier: email,
		IPAddress:  ipAddress,
		Success:    true,
	})
	return resp, nil
}

func (s *AuthService) recordFailure(ctx context.Context, email, ipAddress, studentID string) {
	s.logger.Info("login failed: invalid credentials")
	if err := s.limiter.LogLoginAttempt(ctx, email, false); err != nil {
		s.logger.Error("failed to log login attempt", slog.Any("error", err))
	}
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     models.AuditEventLoginFailed,
		StudentID:     studentID,
		Identifier:    email,
		IPAddress:     ipAddress,
		FailureReason: "invalid_credentials",
	})
}

func (s *AuthService) issue(student *models.Student) (*AuthResponse, error) {
	accessToken, err := s.tm.GenerateAccessToken(student.ID, student.Email)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.String("student_id", student.ID.String()), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return &AuthResponse{
		AccessToken: accessToken,
		Student:     studentToResponse(student),
	}, nil
}

func studentToResponse(student *models.Student) *StudentResponse {
	resp := &StudentResponse{
		ID:        student.ID.String(),
		Email:     student.Email,
		Name:      student.Name,
		CreatedAt: student.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if student.ClassID != nil {
		classID := student.ClassID.String()
		resp.ClassID = &classID
	}
	return resp
}

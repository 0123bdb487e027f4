package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/BradenHooton/questboard/internal/services"
	pkghttp "github.com/BradenHooton/questboard/pkg/http"
	"github.com/google/uuid"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Register(ctx context.Context, input services.RegisterInput) (*services.AuthResponse, error)
	Login(ctx context.Context, email, password, ipAddress string) (*services.AuthResponse, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service     AuthServiceInterface
	ipExtractor *pkghttp.IPExtractor
	logger      *slog.Logger
	now         func() time.Time
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, ipExtractor *pkghttp.IPExtractor, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service:     service,
		ipExtractor: ipExtractor,
		logger:      logger,
		now:         time.Now,
	}
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest represents the request body for registration
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
	ClassID  string `json:"class_id,omitempty" validate:"omitempty,uuid"`
}

// Login handles student login
// @Summary Student login
// @Accept json
// @Param request body LoginRequest true "Login request"
// @Produce json
// @Success 200 {object} services.AuthResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		writeServiceError(w, h.logger, err, h.now())
		return
	}

	ipAddress := h.ipExtractor.ClientIP(r)

	authResp, err := h.service.Login(r.Context(), req.Email, req.Password, ipAddress)
	if err != nil {
		writeServiceError(w, h.logger, err, h.now())
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, authResp)
}

// Register handles student registration
// @Summary Student registration
// @Accept json
// @Param request body RegisterRequest true "Register request"
// @Produce json
// @Success 201 {object} services.AuthResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		writeServiceError(w, h.logger, err, h.now())
		return
	}

	input := services.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	}
	if req.ClassID != "" {
		classID, err := uuid.Parse(req.ClassID)
		if err != nil {
			pkghttp.WriteBadRequest(w, "Invalid class_id")
			return
		}
		input.ClassID = &classID
	}

	authResp, err := h.service.Register(r.Context(), input)
	if err != nil {
		writeServiceError(w, h.logger, err, h.now())
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, authResp)
}

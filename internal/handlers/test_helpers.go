package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/questboard/internal/auth"
	"github.com/BradenHooton/questboard/internal/models"
	"github.com/BradenHooton/questboard/internal/services"
	pkghttp "github.com/BradenHooton/questboard/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAuthContext adds student claims to request context for testing authenticated endpoints
func WithAuthContext(req *http.Request, studentID uuid.UUID, email string) *http.Request {
	claims := &models.TokenClaims{
		StudentID: studentID.String(),
		Email:     email,
		Type:      models.TokenTypeAccess,
	}
	return req.WithContext(auth.WithClaims(req.Context(), claims))
}

// WithURLParam sets a chi route parameter on the request
func WithURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target any) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"), "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) pkghttp.ErrorResponse {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
	return resp
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	LoginFunc    func(ctx context.Context, email, password, ipAddress string) (*services.AuthResponse, error)
	RegisterFunc func(ctx context.Context, input services.RegisterInput) (*services.AuthResponse, error)
}

func (m *MockAuthService) Login(ctx context.Context, email, password, ipAddress string) (*services.AuthResponse, error) {
	if m.LoginFunc == nil {
		return nil, models.ErrUnauthorized
	}
	return m.LoginFunc(ctx, email, password, ipAddress)
}

func (m *MockAuthService) Register(ctx context.Context, input services.RegisterInput) (*services.AuthResponse, error) {
	if m.RegisterFunc == nil {
		return nil, models.ErrConflict
	}
	return m.RegisterFunc(ctx, input)
}

// MockMissionService implements MissionServiceInterface for testing
type MockMissionService struct {
	GetDailyMissionsFunc    func(ctx context.Context, studentID uuid.UUID) ([]*models.Mission, error)
	CompleteMissionFunc     func(ctx context.Context, studentID uuid.UUID, ref models.MissionRef) (*services.CompletionResult, error)
	CreateCustomMissionFunc func(ctx context.Context, studentID uuid.UUID, input services.CustomMissionInput) (*models.Mission, error)
	RecordLifeProgressFunc  func(ctx context.Context, studentID uuid.UUID, input services.LifeProgressInput) (*models.LifeProgressEntry, error)
	GetStreakFunc           func(ctx context.Context, studentID uuid.UUID) (*models.StreakRecord, error)
}

func (m *MockMissionService) GetDailyMissions(ctx context.Context, studentID uuid.UUID) ([]*models.Mission, error) {
	if m.GetDailyMissionsFunc == nil {
		return []*models.Mission{}, nil
	}
	return m.GetDailyMissionsFunc(ctx, studentID)
}

func (m *MockMissionService) CompleteMission(ctx context.Context, studentID uuid.UUID, ref models.MissionRef) (*services.CompletionResult, error) {
	if m.CompleteMissionFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.CompleteMissionFunc(ctx, studentID, ref)
}

func (m *MockMissionService) CreateCustomMission(ctx context.Context, studentID uuid.UUID, input services.CustomMissionInput) (*models.Mission, error) {
	if m.CreateCustomMissionFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.CreateCustomMissionFunc(ctx, studentID, input)
}

func (m *MockMissionService) RecordLifeProgress(ctx context.Context, studentID uuid.UUID, input services.LifeProgressInput) (*models.LifeProgressEntry, error) {
	if m.RecordLifeProgressFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.RecordLifeProgressFunc(ctx, studentID, input)
}

func (m *MockMissionService) GetStreak(ctx context.Context, studentID uuid.UUID) (*models.StreakRecord, error) {
	if m.GetStreakFunc == nil {
		return &models.StreakRecord{StudentID: studentID}, nil
	}
	return m.GetStreakFunc(ctx, studentID)
}

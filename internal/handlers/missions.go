package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/BradenHooton/questboard/internal/auth"
	"github.com/BradenHooton/questboard/internal/models"
	"github.com/BradenHooton/questboard/internal/services"
	pkghttp "github.com/BradenHooton/questboard/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// MissionServiceInterface defines the mission operations exposed over HTTP
type MissionServiceInterface interface {
	GetDailyMissions(ctx context.Context, studentID uuid.UUID) ([]*models.Mission, error)
	CompleteMission(ctx context.Context, studentID uuid.UUID, ref models.MissionRef) (*services.CompletionResult, error)
	CreateCustomMission(ctx context.Context, studentID uuid.UUID, input services.CustomMissionInput) (*models.Mission, error)
	RecordLifeProgress(ctx context.Context, studentID uuid.UUID, input services.LifeProgressInput) (*models.LifeProgressEntry, error)
	GetStreak(ctx context.Context, studentID uuid.UUID) (*models.StreakRecord, error)
}

// MissionHandler serves the authenticated mission endpoints
type MissionHandler struct {
	service MissionServiceInterface
	logger  *slog.Logger
	now     func() time.Time
}

func NewMissionHandler(service MissionServiceInterface, logger *slog.Logger) *MissionHandler {
	return &MissionHandler{service: service, logger: logger, now: time.Now}
}

// CompleteMissionRequest names the source of the mission being completed
type CompleteMissionRequest struct {
	Source string `json:"source" validate:"required,oneof=curated custom life_progress"`
}

// DailyMissionsResponse wraps the daily mission list
type DailyMissionsResponse struct {
	Missions []*models.Mission `json:"missions"`
	Count    int               `json:"count"`
}

// GetDailyMissions lists today's missions for the current student
// @Summary Daily missions
// @Security BearerAuth
// @Produce json
// @Success 200 {object} DailyMissionsResponse
// @Router /missions/daily [get]
func (h *MissionHandler) GetDailyMissions(w http.ResponseWriter, r *http.Request) {
	studentID, ok := auth.StudentIDFromRequest(r)
	if !ok {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	missions, err := h.service.GetDailyMissions(r.Context(), studentID)
	if err != nil {
		writeServiceError(w, h.logger, err, h.now())
		return
	}
	if missions == nil {
		missions = []*models.Mission{}
	}

	pkghttp.WriteJSON(w, http.StatusOK, DailyMissionsResponse{Missions: missions, Count: len(missions)})
}

// CreateMission adds a custom mission for tomorrow
// @Summary Create custom mission
// @Security BearerAuth
// @Accept json
// @Param request body services.CustomMissionInput true "Custom mission"
// @Produce json
// @Success 201 {object} models.Mission
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /missions [post]
func (h *MissionHandler) CreateMission(w http.ResponseWriter, r *http.Request) {
	studentID, ok := auth.StudentIDFromRequest(r)
	if !ok {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	var input services.CustomMissionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	mission, err := h.service.CreateCustomMission(r.Context(), studentID, input)
	if err != nil {
		writeServiceError(w, h.logger, err, h.now())
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, mission)
}

// CompleteMission marks a mission done and grants its XP
// @Summary Complete mission
// @Security BearerAuth
// @Accept json
// @Param missionID path string true "Mission ID"
// @Param request body CompleteMissionRequest true "Mission source"
// @Produce json
// @Success 200 {object} services.CompletionResult
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /missions/{missionID}/complete [post]
func (h *MissionHandler) CompleteMission(w http.ResponseWriter, r *http.Request) {
	studentID, ok := auth.StudentIDFromRequest(r)
	if !ok {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	missionID, err := uuid.Parse(chi.URLParam(r, "missionID"))
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid mission ID")
		return
	}

	var req CompleteMissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		writeServiceError(w, h.logger, err, h.now())
		return
	}

	result, err := h.service.CompleteMission(r.Context(), studentID, models.MissionRef{
		Source: models.MissionSource(req.Source),
		ID:     missionID,
	})
	if err != nil {
		writeServiceError(w, h.logger, err, h.now())
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, result)
}

// RecordLifeProgress stores a satisfaction score for one life category
// @Summary Record life progress
// @Security BearerAuth
// @Accept json
// @Param request body services.LifeProgressInput true "Life progress"
// @Produce json
// @Success 201 {object} models.LifeProgressEntry
// @Router /life-progress [post]
func (h *MissionHandler) RecordLifeProgress(w http.ResponseWriter, r *http.Request) {
	studentID, ok := auth.StudentIDFromRequest(r)
	if !ok {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	var input services.LifeProgressInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	entry, err := h.service.RecordLifeProgress(r.Context(), studentID, input)
	if err != nil {
		writeServiceError(w, h.logger, err, h.now())
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, entry)
}

// GetStreak returns the current student's streak
// @Summary Current streak
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.StreakRecord
// @Router /streak [get]
func (h *MissionHandler) GetStreak(w http.ResponseWriter, r *http.Request) {
	studentID, ok := auth.StudentIDFromRequest(r)
	if !ok {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	streak, err := h.service.GetStreak(r.Context(), studentID)
	if err != nil {
		writeServiceError(w, h.logger, err, h.now())
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, streak)
}

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BradenHooton/questboard/internal/models"
	"github.com/BradenHooton/questboard/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMissionHandler(svc MissionServiceInterface) *MissionHandler {
	return NewMissionHandler(svc, testLogger)
}

func TestGetDailyMissions_Unauthenticated(t *testing.T) {
	h := newTestMissionHandler(&MockMissionService{})

	w := httptest.NewRecorder()
	h.GetDailyMissions(w, httptest.NewRequest(http.MethodGet, "/missions/daily", nil))

	AssertErrorResponse(t, w, http.StatusUnauthorized, "unauthorized")
}

func TestGetDailyMissions_ReturnsList(t *testing.T) {
	studentID := uuid.New()
	var gotStudent uuid.UUID
	h := newTestMissionHandler(&MockMissionService{
		GetDailyMissionsFunc: func(ctx context.Context, id uuid.UUID) ([]*models.Mission, error) {
			gotStudent = id
			return []*models.Mission{
				{ID: uuid.New(), Title: "Fractions drill", Source: models.MissionSourceCurated, XPReward: 25},
				{ID: uuid.New(), Title: "Level up your sleep", Source: models.MissionSourceLifeProgress, IsSuggestion: true, XPReward: 20},
			}, nil
		},
	})

	req := WithAuthContext(httptest.NewRequest(http.MethodGet, "/missions/daily", nil), studentID, "s@example.com")
	w := httptest.NewRecorder()
	h.GetDailyMissions(w, req)

	var resp DailyMissionsResponse
	AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Equal(t, studentID, gotStudent)
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.Missions, 2)
	assert.Equal(t, models.MissionSourceLifeProgress, resp.Missions[1].Source)
}

func TestGetDailyMissions_EmptyIsArray(t *testing.T) {
	h := newTestMissionHandler(&MockMissionService{
		GetDailyMissionsFunc: func(ctx context.Context, id uuid.UUID) ([]*models.Mission, error) {
			return nil, nil
		},
	})

	req := WithAuthContext(httptest.NewRequest(http.MethodGet, "/missions/daily", nil), uuid.New(), "s@example.com")
	w := httptest.NewRecorder()
	h.GetDailyMissions(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"missions":[],"count":0}`, w.Body.String())
}

func TestCreateMission_Created(t *testing.T) {
	studentID := uuid.New()
	h := newTestMissionHandler(&MockMissionService{
		CreateCustomMissionFunc: func(ctx context.Context, id uuid.UUID, input services.CustomMissionInput) (*models.Mission, error) {
			return &models.Mission{
				ID:         uuid.New(),
				StudentID:  &id,
				Title:      input.Title,
				Difficulty: input.Difficulty,
				Source:     models.MissionSourceCustom,
				XPReward:   28,
			}, nil
		},
	})

	body := services.CustomMissionInput{
		Title:         "Build a birdhouse",
		Description:   "Measure, cut, sand, assemble, and paint",
		Category:      "crafts",
		Difficulty:    models.DifficultyMedium,
		DeadlineHours: 48,
	}
	req := WithAuthContext(NewTestRequest(t, http.MethodPost, "/missions", body), studentID, "s@example.com")
	w := httptest.NewRecorder()
	h.CreateMission(w, req)

	var mission models.Mission
	AssertJSONResponse(t, w, http.StatusCreated, &mission)
	assert.Equal(t, 28, mission.XPReward)
	assert.Equal(t, models.MissionSourceCustom, mission.Source)
}

func TestCreateMission_LimitReached(t *testing.T) {
	h := newTestMissionHandler(&MockMissionService{
		CreateCustomMissionFunc: func(ctx context.Context, id uuid.UUID, input services.CustomMissionInput) (*models.Mission, error) {
			return nil, models.ErrMissionLimitReached
		},
	})

	req := WithAuthContext(NewTestRequest(t, http.MethodPost, "/missions", services.CustomMissionInput{Title: "x"}), uuid.New(), "s@example.com")
	w := httptest.NewRecorder()
	h.CreateMission(w, req)

	resp := AssertErrorResponse(t, w, http.StatusConflict, "quest_limit_reached")
	assert.Equal(t, "Quest limit reached", resp.Message)
}

func TestCreateMission_ValidationError(t *testing.T) {
	h := newTestMissionHandler(&MockMissionService{
		CreateCustomMissionFunc: func(ctx context.Context, id uuid.UUID, input services.CustomMissionInput) (*models.Mission, error) {
			return nil, &models.ValidationError{Field: "difficulty", Message: "must be one of: easy medium hard"}
		},
	})

	req := WithAuthContext(NewTestRequest(t, http.MethodPost, "/missions", services.CustomMissionInput{Title: "x"}), uuid.New(), "s@example.com")
	w := httptest.NewRecorder()
	h.CreateMission(w, req)

	resp := AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
	assert.Contains(t, resp.Details, "difficulty")
}

func TestCompleteMission_Success(t *testing.T) {
	studentID := uuid.New()
	missionID := uuid.New()
	var gotRef models.MissionRef
	h := newTestMissionHandler(&MockMissionService{
		CompleteMissionFunc: func(ctx context.Context, id uuid.UUID, ref models.MissionRef) (*services.CompletionResult, error) {
			gotRef = ref
			return &services.CompletionResult{
				Source:    ref.Source,
				MissionID: ref.ID,
				XPGranted: 25,
				Calendar:  &models.CalendarEntry{StudentID: id, XPEarned: 25, LessonsCompleted: 1},
				Streak:    models.StreakRecord{StudentID: id, CurrentStreak: 3, LongestStreak: 5, LastActivityDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
			}, nil
		},
	})

	req := NewTestRequest(t, http.MethodPost, "/missions/"+missionID.String()+"/complete", CompleteMissionRequest{Source: "curated"})
	req = WithURLParam(WithAuthContext(req, studentID, "s@example.com"), "missionID", missionID.String())
	w := httptest.NewRecorder()
	h.CompleteMission(w, req)

	var result services.CompletionResult
	AssertJSONResponse(t, w, http.StatusOK, &result)
	assert.Equal(t, models.MissionRef{Source: models.MissionSourceCurated, ID: missionID}, gotRef)
	assert.Equal(t, 25, result.XPGranted)
	assert.Equal(t, 3, result.Streak.CurrentStreak)
}

func TestCompleteMission_BadInput(t *testing.T) {
	missionID := uuid.New()
	tests := []struct {
		name    string
		param   string
		body    any
		details string
	}{
		{"malformed mission id", "mission-1", CompleteMissionRequest{Source: "curated"}, ""},
		{"missing source", missionID.String(), CompleteMissionRequest{}, "source"},
		{"unknown source", missionID.String(), CompleteMissionRequest{Source: "homework"}, "source"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestMissionHandler(&MockMissionService{})
			req := NewTestRequest(t, http.MethodPost, "/missions/x/complete", tt.body)
			req = WithURLParam(WithAuthContext(req, uuid.New(), "s@example.com"), "missionID", tt.param)
			w := httptest.NewRecorder()
			h.CompleteMission(w, req)

			resp := AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
			if tt.details != "" {
				assert.Contains(t, resp.Details, tt.details)
			}
		})
	}
}

func TestCompleteMission_ServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"already completed", models.ErrMissionAlreadyCompleted, http.StatusConflict, "conflict"},
		{"not active yet", models.ErrMissionNotActive, http.StatusConflict, "conflict"},
		{"unknown mission", models.ErrNotFound, http.StatusNotFound, "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			missionID := uuid.New()
			h := newTestMissionHandler(&MockMissionService{
				CompleteMissionFunc: func(ctx context.Context, id uuid.UUID, ref models.MissionRef) (*services.CompletionResult, error) {
					return nil, tt.err
				},
			})

			req := NewTestRequest(t, http.MethodPost, "/missions/x/complete", CompleteMissionRequest{Source: "custom"})
			req = WithURLParam(WithAuthContext(req, uuid.New(), "s@example.com"), "missionID", missionID.String())
			w := httptest.NewRecorder()
			h.CompleteMission(w, req)

			AssertErrorResponse(t, w, tt.wantStatus, tt.wantCode)
		})
	}
}

func TestRecordLifeProgress_Created(t *testing.T) {
	h := newTestMissionHandler(&MockMissionService{
		RecordLifeProgressFunc: func(ctx context.Context, id uuid.UUID, input services.LifeProgressInput) (*models.LifeProgressEntry, error) {
			return &models.LifeProgressEntry{ID: uuid.New(), StudentID: id, Category: input.Category, SatisfactionScore: input.SatisfactionScore}, nil
		},
	})

	req := WithAuthContext(NewTestRequest(t, http.MethodPost, "/life-progress", services.LifeProgressInput{Category: "sleep", SatisfactionScore: 30}), uuid.New(), "s@example.com")
	w := httptest.NewRecorder()
	h.RecordLifeProgress(w, req)

	var entry models.LifeProgressEntry
	AssertJSONResponse(t, w, http.StatusCreated, &entry)
	assert.Equal(t, "sleep", entry.Category)
	assert.Equal(t, 30, entry.SatisfactionScore)
}

func TestGetStreak(t *testing.T) {
	studentID := uuid.New()
	h := newTestMissionHandler(&MockMissionService{
		GetStreakFunc: func(ctx context.Context, id uuid.UUID) (*models.StreakRecord, error) {
			return &models.StreakRecord{StudentID: id, CurrentStreak: 4, LongestStreak: 9}, nil
		},
	})

	req := WithAuthContext(httptest.NewRequest(http.MethodGet, "/streak", nil), studentID, "s@example.com")
	w := httptest.NewRecorder()
	h.GetStreak(w, req)

	var streak models.StreakRecord
	AssertJSONResponse(t, w, http.StatusOK, &streak)
	assert.Equal(t, 4, streak.CurrentStreak)
	assert.Equal(t, 9, streak.LongestStreak)
}

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/BradenHooton/questboard/internal/models"
	pkghttp "github.com/BradenHooton/questboard/pkg/http"
)

// writeServiceError maps a service error onto the API's error responses.
// Unrecognised errors are logged and answered with the generic 500 body.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error, now time.Time) {
	var (
		validationErr *models.ValidationError
		rateErr       *models.RateLimitError
	)

	switch {
	case errors.As(err, &validationErr):
		pkghttp.WriteErrorWithDetails(w, http.StatusBadRequest, "bad_request", "Validation failed", validationErr.Error())
	case errors.As(err, &rateErr):
		pkghttp.WriteLoginLocked(w, rateErr.MinutesRemaining(now))
	case errors.Is(err, models.ErrRateLimitExceeded):
		pkghttp.WriteLoginLocked(w, 1)
	case errors.Is(err, models.ErrUnauthorized):
		pkghttp.WriteUnauthorized(w, "Authentication failed")
	case errors.Is(err, models.ErrMissionLimitReached):
		pkghttp.WriteQuestLimitReached(w)
	case errors.Is(err, models.ErrMissionAlreadyCompleted):
		pkghttp.WriteConflict(w, "Mission already completed today")
	case errors.Is(err, models.ErrMissionNotActive):
		pkghttp.WriteConflict(w, "Mission is not available yet")
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, "Resource already exists")
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Resource not found")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, "Invalid request")
	default:
		if logger != nil {
			logger.Error("request failed", slog.Any("error", err))
		}
		pkghttp.WriteInternalError(w, "")
	}
}

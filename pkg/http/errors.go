package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// ErrorResponse represents a standard API error response
type ErrorResponse struct {
	Error   string `json:"error"`             // Machine-readable error code
	Message string `json:"message"`           // Human-readable message
	Details string `json:"details,omitempty"` // Optional additional context
}

// GenericErrorMessage is shown for any failure without a specific message
const GenericErrorMessage = "Something went wrong. Please try again."

// WriteJSON writes v as a JSON body with the given status code
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes a JSON error response with the given status code
func WriteError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	WriteErrorWithDetails(w, statusCode, errorCode, message, "")
}

// WriteErrorWithDetails writes a JSON error response with additional details
func WriteErrorWithDetails(w http.ResponseWriter, statusCode int, errorCode, message, details string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error:   errorCode,
		Message: message,
		Details: details,
	})
}

func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message)
}

func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, "unauthorized", message)
}

func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message)
}

func WriteConflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, "conflict", message)
}

func WriteTooManyRequests(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, "rate_limit_exceeded", message)
}

// WriteLoginLocked tells a throttled client how many whole minutes remain
// and sets Retry-After accordingly
func WriteLoginLocked(w http.ResponseWriter, minutes int) {
	if minutes < 1 {
		minutes = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(minutes*60))
	WriteTooManyRequests(w, fmt.Sprintf("Too many failed login attempts. Try again in %d minutes.", minutes))
}

// WriteQuestLimitReached rejects a mission that would exceed the daily ceiling
func WriteQuestLimitReached(w http.ResponseWriter) {
	WriteError(w, http.StatusConflict, "quest_limit_reached", "Quest limit reached")
}

func WriteInternalError(w http.ResponseWriter, message string) {
	if message == "" {
		message = GenericErrorMessage
	}
	WriteError(w, http.StatusInternalServerError, "internal_error", message)
}

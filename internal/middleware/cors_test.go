package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORS_AllowedOrigin(t *testing.T) {
	handler := CORS(DefaultCORSConfig([]string{"https://app.example.com"}))(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/streak", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Retry-After")
	assert.Equal(t, "3600", w.Header().Get("Access-Control-Max-Age"))
}

func TestCORS_UnknownOriginGetsNoHeaders(t *testing.T) {
	handler := CORS(DefaultCORSConfig([]string{"https://app.example.com"}))(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/streak", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Preflight(t *testing.T) {
	handler := CORS(DefaultCORSConfig([]string{"https://app.example.com"}))(okHandler())

	allowed := httptest.NewRequest(http.MethodOptions, "/missions", nil)
	allowed.Header.Set("Origin", "https://app.example.com")
	allowed.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, allowed)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")

	denied := httptest.NewRequest(http.MethodOptions, "/missions", nil)
	denied.Header.Set("Origin", "https://evil.example.com")
	denied.Header.Set("Access-Control-Request-Method", "POST")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, denied)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

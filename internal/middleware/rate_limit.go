package middleware

import (
	"net/http"
	"time"

	"github.com/BradenHooton/questboard/internal/auth"
	pkghttp "github.com/BradenHooton/questboard/pkg/http"
	"github.com/go-chi/httprate"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int
}

// DefaultAuthRateLimit returns default rate limit config for auth endpoints
func DefaultAuthRateLimit() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 20,
	}
}

// StudentRateLimitConfig bounds request rates for authenticated students
type StudentRateLimitConfig struct {
	ReadPerMinute  int
	WritePerMinute int
}

func DefaultStudentRateLimit() StudentRateLimitConfig {
	return StudentRateLimitConfig{
		ReadPerMinute:  120,
		WritePerMinute: 30,
	}
}

// RateLimitByIP limits requests per client IP as resolved by extractor.
// This throttles raw request volume; per-email lockout lives in the login
// rate limiter.
func RateLimitByIP(config RateLimitConfig, extractor *pkghttp.IPExtractor) func(next http.Handler) http.Handler {
	return httprate.Limit(
		config.RequestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return "ip:" + extractor.ClientIP(r), nil
		}),
		httprate.WithLimitHandler(tooManyRequests),
	)
}

// RateLimitByStudent limits authenticated requests per student. op selects
// the budget ("read" or "write"). Requests without claims fall back to the
// peer address.
func RateLimitByStudent(config StudentRateLimitConfig, op string) func(next http.Handler) http.Handler {
	limit := config.ReadPerMinute
	if op == "write" {
		limit = config.WritePerMinute
	}

	return httprate.Limit(
		limit,
		time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if claims := auth.GetClaimsFromContext(r); claims != nil && claims.StudentID != "" {
				return op + ":student:" + claims.StudentID, nil
			}
			ip, err := httprate.KeyByIP(r)
			return op + ":ip:" + ip, err
		}),
		httprate.WithLimitHandler(tooManyRequests),
	)
}

func tooManyRequests(w http.ResponseWriter, r *http.Request) {
	pkghttp.WriteTooManyRequests(w, "Too many requests")
}

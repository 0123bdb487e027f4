package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/BradenHooton/questboard/internal/models"
	pkghttp "github.com/BradenHooton/questboard/pkg/http"
	"github.com/google/uuid"
)

// contextKey is a custom type for context keys
type contextKey string

// StudentContextKey is the key for storing token claims in context
const StudentContextKey contextKey = "student"

// AuthMiddleware validates bearer tokens and injects the claims into context
func AuthMiddleware(tm *TokenManager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				pkghttp.WriteUnauthorized(w, "missing authorization header")
				return
			}

			scheme, tokenString, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(tokenString) == "" {
				pkghttp.WriteUnauthorized(w, "invalid authorization header format")
				return
			}

			claims, err := tm.ValidateToken(strings.TrimSpace(tokenString))
			if err != nil {
				pkghttp.WriteUnauthorized(w, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// WithClaims returns a copy of ctx carrying claims
func WithClaims(ctx context.Context, claims *models.TokenClaims) context.Context {
	return context.WithValue(ctx, StudentContextKey, claims)
}

// GetClaimsFromContext extracts token claims from request context
func GetClaimsFromContext(r *http.Request) *models.TokenClaims {
	claims, ok := r.Context().Value(StudentContextKey).(*models.TokenClaims)
	if !ok {
		return nil
	}
	return claims
}

// StudentIDFromRequest returns the authenticated student's ID
func StudentIDFromRequest(r *http.Request) (uuid.UUID, bool) {
	claims := GetClaimsFromContext(r)
	if claims == nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(claims.StudentID)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

package auth

import (
	"fmt"
	"time"

	"github.com/BradenHooton/questboard/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenManager handles JWT token generation and validation
type TokenManager struct {
	secret            []byte
	accessTokenExpiry time.Duration
	now               func() time.Time
}

// NewTokenManager creates a new TokenManager
func NewTokenManager(secret string, accessExpiry time.Duration) *TokenManager {
	return &TokenManager{
		secret:            []byte(secret),
		accessTokenExpiry: accessExpiry,
		now:               time.Now,
	}
}

// GenerateAccessToken creates a short-lived access token with a unique JTI
func (tm *TokenManager) GenerateAccessToken(studentID uuid.UUID, email string) (string, error) {
	now := tm.now()

	claims := &models.TokenClaims{
		Type:      models.TokenTypeAccess,
		StudentID: studentID.String(),
		Email:     email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   studentID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.accessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken verifies a token and returns its claims
func (tm *TokenManager) ValidateToken(tokenString string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.secret, nil
	}, jwt.WithTimeFunc(tm.now))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, models.ErrUnauthorized
	}
	if claims.Type != models.TokenTypeAccess {
		return nil, fmt.Errorf("invalid token type %q: %w", claims.Type, models.ErrUnauthorized)
	}
	if _, err := uuid.Parse(claims.StudentID); err != nil {
		return nil, fmt.Errorf("invalid token subject: %w", models.ErrUnauthorized)
	}

	return claims, nil
}

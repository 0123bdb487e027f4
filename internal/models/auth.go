package models

import (
	"github.com/golang-jwt/jwt/v5"
)

const TokenTypeAccess = "access"

type TokenClaims struct {
	Type      string `json:"type"`
	StudentID string `json:"student_id"`
	Email     string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

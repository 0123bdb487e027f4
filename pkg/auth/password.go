package auth

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	BcryptCost     = 14
	MinPasswordLen = 8
	MaxPasswordLen = 72 // bcrypt ignores input past 72 bytes
)

// ErrWeakPassword is returned for any password that fails ValidatePassword.
// The specific rule is not exposed to callers.
var ErrWeakPassword = errors.New("invalid password")

var commonPasswords = map[string]bool{
	"password":    true,
	"password1":   true,
	"password123": true,
	"12345678":    true,
	"123456789":   true,
	"qwerty123":   true,
	"iloveyou":    true,
	"letmein1":    true,
	"welcome1":    true,
	"football":    true,
	"superman":    true,
	"trustno1":    true,
	"homework":    true,
	"student1":    true,
}

func HashPassword(password string) (string, error) {
	return HashPasswordWithCost(password, BcryptCost)
}

// HashPasswordWithCost hashes with an explicit bcrypt cost
func HashPasswordWithCost(password string, cost int) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

func ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// ValidatePassword requires MinPasswordLen..MaxPasswordLen bytes with at
// least one letter and one digit, and rejects well-known passwords.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLen || len(password) > MaxPasswordLen {
		return ErrWeakPassword
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return ErrWeakPassword
	}

	if commonPasswords[strings.ToLower(password)] {
		return ErrWeakPassword
	}
	return nil
}

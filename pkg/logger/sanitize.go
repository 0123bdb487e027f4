package logger

import (
	"strings"
)

// SanitizedEmail masks an identifier for logging (e.g., "u***@*******.com").
// Identifiers that are not email addresses keep only their first character.
func SanitizedEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		if email == "" {
			return "[empty]"
		}
		return maskTail(email)
	}

	username := maskTail(parts[0])
	domain := parts[1]

	// keep the TLD only
	domainParts := strings.Split(domain, ".")
	if len(domainParts) > 1 {
		for i := 0; i < len(domainParts)-1; i++ {
			domainParts[i] = strings.Repeat("*", len(domainParts[i]))
		}
		domain = strings.Join(domainParts, ".")
	}

	return username + "@" + domain
}

func maskTail(s string) string {
	runes := []rune(s)
	if len(runes) <= 1 {
		return s
	}
	return string(runes[0]) + strings.Repeat("*", len(runes)-1)
}

var sensitiveQueryParams = []string{
	"password", "token", "secret", "email", "auth",
}

// SanitizeQueryString reports whether a raw query string carries a sensitive
// parameter and should be redacted from logs as a whole
func SanitizeQueryString(rawQuery string) bool {
	query := strings.ToLower(rawQuery)
	for _, param := range sensitiveQueryParams {
		if strings.Contains(query, param) {
			return true
		}
	}
	return false
}

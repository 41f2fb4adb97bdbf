package utils

import (
	"net/mail"
	"regexp"
	"strings"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)

// NormalizeEmail lowercases and trims an email address for storage and
// lookup
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidEmail reports whether the address parses as RFC 5322
func IsValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	// Reject addresses with a display name ("Name <a@b.c>")
	return addr.Address == email
}

// IsValidUsername reports whether the username is 3-32 word characters
func IsValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

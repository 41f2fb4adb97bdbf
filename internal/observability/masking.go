package observability

import "strings"

// MaskEmail masks the local part of an email address for logging
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "****"
	}
	local := email[:at]
	if len(local) <= 2 {
		return "**" + email[at:]
	}
	return local[:1] + "***" + local[len(local)-1:] + email[at:]
}

// MaskToken masks a session token, keeping a short prefix for correlation
func MaskToken(token string) string {
	if len(token) <= 8 {
		return "********"
	}
	return token[:8] + "..."
}

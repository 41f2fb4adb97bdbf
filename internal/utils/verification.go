package utils

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// GenerateVerificationCode generates a random 6-digit verification code
// using a cryptographically secure source. Rejection sampling keeps the
// distribution uniform over 000000-999999.
func GenerateVerificationCode() (string, error) {
	// Largest multiple of 1e6 that fits in a uint32
	const limit = 4294000000

	var buf [4]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		n := binary.BigEndian.Uint32(buf[:])
		if n < limit {
			return fmt.Sprintf("%06d", n%1000000), nil
		}
	}
}

// GenerateSessionToken generates an opaque 256-bit session token
func GenerateSessionToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

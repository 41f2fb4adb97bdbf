package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VerificationPurpose scopes a code to the workflow it was issued for
type VerificationPurpose string

const (
	PurposeRegistration      VerificationPurpose = "registration"
	PurposePasswordReset     VerificationPurpose = "password_reset"
	PurposeLoginVerification VerificationPurpose = "login_verification"
)

// IsValid reports whether p is a known purpose
func (p VerificationPurpose) IsValid() bool {
	switch p {
	case PurposeRegistration, PurposePasswordReset, PurposeLoginVerification:
		return true
	}
	return false
}

// VerificationStatus is the derived state of a verification code.
// It is always computed from the stored fields and never persisted.
type VerificationStatus string

const (
	VerificationStatusPending             VerificationStatus = "pending"
	VerificationStatusUsed                VerificationStatus = "used"
	VerificationStatusExpired             VerificationStatus = "expired"
	VerificationStatusMaxAttemptsExceeded VerificationStatus = "max_attempts_exceeded"
)

// Constants for verification configuration
const (
	VerificationCodeLength  = 6
	MaxVerificationAttempts = 3
)

// VerificationMetadata carries workflow state that must not be materialized
// until the code is consumed (e.g. the pending account for a registration)
type VerificationMetadata struct {
	Username     string `bson:"username,omitempty" json:"username,omitempty"`
	PasswordHash string `bson:"password_hash,omitempty" json:"-"`
	DisplayName  string `bson:"display_name,omitempty" json:"display_name,omitempty"`
	Source       string `bson:"source,omitempty" json:"source,omitempty"`
}

// VerificationCode represents one issued verification code
type VerificationCode struct {
	ID          primitive.ObjectID    `bson:"_id,omitempty" json:"id"`
	Email       string                `bson:"email" json:"email"`
	Code        string                `bson:"code" json:"-"`
	Purpose     VerificationPurpose   `bson:"purpose" json:"purpose"`
	UserID      *primitive.ObjectID   `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Attempts    int                   `bson:"attempts" json:"attempts"`
	MaxAttempts int                   `bson:"max_attempts" json:"max_attempts"`
	UsedAt      *time.Time            `bson:"used_at,omitempty" json:"used_at,omitempty"`
	CreatedAt   time.Time             `bson:"created_at" json:"created_at"`
	ExpiresAt   time.Time             `bson:"expires_at" json:"expires_at"`
	IPAddress   string                `bson:"ip_address,omitempty" json:"ip_address,omitempty"`
	UserAgent   string                `bson:"user_agent,omitempty" json:"user_agent,omitempty"`
	Metadata    *VerificationMetadata `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

// IsExpired reports whether the code is past its expiry at the given instant
func (v *VerificationCode) IsExpired(now time.Time) bool {
	return !now.Before(v.ExpiresAt)
}

// IsUsable reports whether the code can still be consumed: unexpired,
// unused, and under the attempt budget
func (v *VerificationCode) IsUsable(now time.Time) bool {
	return now.Before(v.ExpiresAt) && v.UsedAt == nil && v.Attempts < v.MaxAttempts
}

// Status derives the lifecycle state of the code. Used wins over expired so
// a consumed record keeps reporting its terminal cause.
func (v *VerificationCode) Status(now time.Time) VerificationStatus {
	if v.UsedAt != nil {
		return VerificationStatusUsed
	}
	if v.IsExpired(now) {
		return VerificationStatusExpired
	}
	if v.Attempts >= v.MaxAttempts {
		return VerificationStatusMaxAttemptsExceeded
	}
	return VerificationStatusPending
}

// RemainingAttempts returns how many wrong submissions are still allowed
func (v *VerificationCode) RemainingAttempts() int {
	remaining := v.MaxAttempts - v.Attempts
	if remaining < 0 {
		return 0
	}
	return remaining
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Security event kinds
const (
	SecurityEventRateLimitHit     = "rate_limit_hit"
	SecurityEventCodeAttemptsUsed = "code_attempts_exhausted"
	SecurityEventInvalidCode      = "invalid_code"
	SecurityEventLoginFailed      = "login_failed"
	SecurityEventSessionsRevoked  = "sessions_revoked"
	SecurityEventUserBanned       = "user_banned"
)

// SecurityEvent is the abuse-monitoring record behind the deliberately vague
// user-facing verification errors
type SecurityEvent struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Kind      string              `bson:"kind" json:"kind"`
	Email     string              `bson:"email,omitempty" json:"email,omitempty"`
	UserID    *primitive.ObjectID `bson:"user_id,omitempty" json:"user_id,omitempty"`
	IPAddress string              `bson:"ip_address,omitempty" json:"ip_address,omitempty"`
	UserAgent string              `bson:"user_agent,omitempty" json:"user_agent,omitempty"`
	Detail    string              `bson:"detail,omitempty" json:"detail,omitempty"`
	Timestamp time.Time           `bson:"timestamp" json:"timestamp"`
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Session represents an authenticated session bound to a device
type Session struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Token          string             `bson:"token" json:"-"`
	UserID         primitive.ObjectID `bson:"user_id" json:"user_id"`
	IPAddress      string             `bson:"ip_address,omitempty" json:"ip_address,omitempty"`
	UserAgent      string             `bson:"user_agent,omitempty" json:"user_agent,omitempty"`
	Active         bool               `bson:"active" json:"active"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	LastActivityAt time.Time          `bson:"last_activity_at" json:"last_activity_at"`
	ExpiresAt      time.Time          `bson:"expires_at" json:"expires_at"`
}

// IsValid reports whether the session may authenticate a request: it has to
// be both active and unexpired, each alone is not enough
func (s *Session) IsValid(now time.Time) bool {
	return s.Active && now.Before(s.ExpiresAt)
}

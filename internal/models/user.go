package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles
const (
	RoleReader = "reader"
	RoleAuthor = "author"
	RoleAdmin  = "admin"
)

// UserStatus is the lifecycle state of an account
type UserStatus = string

// User statuses
const (
	UserStatusActive = "active"
	UserStatusBanned = "banned"
)

// User represents a reader or author account
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	Username     string             `bson:"username" json:"username"`
	DisplayName  string             `bson:"display_name,omitempty" json:"display_name,omitempty"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         string             `bson:"role" json:"role"`
	Status       string             `bson:"status" json:"status"`
	Guest        bool               `bson:"guest" json:"guest"`

	// Credit balance, refilled lazily from LastRefillAt (see CreditService)
	Credits      int       `bson:"credits" json:"credits"`
	MaxCredits   int       `bson:"max_credits" json:"max_credits"`
	LastRefillAt time.Time `bson:"last_refill_at" json:"last_refill_at"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsBanned reports whether the account is blocked from the platform
func (u *User) IsBanned() bool {
	return u.Status == UserStatusBanned
}

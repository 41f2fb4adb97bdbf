package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review is a reader's rating and optional text for a story. One per
// (user, story), enforced by a unique index.
type Review struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	StoryID   primitive.ObjectID `bson:"story_id" json:"story_id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Rating    int                `bson:"rating" json:"rating"`
	Text      string             `bson:"text,omitempty" json:"text,omitempty"`
	FlagCount int                `bson:"flag_count" json:"flag_count"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

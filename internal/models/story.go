package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Story statuses
const (
	StoryStatusDraft     = "draft"
	StoryStatusPublished = "published"
	StoryStatusRemoved   = "removed"
)

// Choice is one branch out of a story node
type Choice struct {
	Label      string `bson:"label" json:"label"`
	NextNodeID string `bson:"next_node_id" json:"next_node_id"`
}

// StoryNode is one passage of a branching story. A node with no choices is
// an ending.
type StoryNode struct {
	NodeID  string   `bson:"node_id" json:"node_id"`
	Text    string   `bson:"text" json:"text"`
	Choices []Choice `bson:"choices,omitempty" json:"choices,omitempty"`
}

// IsEnding reports whether the node terminates the story
func (n *StoryNode) IsEnding() bool {
	return len(n.Choices) == 0
}

// Story is a branching interactive-fiction story
type Story struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Synopsis    string             `bson:"synopsis,omitempty" json:"synopsis,omitempty"`
	AuthorID    primitive.ObjectID `bson:"author_id" json:"author_id"`
	Status      string             `bson:"status" json:"status"`
	Tags        []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	StartNodeID string             `bson:"start_node_id" json:"start_node_id"`
	Nodes       []StoryNode        `bson:"nodes" json:"nodes,omitempty"`

	// Aggregates maintained by ReviewService and moderation
	RatingSum   int64 `bson:"rating_sum" json:"-"`
	RatingCount int64 `bson:"rating_count" json:"rating_count"`
	FlagCount   int   `bson:"flag_count" json:"flag_count"`
	PlayCount   int64 `bson:"play_count" json:"play_count"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsPublished reports whether the story is visible to readers
func (s *Story) IsPublished() bool {
	return s.Status == StoryStatusPublished
}

// AverageRating derives the display rating from the stored aggregates
func (s *Story) AverageRating() float64 {
	if s.RatingCount == 0 {
		return 0
	}
	return float64(s.RatingSum) / float64(s.RatingCount)
}

// Node returns the node with the given id, or nil
func (s *Story) Node(nodeID string) *StoryNode {
	for i := range s.Nodes {
		if s.Nodes[i].NodeID == nodeID {
			return &s.Nodes[i]
		}
	}
	return nil
}

// PlaySession tracks a reader's progress through one story
type PlaySession struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID `bson:"user_id" json:"user_id"`
	StoryID       primitive.ObjectID `bson:"story_id" json:"story_id"`
	CurrentNodeID string             `bson:"current_node_id" json:"current_node_id"`
	Path          []string           `bson:"path" json:"path"`
	Completed     bool               `bson:"completed" json:"completed"`
	RewardPaid    bool               `bson:"reward_paid" json:"-"`
	StartedAt     time.Time          `bson:"started_at" json:"started_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}

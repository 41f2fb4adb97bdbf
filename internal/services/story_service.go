package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/90n9/talepick/internal/config"
	"github.com/90n9/talepick/internal/models"
	"github.com/90n9/talepick/internal/observability"
	"github.com/90n9/talepick/internal/utils"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const storyCacheKeyPrefix = "story:"

// StoryService serves the catalog and drives play sessions. Making a choice
// spends one credit; reaching an ending pays the completion reward once per
// (user, story).
type StoryService struct {
	credits *CreditService
	clock   utils.Clock
	logger  *zap.Logger
}

// NewStoryService creates a StoryService
func NewStoryService(credits *CreditService, clock utils.Clock, logger *zap.Logger) *StoryService {
	return &StoryService{credits: credits, clock: clock, logger: logger}
}

func (s *StoryService) stories() *mongo.Collection {
	return config.MongoDB.Collection(config.AppConfig.StoryCollection)
}

func (s *StoryService) plays() *mongo.Collection {
	return config.MongoDB.Collection(config.AppConfig.PlaySessionCollection)
}

// List returns published stories without their node bodies
func (s *StoryService) List(ctx context.Context, limit int64) ([]models.Story, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	cursor, err := s.stories().Find(ctx,
		bson.M{"status": models.StoryStatusPublished},
		options.Find().
			SetSort(bson.D{{Key: "play_count", Value: -1}}).
			SetLimit(limit).
			SetProjection(bson.M{"nodes": 0}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	defer cursor.Close(ctx)

	var stories []models.Story
	if err := cursor.All(ctx, &stories); err != nil {
		return nil, fmt.Errorf("failed to decode stories: %w", err)
	}
	return stories, nil
}

// Get loads a published story, serving from the Redis cache when possible.
// Draft and removed stories are invisible here; moderation paths query the
// collection directly.
func (s *StoryService) Get(ctx context.Context, id primitive.ObjectID) (*models.Story, error) {
	cacheKey := storyCacheKeyPrefix + id.Hex()

	cached, err := config.Redis.Get(ctx, cacheKey).Result()
	if err == nil {
		var story models.Story
		if err := json.Unmarshal([]byte(cached), &story); err == nil {
			// The cache may hold a copy from before a status change
			if !story.IsPublished() {
				observability.CacheHits.WithLabelValues("story_miss").Inc()
				return nil, models.ErrStoryNotFound
			}
			observability.CacheHits.WithLabelValues("story_hit").Inc()
			return &story, nil
		}
	} else if err != redis.Nil {
		s.logger.Warn("story cache read failed", zap.Error(err))
	}
	observability.CacheHits.WithLabelValues("story_miss").Inc()

	var story models.Story
	err = s.stories().FindOne(ctx, bson.M{
		"_id":    id,
		"status": models.StoryStatusPublished,
	}).Decode(&story)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrStoryNotFound
		}
		return nil, fmt.Errorf("failed to load story: %w", err)
	}

	if data, err := json.Marshal(&story); err == nil {
		if err := config.Redis.Set(ctx, cacheKey, data, config.AppConfig.RedisTTL).Err(); err != nil {
			s.logger.Warn("story cache write failed", zap.Error(err))
		}
	}

	return &story, nil
}

// InvalidateCache drops the cached copy of a story
func (s *StoryService) InvalidateCache(ctx context.Context, id primitive.ObjectID) {
	if err := config.Redis.Del(ctx, storyCacheKeyPrefix+id.Hex()).Err(); err != nil {
		s.logger.Warn("story cache invalidation failed", zap.Error(err))
	}
}

// StartPlay opens (or resumes) a play session at the story's start node.
// Starting is free; only choices cost credits.
func (s *StoryService) StartPlay(ctx context.Context, userID, storyID primitive.ObjectID) (*models.PlaySession, error) {
	story, err := s.Get(ctx, storyID)
	if err != nil {
		return nil, err
	}

	var play models.PlaySession
	err = s.plays().FindOne(ctx, bson.M{"user_id": userID, "story_id": storyID}).Decode(&play)
	if err == nil {
		return &play, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("failed to load play session: %w", err)
	}

	now := s.clock.Now()
	play = models.PlaySession{
		UserID:        userID,
		StoryID:       storyID,
		CurrentNodeID: story.StartNodeID,
		Path:          []string{story.StartNodeID},
		StartedAt:     now,
		UpdatedAt:     now,
	}
	result, err := s.plays().InsertOne(ctx, &play)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Concurrent start; reuse the winner's session
			if err := s.plays().FindOne(ctx, bson.M{"user_id": userID, "story_id": storyID}).Decode(&play); err != nil {
				return nil, fmt.Errorf("failed to load play session: %w", err)
			}
			return &play, nil
		}
		return nil, fmt.Errorf("failed to create play session: %w", err)
	}
	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		play.ID = id
	}

	if _, err := s.stories().UpdateOne(ctx, bson.M{"_id": storyID}, bson.M{"$inc": bson.M{"play_count": 1}}); err != nil {
		s.logger.Warn("failed to bump play count", zap.Error(err))
	}
	s.InvalidateCache(ctx, storyID)

	return &play, nil
}

// Choose advances the play session through the chosen branch, spending one
// credit. Reaching an ending marks the session completed and pays the
// completion reward once.
func (s *StoryService) Choose(ctx context.Context, userID, storyID primitive.ObjectID, nextNodeID string) (*models.PlaySession, error) {
	story, err := s.Get(ctx, storyID)
	if err != nil {
		return nil, err
	}

	var play models.PlaySession
	err = s.plays().FindOne(ctx, bson.M{"user_id": userID, "story_id": storyID}).Decode(&play)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrStoryNotPlayed
		}
		return nil, fmt.Errorf("failed to load play session: %w", err)
	}

	current := story.Node(play.CurrentNodeID)
	if current == nil {
		return nil, models.ErrNodeNotFound
	}

	valid := false
	for _, choice := range current.Choices {
		if choice.NextNodeID == nextNodeID {
			valid = true
			break
		}
	}
	if !valid {
		return nil, models.ErrInvalidChoice
	}

	next := story.Node(nextNodeID)
	if next == nil {
		return nil, models.ErrNodeNotFound
	}

	if _, err := s.credits.Spend(ctx, userID, models.ChoiceCreditCost, "story_choice"); err != nil {
		return nil, err
	}

	completed := next.IsEnding()
	update := bson.M{
		"$set": bson.M{
			"current_node_id": nextNodeID,
			"completed":       completed,
			"updated_at":      s.clock.Now(),
		},
		"$push": bson.M{"path": nextNodeID},
	}
	var updated models.PlaySession
	err = s.plays().FindOneAndUpdate(ctx,
		bson.M{"_id": play.ID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		return nil, fmt.Errorf("failed to advance play session: %w", err)
	}

	if completed {
		if err := s.payCompletionReward(ctx, &updated); err != nil {
			s.logger.Warn("failed to pay completion reward",
				zap.String("user_id", userID.Hex()),
				zap.String("story_id", storyID.Hex()),
				zap.Error(err))
		}
	}

	return &updated, nil
}

// payCompletionReward pays the completion bonus exactly once per
// (user, story). The reward_paid flip is a compare-and-set so a replayed
// ending cannot double-pay.
func (s *StoryService) payCompletionReward(ctx context.Context, play *models.PlaySession) error {
	result, err := s.plays().UpdateOne(ctx,
		bson.M{"_id": play.ID, "reward_paid": false},
		bson.M{"$set": bson.M{"reward_paid": true}},
	)
	if err != nil {
		return fmt.Errorf("failed to claim completion reward: %w", err)
	}
	if result.ModifiedCount == 0 {
		return nil
	}

	_, err = s.credits.Earn(ctx, play.UserID, models.CompletionCreditReward, models.CreditEntryEarn, "story_completion")
	return err
}

// Flag raises the moderation flag count on a story
func (s *StoryService) Flag(ctx context.Context, storyID primitive.ObjectID) error {
	result, err := s.stories().UpdateOne(ctx,
		bson.M{"_id": storyID},
		bson.M{"$inc": bson.M{"flag_count": 1}},
	)
	if err != nil {
		return fmt.Errorf("failed to flag story: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrStoryNotFound
	}
	s.InvalidateCache(ctx, storyID)
	return nil
}

// ListFlagged returns stories with open moderation flags, most flagged
// first
func (s *StoryService) ListFlagged(ctx context.Context, limit int64) ([]models.Story, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	cursor, err := s.stories().Find(ctx,
		bson.M{"flag_count": bson.M{"$gt": 0}},
		options.Find().
			SetSort(bson.D{{Key: "flag_count", Value: -1}}).
			SetLimit(limit).
			SetProjection(bson.M{"nodes": 0}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list flagged stories: %w", err)
	}
	defer cursor.Close(ctx)

	var stories []models.Story
	if err := cursor.All(ctx, &stories); err != nil {
		return nil, fmt.Errorf("failed to decode flagged stories: %w", err)
	}
	return stories, nil
}

// Remove takes a story off the catalog (moderation action)
func (s *StoryService) Remove(ctx context.Context, storyID primitive.ObjectID) error {
	result, err := s.stories().UpdateOne(ctx,
		bson.M{"_id": storyID},
		bson.M{"$set": bson.M{
			"status":     models.StoryStatusRemoved,
			"updated_at": s.clock.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to remove story: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrStoryNotFound
	}
	s.InvalidateCache(ctx, storyID)
	return nil
}

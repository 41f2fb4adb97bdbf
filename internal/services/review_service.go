package services

import (
	"context"
	"fmt"

	"github.com/90n9/talepick/internal/config"
	"github.com/90n9/talepick/internal/models"
	"github.com/90n9/talepick/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ReviewService manages story reviews and keeps the story rating aggregates
// in step
type ReviewService struct {
	credits *CreditService
	stories *StoryService
	clock   utils.Clock
	logger  *zap.Logger
}

// NewReviewService creates a ReviewService
func NewReviewService(credits *CreditService, stories *StoryService, clock utils.Clock, logger *zap.Logger) *ReviewService {
	return &ReviewService{credits: credits, stories: stories, clock: clock, logger: logger}
}

func (s *ReviewService) reviews() *mongo.Collection {
	return config.MongoDB.Collection(config.AppConfig.ReviewCollection)
}

// Create adds a review. The unique (story, user) index rejects duplicates,
// so the review reward is paid at most once per pair.
func (s *ReviewService) Create(ctx context.Context, userID, storyID primitive.ObjectID, rating int, text string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, models.ErrInvalidRating
	}

	if _, err := s.stories.Get(ctx, storyID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	review := &models.Review{
		StoryID:   storyID,
		UserID:    userID,
		Rating:    rating,
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}

	result, err := s.reviews().InsertOne(ctx, review)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, models.ErrReviewExists
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		review.ID = id
	}

	_, err = config.MongoDB.Collection(config.AppConfig.StoryCollection).UpdateOne(ctx,
		bson.M{"_id": storyID},
		bson.M{"$inc": bson.M{"rating_sum": rating, "rating_count": 1}},
	)
	if err != nil {
		s.logger.Warn("failed to update story rating aggregates",
			zap.String("story_id", storyID.Hex()),
			zap.Error(err))
	}
	s.stories.InvalidateCache(ctx, storyID)

	if _, err := s.credits.Earn(ctx, userID, models.ReviewCreditReward, models.CreditEntryEarn, "review"); err != nil {
		s.logger.Warn("failed to pay review reward",
			zap.String("user_id", userID.Hex()),
			zap.Error(err))
	}

	return review, nil
}

// ListByStory returns reviews for a story, newest first
func (s *ReviewService) ListByStory(ctx context.Context, storyID primitive.ObjectID, limit int64) ([]models.Review, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	cursor, err := s.reviews().Find(ctx,
		bson.M{"story_id": storyID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer cursor.Close(ctx)

	var reviews []models.Review
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("failed to decode reviews: %w", err)
	}
	return reviews, nil
}

// Flag raises the moderation flag count on a review
func (s *ReviewService) Flag(ctx context.Context, reviewID primitive.ObjectID) error {
	result, err := s.reviews().UpdateOne(ctx,
		bson.M{"_id": reviewID},
		bson.M{"$inc": bson.M{"flag_count": 1}},
	)
	if err != nil {
		return fmt.Errorf("failed to flag review: %w", err)
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ListFlagged returns reviews with open moderation flags
func (s *ReviewService) ListFlagged(ctx context.Context, limit int64) ([]models.Review, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	cursor, err := s.reviews().Find(ctx,
		bson.M{"flag_count": bson.M{"$gt": 0}},
		options.Find().SetSort(bson.D{{Key: "flag_count", Value: -1}}).SetLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list flagged reviews: %w", err)
	}
	defer cursor.Close(ctx)

	var reviews []models.Review
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("failed to decode flagged reviews: %w", err)
	}
	return reviews, nil
}

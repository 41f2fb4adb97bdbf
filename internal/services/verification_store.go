package services

import (
	"context"
	"fmt"
	"time"

	"github.com/90n9/talepick/internal/config"
	"github.com/90n9/talepick/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// VerificationStore persists verification code records. All mutating
// operations are conditional single-document updates so concurrent
// validations coordinate through the database, never through in-process
// locks.
type VerificationStore interface {
	// Insert persists a freshly issued record
	Insert(ctx context.Context, code *models.VerificationCode) error

	// InvalidateLive marks any pending record for (email, purpose) as used
	// so at most one live code exists per pair. Returns the number of
	// records invalidated.
	InvalidateLive(ctx context.Context, email string, purpose models.VerificationPurpose, now time.Time) (int64, error)

	// FindPending returns the newest unused, unexpired record for
	// (email, purpose), or nil when none exists. Records with an exhausted
	// attempt budget are still returned so the validator can report the
	// exhaustion instead of a generic failure. Read-only.
	FindPending(ctx context.Context, email string, purpose models.VerificationPurpose, now time.Time) (*models.VerificationCode, error)

	// RecordAttempt increments the attempt counter only while the budget
	// allows it. Returns models.ErrAttemptsExhausted when the precondition
	// fails, and the post-increment attempt count on success.
	RecordAttempt(ctx context.Context, id primitive.ObjectID) (int, error)

	// MarkUsed consumes the record only while it is still usable. Returns
	// models.ErrAlreadyUsed when another request won the race or the record
	// turned terminal between lookup and consumption.
	MarkUsed(ctx context.Context, id primitive.ObjectID, now time.Time) (*models.VerificationCode, error)

	// CountRecent counts records issued for (email, purpose) since the
	// given instant, regardless of their current state.
	CountRecent(ctx context.Context, email string, purpose models.VerificationPurpose, since time.Time) (int64, error)

	// DeleteExpired removes records past expiry. The TTL index does this
	// passively; the explicit sweep exists for ops tooling.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// mongoVerificationStore is the MongoDB-backed VerificationStore
type mongoVerificationStore struct {
	coll *mongo.Collection
}

// NewVerificationStore returns a VerificationStore backed by the configured
// MongoDB collection
func NewVerificationStore() VerificationStore {
	return &mongoVerificationStore{
		coll: config.MongoDB.Collection(config.AppConfig.VerificationCodeCollection),
	}
}

func (s *mongoVerificationStore) Insert(ctx context.Context, code *models.VerificationCode) error {
	result, err := s.coll.InsertOne(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to insert verification code: %w", err)
	}
	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		code.ID = id
	}
	return nil
}

func (s *mongoVerificationStore) InvalidateLive(ctx context.Context, email string, purpose models.VerificationPurpose, now time.Time) (int64, error) {
	result, err := s.coll.UpdateMany(ctx,
		bson.M{
			"email":      email,
			"purpose":    purpose,
			"used_at":    nil,
			"expires_at": bson.M{"$gt": now},
		},
		bson.M{"$set": bson.M{"used_at": now}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to invalidate live verification codes: %w", err)
	}
	return result.ModifiedCount, nil
}

func (s *mongoVerificationStore) FindPending(ctx context.Context, email string, purpose models.VerificationPurpose, now time.Time) (*models.VerificationCode, error) {
	var code models.VerificationCode
	err := s.coll.FindOne(ctx,
		bson.M{
			"email":      email,
			"purpose":    purpose,
			"used_at":    nil,
			"expires_at": bson.M{"$gt": now},
		},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	).Decode(&code)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find pending verification code: %w", err)
	}
	return &code, nil
}

func (s *mongoVerificationStore) RecordAttempt(ctx context.Context, id primitive.ObjectID) (int, error) {
	// Compare-and-increment: the attempts precondition lives in the filter
	// so two concurrent attempts can never both pass the budget check.
	var code models.VerificationCode
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{
			"_id":     id,
			"used_at": nil,
			"$expr":   bson.M{"$lt": bson.A{"$attempts", "$max_attempts"}},
		},
		bson.M{"$inc": bson.M{"attempts": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&code)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, models.ErrAttemptsExhausted
		}
		return 0, fmt.Errorf("failed to record verification attempt: %w", err)
	}
	return code.Attempts, nil
}

func (s *mongoVerificationStore) MarkUsed(ctx context.Context, id primitive.ObjectID, now time.Time) (*models.VerificationCode, error) {
	// Compare-and-set on used_at, re-checking expiry and the attempt budget
	// at the mutating step so a record that turned terminal after lookup
	// still loses.
	var code models.VerificationCode
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{
			"_id":        id,
			"used_at":    nil,
			"expires_at": bson.M{"$gt": now},
			"$expr":      bson.M{"$lt": bson.A{"$attempts", "$max_attempts"}},
		},
		bson.M{"$set": bson.M{"used_at": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&code)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrAlreadyUsed
		}
		return nil, fmt.Errorf("failed to mark verification code used: %w", err)
	}
	return &code, nil
}

func (s *mongoVerificationStore) CountRecent(ctx context.Context, email string, purpose models.VerificationPurpose, since time.Time) (int64, error) {
	count, err := s.coll.CountDocuments(ctx, bson.M{
		"email":      email,
		"purpose":    purpose,
		"created_at": bson.M{"$gte": since},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count recent verification codes: %w", err)
	}
	return count, nil
}

func (s *mongoVerificationStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.coll.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": now}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired verification codes: %w", err)
	}
	return result.DeletedCount, nil
}

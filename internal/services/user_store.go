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
)

// UserStore persists account records
type UserStore interface {
	// Insert creates the account. Returns models.ErrEmailTaken when the
	// unique email index rejects the document.
	Insert(ctx context.Context, user *models.User) error

	// FindByID loads a user by id, models.ErrUserNotFound when absent
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)

	// FindByEmail loads a user by normalized email, models.ErrUserNotFound
	// when absent
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// EmailExists reports whether any account holds the normalized email
	EmailExists(ctx context.Context, email string) (bool, error)

	// UsernameExists reports whether any account holds the username
	UsernameExists(ctx context.Context, username string) (bool, error)

	// UpdatePassword replaces the stored password hash
	UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string, now time.Time) error

	// SetStatus moves the account to the given status
	SetStatus(ctx context.Context, id primitive.ObjectID, status models.UserStatus, now time.Time) error
}

// mongoUserStore is the MongoDB-backed UserStore
type mongoUserStore struct {
	coll *mongo.Collection
}

// NewUserStore returns a UserStore backed by the configured MongoDB
// collection
func NewUserStore() UserStore {
	return &mongoUserStore{
		coll: config.MongoDB.Collection(config.AppConfig.UserCollection),
	}
}

func (s *mongoUserStore) Insert(ctx context.Context, user *models.User) error {
	result, err := s.coll.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		user.ID = id
	}
	return nil
}

func (s *mongoUserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

func (s *mongoUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.coll.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

func (s *mongoUserStore) EmailExists(ctx context.Context, email string) (bool, error) {
	count, err := s.coll.CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return count > 0, nil
}

func (s *mongoUserStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	count, err := s.coll.CountDocuments(ctx, bson.M{"username": username})
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return count > 0, nil
}

func (s *mongoUserStore) UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string, now time.Time) error {
	result, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"password_hash": passwordHash,
			"updated_at":    now,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

func (s *mongoUserStore) SetStatus(ctx context.Context, id primitive.ObjectID, status models.UserStatus, now time.Time) error {
	result, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"status":     status,
			"updated_at": now,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

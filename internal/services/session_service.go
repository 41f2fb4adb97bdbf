package services

import (
	"context"
	"fmt"
	"time"

	"github.com/90n9/talepick/internal/config"
	"github.com/90n9/talepick/internal/models"
	"github.com/90n9/talepick/internal/observability"
	"github.com/90n9/talepick/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// SessionStore persists authenticated sessions
type SessionStore interface {
	Insert(ctx context.Context, session *models.Session) error

	// Touch slides the expiry forward from now only while the session is
	// both active and unexpired. Returns models.ErrSessionExpired when it
	// is not.
	Touch(ctx context.Context, token string, now time.Time, extension time.Duration) (*models.Session, error)

	// Terminate deactivates the session with the given token
	Terminate(ctx context.Context, token string) error

	// TerminateAll deactivates every active session of a user and returns
	// how many were revoked
	TerminateAll(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

type mongoSessionStore struct{}

// NewSessionStore returns a SessionStore backed by the configured MongoDB
// collection
func NewSessionStore() SessionStore {
	return &mongoSessionStore{}
}

func (s *mongoSessionStore) coll() *mongo.Collection {
	return config.MongoDB.Collection(config.AppConfig.SessionCollection)
}

func (s *mongoSessionStore) Insert(ctx context.Context, session *models.Session) error {
	result, err := s.coll().InsertOne(ctx, session)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		session.ID = id
	}
	return nil
}

func (s *mongoSessionStore) Touch(ctx context.Context, token string, now time.Time, extension time.Duration) (*models.Session, error) {
	// Active flag and expiry are checked together in the filter: an
	// inactive-but-unexpired session must not validate, nor an
	// active-but-expired one.
	var session models.Session
	err := s.coll().FindOneAndUpdate(ctx,
		bson.M{
			"token":      token,
			"active":     true,
			"expires_at": bson.M{"$gt": now},
		},
		bson.M{"$set": bson.M{
			"last_activity_at": now,
			"expires_at":       now.Add(extension),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrSessionExpired
		}
		return nil, fmt.Errorf("failed to touch session: %w", err)
	}
	return &session, nil
}

func (s *mongoSessionStore) Terminate(ctx context.Context, token string) error {
	result, err := s.coll().UpdateOne(ctx,
		bson.M{"token": token},
		bson.M{"$set": bson.M{"active": false}},
	)
	if err != nil {
		return fmt.Errorf("failed to terminate session: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrSessionNotFound
	}
	return nil
}

func (s *mongoSessionStore) TerminateAll(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	result, err := s.coll().UpdateMany(ctx,
		bson.M{"user_id": userID, "active": true},
		bson.M{"$set": bson.M{"active": false}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to terminate sessions: %w", err)
	}
	return result.ModifiedCount, nil
}

// SessionService manages the session lifecycle: creation on successful
// authentication, sliding expiry on activity, explicit and bulk termination
type SessionService struct {
	store     SessionStore
	clock     utils.Clock
	logger    *zap.Logger
	extension time.Duration
}

// NewSessionService creates a SessionService
func NewSessionService(store SessionStore, clock utils.Clock, logger *zap.Logger, extension time.Duration) *SessionService {
	return &SessionService{
		store:     store,
		clock:     clock,
		logger:    logger,
		extension: extension,
	}
}

// Create issues a new session for the user
func (s *SessionService) Create(ctx context.Context, userID primitive.ObjectID, ipAddress, userAgent string) (*models.Session, error) {
	token, err := utils.GenerateSessionToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	now := s.clock.Now()
	session := &models.Session{
		Token:          token,
		UserID:         userID,
		IPAddress:      ipAddress,
		UserAgent:      userAgent,
		Active:         true,
		CreatedAt:      now,
		LastActivityAt: now,
		ExpiresAt:      now.Add(s.extension),
	}
	if err := s.store.Insert(ctx, session); err != nil {
		return nil, err
	}

	observability.SessionsCreated.Inc()
	s.logger.Info("session created",
		zap.String("user_id", userID.Hex()),
		zap.String("token", observability.MaskToken(token)))

	return session, nil
}

// Touch validates the token and slides its expiry forward from now
func (s *SessionService) Touch(ctx context.Context, token string) (*models.Session, error) {
	return s.store.Touch(ctx, token, s.clock.Now(), s.extension)
}

// Terminate ends a single session (logout)
func (s *SessionService) Terminate(ctx context.Context, token string) error {
	return s.store.Terminate(ctx, token)
}

// TerminateAll ends every session of a user, e.g. after a password change
func (s *SessionService) TerminateAll(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	count, err := s.store.TerminateAll(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.logger.Info("terminated all sessions for user",
		zap.String("user_id", userID.Hex()),
		zap.Int64("count", count))
	return count, nil
}

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/90n9/talepick/internal/config"
	"github.com/90n9/talepick/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// SecurityEventService records and queries abuse-monitoring events
type SecurityEventService struct {
	logger *zap.Logger
}

// NewSecurityEventService creates a SecurityEventService
func NewSecurityEventService(logger *zap.Logger) *SecurityEventService {
	return &SecurityEventService{logger: logger}
}

// Record persists a security event. Failures are logged and swallowed so
// telemetry can never break a user flow.
func (s *SecurityEventService) Record(ctx context.Context, event *models.SecurityEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	_, err := config.MongoDB.Collection(config.AppConfig.SecurityEventCollection).InsertOne(ctx, event)
	if err != nil {
		s.logger.Warn("failed to record security event",
			zap.String("kind", event.Kind),
			zap.Error(err))
	}
}

// List returns recent security events, newest first, optionally filtered by
// kind
func (s *SecurityEventService) List(ctx context.Context, kind string, limit int64) ([]models.SecurityEvent, error) {
	filter := bson.M{}
	if kind != "" {
		filter["kind"] = kind
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	cursor, err := config.MongoDB.Collection(config.AppConfig.SecurityEventCollection).Find(
		ctx,
		filter,
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}).SetLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list security events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []models.SecurityEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode security events: %w", err)
	}
	return events, nil
}

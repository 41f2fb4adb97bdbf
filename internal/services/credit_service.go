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

// CreditService manages the credit economy: lazy time-based refill, atomic
// spends, and the ledger trail behind every balance mutation
type CreditService struct {
	clock  utils.Clock
	logger *zap.Logger
}

// NewCreditService creates a CreditService
func NewCreditService(clock utils.Clock, logger *zap.Logger) *CreditService {
	return &CreditService{clock: clock, logger: logger}
}

func (s *CreditService) users() *mongo.Collection {
	return config.MongoDB.Collection(config.AppConfig.UserCollection)
}

func (s *CreditService) ledger() *mongo.Collection {
	return config.MongoDB.Collection(config.AppConfig.CreditLedgerCollection)
}

// refillAmount computes how many credits accrued since lastRefill and the
// new refill anchor. The anchor advances by whole intervals so the
// remainder keeps counting toward the next credit; at the cap it snaps to
// now so a full balance never banks instant credits for later.
func refillAmount(credits, maxCredits int, lastRefill, now time.Time) (int, time.Time) {
	if credits >= maxCredits {
		return 0, now
	}
	elapsed := now.Sub(lastRefill)
	intervals := int(elapsed / models.CreditRefillInterval)
	if intervals <= 0 {
		return 0, lastRefill
	}
	added := intervals
	if credits+added > maxCredits {
		added = maxCredits - credits
		return added, now
	}
	return added, lastRefill.Add(time.Duration(intervals) * models.CreditRefillInterval)
}

// applyRefill folds accrued credits into the stored balance. The update is
// conditional on the refill anchor so two concurrent requests cannot both
// apply the same accrual.
func (s *CreditService) applyRefill(ctx context.Context, user *models.User) error {
	now := s.clock.Now()
	added, newAnchor := refillAmount(user.Credits, user.MaxCredits, user.LastRefillAt, now)
	if added == 0 && newAnchor.Equal(user.LastRefillAt) {
		return nil
	}

	result, err := s.users().UpdateOne(ctx,
		bson.M{"_id": user.ID, "last_refill_at": user.LastRefillAt},
		bson.M{
			"$inc": bson.M{"credits": added},
			"$set": bson.M{"last_refill_at": newAnchor},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to apply credit refill: %w", err)
	}
	if result.ModifiedCount == 0 {
		// Another request refilled first; reload below picks up its result
		return nil
	}

	user.Credits += added
	user.LastRefillAt = newAnchor
	return nil
}

// Balance returns the user's current balance after folding in any accrued
// refill
func (s *CreditService) Balance(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := s.users().FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := s.applyRefill(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Spend deducts amount from the user's balance. The deduction is a single
// conditional update with the balance precondition in the filter, so
// concurrent spends cannot overdraw.
func (s *CreditService) Spend(ctx context.Context, userID primitive.ObjectID, amount int, source string) (*models.CreditLedgerEntry, error) {
	user, err := s.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}

	var updated models.User
	err = s.users().FindOneAndUpdate(ctx,
		bson.M{"_id": userID, "credits": bson.M{"$gte": amount}},
		bson.M{"$inc": bson.M{"credits": -amount}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			s.logger.Debug("credit spend rejected",
				zap.String("user_id", userID.Hex()),
				zap.Int("amount", amount),
				zap.Int("balance", user.Credits),
				zap.String("source", source))
			return nil, models.ErrInsufficientCredits
		}
		return nil, fmt.Errorf("failed to spend credits: %w", err)
	}

	return s.appendLedger(ctx, userID, models.CreditEntrySpend, -amount, updated.Credits, source)
}

// Earn credits the user's balance. Rewards are not capped by the refill
// ceiling; only the timer refill respects MaxCredits.
func (s *CreditService) Earn(ctx context.Context, userID primitive.ObjectID, amount int, entryType, source string) (*models.CreditLedgerEntry, error) {
	var updated models.User
	err := s.users().FindOneAndUpdate(ctx,
		bson.M{"_id": userID},
		bson.M{"$inc": bson.M{"credits": amount}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to earn credits: %w", err)
	}

	return s.appendLedger(ctx, userID, entryType, amount, updated.Credits, source)
}

func (s *CreditService) appendLedger(ctx context.Context, userID primitive.ObjectID, entryType string, amount, balance int, source string) (*models.CreditLedgerEntry, error) {
	entry := &models.CreditLedgerEntry{
		UserID:    userID,
		Type:      entryType,
		Amount:    amount,
		Balance:   balance,
		Source:    source,
		CreatedAt: s.clock.Now(),
	}

	result, err := s.ledger().InsertOne(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("failed to append credit ledger entry: %w", err)
	}
	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		entry.ID = id
	}

	observability.CreditMutations.WithLabelValues(entryType, source).Inc()
	return entry, nil
}

// Ledger returns the user's recent balance mutations, newest first
func (s *CreditService) Ledger(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.CreditLedgerEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	cursor, err := s.ledger().Find(ctx,
		bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list credit ledger: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []models.CreditLedgerEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode credit ledger: %w", err)
	}
	return entries, nil
}

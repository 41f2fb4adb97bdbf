package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/90n9/talepick/internal/models"
	"github.com/90n9/talepick/internal/observability"
	"github.com/90n9/talepick/internal/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CodeSender delivers an issued verification code to its recipient
type CodeSender interface {
	SendVerificationCode(ctx context.Context, email, code string, purpose models.VerificationPurpose) error
}

// SecurityEventRecorder captures abuse telemetry. Implementations must never
// fail the calling flow.
type SecurityEventRecorder interface {
	Record(ctx context.Context, event *models.SecurityEvent)
}

// ValidationError wraps a verification failure with the remaining attempt
// budget so handlers can report it without widening the error taxonomy
type ValidationError struct {
	Err               error
	RemainingAttempts int
}

func (e *ValidationError) Error() string { return e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

// IssueCodeRequest is the input to RequestCode
type IssueCodeRequest struct {
	Email     string
	Purpose   models.VerificationPurpose
	UserID    *primitive.ObjectID
	IPAddress string
	UserAgent string
	Metadata  *models.VerificationMetadata
}

// VerifyCodeResult is returned on successful validation so the caller can
// complete the deferred workflow (account creation, password reset)
type VerifyCodeResult struct {
	Email    string
	Purpose  models.VerificationPurpose
	UserID   *primitive.ObjectID
	Metadata *models.VerificationMetadata
}

// VerificationService issues and validates verification codes. State per
// record moves pending -> used | expired | max_attempts_exceeded; all
// transitions out of pending are terminal and enforced by the store's
// conditional updates.
type VerificationService struct {
	store  VerificationStore
	sender CodeSender
	events SecurityEventRecorder
	clock  utils.Clock
	logger *zap.Logger

	codeTTL     time.Duration
	rateWindow  time.Duration
	rateMaxReqs int
}

// NewVerificationService creates a VerificationService
func NewVerificationService(store VerificationStore, sender CodeSender, events SecurityEventRecorder, clock utils.Clock, logger *zap.Logger, codeTTL, rateWindow time.Duration, rateMaxReqs int) *VerificationService {
	return &VerificationService{
		store:       store,
		sender:      sender,
		events:      events,
		clock:       clock,
		logger:      logger,
		codeTTL:     codeTTL,
		rateWindow:  rateWindow,
		rateMaxReqs: rateMaxReqs,
	}
}

// RequestCode issues a fresh code for (email, purpose). The rate-limit check
// runs before any write so a rejected request never counts against the
// window. Issuing a new code invalidates any prior live one for the pair.
func (s *VerificationService) RequestCode(ctx context.Context, req IssueCodeRequest) (*models.VerificationCode, error) {
	if !req.Purpose.IsValid() {
		return nil, models.ErrInvalidPurpose
	}
	email := utils.NormalizeEmail(req.Email)
	now := s.clock.Now()

	count, err := s.store.CountRecent(ctx, email, req.Purpose, now.Add(-s.rateWindow))
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}
	if count >= int64(s.rateMaxReqs) {
		s.logger.Warn("verification code rate limit exceeded",
			zap.String("email", observability.MaskEmail(email)),
			zap.String("purpose", string(req.Purpose)),
			zap.Int64("recent_requests", count))
		s.events.Record(ctx, &models.SecurityEvent{
			Kind:      models.SecurityEventRateLimitHit,
			Email:     email,
			IPAddress: req.IPAddress,
			UserAgent: req.UserAgent,
			Timestamp: now,
		})
		return nil, models.ErrRateLimitExceeded
	}

	// Best effort: a brief window with two live codes is tolerable, the
	// pending lookup always resolves to the newest one.
	invalidated, err := s.store.InvalidateLive(ctx, email, req.Purpose, now)
	if err != nil {
		return nil, fmt.Errorf("failed to invalidate previous codes: %w", err)
	}
	if invalidated > 0 {
		s.logger.Debug("invalidated previous verification codes",
			zap.String("email", observability.MaskEmail(email)),
			zap.String("purpose", string(req.Purpose)),
			zap.Int64("count", invalidated))
	}

	codeValue, err := utils.GenerateVerificationCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification code: %w", err)
	}

	record := &models.VerificationCode{
		Email:       email,
		Code:        codeValue,
		Purpose:     req.Purpose,
		UserID:      req.UserID,
		Attempts:    0,
		MaxAttempts: models.MaxVerificationAttempts,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.codeTTL),
		IPAddress:   req.IPAddress,
		UserAgent:   req.UserAgent,
		Metadata:    req.Metadata,
	}
	if err := s.store.Insert(ctx, record); err != nil {
		return nil, err
	}

	if err := s.sender.SendVerificationCode(ctx, email, codeValue, req.Purpose); err != nil {
		s.logger.Error("failed to send verification code",
			zap.String("email", observability.MaskEmail(email)),
			zap.String("purpose", string(req.Purpose)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to send verification code: %w", err)
	}

	observability.VerificationCodesIssued.WithLabelValues(string(req.Purpose)).Inc()
	s.logger.Info("verification code issued",
		zap.String("email", observability.MaskEmail(email)),
		zap.String("purpose", string(req.Purpose)))

	return record, nil
}

// VerifyCode validates a submitted code. Wrong code, no code issued, and
// already-consumed code are indistinguishable to the caller so the endpoint
// leaks nothing about which addresses hold live codes.
func (s *VerificationService) VerifyCode(ctx context.Context, email, code string, purpose models.VerificationPurpose, ipAddress, userAgent string) (*VerifyCodeResult, error) {
	if !purpose.IsValid() {
		return nil, models.ErrInvalidPurpose
	}
	email = utils.NormalizeEmail(email)
	now := s.clock.Now()

	record, err := s.store.FindPending(ctx, email, purpose, now)
	if err != nil {
		return nil, err
	}
	if record == nil {
		observability.VerificationOutcomes.WithLabelValues(string(purpose), "no_pending").Inc()
		s.events.Record(ctx, &models.SecurityEvent{
			Kind:      models.SecurityEventInvalidCode,
			Email:     email,
			IPAddress: ipAddress,
			UserAgent: userAgent,
			Detail:    "no pending code",
			Timestamp: now,
		})
		return nil, &ValidationError{Err: models.ErrInvalidOrExpiredCode}
	}

	// An exhausted record stays terminal for every further submission,
	// including the correct code: the caller must request a new one.
	if record.Attempts >= record.MaxAttempts {
		observability.VerificationOutcomes.WithLabelValues(string(purpose), "too_many_attempts").Inc()
		return nil, &ValidationError{Err: models.ErrTooManyAttempts}
	}

	if record.Code != code {
		attempts, err := s.store.RecordAttempt(ctx, record.ID)
		if err != nil {
			if errors.Is(err, models.ErrAttemptsExhausted) {
				// Lost the race for the final attempt
				observability.VerificationOutcomes.WithLabelValues(string(purpose), "too_many_attempts").Inc()
				return nil, &ValidationError{Err: models.ErrTooManyAttempts}
			}
			return nil, err
		}
		if attempts >= record.MaxAttempts {
			observability.VerificationOutcomes.WithLabelValues(string(purpose), "too_many_attempts").Inc()
			s.events.Record(ctx, &models.SecurityEvent{
				Kind:      models.SecurityEventCodeAttemptsUsed,
				Email:     email,
				IPAddress: ipAddress,
				UserAgent: userAgent,
				Timestamp: now,
			})
			return nil, &ValidationError{Err: models.ErrTooManyAttempts}
		}
		observability.VerificationOutcomes.WithLabelValues(string(purpose), "wrong_code").Inc()
		return nil, &ValidationError{
			Err:               models.ErrInvalidOrExpiredCode,
			RemainingAttempts: record.MaxAttempts - attempts,
		}
	}

	consumed, err := s.store.MarkUsed(ctx, record.ID, now)
	if err != nil {
		if errors.Is(err, models.ErrAlreadyUsed) {
			// Double submit or the record expired between lookup and
			// consumption; either way the caller only learns the code no
			// longer validates.
			observability.VerificationOutcomes.WithLabelValues(string(purpose), "consume_race").Inc()
			return nil, &ValidationError{Err: models.ErrInvalidOrExpiredCode}
		}
		return nil, err
	}

	observability.VerificationOutcomes.WithLabelValues(string(purpose), "success").Inc()
	s.logger.Info("verification code consumed",
		zap.String("email", observability.MaskEmail(email)),
		zap.String("purpose", string(purpose)))

	return &VerifyCodeResult{
		Email:    consumed.Email,
		Purpose:  consumed.Purpose,
		UserID:   consumed.UserID,
		Metadata: consumed.Metadata,
	}, nil
}

// SweepExpired removes records past expiry. MongoDB's TTL monitor already
// reaps them in the background; the explicit sweep backs the admin endpoint.
func (s *VerificationService) SweepExpired(ctx context.Context) (int64, error) {
	return s.store.DeleteExpired(ctx, s.clock.Now())
}

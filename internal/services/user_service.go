package services

import (
	"context"
	"fmt"

	"github.com/90n9/talepick/internal/models"
	"github.com/90n9/talepick/internal/observability"
	"github.com/90n9/talepick/internal/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserService manages accounts. Registration and password reset are
// deferred behind the verification flow: nothing is materialized until the
// code is consumed.
type UserService struct {
	store        UserStore
	verification *VerificationService
	sessions     *SessionService
	events       SecurityEventRecorder
	clock        utils.Clock
	logger       *zap.Logger
}

// NewUserService creates a UserService
func NewUserService(store UserStore, verification *VerificationService, sessions *SessionService, events SecurityEventRecorder, clock utils.Clock, logger *zap.Logger) *UserService {
	return &UserService{
		store:        store,
		verification: verification,
		sessions:     sessions,
		events:       events,
		clock:        clock,
		logger:       logger,
	}
}

// GetByID loads a user by id
func (s *UserService) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.store.FindByID(ctx, id)
}

// GetByEmail loads a user by normalized email
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.store.FindByEmail(ctx, utils.NormalizeEmail(email))
}

// BeginRegistration validates the requested account, stashes it in a
// verification code's metadata, and emails the code. The account does not
// exist until the code is verified.
func (s *UserService) BeginRegistration(ctx context.Context, email, username, password, displayName, ipAddress, userAgent string) error {
	email = utils.NormalizeEmail(email)
	if !utils.IsValidEmail(email) {
		return fmt.Errorf("invalid email address")
	}
	if !utils.IsValidUsername(username) {
		return fmt.Errorf("invalid username")
	}

	taken, err := s.store.EmailExists(ctx, email)
	if err != nil {
		return err
	}
	if taken {
		return models.ErrEmailTaken
	}

	taken, err = s.store.UsernameExists(ctx, username)
	if err != nil {
		return err
	}
	if taken {
		return models.ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	_, err = s.verification.RequestCode(ctx, IssueCodeRequest{
		Email:     email,
		Purpose:   models.PurposeRegistration,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Metadata: &models.VerificationMetadata{
			Username:     username,
			PasswordHash: string(hash),
			DisplayName:  displayName,
			Source:       "registration",
		},
	})
	return err
}

// CompleteRegistration consumes the verification result and materializes
// the account that was stashed in the code's metadata
func (s *UserService) CompleteRegistration(ctx context.Context, result *VerifyCodeResult) (*models.User, error) {
	if result.Metadata == nil || result.Metadata.Username == "" {
		return nil, fmt.Errorf("verification result carries no pending account")
	}

	now := s.clock.Now()
	user := &models.User{
		Email:        result.Email,
		Username:     result.Metadata.Username,
		DisplayName:  result.Metadata.DisplayName,
		PasswordHash: result.Metadata.PasswordHash,
		Role:         models.RoleReader,
		Status:       models.UserStatusActive,
		Credits:      models.BaseMaxCredits,
		MaxCredits:   models.BaseMaxCredits,
		LastRefillAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Insert(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		zap.String("user_id", user.ID.Hex()),
		zap.String("email", observability.MaskEmail(user.Email)))

	return user, nil
}

// Login checks credentials and returns the user. Failures are recorded as
// security events with a single user-facing error so credential probing
// learns nothing.
func (s *UserService) Login(ctx context.Context, email, password, ipAddress, userAgent string) (*models.User, error) {
	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		if err == models.ErrUserNotFound {
			s.recordLoginFailure(ctx, email, ipAddress, userAgent, "unknown email")
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.recordLoginFailure(ctx, email, ipAddress, userAgent, "wrong password")
		return nil, models.ErrInvalidCredentials
	}

	if user.IsBanned() {
		return nil, models.ErrUserBanned
	}

	return user, nil
}

func (s *UserService) recordLoginFailure(ctx context.Context, email, ipAddress, userAgent, detail string) {
	s.events.Record(ctx, &models.SecurityEvent{
		Kind:      models.SecurityEventLoginFailed,
		Email:     utils.NormalizeEmail(email),
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Detail:    detail,
		Timestamp: s.clock.Now(),
	})
}

// BeginLoginVerification issues a login code for an existing, active
// account. Unknown and banned addresses get the same response and no code,
// so the endpoint cannot be used to enumerate accounts or to mail codes to
// addresses that cannot log in.
func (s *UserService) BeginLoginVerification(ctx context.Context, email, ipAddress, userAgent string) error {
	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		if err == models.ErrUserNotFound {
			return nil
		}
		return err
	}
	if user.IsBanned() {
		return nil
	}

	_, err = s.verification.RequestCode(ctx, IssueCodeRequest{
		Email:     user.Email,
		Purpose:   models.PurposeLoginVerification,
		UserID:    &user.ID,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Metadata:  &models.VerificationMetadata{Source: "login_verification"},
	})
	return err
}

// CompleteLoginVerification resolves the account behind a consumed login
// code. The ban check runs again here: a ban landing between code issuance
// and code consumption still blocks the login.
func (s *UserService) CompleteLoginVerification(ctx context.Context, result *VerifyCodeResult) (*models.User, error) {
	user, err := s.GetByEmail(ctx, result.Email)
	if err != nil {
		return nil, err
	}
	if user.IsBanned() {
		return nil, models.ErrUserBanned
	}
	return user, nil
}

// BeginPasswordReset issues a password-reset code for an existing account.
// Unknown addresses get the same response so the endpoint cannot be used to
// enumerate accounts; no code is issued for them.
func (s *UserService) BeginPasswordReset(ctx context.Context, email, ipAddress, userAgent string) error {
	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		if err == models.ErrUserNotFound {
			return nil
		}
		return err
	}

	_, err = s.verification.RequestCode(ctx, IssueCodeRequest{
		Email:     user.Email,
		Purpose:   models.PurposePasswordReset,
		UserID:    &user.ID,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Metadata:  &models.VerificationMetadata{Source: "password_reset"},
	})
	return err
}

// CompletePasswordReset sets the new password and revokes every session of
// the account
func (s *UserService) CompletePasswordReset(ctx context.Context, result *VerifyCodeResult, newPassword string) error {
	if result.UserID == nil {
		return models.ErrUserNotFound
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.store.UpdatePassword(ctx, *result.UserID, string(hash), s.clock.Now()); err != nil {
		return err
	}

	revoked, err := s.sessions.TerminateAll(ctx, *result.UserID)
	if err != nil {
		return err
	}
	s.events.Record(ctx, &models.SecurityEvent{
		Kind:      models.SecurityEventSessionsRevoked,
		Email:     result.Email,
		UserID:    result.UserID,
		Detail:    fmt.Sprintf("password reset revoked %d sessions", revoked),
		Timestamp: s.clock.Now(),
	})

	return nil
}

// Ban blocks an account and revokes all its sessions
func (s *UserService) Ban(ctx context.Context, userID primitive.ObjectID) error {
	if err := s.store.SetStatus(ctx, userID, models.UserStatusBanned, s.clock.Now()); err != nil {
		return err
	}

	if _, err := s.sessions.TerminateAll(ctx, userID); err != nil {
		return err
	}

	s.events.Record(ctx, &models.SecurityEvent{
		Kind:      models.SecurityEventUserBanned,
		UserID:    &userID,
		Timestamp: s.clock.Now(),
	})

	return nil
}

package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/90n9/talepick/internal/models"
	"github.com/90n9/talepick/internal/utils"
)

// fakeUserStore keeps accounts in memory with the unique-index semantics of
// the MongoDB store
type fakeUserStore struct {
	users []*models.User
}

func (s *fakeUserStore) Insert(_ context.Context, user *models.User) error {
	for _, u := range s.users {
		if u.Email == user.Email {
			return models.ErrEmailTaken
		}
	}
	user.ID = primitive.NewObjectID()
	s.users = append(s.users, user)
	return nil
}

func (s *fakeUserStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			copied := *u
			return &copied, nil
		}
	}
	return nil, models.ErrUserNotFound
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, models.ErrUserNotFound
}

func (s *fakeUserStore) EmailExists(_ context.Context, email string) (bool, error) {
	for _, u := range s.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeUserStore) UsernameExists(_ context.Context, username string) (bool, error) {
	for _, u := range s.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeUserStore) UpdatePassword(_ context.Context, id primitive.ObjectID, passwordHash string, now time.Time) error {
	for _, u := range s.users {
		if u.ID == id {
			u.PasswordHash = passwordHash
			u.UpdatedAt = now
			return nil
		}
	}
	return models.ErrUserNotFound
}

func (s *fakeUserStore) SetStatus(_ context.Context, id primitive.ObjectID, status models.UserStatus, now time.Time) error {
	for _, u := range s.users {
		if u.ID == id {
			u.Status = status
			u.UpdatedAt = now
			return nil
		}
	}
	return models.ErrUserNotFound
}

type userServiceFixture struct {
	users        *UserService
	store        *fakeUserStore
	sessions     *SessionService
	sessionStore *fakeSessionStore
	sender       *fakeSender
	events       *fakeEvents
	clock        *utils.FakeClock
}

func newTestUserService() *userServiceFixture {
	store := &fakeUserStore{}
	sessionStore := &fakeSessionStore{}
	sender := &fakeSender{}
	events := &fakeEvents{}
	clock := utils.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	verification := NewVerificationService(&fakeVerificationStore{}, sender, events, clock, zap.NewNop(), testCodeTTL, testRateWindow, testRateMax)
	sessions := NewSessionService(sessionStore, clock, zap.NewNop(), testSessionWindow)
	return &userServiceFixture{
		users:        NewUserService(store, verification, sessions, events, clock, zap.NewNop()),
		store:        store,
		sessions:     sessions,
		sessionStore: sessionStore,
		sender:       sender,
		events:       events,
		clock:        clock,
	}
}

func (f *userServiceFixture) seedUser(t *testing.T, email, password string, status models.UserStatus) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		Email:        email,
		Username:     "reader_one",
		PasswordHash: string(hash),
		Role:         models.RoleReader,
		Status:       status,
		Credits:      models.BaseMaxCredits,
		MaxCredits:   models.BaseMaxCredits,
		LastRefillAt: f.clock.Now(),
		CreatedAt:    f.clock.Now(),
		UpdatedAt:    f.clock.Now(),
	}
	require.NoError(t, f.store.Insert(context.Background(), user))
	return user
}

func TestRegistrationFlow(t *testing.T) {
	f := newTestUserService()
	ctx := context.Background()

	err := f.users.BeginRegistration(ctx, "Reader@Example.COM", "reader_one", "s3cretpass", "Reader One", "", "")
	require.NoError(t, err)

	// Nothing is materialized until the code is verified
	_, err = f.users.GetByEmail(ctx, testEmail)
	assert.ErrorIs(t, err, models.ErrUserNotFound)

	result, err := f.users.verification.VerifyCode(ctx, testEmail, f.sender.lastCode(), models.PurposeRegistration, "", "")
	require.NoError(t, err)

	user, err := f.users.CompleteRegistration(ctx, result)
	require.NoError(t, err)
	assert.Equal(t, testEmail, user.Email)
	assert.Equal(t, "reader_one", user.Username)
	assert.Equal(t, models.RoleReader, user.Role)
	assert.Equal(t, models.BaseMaxCredits, user.Credits)
	assert.Equal(t, models.BaseMaxCredits, user.MaxCredits)
}

func TestBeginRegistration_TakenIdentifiers(t *testing.T) {
	f := newTestUserService()
	ctx := context.Background()
	f.seedUser(t, testEmail, "s3cretpass", models.UserStatusActive)

	err := f.users.BeginRegistration(ctx, testEmail, "another_name", "s3cretpass", "", "", "")
	assert.ErrorIs(t, err, models.ErrEmailTaken)

	err = f.users.BeginRegistration(ctx, "other@example.com", "reader_one", "s3cretpass", "", "", "")
	assert.ErrorIs(t, err, models.ErrUsernameTaken)
}

func TestLogin_BannedAccount(t *testing.T) {
	f := newTestUserService()
	f.seedUser(t, testEmail, "s3cretpass", models.UserStatusBanned)

	_, err := f.users.Login(context.Background(), testEmail, "s3cretpass", "", "")
	assert.ErrorIs(t, err, models.ErrUserBanned)
}

func TestBeginLoginVerification_UnknownEmailIssuesNothing(t *testing.T) {
	f := newTestUserService()

	err := f.users.BeginLoginVerification(context.Background(), "nobody@example.com", "", "")
	require.NoError(t, err)
	assert.Empty(t, f.sender.sent)
}

func TestBeginLoginVerification_BannedAccountIssuesNothing(t *testing.T) {
	f := newTestUserService()
	f.seedUser(t, testEmail, "s3cretpass", models.UserStatusBanned)

	err := f.users.BeginLoginVerification(context.Background(), testEmail, "", "")
	require.NoError(t, err)
	assert.Empty(t, f.sender.sent)
}

func TestLoginVerificationFlow(t *testing.T) {
	f := newTestUserService()
	ctx := context.Background()
	seeded := f.seedUser(t, testEmail, "s3cretpass", models.UserStatusActive)

	require.NoError(t, f.users.BeginLoginVerification(ctx, testEmail, "", ""))
	require.NotEmpty(t, f.sender.sent)

	result, err := f.users.verification.VerifyCode(ctx, testEmail, f.sender.lastCode(), models.PurposeLoginVerification, "", "")
	require.NoError(t, err)

	user, err := f.users.CompleteLoginVerification(ctx, result)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, user.ID)
}

func TestCompleteLoginVerification_BannedAccount(t *testing.T) {
	f := newTestUserService()
	ctx := context.Background()
	user := f.seedUser(t, testEmail, "s3cretpass", models.UserStatusActive)

	require.NoError(t, f.users.BeginLoginVerification(ctx, testEmail, "", ""))
	result, err := f.users.verification.VerifyCode(ctx, testEmail, f.sender.lastCode(), models.PurposeLoginVerification, "", "")
	require.NoError(t, err)

	// The ban lands between code issuance and code consumption
	require.NoError(t, f.store.SetStatus(ctx, user.ID, models.UserStatusBanned, f.clock.Now()))

	_, err = f.users.CompleteLoginVerification(ctx, result)
	assert.ErrorIs(t, err, models.ErrUserBanned)
}

func TestPasswordResetFlow(t *testing.T) {
	f := newTestUserService()
	ctx := context.Background()
	user := f.seedUser(t, testEmail, "oldpassword", models.UserStatusActive)

	session, err := f.sessions.Create(ctx, user.ID, "", "")
	require.NoError(t, err)

	require.NoError(t, f.users.BeginPasswordReset(ctx, testEmail, "", ""))

	result, err := f.users.verification.VerifyCode(ctx, testEmail, f.sender.lastCode(), models.PurposePasswordReset, "", "")
	require.NoError(t, err)

	require.NoError(t, f.users.CompletePasswordReset(ctx, result, "newpassword"))

	// The old password no longer works, the new one does
	_, err = f.users.Login(ctx, testEmail, "oldpassword", "", "")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	_, err = f.users.Login(ctx, testEmail, "newpassword", "", "")
	assert.NoError(t, err)

	// Every session is revoked
	_, err = f.sessions.Touch(ctx, session.Token)
	assert.ErrorIs(t, err, models.ErrSessionExpired)
	assert.True(t, f.events.has(models.SecurityEventSessionsRevoked))
}

func TestBeginPasswordReset_UnknownEmailIssuesNothing(t *testing.T) {
	f := newTestUserService()

	err := f.users.BeginPasswordReset(context.Background(), "nobody@example.com", "", "")
	require.NoError(t, err)
	assert.Empty(t, f.sender.sent)
}

func TestBan_RevokesSessions(t *testing.T) {
	f := newTestUserService()
	ctx := context.Background()
	user := f.seedUser(t, testEmail, "s3cretpass", models.UserStatusActive)

	session, err := f.sessions.Create(ctx, user.ID, "", "")
	require.NoError(t, err)

	require.NoError(t, f.users.Ban(ctx, user.ID))

	banned, err := f.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, banned.IsBanned())

	_, err = f.sessions.Touch(ctx, session.Token)
	assert.ErrorIs(t, err, models.ErrSessionExpired)
	assert.True(t, f.events.has(models.SecurityEventUserBanned))
}

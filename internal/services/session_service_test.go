package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/90n9/talepick/internal/models"
	"github.com/90n9/talepick/internal/utils"
)

// fakeSessionStore mirrors the conditional-update semantics of the MongoDB
// store in memory
type fakeSessionStore struct {
	sessions []*models.Session
}

func (s *fakeSessionStore) Insert(_ context.Context, session *models.Session) error {
	session.ID = primitive.NewObjectID()
	s.sessions = append(s.sessions, session)
	return nil
}

func (s *fakeSessionStore) Touch(_ context.Context, token string, now time.Time, extension time.Duration) (*models.Session, error) {
	for _, sess := range s.sessions {
		if sess.Token != token || !sess.IsValid(now) {
			continue
		}
		sess.LastActivityAt = now
		sess.ExpiresAt = now.Add(extension)
		copied := *sess
		return &copied, nil
	}
	return nil, models.ErrSessionExpired
}

func (s *fakeSessionStore) Terminate(_ context.Context, token string) error {
	for _, sess := range s.sessions {
		if sess.Token == token {
			sess.Active = false
			return nil
		}
	}
	return models.ErrSessionNotFound
}

func (s *fakeSessionStore) TerminateAll(_ context.Context, userID primitive.ObjectID) (int64, error) {
	var count int64
	for _, sess := range s.sessions {
		if sess.UserID == userID && sess.Active {
			sess.Active = false
			count++
		}
	}
	return count, nil
}

const testSessionWindow = 7 * 24 * time.Hour

func newTestSessionService() (*SessionService, *fakeSessionStore, *utils.FakeClock) {
	store := &fakeSessionStore{}
	clock := utils.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	return NewSessionService(store, clock, zap.NewNop(), testSessionWindow), store, clock
}

func TestSessionCreate(t *testing.T) {
	svc, _, clock := newTestSessionService()
	userID := primitive.NewObjectID()

	session, err := svc.Create(context.Background(), userID, "203.0.113.7", "test-agent")
	require.NoError(t, err)

	assert.Len(t, session.Token, 64)
	assert.Equal(t, userID, session.UserID)
	assert.True(t, session.Active)
	assert.Equal(t, clock.Now().Add(testSessionWindow), session.ExpiresAt)
}

func TestSessionSlidingExpiry(t *testing.T) {
	svc, _, clock := newTestSessionService()
	ctx := context.Background()

	session, err := svc.Create(ctx, primitive.NewObjectID(), "", "")
	require.NoError(t, err)
	created := clock.Now()

	// Activity on day 6 slides the expiry to day 13
	clock.Advance(6 * 24 * time.Hour)
	touched, err := svc.Touch(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, created.Add(13*24*time.Hour), touched.ExpiresAt)

	// Day 12 is still within the extended window
	clock.Advance(6 * 24 * time.Hour)
	_, err = svc.Touch(ctx, session.Token)
	assert.NoError(t, err)
}

func TestSessionExpiresWithoutActivity(t *testing.T) {
	svc, _, clock := newTestSessionService()
	ctx := context.Background()

	session, err := svc.Create(ctx, primitive.NewObjectID(), "", "")
	require.NoError(t, err)

	clock.Advance(testSessionWindow)
	_, err = svc.Touch(ctx, session.Token)
	assert.ErrorIs(t, err, models.ErrSessionExpired)
}

func TestSessionTerminate(t *testing.T) {
	svc, _, _ := newTestSessionService()
	ctx := context.Background()

	session, err := svc.Create(ctx, primitive.NewObjectID(), "", "")
	require.NoError(t, err)

	require.NoError(t, svc.Terminate(ctx, session.Token))

	// A terminated session no longer validates even though it is unexpired
	_, err = svc.Touch(ctx, session.Token)
	assert.ErrorIs(t, err, models.ErrSessionExpired)

	err = svc.Terminate(ctx, "unknown-token")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestSessionTerminateAll(t *testing.T) {
	svc, _, _ := newTestSessionService()
	ctx := context.Background()
	userID := primitive.NewObjectID()
	otherID := primitive.NewObjectID()

	first, err := svc.Create(ctx, userID, "", "")
	require.NoError(t, err)
	second, err := svc.Create(ctx, userID, "", "")
	require.NoError(t, err)
	other, err := svc.Create(ctx, otherID, "", "")
	require.NoError(t, err)

	count, err := svc.TerminateAll(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	_, err = svc.Touch(ctx, first.Token)
	assert.ErrorIs(t, err, models.ErrSessionExpired)
	_, err = svc.Touch(ctx, second.Token)
	assert.ErrorIs(t, err, models.ErrSessionExpired)

	// Other users keep their sessions
	_, err = svc.Touch(ctx, other.Token)
	assert.NoError(t, err)
}

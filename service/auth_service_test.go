package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamgate/streamgate/adapters/directory"
	"github.com/streamgate/streamgate/adapters/store"
	"github.com/streamgate/streamgate/core"
)

func newTestAuthService(t *testing.T, failFloor time.Duration) *AuthService {
	t.Helper()
	users := directory.NewMemoryDirectory()
	require.NoError(t, users.AddUser("u1", "alice@example.com", "correct horse"))
	return NewAuthService(users, store.NewMemoryStore(), nil, AuthConfig{
		SessionTTL: time.Hour,
		FailFloor:  failFloor,
	})
}

func TestLoginSuccess(t *testing.T) {
	svc := newTestAuthService(t, 10*time.Millisecond)
	ctx := context.Background()

	sess, err := svc.Login(ctx, "alice@example.com", "correct horse", "ua", "198.51.100.1")
	require.NoError(t, err)
	assert.Equal(t, "u1", sess.SubjectID)
	assert.GreaterOrEqual(t, len(sess.ID), 43) // 256 bits base64url
	assert.True(t, sess.ExpiresAt.After(sess.CreatedAt))

	got, err := svc.Validate(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
}

func TestLoginFailuresIndistinguishable(t *testing.T) {
	floor := 40 * time.Millisecond
	svc := newTestAuthService(t, floor)
	ctx := context.Background()

	startWrong := time.Now()
	_, errWrong := svc.Login(ctx, "alice@example.com", "not the password", "", "")
	wrongLatency := time.Since(startWrong)

	startUnknown := time.Now()
	_, errUnknown := svc.Login(ctx, "nobody@example.com", "whatever", "", "")
	unknownLatency := time.Since(startUnknown)

	// Identical error value, so the response shape cannot differ.
	assert.ErrorIs(t, errWrong, core.ErrInvalidCredentials)
	assert.ErrorIs(t, errUnknown, core.ErrInvalidCredentials)
	assert.Equal(t, errWrong, errUnknown)

	// Both paths respect the latency floor and land close together.
	assert.GreaterOrEqual(t, wrongLatency, floor)
	assert.GreaterOrEqual(t, unknownLatency, floor)
	diff := wrongLatency - unknownLatency
	if diff < 0 {
		diff = -diff
	}
	assert.Less(t, diff, 30*time.Millisecond)
}

func TestLoginFloorHonorsContext(t *testing.T) {
	svc := newTestAuthService(t, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := svc.Login(ctx, "nobody@example.com", "pw", "", "")
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestSessionIDsUnique(t *testing.T) {
	svc := newTestAuthService(t, time.Millisecond)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		sess, err := svc.CreateSession(ctx, "u1", "", "")
		require.NoError(t, err)
		require.False(t, seen[sess.ID], "duplicate session id")
		seen[sess.ID] = true
	}
}

func TestLogoutRevokes(t *testing.T) {
	svc := newTestAuthService(t, time.Millisecond)
	ctx := context.Background()

	sess, err := svc.Login(ctx, "alice@example.com", "correct horse", "", "")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, sess.ID))

	_, err = svc.Validate(ctx, sess.ID)
	assert.ErrorIs(t, err, core.ErrSessionInvalid)

	// Idempotent.
	assert.NoError(t, svc.Logout(ctx, sess.ID))
}

func TestLogoutAllCountsSessions(t *testing.T) {
	svc := newTestAuthService(t, time.Millisecond)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		sess, err := svc.CreateSession(ctx, "u1", "", "")
		require.NoError(t, err)
		ids = append(ids, sess.ID)
	}

	count, err := svc.LogoutAll(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	for _, id := range ids {
		_, err := svc.Validate(ctx, id)
		assert.ErrorIs(t, err, core.ErrSessionInvalid)
	}
}

func TestValidateEmptyID(t *testing.T) {
	svc := newTestAuthService(t, time.Millisecond)

	_, err := svc.Validate(context.Background(), "")
	assert.ErrorIs(t, err, core.ErrSessionInvalid)
}

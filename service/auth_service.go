package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/streamgate/streamgate/core"
	"github.com/streamgate/streamgate/ports"
)

// dummyHash soaks up a bcrypt comparison when the account does not exist,
// so unknown-user and wrong-password take the same code path.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// AuthService handles credential authentication and the session lifecycle.
type AuthService struct {
	users    ports.UserDirectory
	sessions ports.SessionStore
	events   ports.EventPublisher

	sessionTTL time.Duration
	failFloor  time.Duration
}

// AuthConfig carries the explicit knobs for an AuthService; there are no
// ambient globals.
type AuthConfig struct {
	SessionTTL time.Duration // default 24h
	FailFloor  time.Duration // minimum latency of a failed login, default 500ms
}

// NewAuthService creates a new authentication service.
func NewAuthService(users ports.UserDirectory, sessions ports.SessionStore, events ports.EventPublisher, cfg AuthConfig) *AuthService {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.FailFloor <= 0 {
		cfg.FailFloor = 500 * time.Millisecond
	}
	return &AuthService{
		users:      users,
		sessions:   sessions,
		events:     events,
		sessionTTL: cfg.SessionTTL,
		failFloor:  cfg.FailFloor,
	}
}

// Login authenticates credentials and creates a session. Every failure
// (unknown user or wrong password) returns the same error after the same
// minimum latency, so the two are indistinguishable externally.
func (s *AuthService) Login(ctx context.Context, email, password, userAgent, ipAddress string) (core.Session, error) {
	start := time.Now()

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		s.holdUntilFloor(ctx, start)
		return core.Session{}, core.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.holdUntilFloor(ctx, start)
		return core.Session{}, core.ErrInvalidCredentials
	}

	sess, err := s.createSession(ctx, user.ID, userAgent, ipAddress)
	if err != nil {
		return core.Session{}, err
	}

	s.publish(ctx, ports.AuditEvent{Type: ports.EventLogin, SubjectID: user.ID, At: time.Now()})
	return sess, nil
}

// CreateSession issues a session for an already-authenticated subject.
func (s *AuthService) CreateSession(ctx context.Context, subjectID, userAgent, ipAddress string) (core.Session, error) {
	return s.createSession(ctx, subjectID, userAgent, ipAddress)
}

func (s *AuthService) createSession(ctx context.Context, subjectID, userAgent, ipAddress string) (core.Session, error) {
	id, err := newSessionID()
	if err != nil {
		return core.Session{}, core.Wrap(core.E(core.KindInternal, "failed to generate session id"), err)
	}

	now := time.Now()
	sess := core.Session{
		ID:        id,
		SubjectID: subjectID,
		UserAgent: userAgent,
		IPAddress: ipAddress,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}

	if err := s.sessions.Create(ctx, sess); err != nil {
		return core.Session{}, err
	}
	return sess, nil
}

// Validate looks up a session by id. ErrSessionInvalid means the session is
// absent or expired; ErrStoreUnavailable means the answer is unknown and
// must not be treated as unauthenticated.
func (s *AuthService) Validate(ctx context.Context, sessionID string) (core.Session, error) {
	if sessionID == "" {
		return core.Session{}, core.ErrSessionInvalid
	}
	return s.sessions.Get(ctx, sessionID)
}

// Logout revokes a session. Idempotent.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		return err
	}
	if err == nil {
		s.publish(ctx, ports.AuditEvent{Type: ports.EventLogout, SubjectID: sess.SubjectID, At: time.Now()})
	}
	return nil
}

// LogoutAll revokes every session of a subject, for password change or
// forced logout-everywhere, and returns the revoked count.
func (s *AuthService) LogoutAll(ctx context.Context, subjectID string) (int, error) {
	count, err := s.sessions.RevokeAllForSubject(ctx, subjectID)
	if err != nil {
		return count, err
	}
	s.publish(ctx, ports.AuditEvent{Type: ports.EventLogoutAll, SubjectID: subjectID, Detail: fmt.Sprintf("%d sessions", count), At: time.Now()})
	return count, nil
}

// SessionTTL exposes the configured lifetime; the transport needs it for
// cookie Max-Age.
func (s *AuthService) SessionTTL() time.Duration { return s.sessionTTL }

// holdUntilFloor blocks until the failure has taken at least failFloor
// since start, honoring the caller's deadline.
func (s *AuthService) holdUntilFloor(ctx context.Context, start time.Time) {
	remaining := s.failFloor - time.Since(start)
	if remaining <= 0 {
		return
	}
	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// publish fires an audit event; failures never fail the request.
func (s *AuthService) publish(ctx context.Context, event ports.AuditEvent) {
	if s.events == nil {
		return
	}
	_ = s.events.Publish(ctx, event)
}

// newSessionID returns a 256-bit random identifier.
func newSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

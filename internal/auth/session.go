package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hugh/go-folio/internal/database/models"
	"github.com/hugh/go-folio/internal/store"
	"github.com/hugh/go-folio/pkg/crypto"
)

const (
	DefaultSessionTTL = 7 * 24 * time.Hour

	sessionTokenBytes  = 32
	sessionTokenPrefix = "session_"
)

// SessionManager issues, resolves and revokes session tokens. Expiry is
// checked on every read; expired rows are left for the store to hold.
type SessionManager struct {
	sessions store.SessionRepository
	users    store.UserRepository
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionManager(sessions store.SessionRepository, users store.UserRepository, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionManager{
		sessions: sessions,
		users:    users,
		ttl:      ttl,
		now:      time.Now,
	}
}

// WithClock replaces the time source. Tests use it to move past expiry.
func (m *SessionManager) WithClock(now func() time.Time) *SessionManager {
	m.now = now
	return m
}

func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

func (m *SessionManager) CreateSession(ctx context.Context, userID string) (*models.Session, error) {
	token, err := crypto.GenerateToken(sessionTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generating session token: %w", err)
	}
	return m.CreateSessionWithToken(ctx, userID, sessionTokenPrefix+token)
}

// CreateSessionWithToken stores a session under a token issued elsewhere.
// Presenting the same token again rebinds it and restarts its lifetime.
func (m *SessionManager) CreateSessionWithToken(ctx context.Context, userID, token string) (*models.Session, error) {
	now := m.now().UTC()
	session := &models.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: now.Add(m.ttl),
		CreatedAt: now,
	}

	err := m.sessions.Create(ctx, session)
	if errors.Is(err, store.ErrDuplicate) {
		if err = m.sessions.Delete(ctx, token); err == nil {
			err = m.sessions.Create(ctx, session)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return session, nil
}

// Resolve maps a token to its user. Authentication failures are *AuthError;
// any other error is a persistence fault.
func (m *SessionManager) Resolve(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, &AuthError{Kind: NoToken}
	}

	session, err := m.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &AuthError{Kind: InvalidSession}
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}

	if session.ExpiredAt(m.now()) {
		return nil, &AuthError{Kind: SessionExpired}
	}

	user, err := m.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &AuthError{Kind: UserNotFound}
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}
	return user, nil
}

// Revoke deletes the session. Revoking an unknown token succeeds.
func (m *SessionManager) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return m.sessions.Delete(ctx, token)
}

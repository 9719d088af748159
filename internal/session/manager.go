// Package session implements login, per-request authentication and logout on
// top of signed tokens backed by a server-side session table.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"REMINDME_BACK-END/internal/common"
	"REMINDME_BACK-END/internal/models"
)

const DefaultTTL = 24 * time.Hour

// Verifier checks a username/password pair.
type Verifier interface {
	Verify(ctx context.Context, username, password string) (*models.User, error)
}

// Manager binds authenticated users to sessions.
type Manager struct {
	verifier Verifier
	store    *MemoryStore
	signer   *Signer
	ttl      time.Duration
	now      func() time.Time
}

type Option func(*Manager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(verifier Verifier, store *MemoryStore, signer *Signer, ttl time.Duration, opts ...Option) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m := &Manager{
		verifier: verifier,
		store:    store,
		signer:   signer,
		ttl:      ttl,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Login verifies credentials and establishes a new session.
func (m *Manager) Login(ctx context.Context, username, password string) (*models.Session, error) {
	u, err := m.verifier.Verify(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return m.Establish(ctx, u.ID)
}

// Establish creates a session for an already authenticated user.
func (m *Manager) Establish(_ context.Context, userID int64) (*models.Session, error) {
	now := m.now()
	s := models.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	token, err := m.signer.Sign(s.ID, s.UserID, s.CreatedAt, s.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}
	s.Token = token

	m.store.Put(s)
	return &s, nil
}

// Authenticate resolves a token to its user id. Any token that is malformed,
// tampered with, expired or logged out yields common.ErrUnauthenticated.
func (m *Manager) Authenticate(_ context.Context, token string) (int64, error) {
	if token == "" {
		return 0, common.ErrUnauthenticated
	}
	now := m.now()

	claims, err := m.signer.Parse(token, now)
	if err != nil {
		return 0, common.ErrUnauthenticated
	}

	s, ok := m.store.Get(claims.ID)
	if !ok || s.UserID != claims.UserID || s.Expired(now) {
		return 0, common.ErrUnauthenticated
	}
	return s.UserID, nil
}

// Logout destroys the session behind token. Unknown or invalid tokens are
// ignored.
func (m *Manager) Logout(_ context.Context, token string) {
	if token == "" {
		return
	}
	claims, err := m.signer.ParseIgnoringExpiry(token)
	if err != nil {
		return
	}
	m.store.Delete(claims.ID)
}

// Sweep drops expired sessions and returns how many were removed.
func (m *Manager) Sweep(_ context.Context) int {
	return m.store.DeleteExpired(m.now())
}

// TTL is the lifetime of new sessions.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// IssueState returns a signed OAuth state value.
func (m *Manager) IssueState() (string, error) {
	return m.signer.IssueState(m.now())
}

// VerifyState checks a value returned by IssueState.
func (m *Manager) VerifyState(state string) error {
	return m.signer.VerifyState(state, m.now())
}

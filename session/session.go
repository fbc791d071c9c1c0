// Package session owns the authenticated passenger: restoring it from local
// storage at start-up, establishing it on login and clearing it on logout.
//
// The active *Session is handed to callers explicitly; nothing in this module
// reads it from ambient state.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"passenger-client/api"
	"passenger-client/models"
	"passenger-client/storage"
)

// Storage keys, shared with the mobile client's persisted layout.
const (
	TokenKey = "token"
	UserKey  = "user"
)

var (
	ErrAuthFailed       = errors.New("authentication failed")
	ErrLogoutFailed     = errors.New("logout failed")
	ErrSignUpFailed     = errors.New("account creation failed")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrNoIdentity       = errors.New("profile has no passenger id")
)

// Session is the authenticated passenger. Token and User are always set and
// cleared together.
type Session struct {
	User  models.User
	Token string
	// ExpiresAt comes from the token's exp claim; zero for opaque tokens.
	ExpiresAt time.Time
}

func (s *Session) Active() bool {
	return s != nil && !api.MissingToken(s.Token)
}

// Expired reports whether the token carries an expiry that has passed.
func (s *Session) Expired(now time.Time) bool {
	return s != nil && !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Authenticator is the part of the backend the manager needs.
type Authenticator interface {
	SignUp(ctx context.Context, reg models.Registration) error
	Login(ctx context.Context, creds models.Credentials) (string, error)
	Profile(ctx context.Context, token string) (models.User, error)
}

type Manager struct {
	store  storage.Store
	auth   Authenticator
	logger *slog.Logger

	mu      sync.Mutex
	current *Session
}

func NewManager(store storage.Store, auth Authenticator, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, auth: auth, logger: logger}
}

// Current returns the active session or nil.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Restore loads the persisted token and user record. Both must be present for
// a session to become active; otherwise the manager is left without one and
// no error is returned. A storage read failure is returned and also leaves the
// manager without a session.
func (m *Manager) Restore(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = nil

	token, err := m.read(ctx, TokenKey)
	if err != nil {
		return nil, err
	}
	rawUser, err := m.read(ctx, UserKey)
	if err != nil {
		return nil, err
	}
	if api.MissingToken(token) || rawUser == "" {
		return nil, nil
	}

	var user models.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		m.logger.Warn("stored user record is unreadable, ignoring session", "err", err)
		return nil, nil
	}
	if user.ID == "" {
		m.logger.Warn("stored user record has no id, ignoring session")
		return nil, nil
	}

	m.current = &Session{User: user, Token: token, ExpiresAt: tokenExpiry(token)}
	m.logger.Debug("session restored", "user", user.ID)
	return m.current, nil
}

// Login authenticates, fetches the profile and persists both. Any failure
// leaves the previous session, in memory and on disk, as it was.
func (m *Manager) Login(ctx context.Context, creds models.Credentials) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	creds.Email = strings.TrimSpace(creds.Email)

	token, err := m.auth.Login(ctx, creds)
	if err != nil {
		m.logger.Warn("login rejected", "email", creds.Email, "err", err)
		return nil, fmt.Errorf("%w: %w", ErrAuthFailed, err)
	}
	user, err := m.auth.Profile(ctx, token)
	if err != nil {
		m.logger.Warn("profile fetch failed", "email", creds.Email, "err", err)
		return nil, fmt.Errorf("%w: %w", ErrAuthFailed, err)
	}
	if user.ID == "" {
		m.logger.Warn("profile response carried no id", "email", creds.Email)
		return nil, fmt.Errorf("%w: %w", ErrAuthFailed, &api.Error{Kind: api.KindAuth, Err: ErrNoIdentity})
	}
	if err := m.persist(ctx, token, user); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuthFailed, err)
	}

	m.current = &Session{User: user, Token: token, ExpiresAt: tokenExpiry(token)}
	m.logger.Info("logged in", "user", user.ID, "email", user.Email)
	return m.current, nil
}

// SignUp registers a passenger. It does not log in.
func (m *Manager) SignUp(ctx context.Context, reg models.Registration) error {
	if reg.Password != reg.ConfirmPassword {
		return ErrPasswordMismatch
	}
	reg.Email = strings.TrimSpace(reg.Email)
	if err := m.auth.SignUp(ctx, reg); err != nil {
		m.logger.Warn("sign up failed", "email", reg.Email, "err", err)
		return fmt.Errorf("%w: %w", ErrSignUpFailed, err)
	}
	m.logger.Info("account created", "email", reg.Email)
	return nil
}

// Logout removes both persisted entries and drops the in-memory session. Both
// deletes are attempted and the session is cleared even when one fails; the
// failures are reported wrapped in ErrLogoutFailed.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = nil
	err := errors.Join(
		m.store.Delete(ctx, TokenKey),
		m.store.Delete(ctx, UserKey),
	)
	if err != nil {
		m.logger.Error("logout left storage dirty", "err", err)
		return fmt.Errorf("%w: %w", ErrLogoutFailed, &api.Error{Kind: api.KindStorage, Err: err})
	}
	m.logger.Info("logged out")
	return nil
}

func (m *Manager) read(ctx context.Context, key string) (string, error) {
	v, err := m.store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", &api.Error{Kind: api.KindStorage, Message: "read " + key, Err: err}
	}
	return v, nil
}

// persist writes token and user, putting the previous values back if either
// write fails.
func (m *Manager) persist(ctx context.Context, token string, user models.User) error {
	rawUser, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	prevToken, err := m.read(ctx, TokenKey)
	if err != nil {
		return err
	}
	prevUser, err := m.read(ctx, UserKey)
	if err != nil {
		return err
	}

	if err := m.store.Set(ctx, TokenKey, token); err != nil {
		return &api.Error{Kind: api.KindStorage, Message: "write token", Err: err}
	}
	if err := m.store.Set(ctx, UserKey, string(rawUser)); err != nil {
		m.rollback(ctx, TokenKey, prevToken)
		m.rollback(ctx, UserKey, prevUser)
		return &api.Error{Kind: api.KindStorage, Message: "write user", Err: err}
	}
	return nil
}

func (m *Manager) rollback(ctx context.Context, key, prev string) {
	var err error
	if prev == "" {
		err = m.store.Delete(ctx, key)
	} else {
		err = m.store.Set(ctx, key, prev)
	}
	if err != nil {
		m.logger.Error("rollback failed", "key", key, "err", err)
	}
}

// Package session keeps the single current login of each device.
package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/pavelanni/questionbd/internal/model"
)

// TTL is how long a login lasts.
const TTL = time.Hour

// Backend persists one session per device.
type Backend interface {
	PutSession(model.Session) error
	GetSession(deviceID string) (*model.Session, error)
	DeleteSession(deviceID string) error
}

// Manager installs, clears and lazily expires device sessions.
type Manager struct {
	backend Backend
	now     func() time.Time
	ttl     time.Duration
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithTTL overrides the session lifetime.
func WithTTL(d time.Duration) Option {
	return func(m *Manager) { m.ttl = d }
}

func NewManager(backend Backend, opts ...Option) *Manager {
	m := &Manager{backend: backend, now: time.Now, ttl: TTL}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Login replaces whatever session the device had with one for user.
func (m *Manager) Login(ctx context.Context, deviceID string, user model.SessionUser) (*model.Session, error) {
	now := m.now()
	sess := model.Session{
		DeviceID:  deviceID,
		User:      user,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.backend.PutSession(sess); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "session started", "account_id", user.ID, "role", user.Role)
	return &sess, nil
}

// Logout clears the device's session. It is a no-op if none exists.
func (m *Manager) Logout(ctx context.Context, deviceID string) error {
	return m.backend.DeleteSession(deviceID)
}

// Check returns the device's live session. An expired session is cleared
// and reported as absent.
func (m *Manager) Check(ctx context.Context, deviceID string) (*model.Session, error) {
	sess, err := m.backend.GetSession(deviceID)
	if err != nil || sess == nil {
		return nil, err
	}
	if sess.Expired(m.now()) {
		slog.DebugContext(ctx, "session expired", "account_id", sess.User.ID)
		if err := m.backend.DeleteSession(deviceID); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return sess, nil
}

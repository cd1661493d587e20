// Package session tracks who is shopping. A session owns two scopes: a
// durable one that survives restarts and a tab one that lives in memory.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const currentUserKey = "currentUser"

// Manager creates and resumes sessions over a pair of scopes.
type Manager struct {
	durable     Scope
	tab         Scope
	ttl         time.Duration
	rememberTTL time.Duration
}

// Option configures a Manager.
type Option func(*Manager)

// WithLifetimes sets how long new sessions live: ttl for tab-scoped and
// anonymous sessions, remember for remembered ones. Zero keeps state until
// it is deleted.
func WithLifetimes(ttl, remember time.Duration) Option {
	return func(m *Manager) {
		m.ttl = ttl
		m.rememberTTL = remember
	}
}

// NewManager returns a manager storing durable state in durable and
// tab-scoped state in tab.
func NewManager(durable, tab Scope, opts ...Option) *Manager {
	m := &Manager{durable: durable, tab: tab}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start opens a new session for user. Remembered identities are written to
// the durable scope, others to the tab scope.
func (m *Manager) Start(ctx context.Context, user *domain.User, remember bool) (*Session, error) {
	ttl := m.ttl
	if remember {
		ttl = m.rememberTTL
	}
	s := m.ResumeUntil(uuid.NewString(), deadline(ttl))
	b, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("encoding session user: %w", err)
	}
	target := s.tab
	if remember {
		target = s.durable
	}
	if err := target.Set(ctx, currentUserKey, string(b)); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"session":  s.id,
		"user_id":  user.ID,
		"remember": remember,
	}).Info("Session started")
	return s, nil
}

// Resume returns the session with id. Unknown ids resolve to no identity.
func (m *Manager) Resume(id string) *Session {
	return m.ResumeUntil(id, time.Time{})
}

// ResumeUntil is Resume for a session whose token expires at expires.
// Values it writes are dropped after that.
func (m *Manager) ResumeUntil(id string, expires time.Time) *Session {
	prefix := "session:" + id + ":"
	return &Session{
		id:      id,
		expires: expires,
		durable: prefixed{scope: m.durable, prefix: prefix, deadline: expires},
		tab:     prefixed{scope: m.tab, prefix: prefix, deadline: expires},
	}
}

// Anonymous opens a fresh session with no identity. Every anonymous
// shopper gets their own checkout state while sharing the guest cart.
func (m *Manager) Anonymous() *Session {
	return m.ResumeUntil(uuid.NewString(), deadline(m.ttl))
}

// Sweep drops expired session state from both scopes.
func (m *Manager) Sweep(ctx context.Context, now time.Time) (int, error) {
	total := 0
	for _, scope := range []Scope{m.durable, m.tab} {
		e, ok := scope.(Expirer)
		if !ok {
			continue
		}
		n, err := e.Sweep(ctx, now)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// SweepEvery runs Sweep at each interval until ctx is done.
func (m *Manager) SweepEvery(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed, err := m.Sweep(ctx, now)
			if err != nil {
				logrus.WithField("error", err.Error()).Error("Failed to sweep expired sessions")
				continue
			}
			if removed > 0 {
				logrus.WithField("removed", removed).Debug("Swept expired session state")
			}
		}
	}
}

func deadline(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(ttl)
}

// Session is one shopper's view of the session scopes.
type Session struct {
	id      string
	expires time.Time
	durable Scope
	tab     Scope
}

func (s *Session) ID() string { return s.id }

// Expires is when the session's state lapses, zero for never.
func (s *Session) Expires() time.Time { return s.expires }

// Durable is the session's durable scope.
func (s *Session) Durable() Scope { return s.durable }

// Tab is the session's tab scope.
func (s *Session) Tab() Scope { return s.tab }

// Current returns the logged-in user, or nil for an anonymous shopper. A
// durable identity hides the tab one; when it is unreadable the shopper has
// no identity at all.
func (s *Session) Current(ctx context.Context) (*domain.User, error) {
	for _, scope := range []Scope{s.durable, s.tab} {
		raw, ok, err := scope.Get(ctx, currentUserKey)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		var user *domain.User
		if err := json.Unmarshal([]byte(raw), &user); err != nil {
			logrus.WithFields(logrus.Fields{
				"session": s.id,
				"error":   err.Error(),
			}).Warn("Ignoring malformed session identity")
			return nil, nil
		}
		return user, nil
	}
	return nil, nil
}

// Clear logs the shopper out of both scopes. Failures are logged only.
func (s *Session) Clear(ctx context.Context) {
	for _, scope := range []Scope{s.durable, s.tab} {
		if err := scope.Delete(ctx, currentUserKey); err != nil {
			logrus.WithFields(logrus.Fields{
				"session": s.id,
				"error":   err.Error(),
			}).Error("Failed to clear session identity")
		}
	}
}

// RequireRole fails with domain.ErrAccessDenied unless the current user
// holds role.
func (s *Session) RequireRole(ctx context.Context, role domain.Role) error {
	user, err := s.Current(ctx)
	if err != nil {
		return err
	}
	if !user.HasRole(role) {
		return domain.ErrAccessDenied
	}
	return nil
}

// Package session manages authenticated upstream sessions, one per credential pair.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/amaumene/gostremiocatalog/internal/upstream"
	"github.com/amaumene/gostremiocatalog/pkg/logger"
	"github.com/amaumene/gostremiocatalog/pkg/security"
)

// API is the part of the upstream client that needs or grants a session.
type API interface {
	Login(ctx context.Context, email, password string) (*upstream.LoginResult, error)
	GetAuthenticatedStreamDetails(ctx context.Context, sessionToken, videoID string) (*upstream.StreamDetails, error)
}

// Session owns one upstream token. The password is kept in memory only,
// because the upstream offers no refresh other than logging in again.
type Session struct {
	api             API
	email           string
	password        string
	credentialsHash string
	refreshBuffer   time.Duration
	loginTimeout    time.Duration
	onRefresh       func(ctx context.Context, s *Session)
	logger          logger.Logger
	now             func() time.Time

	mu        sync.RWMutex
	token     string
	expiresAt time.Time
	premium   bool

	refreshMu sync.Mutex
}

// snapshot is what the cache keeps for a session. The password is never part of it.
type snapshot struct {
	SessionToken    string `json:"sessionToken"`
	Email           string `json:"email"`
	ExpiresAtUnixMs int64  `json:"expiresAtUnixMs"`
	Premium         bool   `json:"premium"`
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// IsPremium reports the account tier returned by the last login.
func (s *Session) IsPremium() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.premium
}

func (s *Session) Email() string {
	return s.email
}

func (s *Session) CredentialsHash() string {
	return s.credentialsHash
}

func (s *Session) needsRefresh() bool {
	return !s.now().Before(s.ExpiresAt().Add(-s.refreshBuffer))
}

// EnsureFresh logs in again when the token is within the refresh buffer of
// its expiry. It reports whether the session is usable afterwards; a failed
// refresh is logged and reported as false, never returned.
func (s *Session) EnsureFresh(ctx context.Context) bool {
	if !s.needsRefresh() {
		return true
	}

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	// another caller may have refreshed while we waited
	if !s.needsRefresh() {
		return true
	}
	if s.email == "" || s.password == "" {
		return s.now().Before(s.ExpiresAt())
	}

	s.logger.Infof("[Session] refreshing session for %s", security.MaskEmail(s.email))

	lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.loginTimeout)
	defer cancel()
	result, err := s.api.Login(lctx, s.email, s.password)
	if err != nil {
		s.logger.Warnf("[Session] failed to refresh session for %s: %v", security.MaskEmail(s.email), err)
		return false
	}

	s.apply(result)
	if s.onRefresh != nil {
		s.onRefresh(ctx, s)
	}
	return true
}

// GetStreamDetails fetches the authenticated streams of videoID, refreshing
// the token first when needed. A failed refresh still attempts the call; the
// upstream then answers with its own auth error.
func (s *Session) GetStreamDetails(ctx context.Context, videoID string) (*upstream.StreamDetails, error) {
	if !s.EnsureFresh(ctx) {
		s.logger.Debugf("[Session] using possibly stale token for %s", security.MaskEmail(s.email))
	}
	return s.api.GetAuthenticatedStreamDetails(ctx, s.Token(), videoID)
}

func (s *Session) apply(result *upstream.LoginResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = result.SessionToken
	s.expiresAt = time.Unix(result.ExpiresAt, 0)
	s.premium = result.User.IsPremium
}

func (s *Session) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{
		SessionToken:    s.token,
		Email:           s.email,
		ExpiresAtUnixMs: s.expiresAt.UnixMilli(),
		Premium:         s.premium,
	}
}

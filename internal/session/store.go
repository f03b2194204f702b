package session

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/amaumene/gostremiocatalog/internal/cache"
	"github.com/amaumene/gostremiocatalog/internal/constants"
	apperrors "github.com/amaumene/gostremiocatalog/internal/errors"
	"github.com/amaumene/gostremiocatalog/pkg/logger"
	"github.com/amaumene/gostremiocatalog/pkg/security"
)

const privateCacheSize = 1000

// Options tunes a Store. Zero values use the package defaults.
type Options struct {
	Logger        logger.Logger
	RefreshBuffer time.Duration
	SafetyBuffer  time.Duration
	LoginTimeout  time.Duration
}

// Store hands out sessions per credential pair. Ready sessions live in the
// tiered cache under user-session:<hash>; logins in flight live in a
// single-flight group keyed by the same hash, so at most one login per
// credential pair runs at any time.
type Store struct {
	api    API
	cache  *cache.TieredCache
	logger logger.Logger

	refreshBuffer time.Duration
	safetyBuffer  time.Duration
	loginTimeout  time.Duration

	logins singleflight.Group
	now    func() time.Time
}

// NewStore creates a session store. With a nil cache the store keeps
// sessions in a private local tier, since logging in on every request is
// not an option.
func NewStore(api API, tc *cache.TieredCache, opts Options) *Store {
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if opts.RefreshBuffer <= 0 {
		opts.RefreshBuffer = constants.SessionRefreshBuffer
	}
	if opts.SafetyBuffer <= 0 {
		opts.SafetyBuffer = constants.SessionCacheSafetyBuffer
	}
	if opts.LoginTimeout <= 0 {
		opts.LoginTimeout = constants.LoginTimeout
	}
	if tc == nil {
		tc = cache.NewTiered(cache.New(privateCacheSize), nil, cache.Options{Logger: opts.Logger})
	}

	return &Store{
		api:           api,
		cache:         tc,
		logger:        opts.Logger,
		refreshBuffer: opts.RefreshBuffer,
		safetyBuffer:  opts.SafetyBuffer,
		loginTimeout:  opts.LoginTimeout,
		now:           time.Now,
	}
}

// GetUserAPI returns a session for the credentials, logging in only when no
// cached session exists. Concurrent callers with the same credentials share
// one login. A failed login is not remembered.
func (s *Store) GetUserAPI(ctx context.Context, email, password string) (*Session, error) {
	email = security.SanitizeEmail(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, apperrors.NewInvalidInputError("email and password are required")
	}

	hash := security.CredentialsHash(email, password)
	if sess := s.lookup(ctx, hash, email, password); sess != nil {
		return sess, nil
	}

	ch := s.logins.DoChan(hash, func() (interface{}, error) {
		// a login that finished just before this flight started
		if sess := s.lookup(ctx, hash, email, password); sess != nil {
			return sess, nil
		}
		return s.login(ctx, hash, email, password)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.logger.Debugf("[Session] joined in-flight login for %s", security.MaskEmail(email))
		}
		return res.Val.(*Session), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ClearCache drops the cached session for the credentials. The next
// GetUserAPI logs in again.
func (s *Store) ClearCache(ctx context.Context, email, password string) {
	email = security.SanitizeEmail(email)
	if email == "" || password == "" {
		return
	}
	s.cache.Delete(ctx, cacheKey(security.CredentialsHash(email, password)))
}

// login runs detached from the first caller so that its cancellation does
// not fail the callers sharing the flight.
func (s *Store) login(ctx context.Context, hash, email, password string) (*Session, error) {
	lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.loginTimeout)
	defer cancel()

	s.logger.Infof("[Session] logging in %s", security.MaskEmail(email))
	result, err := s.api.Login(lctx, email, password)
	if err != nil {
		s.logger.Warnf("[Session] login failed for %s: %v", security.MaskEmail(email), err)
		return nil, err
	}

	sess := s.newSession(hash, email, password)
	sess.apply(result)
	s.save(lctx, sess)
	return sess, nil
}

func (s *Store) newSession(hash, email, password string) *Session {
	return &Session{
		api:             s.api,
		email:           email,
		password:        password,
		credentialsHash: hash,
		refreshBuffer:   s.refreshBuffer,
		loginTimeout:    s.loginTimeout,
		onRefresh:       s.save,
		logger:          s.logger,
		now:             s.now,
	}
}

// lookup rebuilds a session from the cache. The caller supplies the password.
func (s *Store) lookup(ctx context.Context, hash, email, password string) *Session {
	raw, ok := s.cache.Get(ctx, cacheKey(hash))
	if !ok {
		return nil
	}

	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil || snap.SessionToken == "" {
		s.logger.Warnf("[Session] discarding unreadable cached session for %s", security.MaskEmail(email))
		return nil
	}

	sess := s.newSession(hash, email, password)
	sess.token = snap.SessionToken
	sess.expiresAt = time.UnixMilli(snap.ExpiresAtUnixMs)
	sess.premium = snap.Premium
	return sess
}

// save writes sess to the cache with a TTL ending a safety buffer before the
// token expires. Sessions already inside that buffer are not cached.
func (s *Store) save(ctx context.Context, sess *Session) {
	snap := sess.snapshot()
	ttl := time.UnixMilli(snap.ExpiresAtUnixMs).Sub(s.now()) - s.safetyBuffer
	if ttl <= 0 {
		s.logger.Debugf("[Session] not caching session for %s: expires too soon", security.MaskEmail(sess.email))
		return
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		s.logger.Warnf("[Session] failed to encode session: %v", err)
		return
	}
	s.cache.Set(ctx, cacheKey(sess.credentialsHash), raw, ttl)
}

func cacheKey(hash string) string {
	return constants.KeyPrefixUserSession + ":" + hash
}

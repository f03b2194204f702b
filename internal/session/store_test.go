package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amaumene/gostremiocatalog/internal/cache"
	apperrors "github.com/amaumene/gostremiocatalog/internal/errors"
	"github.com/amaumene/gostremiocatalog/internal/upstream"
	"github.com/amaumene/gostremiocatalog/pkg/security"
)

type fakeAPI struct {
	mu        sync.Mutex
	logins    int
	streams   int
	loginErr  error
	delay     time.Duration
	expiresIn time.Duration
	lastToken string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{expiresIn: time.Hour}
}

func (f *fakeAPI) Login(_ context.Context, email, password string) (*upstream.LoginResult, error) {
	f.mu.Lock()
	f.logins++
	n := f.logins
	err := f.loginErr
	delay := f.delay
	expiresIn := f.expiresIn
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}
	return &upstream.LoginResult{
		SessionToken: fmt.Sprintf("tok-%d", n),
		ExpiresAt:    time.Now().Add(expiresIn).Unix(),
		User:         upstream.User{IsPremium: true},
	}, nil
}

func (f *fakeAPI) GetAuthenticatedStreamDetails(_ context.Context, sessionToken, videoID string) (*upstream.StreamDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.streams++
	f.lastToken = sessionToken
	return &upstream.StreamDetails{Streams: []upstream.RawStream{{URL: "https://cdn/" + videoID}}}, nil
}

func (f *fakeAPI) loginCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logins
}

func newTestStore(api API) (*Store, *cache.TieredCache) {
	tc := cache.NewTiered(cache.New(100), nil, cache.Options{})
	return NewStore(api, tc, Options{}), tc
}

func TestGetUserAPIRequiresCredentials(t *testing.T) {
	api := newFakeAPI()
	store, _ := newTestStore(api)

	for _, creds := range [][2]string{{"", "secret"}, {"a@x.com", ""}, {"  ", "  "}} {
		_, err := store.GetUserAPI(t.Context(), creds[0], creds[1])
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidInput))
	}
	assert.Equal(t, 0, api.loginCount())
}

func TestGetUserAPISingleFlight(t *testing.T) {
	api := newFakeAPI()
	api.delay = 50 * time.Millisecond
	store, _ := newTestStore(api)

	const callers = 20
	var (
		wg     sync.WaitGroup
		start  = make(chan struct{})
		tokens = make([]string, callers)
		errs   = make([]error, callers)
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			sess, err := store.GetUserAPI(context.Background(), "a@x.com", "secret")
			errs[i] = err
			if err == nil {
				tokens[i] = sess.Token()
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, api.loginCount())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "tok-1", tokens[i])
	}
}

func TestGetUserAPIServesCachedSession(t *testing.T) {
	api := newFakeAPI()
	store, tc := newTestStore(api)

	first, err := store.GetUserAPI(t.Context(), "a@x.com", "secret")
	require.NoError(t, err)
	second, err := store.GetUserAPI(t.Context(), "A@x.com ", "secret")
	require.NoError(t, err)

	assert.Equal(t, 1, api.loginCount())
	assert.Equal(t, first.Token(), second.Token())
	assert.True(t, second.IsPremium())
	assert.Equal(t, first.ExpiresAt().Unix(), second.ExpiresAt().Unix())

	raw, ok := tc.Get(t.Context(), "user-session:"+security.CredentialsHash("a@x.com", "secret"))
	require.True(t, ok)
	assert.NotContains(t, string(raw), "secret")
}

func TestDistinctCredentialsDoNotShareSessions(t *testing.T) {
	api := newFakeAPI()
	store, _ := newTestStore(api)

	first, err := store.GetUserAPI(t.Context(), "a@x.com", "p1")
	require.NoError(t, err)
	second, err := store.GetUserAPI(t.Context(), "a@x.com", "p2")
	require.NoError(t, err)

	assert.Equal(t, 2, api.loginCount())
	assert.NotEqual(t, first.CredentialsHash(), second.CredentialsHash())
}

func TestFailedLoginIsNotRemembered(t *testing.T) {
	api := newFakeAPI()
	api.loginErr = apperrors.NewAuthenticationError("bad credentials", nil)
	store, _ := newTestStore(api)

	_, err := store.GetUserAPI(t.Context(), "a@x.com", "wrong")
	require.Error(t, err)
	_, err = store.GetUserAPI(t.Context(), "a@x.com", "wrong")
	require.Error(t, err)

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeAuthentication))
	assert.Equal(t, 2, api.loginCount())
}

func TestSessionNearExpiryIsNotCached(t *testing.T) {
	api := newFakeAPI()
	api.expiresIn = 4 * time.Minute
	store, tc := newTestStore(api)

	sess, err := store.GetUserAPI(t.Context(), "a@x.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", sess.Token())

	_, ok := tc.Get(t.Context(), "user-session:"+security.CredentialsHash("a@x.com", "secret"))
	assert.False(t, ok)

	_, err = store.GetUserAPI(t.Context(), "a@x.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, 2, api.loginCount())
}

func TestClearCache(t *testing.T) {
	api := newFakeAPI()
	store, _ := newTestStore(api)

	_, err := store.GetUserAPI(t.Context(), "a@x.com", "secret")
	require.NoError(t, err)
	store.ClearCache(t.Context(), "a@x.com", "secret")
	_, err = store.GetUserAPI(t.Context(), "a@x.com", "secret")
	require.NoError(t, err)

	assert.Equal(t, 2, api.loginCount())
}

func TestGetUserAPIWithoutSharedCache(t *testing.T) {
	api := newFakeAPI()
	store := NewStore(api, nil, Options{})

	_, err := store.GetUserAPI(t.Context(), "a@x.com", "secret")
	require.NoError(t, err)
	_, err = store.GetUserAPI(t.Context(), "a@x.com", "secret")
	require.NoError(t, err)

	assert.Equal(t, 1, api.loginCount())
}

package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockProvider scripts the identity provider for store tests.
type mockProvider struct {
	mu sync.Mutex

	signInSession Session
	signInErr     error
	signInCalls   int
	signInStarted chan struct{}
	signInRelease chan struct{}

	signOutErr   error
	signOutCalls int

	currentUser      *User
	currentUserErr   error
	currentUserCalls int

	refreshToken string
	refreshErr   error

	listeners []func(Event)
}

func (m *mockProvider) SignIn(ctx context.Context, email, password string) (Session, error) {
	m.mu.Lock()
	m.signInCalls++
	started := m.signInStarted
	release := m.signInRelease
	m.mu.Unlock()

	if started != nil {
		close(started)
	}
	if release != nil {
		<-release
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.signInSession, m.signInErr
}

func (m *mockProvider) SignOut(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signOutCalls++
	return m.signOutErr
}

func (m *mockProvider) CurrentUser(ctx context.Context) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentUserCalls++
	return m.currentUser, m.currentUserErr
}

func (m *mockProvider) Refresh(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshToken, m.refreshErr
}

func (m *mockProvider) OnAuthChange(fn func(Event)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
	return func() {}
}

func (m *mockProvider) fire(ev Event) {
	m.mu.Lock()
	listeners := append([]func(Event){}, m.listeners...)
	m.mu.Unlock()
	for _, fn := range listeners {
		fn(ev)
	}
}

func newTestStore(p *mockProvider, storage Storage) *Store {
	if storage == nil {
		storage = &MemoryStorage{}
	}
	return New(p, storage, zerolog.Nop())
}

func TestLoginThenLogoutEndsAnonymous(t *testing.T) {
	p := &mockProvider{
		signInSession: Session{
			AccessToken: "T",
			User:        &User{ID: "1", Email: "u@x.com", Role: "user"},
		},
	}
	storage := &MemoryStorage{}
	store := newTestStore(p, storage)
	ctx := context.Background()

	require.NoError(t, store.Login(ctx, "u@x.com", "pw"))

	state := store.State()
	assert.True(t, state.IsAuthenticated)
	assert.Equal(t, "T", state.AccessToken)
	require.NotNil(t, state.User)
	assert.Equal(t, "user", state.User.Role)

	store.Logout(ctx)

	state = store.State()
	assert.True(t, state.Anonymous())
	assert.Empty(t, state.AccessToken)
	assert.Nil(t, state.User)
	assert.Empty(t, state.Error)

	rec, err := storage.Load()
	require.NoError(t, err)
	assert.Empty(t, rec.AccessToken)
}

func TestLogoutIsIdempotent(t *testing.T) {
	p := &mockProvider{signOutErr: errors.New("server unreachable")}
	store := newTestStore(p, nil)
	ctx := context.Background()

	// Sign-out failures never surface; two logouts in a row converge on
	// the same anonymous state.
	store.Logout(ctx)
	store.Logout(ctx)

	assert.True(t, store.State().Anonymous())
	assert.Equal(t, 2, p.signOutCalls)
}

func TestLoginFailureSetsErrorAndReturnsIt(t *testing.T) {
	p := &mockProvider{signInErr: errors.New("invalid credentials")}
	store := newTestStore(p, nil)

	err := store.Login(context.Background(), "a@b.com", "wrong")
	require.Error(t, err)

	state := store.State()
	assert.False(t, state.IsAuthenticated)
	assert.Nil(t, state.User)
	assert.NotEmpty(t, state.Error)
}

type humanErr struct{ msg string }

func (e *humanErr) Error() string        { return "api: " + e.msg }
func (e *humanErr) HumanMessage() string { return e.msg }

func TestLoginFailureUsesHumanReadableMessage(t *testing.T) {
	p := &mockProvider{signInErr: &humanErr{msg: "wrong email or password"}}
	store := newTestStore(p, nil)

	err := store.Login(context.Background(), "a@b.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, "wrong email or password", store.State().Error)
}

func TestLoginWithoutTokenInResponse(t *testing.T) {
	p := &mockProvider{signInSession: Session{User: &User{ID: "1"}}}
	store := newTestStore(p, nil)

	err := store.Login(context.Background(), "u@x.com", "pw")
	require.ErrorIs(t, err, ErrNoToken)
	assert.False(t, store.State().IsAuthenticated)
}

func TestCheckAuthWithoutTokenSkipsProvider(t *testing.T) {
	p := &mockProvider{}
	store := newTestStore(p, nil)

	store.CheckAuth(context.Background())

	assert.False(t, store.State().IsAuthenticated)
	assert.Equal(t, 0, p.currentUserCalls)
}

func TestCheckAuthRefreshesIdentity(t *testing.T) {
	storage := &MemoryStorage{}
	require.NoError(t, storage.Save(Record{
		AccessToken: "persisted-token",
		User:        &User{ID: "1", Name: "Stale Name", Role: "user"},
	}))

	p := &mockProvider{currentUser: &User{ID: "1", Name: "Fresh Name", Role: "admin"}}
	store := newTestStore(p, storage)

	store.CheckAuth(context.Background())

	state := store.State()
	assert.True(t, state.IsAuthenticated)
	assert.Equal(t, "persisted-token", state.AccessToken)
	require.NotNil(t, state.User)
	assert.Equal(t, "Fresh Name", state.User.Name)
	assert.Equal(t, "admin", state.User.Role)
}

// expiredJWT signs a token whose exp claim is already in the past.
func expiredJWT(t *testing.T) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestCheckAuthRefreshesExpiredTokenFirst(t *testing.T) {
	storage := &MemoryStorage{}
	require.NoError(t, storage.Save(Record{
		AccessToken: expiredJWT(t),
		User:        &User{ID: "1", Role: "user"},
	}))

	p := &mockProvider{
		refreshToken: "fresh-token",
		currentUser:  &User{ID: "1", Name: "Uma", Role: "user"},
	}
	store := newTestStore(p, storage)

	// A persisted JWT that is already past its exp claim would never pass
	// the identity check; the store refreshes it before asking for /me.
	store.CheckAuth(context.Background())

	state := store.State()
	assert.True(t, state.IsAuthenticated)
	assert.Equal(t, "fresh-token", state.AccessToken)
	assert.Equal(t, 1, p.currentUserCalls)

	rec, err := storage.Load()
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", rec.AccessToken)
}

func TestCheckAuthExpiredTokenRefreshFailure(t *testing.T) {
	storage := &MemoryStorage{}
	require.NoError(t, storage.Save(Record{AccessToken: expiredJWT(t)}))

	p := &mockProvider{refreshErr: errors.New("refresh token expired")}
	store := newTestStore(p, storage)

	store.CheckAuth(context.Background())

	// The failed refresh cascades into logout; the identity endpoint is
	// never contacted with a token known to be stale.
	assert.True(t, store.State().Anonymous())
	assert.Equal(t, 0, p.currentUserCalls)

	rec, err := storage.Load()
	require.NoError(t, err)
	assert.Empty(t, rec.AccessToken)
}

func TestCheckAuthFailureClearsSilently(t *testing.T) {
	storage := &MemoryStorage{}
	require.NoError(t, storage.Save(Record{AccessToken: "stale"}))

	p := &mockProvider{currentUserErr: errors.New("401")}
	store := newTestStore(p, storage)

	store.CheckAuth(context.Background())

	state := store.State()
	assert.True(t, state.Anonymous())
	// Failure here means "not logged in", not a reportable error.
	assert.Empty(t, state.Error)

	rec, err := storage.Load()
	require.NoError(t, err)
	assert.Empty(t, rec.AccessToken)
}

func TestRefreshTokenKeepsUser(t *testing.T) {
	storage := &MemoryStorage{}
	user := &User{ID: "1", Email: "u@x.com", Role: "user"}
	require.NoError(t, storage.Save(Record{AccessToken: "old", User: user}))

	p := &mockProvider{refreshToken: "new"}
	store := newTestStore(p, storage)

	require.NoError(t, store.RefreshToken(context.Background()))

	state := store.State()
	assert.Equal(t, "new", state.AccessToken)
	require.NotNil(t, state.User)
	assert.Equal(t, "u@x.com", state.User.Email)

	rec, err := storage.Load()
	require.NoError(t, err)
	assert.Equal(t, "new", rec.AccessToken)
}

func TestRefreshFailureCascadesToLogout(t *testing.T) {
	storage := &MemoryStorage{}
	require.NoError(t, storage.Save(Record{AccessToken: "old"}))

	p := &mockProvider{refreshErr: errors.New("refresh token expired")}
	store := newTestStore(p, storage)

	err := store.RefreshToken(context.Background())
	require.Error(t, err)

	assert.True(t, store.State().Anonymous())
	assert.Equal(t, 1, p.signOutCalls)

	rec, loadErr := storage.Load()
	require.NoError(t, loadErr)
	assert.Empty(t, rec.AccessToken)
}

func TestClearErrorTouchesNothingElse(t *testing.T) {
	p := &mockProvider{signInErr: errors.New("nope")}
	store := newTestStore(p, nil)

	_ = store.Login(context.Background(), "a@b.com", "wrong")
	require.NotEmpty(t, store.State().Error)

	store.ClearError()

	state := store.State()
	assert.Empty(t, state.Error)
	assert.False(t, state.IsAuthenticated)
}

func TestLogoutDuringLoginWins(t *testing.T) {
	p := &mockProvider{
		signInSession: Session{AccessToken: "T", User: &User{ID: "1"}},
		signInStarted: make(chan struct{}),
		signInRelease: make(chan struct{}),
	}
	storage := &MemoryStorage{}
	store := newTestStore(p, storage)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		done <- store.Login(ctx, "u@x.com", "pw")
	}()

	// Let the login reach the provider, then log out while it is in
	// flight. The login completion is stale and must be discarded.
	<-p.signInStarted
	store.Logout(ctx)
	close(p.signInRelease)
	require.NoError(t, <-done)

	state := store.State()
	assert.True(t, state.Anonymous())

	rec, err := storage.Load()
	require.NoError(t, err)
	assert.Empty(t, rec.AccessToken)
}

func TestRoundTripThroughStorage(t *testing.T) {
	storage := &MemoryStorage{}
	p := &mockProvider{
		signInSession: Session{
			AccessToken: "T",
			User:        &User{ID: "1", Name: "Uma", Email: "u@x.com", Role: "user"},
		},
	}

	store := newTestStore(p, storage)
	require.NoError(t, store.Login(context.Background(), "u@x.com", "pw"))
	store.Close()

	// Simulated restart: a fresh store over the same storage reproduces
	// the session without any provider contact.
	fresh := newTestStore(&mockProvider{}, storage)
	state := fresh.State()
	assert.True(t, state.IsAuthenticated)
	assert.Equal(t, "T", state.AccessToken)
	require.NotNil(t, state.User)
	assert.Equal(t, "u@x.com", state.User.Email)
	assert.Equal(t, "user", state.User.Role)
}

func TestProviderSignOutEventMirrorsIntoStore(t *testing.T) {
	storage := &MemoryStorage{}
	require.NoError(t, storage.Save(Record{AccessToken: "T", User: &User{ID: "1"}}))

	p := &mockProvider{}
	store := newTestStore(p, storage)
	require.True(t, store.State().IsAuthenticated)

	p.fire(Event{Kind: EventSignedOut})

	assert.True(t, store.State().Anonymous())
}

func TestProviderRefreshEventUpdatesToken(t *testing.T) {
	storage := &MemoryStorage{}
	require.NoError(t, storage.Save(Record{AccessToken: "old", User: &User{ID: "1"}}))

	p := &mockProvider{}
	store := newTestStore(p, storage)

	p.fire(Event{Kind: EventTokenRefreshed, AccessToken: "rotated"})

	state := store.State()
	assert.True(t, state.IsAuthenticated)
	assert.Equal(t, "rotated", state.AccessToken)
}

func TestSubscribeObservesTransitions(t *testing.T) {
	p := &mockProvider{
		signInSession: Session{AccessToken: "T", User: &User{ID: "1"}},
	}
	store := newTestStore(p, nil)

	var states []State
	cancel := store.Subscribe(func(st State) { states = append(states, st) })
	defer cancel()

	require.NoError(t, store.Login(context.Background(), "u@x.com", "pw"))

	// Loading transition first, then the settled authenticated state.
	require.GreaterOrEqual(t, len(states), 2)
	assert.True(t, states[0].IsLoading)
	last := states[len(states)-1]
	assert.True(t, last.IsAuthenticated)
}

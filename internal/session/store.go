package session

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tickd-dev/tickd/internal/auth"
)

// ErrNoToken is returned by Login when the provider reports success but the
// response carries no access token.
var ErrNoToken = errors.New("no access token in sign-in response")

// Store is the process-wide session state machine. It owns the State and is
// its only writer: callers mutate it exclusively through Login, Logout,
// RefreshToken, CheckAuth and ClearError.
//
// Every command stamps a generation number when it starts; a completion is
// applied only while its generation is still current. A logout issued while
// a login is in flight therefore wins, and the stale login result is
// discarded instead of resurrecting the session.
type Store struct {
	provider Provider
	storage  Storage
	log      zerolog.Logger

	mu    sync.Mutex
	state State
	gen   uint64

	subMu   sync.Mutex
	subs    map[int]func(State)
	nextSub int

	unsubscribe func()
}

// New builds a store hydrated from the persisted record and subscribed to
// the provider's change feed.
func New(provider Provider, storage Storage, log zerolog.Logger) *Store {
	s := &Store{
		provider: provider,
		storage:  storage,
		log:      log.With().Str("component", "session").Logger(),
		subs:     make(map[int]func(State)),
	}

	if rec, err := storage.Load(); err == nil && rec.AccessToken != "" {
		s.state = State{
			User:            rec.User,
			AccessToken:     rec.AccessToken,
			IsAuthenticated: true,
		}
		s.log.Debug().Msg("session hydrated from storage")
	}

	s.unsubscribe = provider.OnAuthChange(s.onProviderEvent)
	return s
}

// Close detaches the store from the provider's change feed.
func (s *Store) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// State returns a snapshot of the current session.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn to run after every settled transition and returns
// an unsubscribe function.
func (s *Store) Subscribe(fn func(State)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// Login exchanges credentials for a session. On success the store is
// authenticated and the record persisted; on failure it settles anonymous
// with a human-readable Error and the failure is returned so the caller can
// report it.
func (s *Store) Login(ctx context.Context, email, password string) error {
	gen := s.begin(func(st *State) {
		st.IsLoading = true
		st.Error = ""
	})

	sess, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		s.log.Debug().Err(err).Str("email", email).Msg("sign-in rejected")
		s.settle(gen, State{Error: humanMessage(err)})
		return err
	}
	if sess.AccessToken == "" {
		s.settle(gen, State{Error: humanMessage(ErrNoToken)})
		return ErrNoToken
	}

	s.settle(gen, State{
		User:            sess.User,
		AccessToken:     sess.AccessToken,
		IsAuthenticated: true,
	})
	return nil
}

// Logout ends the session. The provider sign-out is best-effort: whatever it
// returns, the store settles anonymous and the persisted record is cleared.
// Logout never reports an error.
func (s *Store) Logout(ctx context.Context) {
	gen := s.begin(func(st *State) {
		st.IsLoading = true
	})

	if err := s.provider.SignOut(ctx); err != nil {
		s.log.Warn().Err(err).Msg("sign-out call failed, clearing session anyway")
	}

	s.settle(gen, State{})
}

// RefreshToken exchanges the current session for a renewed token, keeping
// the user. A refresh that fails means the session is unrecoverable: the
// store cascades into Logout and returns the failure.
func (s *Store) RefreshToken(ctx context.Context) error {
	gen := s.begin(func(st *State) {
		st.IsLoading = true
	})

	token, err := s.provider.Refresh(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("token refresh failed")
		s.Logout(ctx)
		return err
	}

	s.mu.Lock()
	user := s.state.User
	s.mu.Unlock()

	s.settle(gen, State{
		User:            user,
		AccessToken:     token,
		IsAuthenticated: true,
	})
	return nil
}

// CheckAuth rehydrates the session at startup. With no token it settles
// anonymous immediately, without contacting the provider. With a token it
// asks the provider for the current identity; any failure means "not logged
// in", cleared silently rather than surfaced as an Error.
func (s *Store) CheckAuth(ctx context.Context) {
	s.mu.Lock()
	token := s.state.AccessToken
	s.mu.Unlock()

	if token == "" {
		gen := s.begin(nil)
		s.settle(gen, State{})
		return
	}

	// A locally expired JWT will never pass /me; try a refresh first.
	if auth.Expired(token) {
		s.log.Debug().Msg("persisted token expired, attempting refresh")
		if err := s.RefreshToken(ctx); err != nil {
			return // RefreshToken already cascaded into Logout.
		}
		s.mu.Lock()
		token = s.state.AccessToken
		s.mu.Unlock()
	}

	gen := s.begin(func(st *State) {
		st.IsLoading = true
	})

	user, err := s.provider.CurrentUser(ctx)
	if err != nil {
		s.log.Debug().Err(err).Msg("session check failed, treating as logged out")
		s.settle(gen, State{})
		return
	}

	s.settle(gen, State{
		User:            user,
		AccessToken:     token,
		IsAuthenticated: true,
	})
}

// ClearError clears the error field and nothing else.
func (s *Store) ClearError() {
	s.mu.Lock()
	s.state.Error = ""
	snapshot := s.state
	s.mu.Unlock()
	s.notify(snapshot)
}

// onProviderEvent mirrors provider-side transitions (a token expiring
// server-side, a refresh performed elsewhere) into the store without a
// command being issued.
func (s *Store) onProviderEvent(ev Event) {
	switch ev.Kind {
	case EventSignedOut:
		s.log.Debug().Msg("provider reported sign-out")
		gen := s.begin(nil)
		s.settle(gen, State{})
	case EventTokenRefreshed:
		if ev.AccessToken == "" {
			return
		}
		s.mu.Lock()
		if !s.state.IsAuthenticated {
			s.mu.Unlock()
			return
		}
		user := s.state.User
		s.mu.Unlock()
		gen := s.begin(nil)
		s.settle(gen, State{
			User:            user,
			AccessToken:     ev.AccessToken,
			IsAuthenticated: true,
		})
	}
}

// begin stamps a new generation and applies the transitional mutation.
func (s *Store) begin(mutate func(*State)) uint64 {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	if mutate != nil {
		mutate(&s.state)
	}
	snapshot := s.state
	s.mu.Unlock()
	if mutate != nil {
		s.notify(snapshot)
	}
	return gen
}

// settle applies a terminal state if gen is still current, persists it, and
// notifies subscribers. Stale completions are dropped.
func (s *Store) settle(gen uint64, st State) bool {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		s.log.Debug().Uint64("gen", gen).Msg("stale completion discarded")
		return false
	}
	s.state = st
	s.mu.Unlock()

	if st.AccessToken != "" {
		if err := s.storage.Save(Record{AccessToken: st.AccessToken, User: st.User}); err != nil {
			s.log.Warn().Err(err).Msg("failed to persist session")
		}
	} else {
		if err := s.storage.Clear(); err != nil {
			s.log.Warn().Err(err).Msg("failed to clear persisted session")
		}
	}

	s.notify(st)
	return true
}

func (s *Store) notify(st State) {
	s.subMu.Lock()
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}

// humanMessage extracts a message fit for display from a provider failure.
type messager interface {
	HumanMessage() string
}

func humanMessage(err error) string {
	var m messager
	if errors.As(err, &m) {
		if msg := m.HumanMessage(); msg != "" {
			return msg
		}
	}
	return "authentication failed"
}

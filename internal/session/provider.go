package session

import "context"

// Session is what a successful credential exchange yields.
type Session struct {
	AccessToken string
	User        *User
}

// EventKind classifies provider-side session transitions.
type EventKind string

const (
	// EventSignedOut fires when the provider invalidates the session
	// outside of an explicit Logout call, e.g. a server-side expiry
	// detected on an unrelated request.
	EventSignedOut EventKind = "signed_out"

	// EventTokenRefreshed fires when the provider rotates the token
	// without the store asking for it.
	EventTokenRefreshed EventKind = "token_refreshed"
)

// Event is a provider-side session transition delivered to subscribers.
type Event struct {
	Kind        EventKind
	AccessToken string
}

// Provider is the external identity service: credential sign-in, sign-out,
// identity lookup, token refresh, and a change feed for transitions that
// happen outside the store's own commands. The REST API client implements
// this against POST /api/login and friends.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (Session, error)
	SignOut(ctx context.Context) error
	CurrentUser(ctx context.Context) (*User, error)
	Refresh(ctx context.Context) (string, error)

	// OnAuthChange registers fn for provider-side transitions and returns
	// an unsubscribe function.
	OnAuthChange(fn func(Event)) (unsubscribe func())
}

package client

import (
	"net/http"
	"sync/atomic"

	"github.com/oklog/ulid/v2"

	"github.com/tickd-dev/tickd/internal/session"
)

// statusSessionExpired is the session-timeout status some backends return
// instead of a plain 401.
const statusSessionExpired = 419

// Transport is the session-sync http.RoundTripper. On the way out it reads
// the persisted token (not the in-memory store) and attaches it as a bearer
// header; on the way back it watches for authentication failures and tears
// the persisted session down.
//
// 401 and 419 clear the persisted record and fire OnExpired at most once,
// no matter how many in-flight requests observe the expiry. 403 is a
// permission problem and passes through untouched. Everything else is the
// caller's business. Requests are never retried.
type Transport struct {
	// Base is the underlying round tripper; http.DefaultTransport when nil.
	Base http.RoundTripper

	// Storage is the persisted session record the token is read from.
	Storage session.Storage

	// OnExpired runs once when a response signals an expired session.
	OnExpired func()

	// AtLogin suppresses OnExpired while the user is already at the login
	// entry point, so repeated expiries cannot loop. nil means "never".
	AtLogin func() bool

	expired atomic.Bool
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("X-Request-ID", ulid.Make().String())

	if t.Storage != nil {
		if rec, err := t.Storage.Load(); err == nil && rec.AccessToken != "" {
			req.Header.Set("Authorization", "Bearer "+rec.AccessToken)
		}
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	resp, err := base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == statusSessionExpired {
		t.sessionExpired()
	}

	return resp, nil
}

func (t *Transport) sessionExpired() {
	if t.Storage != nil {
		_ = t.Storage.Clear()
	}
	if t.AtLogin != nil && t.AtLogin() {
		return
	}
	if !t.expired.CompareAndSwap(false, true) {
		return
	}
	if t.OnExpired != nil {
		t.OnExpired()
	}
}

// Reset re-arms the expiry notification after a fresh sign-in.
func (t *Transport) Reset() {
	t.expired.Store(false)
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tickd-dev/tickd/internal/models"
	"github.com/tickd-dev/tickd/internal/session"
)

// Client is the HTTP client for the tickd API. It implements
// session.Provider, so the session store can drive sign-in, sign-out,
// identity lookup and refresh through it.
type Client struct {
	baseURL    string
	httpClient *http.Client
	transport  *Transport

	subMu   sync.Mutex
	subs    map[int]func(session.Event)
	nextSub int
}

var _ session.Provider = (*Client)(nil)

// New creates an API client for the given server base URL. The token for
// outgoing requests is read from storage on every request.
func New(baseURL string, storage session.Storage) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		subs:    make(map[int]func(session.Event)),
	}
	c.transport = &Transport{
		Storage: storage,
		OnExpired: func() {
			c.emit(session.Event{Kind: session.EventSignedOut})
		},
	}
	c.httpClient = &http.Client{
		Timeout:   30 * time.Second,
		Transport: c.transport,
	}
	return c
}

// SetHTTPClient sets a custom HTTP client. The session-sync transport is
// re-attached on top of the client's own transport.
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.transport.Base = httpClient.Transport
	c.httpClient = &http.Client{
		Timeout:   httpClient.Timeout,
		Transport: c.transport,
	}
}

// Transport exposes the session-sync transport so callers can hook
// OnExpired or the AtLogin guard.
func (c *Client) Transport() *Transport {
	return c.transport
}

// BaseURL returns the server base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do sends one JSON request and decodes the normalized response into out.
// Non-2xx responses become *Error. No retries: a request either succeeds or
// its failure is handed back to the caller.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api"+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("api request")

	if resp.StatusCode >= 400 {
		return newError(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	return decodeEnvelope(data, out)
}

// decodeEnvelope normalizes the two response shapes the backend family
// uses, a bare payload or {"data": payload}, before it reaches any
// consumer.
func decodeEnvelope(data []byte, v any) error {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &env); err == nil && len(env.Data) > 0 && string(env.Data) != "null" {
		data = env.Data
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// tokenResponse covers the field names backends use for the access token.
type tokenResponse struct {
	AccessToken      string `json:"accessToken"`
	AccessTokenSnake string `json:"access_token"`
	Token            string `json:"token"`
}

// token applies the fixed precedence accessToken, access_token, token.
func (r tokenResponse) token() string {
	switch {
	case r.AccessToken != "":
		return r.AccessToken
	case r.AccessTokenSnake != "":
		return r.AccessTokenSnake
	default:
		return r.Token
	}
}

type signInResponse struct {
	tokenResponse
	User *session.UserPayload `json:"user"`
}

// SignIn exchanges credentials for a session via POST /api/login.
func (c *Client) SignIn(ctx context.Context, email, password string) (session.Session, error) {
	reqBody := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	var resp signInResponse
	if err := c.do(ctx, http.MethodPost, "/login", reqBody, &resp); err != nil {
		return session.Session{}, err
	}

	sess := session.Session{AccessToken: resp.token()}
	if resp.User != nil {
		sess.User = resp.User.Normalize()
	}
	if sess.AccessToken != "" {
		// A fresh sign-in re-arms the expiry notification.
		c.transport.Reset()
	}
	return sess, nil
}

// SignOut invalidates the session server-side via POST /api/logout.
func (c *Client) SignOut(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/logout", nil, nil)
}

// CurrentUser fetches the authenticated identity via GET /api/me. The
// payload may be the user itself or wrapped as {"user": ...}.
func (c *Client) CurrentUser(ctx context.Context) (*session.User, error) {
	var resp struct {
		session.UserPayload
		User *session.UserPayload `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/me", nil, &resp); err != nil {
		return nil, err
	}
	payload := resp.User
	if payload == nil {
		payload = &resp.UserPayload
	}
	return payload.Normalize(), nil
}

// Refresh exchanges the current session for a renewed token via POST
// /api/refresh.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	var resp tokenResponse
	if err := c.do(ctx, http.MethodPost, "/refresh", nil, &resp); err != nil {
		return "", err
	}
	token := resp.token()
	if token == "" {
		return "", fmt.Errorf("no access token in refresh response")
	}
	return token, nil
}

// OnAuthChange registers fn for session transitions the client observes on
// the wire, e.g. an expiry forced by a 401.
func (c *Client) OnAuthChange(fn func(session.Event)) (unsubscribe func()) {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *Client) emit(ev session.Event) {
	c.subMu.Lock()
	fns := make([]func(session.Event), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// ListTicketsOptions narrow a ticket listing.
type ListTicketsOptions struct {
	// Owner filters tickets to those owned by the given user id.
	Owner string
}

// ListTickets returns tickets ordered by creation time, newest first.
func (c *Client) ListTickets(ctx context.Context, opts ListTicketsOptions) ([]models.Ticket, error) {
	query := url.Values{}
	query.Set("sort", "-created_at")
	if opts.Owner != "" {
		query.Set("user_id", opts.Owner)
	}

	var tickets []models.Ticket
	if err := c.do(ctx, http.MethodGet, "/tickets?"+query.Encode(), nil, &tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

// GetTicket fetches one ticket by id.
func (c *Client) GetTicket(ctx context.Context, id string) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := c.do(ctx, http.MethodGet, "/tickets/"+url.PathEscape(id), nil, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// CreateTicket validates the input and creates a ticket. New tickets always
// start open; the backend owns every later status change.
func (c *Client) CreateTicket(ctx context.Context, in models.CreateTicketInput) (*models.Ticket, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	reqBody := struct {
		Title       string                `json:"title"`
		Description string                `json:"description"`
		Priority    models.TicketPriority `json:"priority"`
		Status      models.TicketStatus   `json:"status"`
	}{
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		Status:      models.TicketStatusOpen,
	}

	var ticket models.Ticket
	if err := c.do(ctx, http.MethodPost, "/tickets", reqBody, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

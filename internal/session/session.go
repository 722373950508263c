// Package session holds the client-side authentication state: who is logged
// in, the bearer token proving it, and the commands that move between the
// anonymous and authenticated states. The store is the sole writer of that
// state; everything else observes it or asks it to transition.
package session

import (
	"strconv"
	"strings"
)

// User is the identity attached to an authenticated session. It is derived
// from whatever the identity provider returns, never authoritative.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
}

// State is an atomic snapshot of the session. Transitions replace the whole
// value, so readers never observe a partial update.
type State struct {
	User            *User
	AccessToken     string
	IsAuthenticated bool
	IsLoading       bool
	Error           string
}

// Anonymous reports whether the state is the settled logged-out state.
func (s State) Anonymous() bool {
	return !s.IsAuthenticated && s.AccessToken == "" && s.User == nil
}

// UserPayload is the wire shape of a user as different backends return it.
// Identity providers disagree on where role and display name live (top-level
// fields vs app_metadata vs user_metadata), so the payload keeps all of them
// and Normalize applies one fixed precedence.
type UserPayload struct {
	ID           any            `json:"id"`
	Name         string         `json:"name"`
	Email        string         `json:"email"`
	Role         string         `json:"role"`
	AppMetadata  map[string]any `json:"app_metadata"`
	UserMetadata map[string]any `json:"user_metadata"`
}

// Normalize maps the heterogeneous payload into a User.
//
// Precedence, documented once here so no caller invents its own fallbacks:
//   - role: top-level role, then app_metadata.role, then user_metadata.role,
//     then "user".
//   - name: top-level name, then user_metadata.full_name, then
//     user_metadata.name, then the local part of the email.
func (p UserPayload) Normalize() *User {
	u := &User{
		ID:    stringify(p.ID),
		Email: p.Email,
		Name:  p.Name,
		Role:  p.Role,
	}

	if u.Role == "" {
		u.Role = metaString(p.AppMetadata, "role")
	}
	if u.Role == "" {
		u.Role = metaString(p.UserMetadata, "role")
	}
	if u.Role == "" {
		u.Role = "user"
	}

	if u.Name == "" {
		u.Name = metaString(p.UserMetadata, "full_name")
	}
	if u.Name == "" {
		u.Name = metaString(p.UserMetadata, "name")
	}
	if u.Name == "" && u.Email != "" {
		u.Name = strings.SplitN(u.Email, "@", 2)[0]
	}

	return u
}

func metaString(meta map[string]any, key string) string {
	if meta == nil {
		return ""
	}
	s, _ := meta[key].(string)
	return s
}

// stringify renders the polymorphic id field (string, JSON number) as a
// string.
func stringify(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case float64:
		// JSON numbers decode as float64; ids are integral in practice.
		return strconv.FormatInt(int64(id), 10)
	default:
		return ""
	}
}

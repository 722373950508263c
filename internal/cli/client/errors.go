package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error is a non-2xx API response.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("request failed (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("request failed (status %d)", e.Status)
}

// HumanMessage returns the message fit for display to the user.
func (e *Error) HumanMessage() string {
	return e.Message
}

// newError builds an Error from a response body, extracting a display
// message from the conventional {"message": ...} or {"error": ...} envelopes.
func newError(status int, body []byte) *Error {
	var payload struct {
		Message string `json:"message"`
		Err     string `json:"error"`
	}
	e := &Error{Status: status}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			e.Message = payload.Message
		} else if payload.Err != "" {
			e.Message = payload.Err
		}
	}
	return e
}

func hasStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// IsUnauthorized reports an authentication failure (401).
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

// IsForbidden reports an authorization failure (403). Forbidden is a
// permission problem, not an authentication problem: it never tears the
// session down.
func IsForbidden(err error) bool {
	return hasStatus(err, http.StatusForbidden)
}

// IsNotFound reports a missing resource (404).
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

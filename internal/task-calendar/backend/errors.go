package backend

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnauthorized means the user must sign in again: no token is configured or the
// collaborator answered 401.
var ErrUnauthorized = errors.New("authentication expired or invalid")

// ErrNetwork wraps transport failures where no answer was received.
var ErrNetwork = errors.New("network error")

// APIError is a non-2xx answer from the collaborator.
type APIError struct {
	Status   int
	Detail   string
	Redirect bool
	Err      error
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

func (e *APIError) Unwrap() error { return e.Err }

func unauthorized(detail string) *APIError {
	return &APIError{Status: 401, Detail: detail, Redirect: true, Err: ErrUnauthorized}
}

// errorFromResponse builds an APIError, preferring the server's "detail" text.
func errorFromResponse(status int, body []byte) *APIError {
	if status == 401 {
		return unauthorized("Authentication expired or invalid")
	}
	var payload struct {
		Detail any `json:"detail"`
	}
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != nil {
		switch d := payload.Detail.(type) {
		case string:
			apiErr.Detail = d
		default:
			// validation errors come back as a list of objects
			if raw, err := json.Marshal(d); err == nil {
				apiErr.Detail = string(raw)
			}
		}
	}
	return apiErr
}

// IsUnauthorized reports whether err requires re-authentication.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// StatusOf returns the collaborator status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

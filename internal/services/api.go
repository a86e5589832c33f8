package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/desertthunder/gaelon/internal/shared"
)

// ErrInvalidPath is returned for request paths that do not begin with '/'.
var ErrInvalidPath = fmt.Errorf("%w: invalid API path", shared.ErrInvalidInput)

// APIError is a failed Spotify request: a non-2xx response, or Status 0 when
// no response was received.
type APIError struct {
	Status     int
	Message    string
	RetryAfter time.Duration
	Err        error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("spotify request failed: %s", e.Message)
	}
	return fmt.Sprintf("spotify API error %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() []error {
	errs := []error{shared.ErrAPIRequest}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// SessionInvalid reports whether the token was rejected and must be discarded.
func (e *APIError) SessionInvalid() bool { return e.Status == http.StatusUnauthorized }

// IsSessionInvalid reports whether err carries a 401 [APIError].
func IsSessionInvalid(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.SessionInvalid()
}

// Request fetches path and returns the decoded JSON body unmodified.
//
// Objects decode to map[string]any, arrays to []any; an empty body yields nil.
func (c *Client) Request(ctx context.Context, path, token string) (any, error) {
	body, err := c.do(ctx, path, token)
	if err != nil {
		return nil, err
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return data, nil
}

// newAPIError reads Spotify's error envelope, which is either
// {"error":{"status":401,"message":"..."}} or, from the accounts service,
// {"error":"invalid_client","error_description":"..."}.
func newAPIError(resp *http.Response, body []byte) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}

	var envelope struct {
		Error       json.RawMessage `json:"error"`
		Description string          `json:"error_description"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Error) > 0 {
		var detail struct {
			Message string `json:"message"`
		}
		var code string
		switch {
		case json.Unmarshal(envelope.Error, &detail) == nil && detail.Message != "":
			apiErr.Message = detail.Message
		case envelope.Description != "":
			apiErr.Message = envelope.Description
		case json.Unmarshal(envelope.Error, &code) == nil && code != "":
			apiErr.Message = code
		}
	}

	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		apiErr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
	}
	return apiErr
}

func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(value); err == nil {
		if until := time.Until(when); until > 0 {
			return until
		}
	}
	return 0
}

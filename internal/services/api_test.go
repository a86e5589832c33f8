package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/desertthunder/gaelon/internal/shared"
	tu "github.com/desertthunder/gaelon/internal/testing"
)

func TestRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("Returns parsed JSON unmodified", func(t *testing.T) {
		stub := tu.NewSpotifyStub(map[string]tu.Route{
			"/me": {Body: `{"id":"u1","images":[],"followers":{"total":3}}`},
		})
		c, _ := newTestClient(t, stub, ClientOpts{})

		data, err := c.Request(ctx, "/me", "tok")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		obj, ok := data.(map[string]any)
		if !ok {
			t.Fatalf("expected object, got %T", data)
		}
		if obj["id"] != "u1" {
			t.Errorf("expected id u1, got %v", obj["id"])
		}
		if images, ok := obj["images"].([]any); !ok || len(images) != 0 {
			t.Errorf("expected empty images array, got %v", obj["images"])
		}
		if followers := obj["followers"].(map[string]any); followers["total"] != float64(3) {
			t.Errorf("expected 3 followers, got %v", followers["total"])
		}
	})

	t.Run("Empty body is nil", func(t *testing.T) {
		stub := tu.NewSpotifyStub(map[string]tu.Route{"/me": {Status: http.StatusNoContent}})
		c, _ := newTestClient(t, stub, ClientOpts{})

		data, err := c.Request(ctx, "/me", "tok")
		if err != nil || data != nil {
			t.Errorf("expected nil, nil; got %v, %v", data, err)
		}
	})

	t.Run("401 is distinguishable from 500", func(t *testing.T) {
		stub := tu.NewSpotifyStub(map[string]tu.Route{
			"/me":           {Status: http.StatusUnauthorized, Body: tu.ErrorBody(401, "The access token expired")},
			"/me/playlists": {Status: http.StatusInternalServerError, Body: tu.ErrorBody(500, "Server error")},
		})
		c, _ := newTestClient(t, stub, ClientOpts{})

		_, unauthorized := c.Request(ctx, "/me", "tok")
		_, failed := c.Request(ctx, "/me/playlists", "tok")

		var e401, e500 *APIError
		if !errors.As(unauthorized, &e401) || !errors.As(failed, &e500) {
			t.Fatalf("expected APIErrors, got %v and %v", unauthorized, failed)
		}

		if e401.Status != 401 || e401.Message != "The access token expired" {
			t.Errorf("unexpected 401 error %+v", e401)
		}
		if e500.Status != 500 || e500.Message != "Server error" {
			t.Errorf("unexpected 500 error %+v", e500)
		}
		if !IsSessionInvalid(unauthorized) {
			t.Error("401 should invalidate the session")
		}
		if IsSessionInvalid(failed) {
			t.Error("500 should not invalidate the session")
		}
		if !errors.Is(failed, shared.ErrAPIRequest) {
			t.Error("APIError should match ErrAPIRequest")
		}
	})

	t.Run("Transport failure", func(t *testing.T) {
		cause := errors.New("connection refused")
		c := NewClient(ClientOpts{HTTPClient: &http.Client{Transport: tu.NewMockRoundTripper(nil, cause)}})

		_, err := c.Request(ctx, "/me", "tok")
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected APIError, got %v", err)
		}
		if apiErr.Status != 0 {
			t.Errorf("expected status 0, got %d", apiErr.Status)
		}
		if !errors.Is(err, cause) {
			t.Error("cause should be preserved")
		}
		if IsSessionInvalid(err) {
			t.Error("transport failure is not a session failure")
		}
	})

	t.Run("Error envelopes", func(t *testing.T) {
		tc := []struct {
			name string
			body string
			want string
		}{
			{name: "api envelope", body: `{"error":{"status":403,"message":"Insufficient client scope"}}`, want: "Insufficient client scope"},
			{name: "accounts envelope", body: `{"error":"invalid_client","error_description":"Invalid client"}`, want: "Invalid client"},
			{name: "bare code", body: `{"error":"invalid_request"}`, want: "invalid_request"},
			{name: "not json", body: `<html>oops</html>`, want: "Forbidden"},
			{name: "empty", body: ``, want: "Forbidden"},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				c := NewClient(ClientOpts{HTTPClient: &http.Client{
					Transport: tu.NewMockRoundTripper(tu.JSONResponse(http.StatusForbidden, tt.body), nil),
				}})

				_, err := c.Request(ctx, "/me", "tok")
				var apiErr *APIError
				if !errors.As(err, &apiErr) {
					t.Fatalf("expected APIError, got %v", err)
				}
				if apiErr.Message != tt.want {
					t.Errorf("expected %q, got %q", tt.want, apiErr.Message)
				}
			})
		}
	})

	t.Run("Retry-After captured on 429", func(t *testing.T) {
		resp := tu.JSONResponse(http.StatusTooManyRequests, tu.ErrorBody(429, "API rate limit exceeded"))
		resp.Header.Set("Retry-After", "4")
		c := NewClient(ClientOpts{HTTPClient: &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)}})

		_, err := c.Request(ctx, "/me", "tok")
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected APIError, got %v", err)
		}
		if apiErr.RetryAfter != 4*time.Second {
			t.Errorf("expected 4s, got %v", apiErr.RetryAfter)
		}
	})

	t.Run("parseRetryAfter", func(t *testing.T) {
		if d := parseRetryAfter(""); d != 0 {
			t.Errorf("expected 0, got %v", d)
		}
		if d := parseRetryAfter("nonsense"); d != 0 {
			t.Errorf("expected 0, got %v", d)
		}
		future := time.Now().Add(time.Minute).UTC().Format(http.TimeFormat)
		if d := parseRetryAfter(future); d <= 0 || d > time.Minute {
			t.Errorf("expected a positive delay under a minute, got %v", d)
		}
	})

	t.Run("Error strings", func(t *testing.T) {
		if got := (&APIError{Status: 404, Message: "Not Found"}).Error(); got != "spotify API error 404: Not Found" {
			t.Errorf("unexpected %s", got)
		}
		if got := (&APIError{Message: "dial tcp"}).Error(); got != "spotify request failed: dial tcp" {
			t.Errorf("unexpected %s", got)
		}
	})
}

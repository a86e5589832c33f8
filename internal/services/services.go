package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/gaelon/internal/auth"
	"github.com/desertthunder/gaelon/internal/shared"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the Spotify Web API root, version prefix included.
const DefaultBaseURL = "https://api.spotify.com/v1"

// ClientOpts configures a [Client].
type ClientOpts struct {
	BaseURL    string
	HTTPClient *http.Client
	// RateLimit is the sustained requests per second; 0 disables limiting.
	RateLimit float64
	Burst     int
	// MaxPages bounds every [Pager] created from the client; 0 is unbounded.
	MaxPages int
	Logger   *log.Logger
}

// ClientOptsFromConfig maps the [api] config section onto client options.
func ClientOptsFromConfig(cfg shared.APIConfig, logger *log.Logger) ClientOpts {
	return ClientOpts{
		BaseURL:    cfg.BaseURL,
		HTTPClient: &http.Client{Timeout: cfg.Timeout()},
		RateLimit:  cfg.RateLimit,
		MaxPages:   cfg.MaxPages,
		Logger:     logger,
	}
}

// Client performs authenticated GET requests against the Spotify Web API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxPages   int
	logger     *log.Logger
}

// NewClient creates a Client. Zero-valued options fall back to defaults.
func NewClient(opts ClientOpts) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		limiter:    limiter,
		maxPages:   opts.MaxPages,
		logger:     logger,
	}
}

// BaseURL returns the API root requests are issued against.
func (c *Client) BaseURL() string { return c.baseURL }

// Get fetches path and decodes the JSON body into out. A nil out discards the body.
func (c *Client) Get(ctx context.Context, path, token string, out any) error {
	body, err := c.do(ctx, path, token)
	if err != nil {
		return err
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

// Raw fetches path and returns the undecoded JSON body.
func (c *Client) Raw(ctx context.Context, path, token string) (json.RawMessage, error) {
	body, err := c.do(ctx, path, token)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: response from %s is not JSON", shared.ErrAPIRequest, path)
	}
	return json.RawMessage(body), nil
}

// RelativePath turns an absolute "next" link back into a path the client accepts.
func (c *Client) RelativePath(link string) (string, error) {
	switch {
	case strings.HasPrefix(link, c.baseURL):
		rel := strings.TrimPrefix(link, c.baseURL)
		if !strings.HasPrefix(rel, "/") {
			return "", fmt.Errorf("%w: %q", ErrInvalidPath, link)
		}
		return rel, nil
	case strings.HasPrefix(link, DefaultBaseURL):
		return strings.TrimPrefix(link, DefaultBaseURL), nil
	case strings.HasPrefix(link, "/"):
		return link, nil
	default:
		return "", fmt.Errorf("%w: next link %q is outside %s", ErrInvalidPath, link, c.baseURL)
	}
}

func (c *Client) do(ctx context.Context, path, token string) ([]byte, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("%w: %q must begin with /", ErrInvalidPath, path)
	}
	if token == "" {
		return nil, auth.ErrAuthMissing
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &APIError{Message: "rate limiter: " + err.Error(), Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("request failed", "path", path, "error", err)
		return nil, &APIError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Status: resp.StatusCode, Message: "failed to read response: " + err.Error(), Err: err}
	}

	c.logger.Debug("spotify request", "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newAPIError(resp, body)
		c.logger.Warn("spotify API error", "path", path, "status", apiErr.Status, "message", apiErr.Message)
		return nil, apiErr
	}

	return body, nil
}

// package testing contains shared testing utilities
package testing

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// JSONResponse builds an [http.Response] carrying body as JSON.
func JSONResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// Route is a canned response for a Spotify path (including query).
type Route struct {
	Status int
	Body   any
}

// SpotifyStub serves canned JSON per request URI and records every request.
//
// Register routes relative to the /v1 prefix, e.g. "/me" or "/me/top/tracks?limit=5".
// Unknown paths answer 404 with a Spotify style error body.
type SpotifyStub struct {
	mu       sync.Mutex
	routes   map[string]Route
	requests []*http.Request
}

func NewSpotifyStub(routes map[string]Route) *SpotifyStub {
	if routes == nil {
		routes = make(map[string]Route)
	}
	return &SpotifyStub{routes: routes}
}

// Handle adds or replaces the canned response for uri.
func (s *SpotifyStub) Handle(uri string, r Route) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[uri] = r
}

// Requests returns the recorded request URIs in arrival order.
func (s *SpotifyStub) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	uris := make([]string, 0, len(s.requests))
	for _, r := range s.requests {
		uris = append(uris, strings.TrimPrefix(r.URL.RequestURI(), "/v1"))
	}
	return uris
}

// LastAuthorization returns the Authorization header of the most recent request.
func (s *SpotifyStub) LastAuthorization() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return ""
	}
	return s.requests[len(s.requests)-1].Header.Get("Authorization")
}

func (s *SpotifyStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, r)
	route, ok := s.routes[strings.TrimPrefix(r.URL.RequestURI(), "/v1")]
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":{"status":404,"message":"Service not found"}}`)
		return
	}

	status := route.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	switch body := route.Body.(type) {
	case nil:
	case string:
		io.WriteString(w, body)
	default:
		json.NewEncoder(w).Encode(body)
	}
}

// ErrorBody builds Spotify's error envelope.
func ErrorBody(status int, message string) string {
	b, _ := json.Marshal(map[string]any{"error": map[string]any{"status": status, "message": message}})
	return string(b)
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

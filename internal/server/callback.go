package server

import (
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/desertthunder/gaelon/internal/auth"
)

// TokenPath receives the redirect fragment posted by the callback page.
const TokenPath = "/token"

// CallbackResult is the outcome of an implicit-grant redirect.
type CallbackResult struct {
	Token     string
	ExpiresIn int
	err       error
}

func (c *CallbackResult) Error() error {
	return c.err
}

// CallbackHandler captures the implicit-grant redirect and stores the token.
// Implements the [Handler] interface for registration with a Router.
type CallbackHandler struct {
	store        *auth.TokenStore
	state        string
	callbackPath string
	resultChan   chan CallbackResult
	once         sync.Once
	tokenHit     bool
	mu           sync.Mutex
}

// NewCallbackHandler creates a handler serving callbackPath (the redirect URI's path).
//
// state must match the state sent with the authorize URL; an empty state disables the check.
// The store should be cleared beforehand, since [auth.TokenStore.Load] prefers a persisted token.
func NewCallbackHandler(store *auth.TokenStore, state, callbackPath string) *CallbackHandler {
	if callbackPath == "" {
		callbackPath = "/callback"
	}
	return &CallbackHandler{
		store:        store,
		state:        state,
		callbackPath: callbackPath,
		resultChan:   make(chan CallbackResult, 1),
	}
}

// CallbackPath extracts the path of a redirect URI, defaulting to /callback.
func CallbackPath(redirectURI string) string {
	u, err := url.Parse(redirectURI)
	if err != nil || u.Path == "" || u.Path == "/" {
		return "/callback"
	}
	return u.Path
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{h.callbackPath, TokenPath}
}

func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == h.callbackPath && r.Method == http.MethodGet:
		h.serveCallback(w, r)
	case r.URL.Path == TokenPath && r.Method == http.MethodPost:
		h.serveToken(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// serveCallback renders the page that forwards the fragment. Errors Spotify
// reports in the query string end the flow immediately.
func (h *CallbackHandler) serveCallback(w http.ResponseWriter, r *http.Request) {
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Send(CallbackResult{err: fmt.Errorf("authorization failed: %s", errParam)})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, callbackPage, TokenPath)
}

func (h *CallbackHandler) serveToken(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.tokenHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.tokenHit = true
	h.mu.Unlock()

	if err := r.ParseForm(); err != nil {
		h.Send(CallbackResult{err: fmt.Errorf("invalid callback body: %w", err)})
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	raw := r.PostForm.Get("fragment")
	values, _ := url.ParseQuery(raw)
	if h.state != "" && values.Get("state") != h.state {
		h.Send(CallbackResult{err: fmt.Errorf("invalid state parameter")})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	h.store.SetLocation(auth.FragmentLocation(raw))
	token, err := h.store.Load(r.Context())
	if err != nil {
		h.Send(CallbackResult{err: err})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	expiresIn := 0
	if f, err := auth.ParseFragment(raw); err == nil {
		expiresIn = f.ExpiresIn
	}
	h.Send(CallbackResult{Token: token, ExpiresIn: expiresIn})

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "Authorization successful. You can close this window and return to the terminal.")
}

// Send sends the callback result through the channel (only once).
func (h *CallbackHandler) Send(result CallbackResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving flow completion.
//
// Channel will receive exactly one result and then be closed.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.resultChan
}

const callbackPage = `<!DOCTYPE html>
<html>
<head>
    <title>gaelon</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #121212; }
        .container { text-align: center; background: #181818; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.4); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #b3b3b3; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>gaelon</h1>
        <p id="status">Completing authorization...</p>
    </div>
    <script>
        const fragment = window.location.hash.substring(1);
        history.replaceState(null, "", window.location.pathname);
        const status = document.getElementById("status");
        if (!fragment) {
            status.textContent = "No authorization data found in the redirect.";
        } else {
            fetch("%s", {
                method: "POST",
                headers: { "Content-Type": "application/x-www-form-urlencoded" },
                body: new URLSearchParams({ fragment: fragment }),
            })
                .then((res) => res.text())
                .then((text) => { status.textContent = text; })
                .catch(() => { status.textContent = "Could not reach gaelon. Is the terminal still waiting?"; });
        }
    </script>
</body>
</html>
`

// Package server provides HTTP routing, middleware, and the implicit-grant callback for gaelon's CLI and web interfaces.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Implicit Grant Callback
//
// Spotify's implicit grant returns the access token in the redirect URI's
// fragment, which browsers never send to a server. [CallbackHandler] therefore
// serves two routes:
//   - GET /callback : a small page whose script clears the fragment from the
//     address bar with history.replaceState and posts it to /token
//   - POST /token : validates the state parameter (CSRF protection) and hands
//     the fragment to [auth.TokenStore], which parses, persists and clears it
//
// The outcome is sent once through [CallbackHandler.Result]. Later posts are
// rejected to prevent replay.
//
// # Current Usage
//
// `gaelon auth login` starts a temporary HTTP server on the configured
// redirect host, opens the authorize URL in the browser, waits for the
// callback result, and shuts down. `gaelon serve` mounts the same handler
// next to the dashboard JSON API from internal/web.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server

// Package web serves the dashboard as a local JSON API.
//
// # Routes
//
//	GET    /api/panels          → every panel, each with its own error
//	GET    /api/panels/{panel}  → a single panel; ?mood= and ?range= select inputs
//	GET    /api/session         → whether a token is stored
//	DELETE /api/session         → forget the stored token
//
// An optional [server.CallbackHandler] may be mounted so the same server also
// completes the login redirect.
//
// # Errors
//
// Failures are JSON objects of the form {"error": "...", "login": bool}. A
// missing token or one rejected by Spotify answers 401 with login set; the
// session has already cleared the rejected token by then. Invalid inputs
// answer 400, an unknown panel 404, and other upstream failures 502 (429 is
// passed through with its Retry-After).
package web

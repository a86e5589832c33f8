// Package services is the access layer between gaelon and the Spotify Web API.
//
// # Client
//
// [Client] issues authenticated GET requests against the API base
// (https://api.spotify.com/v1 by default). Every call takes the bearer token
// explicitly: the client never owns credentials, so the caller decides which
// token applies and what to do when the API rejects it.
//
// [Client.Request] returns the decoded JSON body unmodified as an `any` tree for
// callers doing their own defensive field access; [Client.Get] decodes into a
// typed struct from the models package.
//
// A client-side [rate.Limiter] spaces requests when a rate is configured.
//
// # Errors
//
// Non-2xx responses and transport failures both surface as [*APIError]:
//   - Status 401 : [APIError.SessionInvalid] is true, the token must be discarded
//   - Status 429 : [APIError.RetryAfter] carries the server's back-off hint
//   - Status 0   : the request never produced a response (network, context)
//
// Precondition failures return [ErrInvalidPath] or [auth.ErrAuthMissing] before any I/O.
//
// # Pagination
//
// [Pager] walks Spotify's cursor pages (`{"items": [...], "next": "..."}`)
// one page at a time, strictly in order, and never fetches the same page twice.
// It stops when next is null or points at a page already consumed. Reaching
// the page bound with a next link left is [ErrPageLimit]. [CollectAll] drains
// a pager and returns whatever was accumulated alongside the first error.
//
// # Endpoints
//
// spotify.go wraps the endpoints the dashboard panels read (/me, top items,
// recently played, playlists, recommendations).
package services

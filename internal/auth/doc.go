// Package auth builds the Spotify implicit-grant authorize URL and owns the access token.
//
// # Authorize URL
//
// [AuthURL] is a pure function of [shared.SpotifyConfig]. It reuses [oauth2.Config] to encode
// client_id, redirect_uri, scope and state, overriding response_type to "token" so Spotify returns
// the access token directly in the redirect fragment.
//
// # Token Store
//
// [TokenStore] is the single owner of the access token. [TokenStore.Load] checks the [Persister]
// first, then the redirect [Location] fragment, persisting what it finds and clearing the fragment
// so the token does not linger in browser history. [TokenStore.Clear] is logout.
//
// Errors:
//   - [ErrAuthMissing] : no token in storage and no redirect fragment
//   - [ErrTokenNotFound] : a fragment was present but carried no access_token
package auth

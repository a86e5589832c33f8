// Package repositories implements SQLite persistence for gaelon.
//
// The dashboard persists exactly one thing across runs: the Spotify access
// token obtained through the implicit grant. It lives as a single key-value
// entry in the tokens table created by the embedded migrations in
// [shared.RunMigrations].
//
// Key Implementations:
//   - [TokenRepository] : key-value entries backing [auth.TokenStore]
//
// Writes are upserts so re-authenticating replaces the previous token in
// place, and reads report absence with a boolean rather than an error.
package repositories

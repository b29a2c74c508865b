// Package stores keeps proof tokens in the caller's session.
//
// # Design
//
// All tokens of a session live in one map under the "tfa_tokens" session
// key, each with its type and expiry. Entries more than a minute past
// expiry are purged on every load. Tokens stay valid until they expire,
// including after a successful check.
//
// # What this package must NOT do
//
//   - Import goStepUp or decide which rule a token is for.
//   - Log token values.
package stores

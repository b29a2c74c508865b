// Package identity signs and parses the principal token the HTTP server
// uses to know who is calling: user id plus the session id that keys
// pending codes and proof tokens. HS256 and Ed25519 are supported.
package identity

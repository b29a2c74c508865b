// Package session provides the session-scoped key/value storage used for
// proof tokens and pending SMS codes.
//
// # Architecture boundaries
//
// This package owns the [Store] contract and its Redis implementation. It
// does NOT interpret the values it holds, evaluate access rules, or decide
// expiry of individual entries. Callers store whole records per key and
// expire their own entries lazily on access.
//
// # What this package must NOT do
//
//   - Import goStepUp, rule, or verify (no upward imports).
//   - Keep state in process memory between calls.
package session

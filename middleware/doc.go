// Package middleware adapts net/http requests to the goStepUp engine.
//
// # Middleware
//
//   - [Identify] resolves the caller from a principal token and makes sure
//     every request carries a session id.
//   - [Guard] runs Engine.Evaluate and either passes the request on or
//     answers with the challenge, setup prompt or login redirect.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into engine calls. Decisions are
// made by the engine; this package only renders them.
package middleware

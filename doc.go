// Package goStepUp provides a step-up verification engine: access rules
// describe sensitive requests, and a matching request is let through only
// when it carries a proof token earned by passing a second factor (SMS code,
// authenticator code, password) within the token lifetime.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// goStepUp is the public surface. It exposes [Engine], [Builder], [Config] and
// the request/response value types. Handlers live in package verify, rule
// matching in package rule, number handling in package phone. Proof token
// storage, the throttle ledger and audit dispatch live under internal/ and
// are never exported.
//
// # Request flow
//
//   - [Engine.Evaluate] runs on every guarded request and returns an
//     [Outcome]: allow, log in, set up a handler, answer a challenge, or fail
//     a POST that arrived without a token.
//   - [Engine.Prompt] and [Engine.Confirm] back the browser popup. A
//     successful confirmation yields a proof token bound to the session and
//     the rule.
//   - [Engine.SendCode] and the SMS endpoints deliver codes under the send
//     and attempt quotas of the ledger.
//   - [Engine.LoginPrompt], [Engine.LoginConfirm] and [Engine.CheckLogin]
//     add a second factor to login forms.
//
// # Errors
//
// User-facing failures (wrong code, quota reached, handler missing) are folded
// into [Response] values. Only backend failures, such as Redis or the rule
// store being unreachable, are returned as Go errors.
package goStepUp

// Package internal holds random code and token generation shared by the
// engine packages.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - logger: process-wide logrus logger
//   - rate: failed login counters
//   - stores: proof token store over a session store
//   - throttle: send and attempt ledger
//
// # What this package must NOT do
//
//   - Export types that appear in the public goStepUp API.
//   - Be imported by any package outside the goStepUp module.
package internal

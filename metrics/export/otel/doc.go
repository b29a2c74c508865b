// Package otel binds engine counters to OpenTelemetry observable instruments.
//
// Counters that differ only by outcome share one Int64ObservableCounter and
// are told apart by an attribute: stepup_evaluate_decisions_total{decision},
// stepup_verifications_total{outcome}, stepup_proof_tokens_total{outcome},
// stepup_sms_total{outcome} and stepup_enrollment_total{change}. Throttle
// refusals are stepup_rate_limit_hits_total.
//
// Evaluate latency is exported as stepup_evaluate_latency_seconds_bucket, a
// gauge of cumulative samples per "le" attribute, plus a _count gauge. Audit
// losses are stepup_audit_dropped_total{class} and folded rate-limit repeats
// are stepup_audit_coalesced_total.
//
// A single callback reads [goStepUp.Engine.MetricsSnapshot] and
// [goStepUp.Engine.AuditStats] on each collection. The caller owns the
// MeterProvider.
package otel

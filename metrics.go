package goStepUp

import (
	"sync/atomic"
	"time"
)

// MetricID identifies an engine counter.
type MetricID uint16

const (
	// MetricEvaluateAllow counts requests let through by Evaluate.
	MetricEvaluateAllow MetricID = iota
	// MetricEvaluateChallenge counts GET requests answered with a verification prompt.
	MetricEvaluateChallenge
	// MetricEvaluateCheckFailed counts POST requests rejected for a missing proof token.
	MetricEvaluateCheckFailed
	// MetricEvaluateLoginRequired counts guests stopped by a required rule.
	MetricEvaluateLoginRequired
	// MetricEvaluateSetupRequired counts users without a usable handler for a required rule.
	MetricEvaluateSetupRequired
	// MetricProofTokenIssued counts proof tokens handed out after verification.
	MetricProofTokenIssued
	// MetricProofTokenRejected counts presented proof tokens that were invalid or expired.
	MetricProofTokenRejected
	// MetricVerifySuccess counts successful handler verifications.
	MetricVerifySuccess
	// MetricVerifyFailure counts failed handler verifications.
	MetricVerifyFailure
	// MetricSMSSent counts delivered SMS codes.
	MetricSMSSent
	// MetricSMSFailed counts SMS gateway failures.
	MetricSMSFailed
	// MetricSMSBlocked counts users moved into an SMS block.
	MetricSMSBlocked
	// MetricRateLimitHit counts requests refused by the throttle ledger.
	MetricRateLimitHit
	// MetricNumberConfirmed counts confirmed phone numbers.
	MetricNumberConfirmed
	// MetricHandlerActivated counts handler activations.
	MetricHandlerActivated
	// MetricHandlerDeactivated counts handler deactivations.
	MetricHandlerDeactivated
	// MetricLoginVerified counts completed two-factor logins.
	MetricLoginVerified
	// MetricEvaluateLatency is the Evaluate latency histogram.
	MetricEvaluateLatency
	metricIDCount
)

var metricNames = [metricIDCount]string{
	MetricEvaluateAllow:         "evaluate_allow",
	MetricEvaluateChallenge:     "evaluate_challenge",
	MetricEvaluateCheckFailed:   "evaluate_check_failed",
	MetricEvaluateLoginRequired: "evaluate_login_required",
	MetricEvaluateSetupRequired: "evaluate_setup_required",
	MetricProofTokenIssued:      "proof_token_issued",
	MetricProofTokenRejected:    "proof_token_rejected",
	MetricVerifySuccess:         "verify_success",
	MetricVerifyFailure:         "verify_failure",
	MetricSMSSent:               "sms_sent",
	MetricSMSFailed:             "sms_failed",
	MetricSMSBlocked:            "sms_blocked",
	MetricRateLimitHit:          "rate_limit_hit",
	MetricNumberConfirmed:       "number_confirmed",
	MetricHandlerActivated:      "handler_activated",
	MetricHandlerDeactivated:    "handler_deactivated",
	MetricLoginVerified:         "login_verified",
	MetricEvaluateLatency:       "evaluate_latency",
}

// String returns the snake_case exporter name of id.
func (id MetricID) String() string {
	if id >= metricIDCount {
		return "unknown"
	}
	return metricNames[id]
}

// MetricIDs lists every counter in declaration order.
func MetricIDs() []MetricID {
	out := make([]MetricID, 0, int(metricIDCount))
	for id := MetricID(0); id < metricIDCount; id++ {
		out = append(out, id)
	}
	return out
}

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

// HistogramBounds are the upper bounds of the latency buckets. The last
// bucket is unbounded.
var HistogramBounds = [histBucketCount - 1]time.Duration{
	time.Millisecond,
	2 * time.Millisecond,
	5 * time.Millisecond,
	10 * time.Millisecond,
	25 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
}

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free engine counters.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the Evaluate latency histogram. Other ids are ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enableLatency || id != MetricEvaluateLatency {
		return
	}
	atomic.AddUint64(&m.histograms[id].buckets[bucketIndex(d)], 1)
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricEvaluateLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := range buckets {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricEvaluateLatency].buckets[i])
		}
		s.Histograms[MetricEvaluateLatency] = buckets
	}
	return s
}

func bucketIndex(d time.Duration) int {
	for i, bound := range HistogramBounds {
		if d <= bound {
			return i
		}
	}
	return histBucketCount - 1
}

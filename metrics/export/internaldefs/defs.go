package internaldefs

import (
	goStepUp "github.com/MrEthical07/goStepUp"
)

// CounterDef maps an engine counter to its exported name.
type CounterDef struct {
	ID   goStepUp.MetricID
	Name string
	Help string
}

// HistogramDef maps an engine histogram to its exported name.
type HistogramDef struct {
	ID   goStepUp.MetricID
	Name string
	Help string
}

// Namespace prefixes every exported series.
const Namespace = "stepup"

// CounterDefs lists every exported counter in engine declaration order.
var CounterDefs = []CounterDef{
	counter(goStepUp.MetricEvaluateAllow, "Requests allowed by Evaluate."),
	counter(goStepUp.MetricEvaluateChallenge, "Requests answered with a verification prompt."),
	counter(goStepUp.MetricEvaluateCheckFailed, "Requests refused with a failed security check."),
	counter(goStepUp.MetricEvaluateLoginRequired, "Guest requests sent to the login page."),
	counter(goStepUp.MetricEvaluateSetupRequired, "Requests from users without a usable verification method."),
	counter(goStepUp.MetricProofTokenIssued, "Proof tokens issued after a successful verification."),
	counter(goStepUp.MetricProofTokenRejected, "Proof tokens that were missing, expired or bound elsewhere."),
	counter(goStepUp.MetricVerifySuccess, "Successful handler verifications."),
	counter(goStepUp.MetricVerifyFailure, "Failed handler verifications."),
	counter(goStepUp.MetricSMSSent, "One-time codes delivered to the SMS gateway."),
	counter(goStepUp.MetricSMSFailed, "SMS deliveries rejected by the gateway."),
	counter(goStepUp.MetricSMSBlocked, "SMS sends refused before reaching the gateway."),
	counter(goStepUp.MetricRateLimitHit, "Throttle checks that refused a request."),
	counter(goStepUp.MetricNumberConfirmed, "Phone numbers confirmed or assigned."),
	counter(goStepUp.MetricHandlerActivated, "Verification handlers activated by users."),
	counter(goStepUp.MetricHandlerDeactivated, "Verification handlers deactivated by users."),
	counter(goStepUp.MetricLoginVerified, "Logins confirmed with a second factor."),
}

// HistogramDefs lists the exported histograms.
var HistogramDefs = []HistogramDef{
	{
		ID:   goStepUp.MetricEvaluateLatency,
		Name: Namespace + "_evaluate_latency_seconds",
		Help: "Evaluate latency histogram.",
	},
}

// HistogramBounds are the engine bucket bounds in seconds, ending with +Inf.
var HistogramBounds = []string{
	"0.001",
	"0.002",
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"+Inf",
}

// UpperBounds returns the finite bucket bounds in seconds.
func UpperBounds() []float64 {
	out := make([]float64, 0, len(goStepUp.HistogramBounds))
	for _, b := range goStepUp.HistogramBounds {
		out = append(out, b.Seconds())
	}
	return out
}

// NormalizeBuckets copies raw into a fixed-size array, padding with zeros.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}

func counter(id goStepUp.MetricID, help string) CounterDef {
	return CounterDef{ID: id, Name: Namespace + "_" + id.String() + "_total", Help: help}
}

package otel

import (
	"context"
	"errors"
	"fmt"

	goStepUp "github.com/MrEthical07/goStepUp"
	"github.com/MrEthical07/goStepUp/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Constructor errors.
var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() goStepUp.MetricsSnapshot
	AuditStats() goStepUp.AuditStats
}

// series is one engine counter inside a labelled family.
type series struct {
	id    goStepUp.MetricID
	value string
}

// family groups engine counters that differ only by outcome into one
// instrument with an attribute.
type family struct {
	name   string
	help   string
	key    string
	series []series
}

var families = []family{
	{
		name: "evaluate_decisions_total",
		help: "Evaluate outcomes by decision.",
		key:  "decision",
		series: []series{
			{goStepUp.MetricEvaluateAllow, "allow"},
			{goStepUp.MetricEvaluateChallenge, "challenge"},
			{goStepUp.MetricEvaluateCheckFailed, "check_failed"},
			{goStepUp.MetricEvaluateLoginRequired, "login_required"},
			{goStepUp.MetricEvaluateSetupRequired, "setup_required"},
		},
	},
	{
		name: "verifications_total",
		help: "Handler verifications by outcome.",
		key:  "outcome",
		series: []series{
			{goStepUp.MetricVerifySuccess, "success"},
			{goStepUp.MetricVerifyFailure, "failure"},
			{goStepUp.MetricLoginVerified, "login"},
		},
	},
	{
		name: "proof_tokens_total",
		help: "Proof tokens by outcome.",
		key:  "outcome",
		series: []series{
			{goStepUp.MetricProofTokenIssued, "issued"},
			{goStepUp.MetricProofTokenRejected, "rejected"},
		},
	},
	{
		name: "sms_total",
		help: "SMS code deliveries by outcome.",
		key:  "outcome",
		series: []series{
			{goStepUp.MetricSMSSent, "sent"},
			{goStepUp.MetricSMSFailed, "failed"},
			{goStepUp.MetricSMSBlocked, "blocked"},
		},
	},
	{
		name: "enrollment_total",
		help: "Second factor enrollment changes.",
		key:  "change",
		series: []series{
			{goStepUp.MetricNumberConfirmed, "number_confirmed"},
			{goStepUp.MetricHandlerActivated, "handler_activated"},
			{goStepUp.MetricHandlerDeactivated, "handler_deactivated"},
		},
	},
	{
		name:   "rate_limit_hits_total",
		help:   "Requests refused by the throttle ledger.",
		series: []series{{goStepUp.MetricRateLimitHit, ""}},
	},
}

type observedFamily struct {
	family
	instrument metric.Int64ObservableCounter
	attrs      []metric.ObserveOption
}

// OTelExporter observes the engine snapshot from one meter callback.
// Counters that differ by outcome share an instrument with an attribute;
// the latency histogram is a gauge per cumulative "le" bucket.
type OTelExporter struct {
	source       metricsSource
	registration metric.Registration
	families     []observedFamily
	latency      metric.Int64ObservableGauge
	latencyCount metric.Int64ObservableGauge
	leAttrs      []metric.ObserveOption
	auditDropped metric.Int64ObservableCounter
	coalesced    metric.Int64ObservableCounter
}

// NewOTelExporter registers instruments for engine on meter.
func NewOTelExporter(meter metric.Meter, engine *goStepUp.Engine) (*OTelExporter, error) {
	return NewOTelExporterFromSource(meter, engine)
}

// NewOTelExporterFromSource registers instruments reading from source.
func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	x := &OTelExporter{source: source}
	var observables []metric.Observable

	for _, f := range families {
		name := internaldefs.Namespace + "_" + f.name
		ins, err := meter.Int64ObservableCounter(name, metric.WithDescription(f.help))
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", name, err)
		}
		of := observedFamily{family: f, instrument: ins, attrs: make([]metric.ObserveOption, len(f.series))}
		for i, s := range f.series {
			if f.key != "" {
				of.attrs[i] = metric.WithAttributes(attribute.String(f.key, s.value))
			}
		}
		x.families = append(x.families, of)
		observables = append(observables, ins)
	}

	latencyName := internaldefs.Namespace + "_evaluate_latency_seconds"
	var err error
	if x.latency, err = meter.Int64ObservableGauge(latencyName+"_bucket",
		metric.WithDescription("Cumulative Evaluate latency samples at or below le seconds.")); err != nil {
		return nil, fmt.Errorf("create latency buckets: %w", err)
	}
	if x.latencyCount, err = meter.Int64ObservableGauge(latencyName+"_count",
		metric.WithDescription("Evaluate latency samples.")); err != nil {
		return nil, fmt.Errorf("create latency count: %w", err)
	}
	for _, le := range internaldefs.HistogramBounds {
		x.leAttrs = append(x.leAttrs, metric.WithAttributes(attribute.String("le", le)))
	}

	if x.auditDropped, err = meter.Int64ObservableCounter(internaldefs.Namespace+"_audit_dropped_total",
		metric.WithDescription("Audit events lost on a full buffer, by class.")); err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	if x.coalesced, err = meter.Int64ObservableCounter(internaldefs.Namespace+"_audit_coalesced_total",
		metric.WithDescription("Repeated rate-limit audit events folded into one.")); err != nil {
		return nil, fmt.Errorf("create audit coalesced counter: %w", err)
	}
	observables = append(observables, x.latency, x.latencyCount, x.auditDropped, x.coalesced)

	x.registration, err = meter.RegisterCallback(x.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	return x, nil
}

func (x *OTelExporter) observe(_ context.Context, o metric.Observer) error {
	snap := x.source.MetricsSnapshot()
	for _, f := range x.families {
		for i, s := range f.series {
			v, ok := snap.Counters[s.id]
			if !ok {
				continue
			}
			if f.attrs[i] == nil {
				o.ObserveInt64(f.instrument, int64(v))
				continue
			}
			o.ObserveInt64(f.instrument, int64(v), f.attrs[i])
		}
	}

	if raw, ok := snap.Histograms[goStepUp.MetricEvaluateLatency]; ok {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		for i, n := range cumulative {
			o.ObserveInt64(x.latency, int64(n), x.leAttrs[i])
		}
		o.ObserveInt64(x.latencyCount, int64(cumulative[len(cumulative)-1]))
	}

	stats := x.source.AuditStats()
	for class, n := range stats.Dropped {
		o.ObserveInt64(x.auditDropped, int64(n), metric.WithAttributes(attribute.String("class", class)))
	}
	o.ObserveInt64(x.coalesced, int64(stats.Coalesced))
	return nil
}

// Close unregisters the callback.
func (x *OTelExporter) Close() error {
	if x == nil || x.registration == nil {
		return nil
	}
	return x.registration.Unregister()
}

// Package prometheus exposes engine counters through client_golang.
//
// [PrometheusExporter] is a [prom.Collector] that reads
// [goStepUp.Engine.MetricsSnapshot] on every scrape. Counters are named
// stepup_*_total and the Evaluate latency histogram is
// stepup_evaluate_latency_seconds. Nothing is registered globally; mount
// [PrometheusExporter.Handler] or register the collector yourself.
package prometheus

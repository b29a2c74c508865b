package prometheus

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goStepUp "github.com/MrEthical07/goStepUp"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeSource struct {
	snapshot goStepUp.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() goStepUp.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                      { return f.dropped }

func scrape(t *testing.T, exp *PrometheusExporter) (string, *http.Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)
	res := rec.Result()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body), res
}

func TestDisabledMetricsExposeOnlyAuditCounter(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goStepUp.MetricsSnapshot{
			Counters:   map[goStepUp.MetricID]uint64{},
			Histograms: map[goStepUp.MetricID][]uint64{},
		},
	})

	if n := testutil.CollectAndCount(exp); n != 1 {
		t.Fatalf("expected only the audit counter, got %d series", n)
	}
	out, _ := scrape(t, exp)
	if strings.Contains(out, "stepup_sms_sent_total") {
		t.Fatalf("disabled metrics leaked into output:\n%s", out)
	}
}

func TestScrapeIncludesCountersAndHistogram(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goStepUp.MetricsSnapshot{
			Counters: map[goStepUp.MetricID]uint64{
				goStepUp.MetricSMSSent:       7,
				goStepUp.MetricEvaluateAllow: 0,
			},
			Histograms: map[goStepUp.MetricID][]uint64{
				goStepUp.MetricEvaluateLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out, res := scrape(t, exp)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("unexpected content type %q", ct)
	}
	for _, want := range []string{
		"stepup_sms_sent_total 7",
		"stepup_evaluate_allow_total 0",
		`stepup_evaluate_latency_seconds_bucket{le="0.001"} 1`,
		`stepup_evaluate_latency_seconds_bucket{le="0.1"} 28`,
		`stepup_evaluate_latency_seconds_bucket{le="+Inf"} 36`,
		"stepup_evaluate_latency_seconds_count 36",
		"stepup_audit_dropped_total 2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestExporterLintsClean(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goStepUp.MetricsSnapshot{
			Counters: map[goStepUp.MetricID]uint64{goStepUp.MetricVerifySuccess: 1},
		},
	})
	problems, err := testutil.CollectAndLint(exp)
	if err != nil {
		t.Fatalf("CollectAndLint: %v", err)
	}
	if len(problems) != 0 {
		t.Fatalf("lint problems: %+v", problems)
	}
}

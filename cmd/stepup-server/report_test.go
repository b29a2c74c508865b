package main

import (
	"context"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goStepUp "github.com/MrEthical07/goStepUp"
)

type counterSource struct {
	counters map[goStepUp.MetricID]uint64
}

func (s *counterSource) MetricsSnapshot() goStepUp.MetricsSnapshot {
	out := make(map[goStepUp.MetricID]uint64, len(s.counters))
	for k, v := range s.counters {
		out[k] = v
	}
	return goStepUp.MetricsSnapshot{Counters: out}
}

type recordingNotifier struct {
	subjects []string
	messages []string
}

func (n *recordingNotifier) Notify(_ context.Context, subject, message string) error {
	n.subjects = append(n.subjects, subject)
	n.messages = append(n.messages, message)
	return nil
}

func TestUsageReportSendsDeltas(t *testing.T) {
	src := &counterSource{counters: map[goStepUp.MetricID]uint64{
		goStepUp.MetricSMSSent:   4,
		goStepUp.MetricSMSFailed: 1,
	}}
	n := &recordingNotifier{}
	log, _ := logtest.NewNullLogger()
	r := newUsageReport(src, n, log)

	r.Run()
	assert.Empty(t, n.messages, "nothing moved since start")

	src.counters[goStepUp.MetricSMSSent] = 9
	src.counters[goStepUp.MetricVerifySuccess] = 2
	r.Run()
	require.Len(t, n.messages, 1)
	assert.Equal(t, "Two-factor usage report", n.subjects[0])
	assert.Equal(t, "verify_success: 2\nsms_sent: 5", n.messages[0])

	r.Run()
	assert.Len(t, n.messages, 1)
}

func TestStartReportsRejectsBadSchedule(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	job := newUsageReport(&counterSource{}, &recordingNotifier{}, log)

	_, err := startReports("not a schedule", job)
	assert.ErrorContains(t, err, "report_schedule")

	c, err := startReports("@daily", job)
	require.NoError(t, err)
	c.Stop()
}

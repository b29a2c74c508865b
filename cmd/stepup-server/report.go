package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	goStepUp "github.com/MrEthical07/goStepUp"
)

type snapshotSource interface {
	MetricsSnapshot() goStepUp.MetricsSnapshot
}

// usageReport sends the counters that moved since its previous run to the
// admin notifier. It implements cron.Job.
type usageReport struct {
	source   snapshotSource
	notifier goStepUp.Notifier
	log      logrus.FieldLogger

	mu   sync.Mutex
	last map[goStepUp.MetricID]uint64
}

func newUsageReport(source snapshotSource, notifier goStepUp.Notifier, log logrus.FieldLogger) *usageReport {
	return &usageReport{
		source:   source,
		notifier: notifier,
		log:      log,
		last:     source.MetricsSnapshot().Counters,
	}
}

func (r *usageReport) Run() {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.source.MetricsSnapshot().Counters
	var lines []string
	for _, id := range goStepUp.MetricIDs() {
		v, ok := current[id]
		if !ok {
			continue
		}
		if delta := v - r.last[id]; delta > 0 {
			lines = append(lines, fmt.Sprintf("%s: %d", id, delta))
		}
	}
	r.last = current
	if len(lines) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := r.notifier.Notify(ctx, "Two-factor usage report", strings.Join(lines, "\n")); err != nil {
		r.log.WithError(err).Warn("usage report not delivered")
	}
}

// startReports schedules the usage report. The returned cron is already
// running; callers stop it on shutdown.
func startReports(schedule string, job cron.Job) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddJob(schedule, job); err != nil {
		return nil, fmt.Errorf("report_schedule: %w", err)
	}
	c.Start()
	return c, nil
}

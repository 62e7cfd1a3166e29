// Package metrics exposes prometheus counters for the intake endpoints.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var (
	// IntakeRequests counts lead intake requests by outcome
	// (created, reused, rejected, failed).
	IntakeRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshot_intake_requests_total",
			Help: "Lead intake requests by outcome",
		},
		[]string{"outcome"},
	)

	// PipelineWarnings counts non-fatal step failures by step.
	PipelineWarnings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshot_pipeline_warnings_total",
			Help: "Non-fatal pipeline step failures by warning",
		},
		[]string{"warning"},
	)

	// EmailsSent counts transactional emails by kind (booking, pdf).
	EmailsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshot_emails_sent_total",
			Help: "Transactional emails sent by kind",
		},
		[]string{"kind"},
	)
)

// Init registers the collectors with the default registry.
func Init() {
	for _, c := range []prometheus.Collector{IntakeRequests, PipelineWarnings, EmailsSent} {
		if err := prometheus.Register(c); err != nil {
			zap.L().Error("metric registration failed", zap.Error(err))
		}
	}
}

// Package metrics holds the Prometheus collectors of the review service.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jobboard",
			Subsystem: "review",
			Name:      "status_transitions_total",
			Help:      "Status transitions by target status and outcome",
		},
		[]string{"to", "outcome"},
	)
	applications = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "jobboard",
			Subsystem: "review",
			Name:      "applications",
			Help:      "Applications per status at the last aggregation run",
		},
		[]string{"status"},
	)
	notifyFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "jobboard",
			Subsystem: "review",
			Name:      "notification_failures_total",
			Help:      "Notifications that could not be delivered",
		},
	)
)

var registerMetrics sync.Once

func init() {
	registerMetrics.Do(func() {
		prometheus.MustRegister(transitions, applications, notifyFailures)
	})
}

// Outcome labels for ObserveTransition.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

// LabelUnknown is the "to" label of attempts whose target status could not
// be parsed.
const LabelUnknown = "unknown"

// ObserveTransition counts one transition attempt.
func ObserveTransition(to, outcome string) {
	transitions.WithLabelValues(to, outcome).Inc()
}

// SetApplications records the count of one status.
func SetApplications(status string, n int) {
	applications.WithLabelValues(status).Set(float64(n))
}

// NotifyFailed counts an undelivered notification.
func NotifyFailed() { notifyFailures.Inc() }

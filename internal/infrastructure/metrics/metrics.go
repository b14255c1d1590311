// Package metrics exposes billing counters to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	vo "github.com/mateatletas/tutorbilling/internal/domain/subscription/valueobjects"
)

var (
	// ReconcileEventsTotal counts gateway events by reconciliation outcome.
	ReconcileEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tutorbilling",
		Subsystem: "reconcile",
		Name:      "events_total",
		Help:      "Gateway events processed by outcome.",
	}, []string{"outcome"})

	// ReconcileDuration tracks reconciliation latency including retries.
	ReconcileDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tutorbilling",
		Subsystem: "reconcile",
		Name:      "duration_seconds",
		Help:      "Gateway event reconciliation duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"outcome"})

	// TransitionsTotal counts committed subscription transitions.
	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tutorbilling",
		Subsystem: "subscription",
		Name:      "transitions_total",
		Help:      "Committed subscription transitions by source state, target state and actor.",
	}, []string{"from", "to", "actor"})

	// SweepResultsTotal counts grace sweep results.
	SweepResultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tutorbilling",
		Subsystem: "sweep",
		Name:      "subscriptions_total",
		Help:      "Subscriptions handled by the grace sweep by result.",
	}, []string{"result"})

	// NotificationsTotal counts notification deliveries per sink.
	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tutorbilling",
		Subsystem: "notifier",
		Name:      "notifications_total",
		Help:      "Notification deliveries by sink and result.",
	}, []string{"sink", "result"})
)

// Recorder feeds the package collectors. The zero value is ready to use.
type Recorder struct{}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) RecordReconcile(outcome string, duration time.Duration) {
	ReconcileEventsTotal.WithLabelValues(outcome).Inc()
	ReconcileDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (r *Recorder) RecordTransition(from, to vo.SubscriptionStatus, actor vo.Actor) {
	fromLabel := from.String()
	if fromLabel == "" {
		fromLabel = "none"
	}
	TransitionsTotal.WithLabelValues(fromLabel, to.String(), string(actor)).Inc()
}

func (r *Recorder) RecordSweep(escalated, cancelled, failed int) {
	SweepResultsTotal.WithLabelValues("escalated").Add(float64(escalated))
	SweepResultsTotal.WithLabelValues("cancelled").Add(float64(cancelled))
	SweepResultsTotal.WithLabelValues("failed").Add(float64(failed))
}

func (r *Recorder) RecordNotification(sink, result string) {
	NotificationsTotal.WithLabelValues(sink, result).Inc()
}

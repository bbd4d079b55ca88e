package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds check-in engine metrics. A nil *Metrics is valid and records
// nothing, so unit tests don't need a registry.
type Metrics struct {
	CheckinsTotal *prometheus.CounterVec
	BadgesAwarded *prometheus.CounterVec
	Duration      prometheus.Histogram
}

// New creates and registers check-in metrics.
func New() *Metrics {
	return &Metrics{
		CheckinsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "culturetrail_checkins_total",
			Help: "Check-in calls by outcome (new_visit, repeat, no_nearby_site, error).",
		}, []string{"outcome"}),
		BadgesAwarded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "culturetrail_badges_awarded_total",
			Help: "Badges awarded by kind (category, district).",
		}, []string{"kind"}),
		Duration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "culturetrail_checkin_duration_seconds",
			Help:    "Check-in call latency.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// RecordOutcome counts one finished check-in.
func (m *Metrics) RecordOutcome(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.CheckinsTotal.WithLabelValues(outcome).Inc()
	m.Duration.Observe(seconds)
}

// RecordBadge counts one awarded badge.
func (m *Metrics) RecordBadge(kind string) {
	if m == nil {
		return
	}
	m.BadgesAwarded.WithLabelValues(kind).Inc()
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Grouping holds the Prometheus instruments for the grouping
// pipeline. All observe methods are nil-safe so wiring metrics stays
// optional in tests.
type Grouping struct {
	requests     *prometheus.CounterVec
	tierAttempts *prometheus.CounterVec
	duration     prometheus.Histogram
	quality      prometheus.Histogram
}

// NewGrouping registers grouping instruments against reg (use
// prometheus.DefaultRegisterer in production).
func NewGrouping(reg prometheus.Registerer) *Grouping {
	factory := promauto.With(reg)
	return &Grouping{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "grouping_requests_total",
			Help: "Grouping calls served, labeled by the tier that produced the result.",
		}, []string{"final"}),
		tierAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "grouping_tier_attempts_total",
			Help: "Fallback tier attempts by tier and outcome.",
		}, []string{"tier", "outcome"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "grouping_duration_seconds",
			Help:    "End-to-end grouping call latency.",
			Buckets: prometheus.DefBuckets,
		}),
		quality: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "grouping_quality",
			Help:    "Mean compatibility score of returned groups.",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
	}
}

// ObserveAttempt records one tier attempt.
func (g *Grouping) ObserveAttempt(tier string, success bool) {
	if g == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
	}
	g.tierAttempts.WithLabelValues(tier, outcome).Inc()
}

// ObserveResult records the served request.
func (g *Grouping) ObserveResult(final string, quality int, elapsed time.Duration) {
	if g == nil {
		return
	}
	g.requests.WithLabelValues(final).Inc()
	g.duration.Observe(elapsed.Seconds())
	g.quality.Observe(float64(quality))
}

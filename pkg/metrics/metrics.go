package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "taskmanager"

// Run results recorded by the expiration job.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultSkipped = "skipped"
)

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// ExpirationMetrics instruments the expired task scheduler.
type ExpirationMetrics struct {
	runs     *prometheus.CounterVec
	expired  prometheus.Counter
	duration prometheus.Histogram
}

// NewExpirationMetrics registers the scheduler collectors on reg. A nil reg
// yields unregistered collectors, which is what tests usually want.
func NewExpirationMetrics(reg prometheus.Registerer) *ExpirationMetrics {
	factory := promauto.With(reg)
	return &ExpirationMetrics{
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "expiration",
				Name:      "runs_total",
				Help:      "Total number of expiration runs by result",
			},
			[]string{"result"},
		),
		expired: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "expiration",
				Name:      "tasks_expired_total",
				Help:      "Total number of tasks transitioned by the expiration job",
			},
		),
		duration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "expiration",
				Name:      "run_duration_seconds",
				Help:      "Duration of expiration runs in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}
}

// ObserveRun records one finished run.
func (m *ExpirationMetrics) ObserveRun(result string, expired int64, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(result).Inc()
	if expired > 0 {
		m.expired.Add(float64(expired))
	}
	if result != ResultSkipped {
		m.duration.Observe(elapsed.Seconds())
	}
}

// Runs returns the run counter for result.
func (m *ExpirationMetrics) Runs(result string) prometheus.Counter {
	return m.runs.WithLabelValues(result)
}

// Expired returns the expired task counter.
func (m *ExpirationMetrics) Expired() prometheus.Counter {
	return m.expired
}

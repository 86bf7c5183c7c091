package distribution

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks distribution runs. All methods are nil-safe so the engine
// works without metrics in tests.
type Metrics struct {
	Runs              *prometheus.CounterVec
	FrameworksCopied  prometheus.Counter
	FrameworksSkipped prometheus.Counter
	ControlsCopied    prometheus.Counter
	ItemErrors        prometheus.Counter
	RunDuration       prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Runs: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "distribution_runs_total",
			Help: "Distribution runs by outcome.",
		}, []string{"outcome"}),
		FrameworksCopied: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "distribution_frameworks_copied_total",
			Help: "Frameworks newly copied into tenant databases.",
		}),
		FrameworksSkipped: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "distribution_frameworks_skipped_total",
			Help: "Frameworks skipped because the tenant already had the version.",
		}),
		ControlsCopied: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "distribution_controls_copied_total",
			Help: "Controls copied into tenant databases.",
		}),
		ItemErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "distribution_item_errors_total",
			Help: "Per-framework and per-control failures captured in reports.",
		}),
		RunDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "distribution_run_duration_seconds",
			Help:    "Wall time of distribution runs.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncRun(outcome string) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AddFrameworksCopied(n int) {
	if m == nil {
		return
	}
	m.FrameworksCopied.Add(float64(n))
}

func (m *Metrics) IncFrameworkSkipped() {
	if m == nil {
		return
	}
	m.FrameworksSkipped.Inc()
}

func (m *Metrics) AddControlsCopied(n int) {
	if m == nil {
		return
	}
	m.ControlsCopied.Add(float64(n))
}

func (m *Metrics) IncItemError() {
	if m == nil {
		return
	}
	m.ItemErrors.Inc()
}

func (m *Metrics) ObserveRun(start time.Time) {
	if m == nil {
		return
	}
	m.RunDuration.Observe(time.Since(start).Seconds())
}

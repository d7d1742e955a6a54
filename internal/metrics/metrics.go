package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the refresh pipeline collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	cycles        prometheus.Counter
	cycleDuration prometheus.Histogram
	fetches       *prometheus.CounterVec
	items         *prometheus.GaugeVec
	skipped       *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "newshub",
			Name:      "refresh_cycles_total",
			Help:      "Completed refresh cycles.",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "newshub",
			Name:      "refresh_cycle_duration_seconds",
			Help:      "Wall time of a refresh cycle.",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "newshub",
			Name:      "category_fetches_total",
			Help:      "Category fetches by outcome status.",
		}, []string{"category", "status"}),
		items: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "newshub",
			Name:      "category_items",
			Help:      "Items on the board per category after the last cycle.",
		}, []string{"category"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "newshub",
			Name:      "entries_skipped_total",
			Help:      "Entries dropped by the filter, by reason.",
		}, []string{"category", "reason"}),
	}
	reg.MustRegister(m.cycles, m.cycleDuration, m.fetches, m.items, m.skipped)
	return m
}

func (m *Metrics) ObserveCycle(d time.Duration) {
	if m == nil {
		return
	}
	m.cycles.Inc()
	m.cycleDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveCategory(category, status string, items int) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(category, status).Inc()
	m.items.WithLabelValues(category).Set(float64(items))
}

// ObserveSkipped adds n dropped entries for reason; zero is a no-op.
func (m *Metrics) ObserveSkipped(category, reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.skipped.WithLabelValues(category, reason).Add(float64(n))
}

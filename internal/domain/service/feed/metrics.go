package feed

import (
	"github.com/prometheus/client_golang/prometheus"

	"dealfeed/internal/domain/entity"
)

const (
	refreshOK      = "ok"
	refreshFailed  = "failed"
	refreshSkipped = "skipped"
)

type Metrics struct {
	refreshes  *prometheus.CounterVec
	duration   prometheus.Histogram
	feedSize   prometheus.Gauge
	categories prometheus.Gauge
	allocation *prometheus.GaugeVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dealfeed",
			Name:      "feed_refreshes_total",
			Help:      "Feed refresh cycles by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dealfeed",
			Name:      "feed_refresh_duration_seconds",
			Help:      "Duration of successful feed refreshes.",
			Buckets:   prometheus.DefBuckets,
		}),
		feedSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dealfeed",
			Name:      "feed_size",
			Help:      "Deals ranked by the last refresh.",
		}),
		categories: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dealfeed",
			Name:      "feed_categories",
			Help:      "Category scopes ranked by the last refresh.",
		}),
		allocation: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "dealfeed",
			Name:      "feed_allocation",
			Help:      "Deals per source in the last refresh.",
		}, []string{"source"}),
	}

	reg.MustRegister(m.refreshes, m.duration, m.feedSize, m.categories, m.allocation)

	return m
}

func (m *Metrics) observe(result entity.RefreshResult) {
	m.refreshes.WithLabelValues(refreshOK).Inc()
	m.duration.Observe(result.Duration.Seconds())
	m.feedSize.Set(float64(result.Total))
	m.categories.Set(float64(result.Categories))

	m.allocation.Reset()

	for src, n := range result.Allocation {
		m.allocation.WithLabelValues(src.String()).Set(float64(n))
	}
}

func (m *Metrics) failed() {
	m.refreshes.WithLabelValues(refreshFailed).Inc()
}

func (m *Metrics) skipped() {
	m.refreshes.WithLabelValues(refreshSkipped).Inc()
}

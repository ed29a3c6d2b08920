// Package metrics exposes sync and HTTP collectors on a dedicated
// Prometheus registry.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"news_ticker/internal/domain"
)

const namespace = "newsticker"

type Metrics struct {
	registry *prometheus.Registry

	syncCycles   *prometheus.CounterVec
	syncItems    *prometheus.CounterVec
	feedFailures *prometheus.CounterVec
	syncDuration prometheus.Histogram
	httpRequests *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		syncCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_cycles_total",
			Help:      "Completed sync cycles by result.",
		}, []string{"result"}),
		syncItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_items_total",
			Help:      "News items written by sync cycles.",
		}, []string{"kind"}),
		feedFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_failures_total",
			Help:      "Feed fetch or parse failures by source.",
		}, []string{"source"}),
		syncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Duration of sync cycles.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.syncCycles,
		m.syncItems,
		m.feedFailures,
		m.syncDuration,
		m.httpRequests,
	)

	return m
}

func (m *Metrics) ObserveSync(stats *domain.SyncStats, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.syncCycles.WithLabelValues(result).Inc()

	if stats == nil {
		return
	}
	m.syncItems.WithLabelValues("new").Add(float64(stats.New))
	m.syncItems.WithLabelValues("updated").Add(float64(stats.Updated))
	m.syncDuration.Observe(stats.Duration.Seconds())
}

func (m *Metrics) FeedFailed(source string) {
	m.feedFailures.WithLabelValues(source).Inc()
}

// ObserveRequest counts one served request. route is the matched pattern,
// never the raw path.
func (m *Metrics) ObserveRequest(method, route string, status int) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry. All methods are no-ops on a nil receiver.
type Metrics struct {
	registry     *prometheus.Registry
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	quotes       *prometheus.CounterVec
	selections   *prometheus.CounterVec
	snapshots    *prometheus.CounterVec
	coalesced    prometheus.Counter
}

func NewMetrics(service string) *Metrics {
	reg := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"service": service}
	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "HTTP requests by route and status.",
			ConstLabels: constLabels,
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency.",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "route"}),
		quotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "quotes_computed_total",
			Help:        "Quotes by outcome: ok, stale, rejected.",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "selection_clicks_total",
			Help:        "Range selector clicks by result.",
			ConstLabels: constLabels,
		}, []string{"result"}),
		snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "calendar_snapshots_total",
			Help:        "Calendar snapshots by result: applied, superseded, failed.",
			ConstLabels: constLabels,
		}, []string{"result"}),
		coalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "calendar_updates_coalesced_total",
			Help:        "Feed updates dropped because a newer one for the listing arrived within the debounce window.",
			ConstLabels: constLabels,
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpDuration, m.quotes, m.selections, m.snapshots, m.coalesced,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) QuoteComputed(stale bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if stale {
		outcome = "stale"
	}
	m.quotes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) QuoteRejected() {
	if m == nil {
		return
	}
	m.quotes.WithLabelValues("rejected").Inc()
}

// SelectionClick records "completed", "started" or the rejection reason.
func (m *Metrics) SelectionClick(result string) {
	if m == nil {
		return
	}
	m.selections.WithLabelValues(result).Inc()
}

func (m *Metrics) SnapshotApplied(applied bool) {
	if m == nil {
		return
	}
	result := "applied"
	if !applied {
		result = "superseded"
	}
	m.snapshots.WithLabelValues(result).Inc()
}

func (m *Metrics) SnapshotFailed() {
	if m == nil {
		return
	}
	m.snapshots.WithLabelValues("failed").Inc()
}

func (m *Metrics) UpdateCoalesced() {
	if m == nil {
		return
	}
	m.coalesced.Inc()
}

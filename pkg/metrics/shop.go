package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ShopMetrics covers HTTP traffic, order flow, the outbox publisher and
// marketplace calls.
type ShopMetrics struct {
	httpRequests      *prometheus.CounterVec
	httpTiming        *prometheus.HistogramVec
	ordersPlaced      prometheus.Counter
	statusChanges     *prometheus.CounterVec
	outboxPublished   *prometheus.CounterVec
	outboxFailed      *prometheus.CounterVec
	marketplaceCalls  *prometheus.CounterVec
	marketplaceTiming *prometheus.HistogramVec
}

// NewShopMetrics registers the shop metrics on the provided registerer. A nil
// registerer yields a no-op recorder.
func NewShopMetrics(reg prometheus.Registerer) *ShopMetrics {
	if reg == nil {
		return &ShopMetrics{}
	}
	m := &ShopMetrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpTiming: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ordersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "placed_total",
			Help:      "Orders placed from carts.",
		}),
		statusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "status_changes_total",
			Help:      "Order status and payment status transitions.",
		}, []string{"kind", "status"}),
		outboxPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "published_total",
			Help:      "Outbox events delivered to the broker.",
		}, []string{"event_type"}),
		outboxFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "failed_total",
			Help:      "Outbox publish attempts that failed.",
		}, []string{"event_type"}),
		marketplaceCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "marketplace",
			Name:      "requests_total",
			Help:      "Marketplace API calls by method and outcome.",
		}, []string{"method", "outcome"}),
		marketplaceTiming: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "marketplace",
			Name:      "request_duration_seconds",
			Help:      "Latency of marketplace API calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
	reg.MustRegister(m.httpRequests, m.httpTiming, m.ordersPlaced, m.statusChanges, m.outboxPublished, m.outboxFailed, m.marketplaceCalls, m.marketplaceTiming)
	return m
}

func (m *ShopMetrics) IncOrderPlaced() {
	if m == nil || m.ordersPlaced == nil {
		return
	}
	m.ordersPlaced.Inc()
}

// AddStatusChanges counts transitions; kind is "status" or "payment_status".
func (m *ShopMetrics) AddStatusChanges(kind, status string, n int) {
	if m == nil || m.statusChanges == nil || n <= 0 {
		return
	}
	m.statusChanges.WithLabelValues(normalizeLabel(kind), normalizeLabel(status)).Add(float64(n))
}

func (m *ShopMetrics) IncOutboxPublished(eventType string) {
	if m == nil || m.outboxPublished == nil {
		return
	}
	m.outboxPublished.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (m *ShopMetrics) IncOutboxFailed(eventType string) {
	if m == nil || m.outboxFailed == nil {
		return
	}
	m.outboxFailed.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// ObserveMarketplace records one marketplace call.
func (m *ShopMetrics) ObserveMarketplace(method, outcome string, elapsed time.Duration) {
	if m == nil || m.marketplaceCalls == nil {
		return
	}
	m.marketplaceCalls.WithLabelValues(normalizeLabel(method), normalizeLabel(outcome)).Inc()
	m.marketplaceTiming.WithLabelValues(normalizeLabel(method)).Observe(elapsed.Seconds())
}

// ObserveHTTP records one served request. route should be the router
// pattern, not the raw path, to keep cardinality bounded.
func (m *ShopMetrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil || m.httpRequests == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpTiming.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

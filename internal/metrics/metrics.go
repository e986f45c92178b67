package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

const namespace = "tokobangunan"

// Metrics holds the store's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry     *prometheus.Registry
	sales        *prometheus.CounterVec
	revenue      prometheus.Counter
	unitsSold    prometheus.Counter
	itemsCreated prometheus.Counter
	requests     *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry, along with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		sales: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_total",
			Help:      "Sale attempts by outcome.",
		}, []string{"outcome"}),
		revenue: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revenue_rupiah_total",
			Help:      "Sum of completed sale totals in rupiah.",
		}),
		unitsSold: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_sold_total",
			Help:      "Units taken out of stock by completed sales.",
		}),
		itemsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_created_total",
			Help:      "Catalog entries created.",
		}),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// ObserveSale counts a sale attempt. Revenue and units only move for
// completed sales.
func (m *Metrics) ObserveSale(outcome string, quantity int64, total decimal.Decimal) {
	if m == nil {
		return
	}
	m.sales.WithLabelValues(outcome).Inc()
	if quantity > 0 {
		m.unitsSold.Add(float64(quantity))
		m.revenue.Add(total.InexactFloat64())
	}
}

// ObserveItemCreated counts a new catalog entry
func (m *Metrics) ObserveItemCreated() {
	if m == nil {
		return
	}
	m.itemsCreated.Inc()
}

// ObserveRequest records one served HTTP request
func (m *Metrics) ObserveRequest(route, method, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, status).Inc()
	m.latency.WithLabelValues(route).Observe(seconds)
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

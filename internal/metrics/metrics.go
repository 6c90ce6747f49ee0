package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/andresuchdata/quotemanager/internal/catalog"
	"github.com/andresuchdata/quotemanager/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "quotemanager"

// Metrics holds the service collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	catalogLoads        *prometheus.CounterVec
	catalogLoadDuration prometheus.Histogram
	catalogMaterials    prometheus.Gauge
	catalogProducts     prometheus.Gauge
	catalogWarnings     prometheus.Gauge
	catalogLoadedAt     prometheus.Gauge

	shoppingListEntries *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		catalogLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "loads_total",
			Help:      "Catalog refresh attempts by result.",
		}, []string{"result"}),
		catalogLoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "load_duration_seconds",
			Help:      "Time spent fetching and parsing the catalog.",
			Buckets:   prometheus.DefBuckets,
		}),
		catalogMaterials: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "materials",
			Help:      "Materials in the active catalog.",
		}),
		catalogProducts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "products",
			Help:      "Products in the active catalog.",
		}),
		catalogWarnings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "warnings",
			Help:      "Row-level warnings recorded by the last load.",
		}),
		catalogLoadedAt: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful load.",
		}),
		shoppingListEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stock",
			Name:      "shopping_list_entries_total",
			Help:      "Shopping-list entries computed, by state.",
		}, []string{"state"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.catalogLoads,
		m.catalogLoadDuration,
		m.catalogMaterials,
		m.catalogProducts,
		m.catalogWarnings,
		m.catalogLoadedAt,
		m.shoppingListEntries,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Registry exposes the registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveLoad matches catalog.Store's OnLoad callback.
func (m *Metrics) ObserveLoad(c *catalog.Catalog, took time.Duration, err error) {
	m.catalogLoadDuration.Observe(took.Seconds())
	if err != nil {
		m.catalogLoads.WithLabelValues("error").Inc()
	} else {
		m.catalogLoads.WithLabelValues("ok").Inc()
		m.catalogLoadedAt.Set(float64(c.LoadedAt().Unix()))
	}
	m.catalogMaterials.Set(float64(len(c.Materials())))
	m.catalogProducts.Set(float64(len(c.Products())))
	m.catalogWarnings.Set(float64(len(c.Warnings())))
}

// ObserveShoppingList counts entries by their most urgent state.
func (m *Metrics) ObserveShoppingList(entries []domain.ShoppingListEntry) {
	for _, e := range entries {
		state := "ok"
		switch {
		case e.Shortfall:
			state = "shortfall"
		case e.Reorder:
			state = "reorder"
		}
		m.shoppingListEntries.WithLabelValues(state).Inc()
	}
}

// ObserveRequest records one HTTP request. route should be the matched pattern,
// not the raw path.
func (m *Metrics) ObserveRequest(method, route string, status int, took time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(took.Seconds())
}

// Package metrics exposes Prometheus collectors for the ledger and its HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lotledger/internal/core/types"
	"lotledger/internal/domain/fifo"
)

const namespace = "lotledger"

var _ fifo.Metrics = (*Metrics)(nil)

// Metrics holds every collector on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	LotsCreated      prometheus.Counter
	Consumptions     *prometheus.CounterVec
	ConsumedQuantity *prometheus.CounterVec
	Reversals        *prometheus.CounterVec
	ReversedRecords  *prometheus.CounterVec
	LotsExpired      prometheus.Counter
	LockWaits        *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{registry: registry}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	m.LotsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lots_created_total",
		Help:      "Purchase lots created",
	})

	m.Consumptions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consumptions_total",
			Help:      "Consumption records written, by source (lot or legacy)",
		},
		[]string{"source"},
	)

	m.ConsumedQuantity = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consumed_quantity_total",
			Help:      "Units consumed, by source (lot or legacy)",
		},
		[]string{"source"},
	)

	m.Reversals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reversals_total",
			Help:      "Reversal calls, by mode (full or partial)",
		},
		[]string{"mode"},
	)

	m.ReversedRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reversed_records_total",
			Help:      "Consumption records removed or shrunk by reversals",
		},
		[]string{"mode"},
	)

	m.LotsExpired = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lots_expired_total",
		Help:      "Lots marked expired",
	})

	m.LockWaits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "product_lock_acquisitions_total",
			Help:      "Per-product lock attempts, by outcome",
		},
		[]string{"outcome"},
	)

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.LotsCreated,
		m.Consumptions,
		m.ConsumedQuantity,
		m.Reversals,
		m.ReversedRecords,
		m.LotsExpired,
		m.LockWaits,
	)

	return m
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// MustRegister adds extra collectors, e.g. database pool gauges.
func (m *Metrics) MustRegister(cs ...prometheus.Collector) {
	m.registry.MustRegister(cs...)
}

func (m *Metrics) LotCreated() {
	m.LotsCreated.Inc()
}

func (m *Metrics) ConsumptionRecorded(source string, quantity types.Quantity) {
	m.Consumptions.WithLabelValues(source).Inc()
	m.ConsumedQuantity.WithLabelValues(source).Add(quantity.Float64())
}

func (m *Metrics) Reverted(mode string, records int) {
	m.Reversals.WithLabelValues(mode).Inc()
	m.ReversedRecords.WithLabelValues(mode).Add(float64(records))
}

func (m *Metrics) LotExpired() {
	m.LotsExpired.Inc()
}

// LockAttempt counts a per-product lock attempt; outcome is "acquired" or "busy".
func (m *Metrics) LockAttempt(outcome string) {
	m.LockWaits.WithLabelValues(outcome).Inc()
}

// Middleware records request count and latency per route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

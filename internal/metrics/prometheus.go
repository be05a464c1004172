package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/serroba/qikurl/internal/shortener"
)

const namespace = "qikurl"

// Label names.
const (
	LabelOp      = "op"
	LabelOutcome = "outcome"
)

// Prometheus records lifecycle metrics in its own registry.
type Prometheus struct {
	registry          *prometheus.Registry
	cacheErrors       *prometheus.CounterVec
	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
}

// NewPrometheus creates the collectors. With runtime set, Go and process
// collectors are registered too.
func NewPrometheus(runtime bool) *Prometheus {
	registry := prometheus.NewRegistry()

	p := &Prometheus{
		registry: registry,
		cacheErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_errors_total",
				Help:      "Cache operations that failed and were tolerated",
			},
			[]string{LabelOp},
		),
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Lifecycle operations by outcome",
			},
			[]string{LabelOp, LabelOutcome},
		),
		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Lifecycle operation latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{LabelOp},
		),
	}

	registry.MustRegister(p.cacheErrors, p.operations, p.operationDuration)

	if runtime {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	return p
}

func (p *Prometheus) CacheError(op string) {
	p.cacheErrors.WithLabelValues(op).Inc()
}

func (p *Prometheus) Observe(op, outcome string, elapsed time.Duration) {
	p.operations.WithLabelValues(op, outcome).Inc()
	p.operationDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// Registry exposes the underlying registry.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Compile-time check.
var _ shortener.Metrics = (*Prometheus)(nil)

package infra

import (
	"net/http"
	"time"

	"inference-gateway/gateway/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// LatencyBuckets são os limites (em segundos) do histograma request_latency_seconds.
var LatencyBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30, 60}

// PromMetrics registra as métricas do gateway num registry próprio,
// exposto em /metrics via Handler.
type PromMetrics struct {
	registry *prometheus.Registry

	requests  prometheus.Counter
	errors    prometheus.Counter
	latency   prometheus.Histogram
	backendUp prometheus.Gauge
}

var _ domain.Metrics = (*PromMetrics)(nil)

// NewPromMetrics cria as métricas. Se registry for nil, um novo é criado com os
// collectors de runtime Go e de processo.
func NewPromMetrics(registry *prometheus.Registry) *PromMetrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m := &PromMetrics{
		registry: registry,
		requests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "request_count_total",
			Help: "Total requests to /generate via gateway",
		}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "error_count_total",
			Help: "Total gateway errors on /generate",
		}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "request_latency_seconds",
			Help:    "Request latency in seconds",
			Buckets: LatencyBuckets,
		}),
		backendUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "backend_up",
			Help: "Whether the last backend health probe reported status ok (1) or not (0)",
		}),
	}
	registry.MustRegister(m.requests, m.errors, m.latency, m.backendUp)
	return m
}

// TrackSlots expõe a ocupação do portão de admissão como gauge.
func (m *PromMetrics) TrackSlots(pool *ChanPool) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "admission_slots_in_use",
		Help: "Admission slots currently held by in-flight /generate calls",
	}, func() float64 { return float64(pool.InUse()) }))
}

func (m *PromMetrics) IncRequests() { m.requests.Inc() }

func (m *PromMetrics) IncErrors() { m.errors.Inc() }

func (m *PromMetrics) ObserveLatency(d time.Duration) { m.latency.Observe(d.Seconds()) }

func (m *PromMetrics) SetBackendUp(up bool) {
	if up {
		m.backendUp.Set(1)
		return
	}
	m.backendUp.Set(0)
}

func (m *PromMetrics) Registry() *prometheus.Registry { return m.registry }

// Handler expõe o registry no formato de exposição padrão.
func (m *PromMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}

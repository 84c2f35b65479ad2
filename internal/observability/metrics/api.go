package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// APIMetrics is the serving binary's registry: generic HTTP server
// metrics plus the corrective-pipeline signals that matter for tuning
// (gate rejections, chosen actions, bucket sizes, generation outcome).
type APIMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	gateRejectionsTotal *prometheus.CounterVec
	actionsTotal        *prometheus.CounterVec
	gradedChunks        *prometheus.HistogramVec
	mergedChunks        *prometheus.HistogramVec
	pipelineDuration    *prometheus.HistogramVec
	generationTotal     *prometheus.CounterVec
}

func NewAPIMetrics(service string) *APIMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crag",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crag",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "crag",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	gateRejectionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crag",
			Subsystem: "gate",
			Name:      "rejections_total",
			Help:      "Requests rejected by the input gate, by reason kind.",
		},
		[]string{"service", "kind"},
	)
	actionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crag",
			Subsystem: "pipeline",
			Name:      "actions_total",
			Help:      "Chosen pipeline actions.",
		},
		[]string{"service", "action"},
	)
	gradedChunks := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crag",
			Subsystem: "pipeline",
			Name:      "graded_chunks",
			Help:      "Distribution of graded chunks per request by bucket.",
			Buckets:   []float64{0, 1, 2, 3, 4, 5, 6},
		},
		[]string{"service", "bucket"},
	)
	mergedChunks := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crag",
			Subsystem: "pipeline",
			Name:      "merged_chunks",
			Help:      "Distribution of merged candidate set sizes.",
			Buckets:   []float64{0, 1, 2, 3, 4, 5, 6},
		},
		[]string{"service"},
	)
	pipelineDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crag",
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "End-to-end pipeline duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	generationTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crag",
			Subsystem: "llm",
			Name:      "generation_total",
			Help:      "Generation outcomes by model (exhausted uses model=none).",
		},
		[]string{"service", "model", "status"},
	)

	registry.MustRegister(
		requestTotal, requestDuration, requestInFlight,
		gateRejectionsTotal, actionsTotal, gradedChunks, mergedChunks,
		pipelineDuration, generationTotal,
	)

	return &APIMetrics{
		registry:            registry,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		gateRejectionsTotal: gateRejectionsTotal,
		actionsTotal:        actionsTotal,
		gradedChunks:        gradedChunks,
		mergedChunks:        mergedChunks,
		pipelineDuration:    pipelineDuration,
		generationTotal:     generationTotal,
	}
}

func (m *APIMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *APIMetrics) ObserveRequest(service, method, path string, status int, duration time.Duration) {
	m.requestTotal.WithLabelValues(service, method, path, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(service, method, path).Observe(duration.Seconds())
}

func (m *APIMetrics) RequestStarted()  { m.requestInFlight.Inc() }
func (m *APIMetrics) RequestFinished() { m.requestInFlight.Dec() }

func (m *APIMetrics) GateRejected(service, kind string) {
	m.gateRejectionsTotal.WithLabelValues(service, kind).Inc()
}

func (m *APIMetrics) ObservePipeline(service, action string, correct, ambiguous, incorrect, merged int, duration time.Duration) {
	m.actionsTotal.WithLabelValues(service, action).Inc()
	m.gradedChunks.WithLabelValues(service, "correct").Observe(float64(correct))
	m.gradedChunks.WithLabelValues(service, "ambiguous").Observe(float64(ambiguous))
	m.gradedChunks.WithLabelValues(service, "incorrect").Observe(float64(incorrect))
	m.mergedChunks.WithLabelValues(service).Observe(float64(merged))
	m.pipelineDuration.WithLabelValues(service).Observe(duration.Seconds())
}

func (m *APIMetrics) GenerationSucceeded(service, model string) {
	m.generationTotal.WithLabelValues(service, model, "success").Inc()
}

func (m *APIMetrics) GenerationExhausted(service string) {
	m.generationTotal.WithLabelValues(service, "none", "exhausted").Inc()
}

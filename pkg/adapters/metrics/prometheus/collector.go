package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector implements MetricsCollector using Prometheus
type Collector struct {
	predictions        *prometheus.CounterVec
	predictionRows     prometheus.Counter
	predictionDuration *prometheus.HistogramVec
	cacheRequests      *prometheus.CounterVec
	eventsPublished    *prometheus.CounterVec
	dependencyUp       *prometheus.GaugeVec
	modelInfo          *prometheus.GaugeVec
}

// NewCollector creates a new Prometheus metrics collector registered with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		predictions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "predictd_predictions_total",
				Help: "Total number of prediction requests",
			},
			[]string{"source", "status"},
		),
		predictionRows: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "predictd_prediction_rows_total",
				Help: "Total number of feature rows submitted for prediction",
			},
		),
		predictionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "predictd_prediction_duration_seconds",
				Help:    "Prediction duration in seconds",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"source"},
		),
		cacheRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "predictd_cache_requests_total",
				Help: "Total number of prediction cache lookups",
			},
			[]string{"result"},
		),
		eventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "predictd_events_published_total",
				Help: "Total number of prediction events published",
			},
			[]string{"status"},
		),
		dependencyUp: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "predictd_dependency_up",
				Help: "Whether a dependency passed its last health check",
			},
			[]string{"dependency"},
		),
		modelInfo: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "predictd_model_info",
				Help: "Loaded model artifact, always 1",
			},
			[]string{"name", "version"},
		),
	}
}

// ObservePrediction records a prediction request
func (c *Collector) ObservePrediction(source, status string, rows int, duration time.Duration) {
	c.predictions.WithLabelValues(source, status).Inc()
	c.predictionRows.Add(float64(rows))
	c.predictionDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// IncCacheRequests counts a cache lookup by result (hit, miss, error)
func (c *Collector) IncCacheRequests(result string) {
	c.cacheRequests.WithLabelValues(result).Inc()
}

// IncEventsPublished counts a published event by status
func (c *Collector) IncEventsPublished(status string) {
	c.eventsPublished.WithLabelValues(status).Inc()
}

// SetDependencyUp records the outcome of a dependency health check
func (c *Collector) SetDependencyUp(dependency string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	c.dependencyUp.WithLabelValues(dependency).Set(v)
}

// SetModelInfo records the loaded model
func (c *Collector) SetModelInfo(name, version string) {
	c.modelInfo.Reset()
	c.modelInfo.WithLabelValues(name, version).Set(1)
}

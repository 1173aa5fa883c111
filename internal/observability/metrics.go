package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the assessment service.
type Metrics struct {
	RequestsConsumed    prometheus.Counter
	AssessmentsProduced prometheus.Counter
	TransformErrors     prometheus.Counter
	PipelineRunning     prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Model metrics.
	AssessedPower *prometheus.HistogramVec // labels: source={estimated,observed,measured}
	ClimateCache  *prometheus.CounterVec   // labels: result={hit,miss}

	// Weather provider metrics.
	WeatherRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	WeatherCache       *prometheus.CounterVec // labels: result={hit,miss}
	WeatherAPIDuration prometheus.Histogram
	WeatherEnabled     prometheus.Gauge
}

var powerBuckets = []float64{10, 25, 50, 75, 100, 150, 200, 300, 500, 1000, 2000}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RequestsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "evapower",
			Name:      "requests_consumed_total",
			Help:      "Total site requests read from the source topic.",
		}),
		AssessmentsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "evapower",
			Name:      "assessments_produced_total",
			Help:      "Total site assessments written to the sinks.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "evapower",
			Name:      "transform_errors_total",
			Help:      "Total site requests that could not be assessed.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "evapower",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "evapower",
			Name:      "batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "evapower",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-assess-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		AssessedPower: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "evapower",
			Name:      "assessed_power_watts_per_m2",
			Help:      "Power density of assessed sites by power source.",
			Buckets:   powerBuckets,
		}, []string{"source"}),
		ClimateCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "evapower",
			Name:      "climate_cache_total",
			Help:      "Climate estimate cache lookups by result.",
		}, []string{"result"}),
		WeatherRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "evapower",
			Name:      "weather_requests_total",
			Help:      "Weather archive requests by outcome.",
		}, []string{"outcome"}),
		WeatherCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "evapower",
			Name:      "weather_cache_total",
			Help:      "Weather series cache lookups by result.",
		}, []string{"result"}),
		WeatherAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "evapower",
			Name:      "weather_api_duration_seconds",
			Help:      "Weather archive API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		WeatherEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "evapower",
			Name:      "weather_enabled",
			Help:      "1 when observed weather series are enabled, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.RequestsConsumed,
		m.AssessmentsProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.AssessedPower,
		m.ClimateCache,
		m.WeatherRequests,
		m.WeatherCache,
		m.WeatherAPIDuration,
		m.WeatherEnabled,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RequestsConsumed:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "evapower", Name: "requests_consumed_total"}),
		AssessmentsProduced:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "evapower", Name: "assessments_produced_total"}),
		TransformErrors:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "evapower", Name: "transform_errors_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "evapower", Name: "pipeline_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "evapower", Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "evapower", Name: "batch_processing_duration_seconds"}),
		AssessedPower:           prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "evapower", Name: "assessed_power_watts_per_m2", Buckets: powerBuckets}, []string{"source"}),
		ClimateCache:            prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "evapower", Name: "climate_cache_total"}, []string{"result"}),
		WeatherRequests:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "evapower", Name: "weather_requests_total"}, []string{"outcome"}),
		WeatherCache:            prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "evapower", Name: "weather_cache_total"}, []string{"result"}),
		WeatherAPIDuration:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "evapower", Name: "weather_api_duration_seconds"}),
		WeatherEnabled:          prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "evapower", Name: "weather_enabled"}),
	}
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	ticksTotal     *prometheus.CounterVec
	anomaliesTotal *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	forecastTime   *prometheus.HistogramVec
	latency        *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		ticksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salepulse_detection_ticks_total",
				Help: "Detection ticks by outcome",
			},
			[]string{"result"},
		),
		anomaliesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salepulse_anomalies_total",
				Help: "Anomaly alerts fired by store and direction",
			},
			[]string{"store", "kind"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salepulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		forecastTime: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "salepulse_forecast_duration_seconds",
				Help:    "Forecast pipeline duration per store",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"store"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "salepulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordTick records a detection tick outcome.
func (r *Recorder) RecordTick(result string) {
	r.ticksTotal.WithLabelValues(result).Inc()
}

// RecordAnomaly records one fired anomaly alert.
func (r *Recorder) RecordAnomaly(store, kind string) {
	r.anomaliesTotal.WithLabelValues(store, kind).Inc()
}

// RecordForecast records one completed forecast.
func (r *Recorder) RecordForecast(store string, seconds float64) {
	r.forecastTime.WithLabelValues(store).Observe(seconds)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	registry     *prometheus.Registry
	registryOnce sync.Once

	// Stream metrics
	EventsConsumed *prometheus.CounterVec
	DecodeErrors   *prometheus.CounterVec

	// Correlation metrics
	JoinsCompleted  prometheus.Counter
	PartialRecords  prometheus.Gauge
	EvictedPartials prometheus.Counter

	// Analysis metrics
	AnalysisDuration prometheus.Histogram
	AnalysisFailures prometheus.Counter

	// Emitter metrics
	EventsPublished   prometheus.Counter
	PublishErrors     prometheus.Counter
	InsightsPersisted prometheus.Counter
	PersistErrors     prometheus.Counter

	// AMQP metrics
	AMQPConnectionStatus prometheus.Gauge
	AMQPReconnects       prometheus.Counter
)

// Init initializes all metrics and registers them with Prometheus.
func Init(logger *logrus.Logger) {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()

		EventsConsumed = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voc_events_consumed_total",
				Help: "Total number of events consumed per input stream",
			},
			[]string{"stream"},
		)

		DecodeErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voc_decode_errors_total",
				Help: "Total number of malformed events dropped per input stream",
			},
			[]string{"stream"},
		)

		JoinsCompleted = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voc_joins_completed_total",
			Help: "Total number of call joins that reached both halves",
		})

		PartialRecords = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "voc_partial_records",
			Help: "Number of partially-joined call records currently held",
		})

		EvictedPartials = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voc_partials_evicted_total",
			Help: "Total number of stale partial records evicted by the sweeper",
		})

		AnalysisDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "voc_analysis_duration_seconds",
			Help:    "Time taken by the VoC analysis pipeline per call",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
		})

		AnalysisFailures = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voc_analysis_failures_total",
			Help: "Total number of calls whose analysis panicked and was dropped",
		})

		EventsPublished = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voc_events_published_total",
			Help: "Total number of insight events published",
		})

		PublishErrors = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voc_publish_errors_total",
			Help: "Total number of insight publish failures",
		})

		InsightsPersisted = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voc_insights_persisted_total",
			Help: "Total number of insights written to the sink",
		})

		PersistErrors = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voc_persist_errors_total",
			Help: "Total number of sink write failures",
		})

		AMQPConnectionStatus = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "voc_amqp_connection_status",
			Help: "AMQP connection status (1 connected, 0 disconnected)",
		})

		AMQPReconnects = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voc_amqp_reconnect_attempts_total",
			Help: "Total number of AMQP reconnect attempts",
		})

		registry.MustRegister(
			EventsConsumed, DecodeErrors,
			JoinsCompleted, PartialRecords, EvictedPartials,
			AnalysisDuration, AnalysisFailures,
			EventsPublished, PublishErrors,
			InsightsPersisted, PersistErrors,
			AMQPConnectionStatus, AMQPReconnects,
		)

		logger.Info("Prometheus metrics initialized")
	})
}

// StartServer serves the metrics endpoint on the given port. It blocks
// until the listener fails, so callers run it in a goroutine.
func StartServer(logger *logrus.Logger, port int) error {
	if registry == nil {
		return fmt.Errorf("metrics not initialized")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	addr := fmt.Sprintf(":%d", port)
	logger.WithField("addr", addr).Info("Metrics endpoint listening")

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return server.ListenAndServe()
}

// The helpers below no-op when Init has not run, so library code and
// tests can record without wiring a registry.

// EventConsumed counts one consumed event for a stream.
func EventConsumed(stream string) {
	if EventsConsumed != nil {
		EventsConsumed.WithLabelValues(stream).Inc()
	}
}

// DecodeError counts one dropped malformed event for a stream.
func DecodeError(stream string) {
	if DecodeErrors != nil {
		DecodeErrors.WithLabelValues(stream).Inc()
	}
}

// JoinCompleted counts one completed join.
func JoinCompleted() {
	if JoinsCompleted != nil {
		JoinsCompleted.Inc()
	}
}

// SetPartialRecords updates the pending-partial gauge.
func SetPartialRecords(n int) {
	if PartialRecords != nil {
		PartialRecords.Set(float64(n))
	}
}

// PartialsEvicted counts swept partial records.
func PartialsEvicted(n int) {
	if EvictedPartials != nil {
		EvictedPartials.Add(float64(n))
	}
}

// ObserveAnalysis records one analysis duration.
func ObserveAnalysis(d time.Duration) {
	if AnalysisDuration != nil {
		AnalysisDuration.Observe(d.Seconds())
	}
}

// AnalysisFailed counts one dropped analysis.
func AnalysisFailed() {
	if AnalysisFailures != nil {
		AnalysisFailures.Inc()
	}
}

// EventPublished counts one published insight event.
func EventPublished() {
	if EventsPublished != nil {
		EventsPublished.Inc()
	}
}

// PublishFailed counts one publish failure.
func PublishFailed() {
	if PublishErrors != nil {
		PublishErrors.Inc()
	}
}

// InsightPersisted counts one successful sink write.
func InsightPersisted() {
	if InsightsPersisted != nil {
		InsightsPersisted.Inc()
	}
}

// PersistFailed counts one sink write failure.
func PersistFailed() {
	if PersistErrors != nil {
		PersistErrors.Inc()
	}
}

// SetAMQPConnected updates the connection status gauge.
func SetAMQPConnected(connected bool) {
	if AMQPConnectionStatus != nil {
		if connected {
			AMQPConnectionStatus.Set(1)
		} else {
			AMQPConnectionStatus.Set(0)
		}
	}
}

// AMQPReconnectAttempt counts one reconnect attempt.
func AMQPReconnectAttempt() {
	if AMQPReconnects != nil {
		AMQPReconnects.Inc()
	}
}

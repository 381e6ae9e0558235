package metrics

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Registry holds all domain-specific metrics for the application
type Registry struct {
	meter metric.Meter
	prom  *promMetrics

	// Scoring Domain Metrics
	ScoringDuration      metric.Float64Histogram
	FraudScoreHist       metric.Float64Histogram
	DecisionCounter      metric.Int64Counter
	FraudDetectedCounter metric.Int64Counter
	ScoresPerSecond      metric.Float64ObservableGauge

	// Signal Gateway Metrics
	SignalFailureCounter metric.Int64Counter

	// Batch Metrics
	BatchSize         metric.Int64Histogram
	BatchItemsCounter metric.Int64Counter

	// System Metrics
	DatabaseConnectionPool metric.Int64ObservableGauge
	APIRequestDuration     metric.Float64Histogram
	APIRequestCounter      metric.Int64Counter

	// State for observable metrics
	mu              sync.RWMutex
	dbPoolSize      int64
	scoresProcessed int64
	lastScoreCount  int64
	lastScoreTime   time.Time
}

// NewRegistry creates a new metrics registry with all domain metrics
func NewRegistry(meterName string) (*Registry, error) {
	meter := otel.Meter(meterName)
	r := &Registry{
		meter:         meter,
		prom:          newPromMetrics(),
		lastScoreTime: time.Now(),
	}

	if err := r.initScoringMetrics(); err != nil {
		return nil, err
	}

	if err := r.initSignalMetrics(); err != nil {
		return nil, err
	}

	if err := r.initBatchMetrics(); err != nil {
		return nil, err
	}

	if err := r.initSystemMetrics(); err != nil {
		return nil, err
	}

	return r, nil
}

// initScoringMetrics initializes scoring domain metrics
func (r *Registry) initScoringMetrics() error {
	var err error

	// Scoring duration histogram
	r.ScoringDuration, err = r.meter.Float64Histogram(
		"fsb.scoring.duration",
		metric.WithDescription("End-to-end scoring latency in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(0.5, 1, 5, 10, 25, 50, 100, 250, 500),
	)
	if err != nil {
		return err
	}

	// Fraud score distribution
	r.FraudScoreHist, err = r.meter.Float64Histogram(
		"fsb.scoring.fraud_score",
		metric.WithDescription("Distribution of produced fraud scores"),
		metric.WithExplicitBucketBoundaries(0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 0.95),
	)
	if err != nil {
		return err
	}

	// Decision counters
	r.DecisionCounter, err = r.meter.Int64Counter(
		"fsb.scoring.decision_total",
		metric.WithDescription("Total scoring decisions by outcome"),
	)
	if err != nil {
		return err
	}

	r.FraudDetectedCounter, err = r.meter.Int64Counter(
		"fsb.scoring.fraud_detected_total",
		metric.WithDescription("Total transactions flagged for review or decline"),
	)
	if err != nil {
		return err
	}

	// Scores per second gauge
	r.ScoresPerSecond, err = r.meter.Float64ObservableGauge(
		"fsb.scoring.throughput_per_second",
		metric.WithDescription("Current scoring throughput per second"),
		metric.WithFloat64Callback(func(ctx context.Context, o metric.Float64Observer) error {
			if rate, ok := r.observeThroughput(time.Now()); ok {
				o.Observe(rate)
			}
			return nil
		}),
	)

	return err
}

// initSignalMetrics initializes signal gateway metrics
func (r *Registry) initSignalMetrics() error {
	var err error

	r.SignalFailureCounter, err = r.meter.Int64Counter(
		"fsb.signal.source_failure_total",
		metric.WithDescription("Signal source fetches resolved to sentinels"),
	)

	return err
}

// initBatchMetrics initializes batch orchestrator metrics
func (r *Registry) initBatchMetrics() error {
	var err error

	r.BatchSize, err = r.meter.Int64Histogram(
		"fsb.batch.size",
		metric.WithDescription("Number of transactions per batch request"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500),
	)
	if err != nil {
		return err
	}

	r.BatchItemsCounter, err = r.meter.Int64Counter(
		"fsb.batch.items_total",
		metric.WithDescription("Total batch items processed by outcome"),
	)

	return err
}

// initSystemMetrics initializes system-level metrics
func (r *Registry) initSystemMetrics() error {
	var err error

	// Database connection pool
	r.DatabaseConnectionPool, err = r.meter.Int64ObservableGauge(
		"fsb.system.db_connection_pool_size",
		metric.WithDescription("Current database connection pool size"),
		metric.WithInt64Callback(func(ctx context.Context, o metric.Int64Observer) error {
			r.mu.RLock()
			defer r.mu.RUnlock()
			o.Observe(r.dbPoolSize)
			return nil
		}),
	)
	if err != nil {
		return err
	}

	// API request duration
	r.APIRequestDuration, err = r.meter.Float64Histogram(
		"fsb.api.request_duration",
		metric.WithDescription("API request duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 50, 100, 500, 1000, 5000),
	)
	if err != nil {
		return err
	}

	// API request counter
	r.APIRequestCounter, err = r.meter.Int64Counter(
		"fsb.api.request_total",
		metric.WithDescription("Total number of API requests"),
	)

	return err
}

// observeThroughput reports scores per second since the previous
// observation and advances the window. It mutates the window state, so
// it takes the write lock.
func (r *Registry) observeThroughput(now time.Time) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	elapsed := now.Sub(r.lastScoreTime).Seconds()
	if elapsed <= 0 {
		return 0, false
	}

	rate := float64(r.scoresProcessed-r.lastScoreCount) / elapsed
	r.lastScoreCount = r.scoresProcessed
	r.lastScoreTime = now
	return rate, true
}

// Helper methods for updating observable metric values

// SetDBPoolSize sets the database connection pool size
func (r *Registry) SetDBPoolSize(size int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dbPoolSize = size
}

// Helper methods for recording metrics with common attribute patterns

// RecordScore records the outcome of one scoring pass
func (r *Registry) RecordScore(ctx context.Context, score float64, decision string, durationMS float64) {
	attrs := []attribute.KeyValue{
		attribute.String("decision", decision),
	}

	r.ScoringDuration.Record(ctx, durationMS, metric.WithAttributes(attrs...))
	r.FraudScoreHist.Record(ctx, score)
	r.DecisionCounter.Add(ctx, 1, metric.WithAttributes(attrs...))

	if decision == "review" || decision == "decline" {
		r.FraudDetectedCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
		r.prom.fraudDetectedTotal.WithLabelValues(decision).Inc()
	}

	r.mu.Lock()
	r.scoresProcessed++
	r.mu.Unlock()
}

// RecordSignalFailure counts a signal source fetch that degraded to sentinels
func (r *Registry) RecordSignalFailure(ctx context.Context, source string) {
	r.SignalFailureCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
	))
}

// RecordBatch records a completed batch request
func (r *Registry) RecordBatch(ctx context.Context, size int, failed int) {
	r.BatchSize.Record(ctx, int64(size))
	r.BatchItemsCounter.Add(ctx, int64(size-failed), metric.WithAttributes(
		attribute.String("outcome", "scored"),
	))
	if failed > 0 {
		r.BatchItemsCounter.Add(ctx, int64(failed), metric.WithAttributes(
			attribute.String("outcome", "failed"),
		))
	}
}

// RecordAPIRequest records API request metrics
func (r *Registry) RecordAPIRequest(ctx context.Context, duration float64, method, path string, statusCode int) {
	attrs := []attribute.KeyValue{
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.Int("status_code", statusCode),
	}

	r.APIRequestDuration.Record(ctx, duration, metric.WithAttributes(attrs...))
	r.APIRequestCounter.Add(ctx, 1, metric.WithAttributes(attrs...))

	r.prom.requestsTotal.WithLabelValues(method, path, statusClass(statusCode)).Inc()
	r.prom.requestLatency.Observe(duration / 1000)
	if statusCode >= 400 {
		r.prom.errorsTotal.WithLabelValues(errorClass(statusCode)).Inc()
	}
}

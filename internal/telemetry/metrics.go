package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	RequestCounter      metric.Int64Counter
	RequestDuration     metric.Float64Histogram
	MatchesComputed     metric.Int64Counter
	MatchDuration       metric.Float64Histogram
	EmbeddingDuration   metric.Float64Histogram
	EmbeddingCacheHits  metric.Int64Counter
	CircuitBreakerState metric.Int64Counter
	StoreOperations     metric.Int64Counter
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("talent-match-platform")

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	matchesComputed, err := meter.Int64Counter(
		"match.computed.total",
		metric.WithDescription("Total job-resume matches computed"),
	)
	if err != nil {
		return nil, err
	}

	matchDuration, err := meter.Float64Histogram(
		"match.duration",
		metric.WithDescription("Single pair match duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	embeddingDuration, err := meter.Float64Histogram(
		"embedding.duration",
		metric.WithDescription("Embedding inference duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	embeddingCacheHits, err := meter.Int64Counter(
		"embedding.cache.lookups",
		metric.WithDescription("Embedding cache lookups by outcome"),
	)
	if err != nil {
		return nil, err
	}

	circuitBreakerState, err := meter.Int64Counter(
		"circuit_breaker.state_changes",
		metric.WithDescription("Circuit breaker state changes"),
	)
	if err != nil {
		return nil, err
	}

	storeOperations, err := meter.Int64Counter(
		"store.operations.total",
		metric.WithDescription("Total persistence operations"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:      requestCounter,
		RequestDuration:     requestDuration,
		MatchesComputed:     matchesComputed,
		MatchDuration:       matchDuration,
		EmbeddingDuration:   embeddingDuration,
		EmbeddingCacheHits:  embeddingCacheHits,
		CircuitBreakerState: circuitBreakerState,
		StoreOperations:     storeOperations,
	}, nil
}

// RecordRequest records HTTP request metrics
func (m *Metrics) RecordRequest(method, path, status string, duration float64) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("http.status", status),
	}

	m.RequestCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.RequestDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordMatch records a computed match and its duration
func (m *Metrics) RecordMatch(duration float64, lowConfidence bool) {
	attrs := []attribute.KeyValue{
		attribute.Bool("match.low_confidence", lowConfidence),
	}

	m.MatchesComputed.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.MatchDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordEmbedding records embedding inference metrics
func (m *Metrics) RecordEmbedding(duration float64, status string) {
	attrs := []attribute.KeyValue{
		attribute.String("embedding.status", status),
	}

	m.EmbeddingDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordCacheLookup records an embedding cache lookup outcome
func (m *Metrics) RecordCacheLookup(hit bool) {
	attrs := []attribute.KeyValue{
		attribute.Bool("cache.hit", hit),
	}

	m.EmbeddingCacheHits.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

// RecordCircuitBreakerState records circuit breaker state changes
func (m *Metrics) RecordCircuitBreakerState(service, state string) {
	attrs := []attribute.KeyValue{
		attribute.String("service", service),
		attribute.String("state", state),
	}

	m.CircuitBreakerState.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

// RecordStoreOperation records persistence operation metrics
func (m *Metrics) RecordStoreOperation(operation, collection string, success bool) {
	attrs := []attribute.KeyValue{
		attribute.String("db.operation", operation),
		attribute.String("db.collection", collection),
		attribute.Bool("db.success", success),
	}

	m.StoreOperations.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

package ai

import (
	"context"
	"fmt"
	"time"

	"talent-match-platform/internal/config"
	"talent-match-platform/internal/logger"
	"talent-match-platform/internal/telemetry"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	genai "github.com/google/generative-ai-go/genai"
)

// EmbedFunc performs a single embedding inference. Implementations must
// honor ctx cancellation.
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// Embedder converts text into fixed-dimension vectors. Inference runs
// behind a circuit breaker, a provider-side rate limiter, and a bounded
// worker semaphore so concurrent match requests are not serialized behind
// the model. When inference is unavailable the embedder degrades to a
// zero vector of the expected dimensionality instead of failing the
// caller; cosine similarity against a zero vector is defined as 0.
type Embedder struct {
	embedFn EmbedFunc
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	sem     chan struct{}
	dim     int
	timeout time.Duration
	client  *genai.Client
	metrics *telemetry.Metrics
}

// EmbedderOptions configures the failure policy and resource bounds.
type EmbedderOptions struct {
	Dimensions      int
	Timeout         time.Duration
	Concurrency     int
	RPM             int
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// HealthStatus is the result of an embedding health probe.
type HealthStatus struct {
	OK           bool   `json:"ok"`
	LatencyMS    int64  `json:"latency_ms"`
	CircuitState string `json:"circuit_state"`
	Error        string `json:"error,omitempty"`
}

// NewEmbedder builds an embedder backed by the Gemini embedding model
// chosen once at process start.
func NewEmbedder(cfg *config.Config, metrics *telemetry.Metrics) (*Embedder, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding client: %w", err)
	}

	model := client.EmbeddingModel(cfg.GoogleEmbeddingsModel)

	fn := func(ctx context.Context, text string) ([]float32, error) {
		resp, err := model.EmbedContent(ctx, genai.Text(text))
		if err != nil {
			return nil, err
		}
		if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
			return nil, fmt.Errorf("no embedding returned")
		}
		return resp.Embedding.Values, nil
	}

	e := NewEmbedderFromFunc(fn, EmbedderOptions{
		Dimensions:      cfg.EmbeddingDimensions,
		Timeout:         time.Duration(cfg.EmbeddingTimeout) * time.Second,
		Concurrency:     cfg.EmbeddingConcurrency,
		RPM:             cfg.EmbeddingRPM,
		BreakerFailures: uint32(cfg.BreakerFailures),
		BreakerCooldown: time.Duration(cfg.BreakerCooldown) * time.Second,
	}, metrics)
	e.client = client
	return e, nil
}

// NewEmbedderFromFunc builds an embedder around an arbitrary inference
// function. Used by tests and alternative providers.
func NewEmbedderFromFunc(fn EmbedFunc, opts EmbedderOptions, metrics *telemetry.Metrics) *Embedder {
	if opts.Dimensions <= 0 {
		opts.Dimensions = 768
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.RPM <= 0 {
		opts.RPM = 600
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}
	if opts.BreakerCooldown <= 0 {
		opts.BreakerCooldown = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "EmbeddingModel",
		MaxRequests: 1, // single trial call while half-open
		Timeout:     opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.BreakerFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
			if metrics != nil {
				metrics.RecordCircuitBreakerState(name, to.String())
			}
		},
	})

	return &Embedder{
		embedFn: fn,
		breaker: breaker,
		limiter: rate.NewLimiter(rate.Limit(float64(opts.RPM)/60.0), opts.Concurrency),
		sem:     make(chan struct{}, opts.Concurrency),
		dim:     opts.Dimensions,
		timeout: opts.Timeout,
		metrics: metrics,
	}
}

// Dimension returns the constant output dimensionality for this process.
func (e *Embedder) Dimension() int {
	return e.dim
}

// ZeroVector returns the deterministic fallback vector.
func (e *Embedder) ZeroVector() []float32 {
	return make([]float32, e.dim)
}

// Embed converts text into a vector. Inference failures, timeouts, and an
// open breaker all degrade to the zero vector; the error is logged and
// counted but never surfaced. Empty text maps directly to the zero vector
// without an inference call.
func (e *Embedder) Embed(ctx context.Context, text string) []float32 {
	if text == "" {
		return e.ZeroVector()
	}

	vec, err := e.tryEmbed(ctx, text)
	if err != nil {
		logger.Warn("Embedding degraded to zero vector", "error", err, "circuit_state", e.CircuitState())
		return e.ZeroVector()
	}
	return vec
}

// EmbedBatch embeds texts one by one through the same failure policy.
// Individual failures degrade to zero vectors without aborting the batch.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) [][]float32 {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.Embed(ctx, text)
	}
	return vectors
}

// tryEmbed runs one rate-limited, time-bounded inference call through the
// circuit breaker. A timeout counts as a failure toward the breaker.
func (e *Embedder) tryEmbed(ctx context.Context, text string) ([]float32, error) {
	tracer := otel.Tracer("embedder")
	ctx, span := tracer.Start(ctx, "embedding.generate")
	defer span.End()
	span.SetAttributes(attribute.Int("embedding.text_length", len(text)))

	select {
	case e.sem <- struct{}{}:
		defer func() { <-e.sem }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := e.breaker.Execute(func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()

		vec, err := e.embedFn(callCtx, text)
		if err != nil {
			return nil, err
		}
		if len(vec) != e.dim {
			return nil, fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(vec), e.dim)
		}
		return vec, nil
	})

	if e.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		e.metrics.RecordEmbedding(time.Since(start).Seconds(), status)
	}

	if err != nil {
		span.SetAttributes(attribute.Bool("embedding.error", true))
		return nil, err
	}

	span.SetAttributes(attribute.Bool("embedding.success", true))
	return result.([]float32), nil
}

// CircuitState returns the breaker state as a string for health reporting.
func (e *Embedder) CircuitState() string {
	return e.breaker.State().String()
}

// HealthCheck probes the embedding path with a tiny input and reports
// latency and breaker state. Unlike Embed, a failure is reported rather
// than masked.
func (e *Embedder) HealthCheck(ctx context.Context) HealthStatus {
	start := time.Now()
	_, err := e.tryEmbed(ctx, "health probe")
	status := HealthStatus{
		OK:           err == nil,
		LatencyMS:    time.Since(start).Milliseconds(),
		CircuitState: e.CircuitState(),
	}
	if err != nil {
		status.Error = err.Error()
	}
	return status
}

// Close releases the underlying provider client.
func (e *Embedder) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

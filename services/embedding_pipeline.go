package services

import (
	"context"
	"time"

	"talent-match-platform/internal/logger"
	"talent-match-platform/internal/telemetry"
)

// VectorProvider is the inference side of the pipeline, satisfied by
// ai.Embedder.
type VectorProvider interface {
	Embed(ctx context.Context, text string) []float32
	Dimension() int
	ZeroVector() []float32
}

// EmbeddingPipeline is the read-through path from raw text to vector:
// normalize, consult the content-addressed cache, fall back to inference,
// then populate the cache. Cache failures are absorbed and treated as
// misses; inference failures already degrade to the zero vector inside
// the provider. Concurrent requests for the same uncached text may each
// compute and write the same value; the computation is idempotent so no
// lock is taken.
type EmbeddingPipeline struct {
	cache    VectorCache
	provider VectorProvider
	maxLen   int
	ttl      time.Duration
	metrics  *telemetry.Metrics
}

func NewEmbeddingPipeline(cache VectorCache, provider VectorProvider, maxLen int, ttl time.Duration, metrics *telemetry.Metrics) *EmbeddingPipeline {
	return &EmbeddingPipeline{
		cache:    cache,
		provider: provider,
		maxLen:   maxLen,
		ttl:      ttl,
		metrics:  metrics,
	}
}

// Embedding returns the vector for raw text. Never fails: the worst case
// is the zero vector of the configured dimension.
func (p *EmbeddingPipeline) Embedding(ctx context.Context, text string) []float32 {
	normalized := NormalizeText(text, p.maxLen)
	if normalized == "" {
		return p.provider.ZeroVector()
	}

	key := ContentHash(normalized)

	if p.cache != nil {
		vec, ok, err := p.cache.Get(ctx, key)
		if err != nil {
			logger.Warn("Embedding cache read failed, treating as miss", "error", err)
		}
		if p.metrics != nil {
			p.metrics.RecordCacheLookup(ok)
		}
		if ok {
			return vec
		}
	}

	vec := p.provider.Embed(ctx, normalized)

	// Only real vectors are cached. Caching the zero-vector fallback would
	// pin a degraded value past the provider's recovery.
	if p.cache != nil && !IsZeroVector(vec) {
		if err := p.cache.Put(ctx, key, vec, p.ttl); err != nil {
			logger.Warn("Embedding cache write failed", "error", err)
		}
	}

	return vec
}

// Dimension exposes the provider's constant dimensionality.
func (p *EmbeddingPipeline) Dimension() int {
	return p.provider.Dimension()
}

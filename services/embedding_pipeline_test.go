package services

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

type stubCache struct {
	entries map[string][]float32
	getErr  error
	puts    int
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[string][]float32)}
}

func (c *stubCache) Get(_ context.Context, key string) ([]float32, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	vec, ok := c.entries[key]
	return vec, ok, nil
}

func (c *stubCache) Put(_ context.Context, key string, vec []float32, _ time.Duration) error {
	c.puts++
	c.entries[key] = vec
	return nil
}

type stubProvider struct {
	vec   []float32
	dim   int
	calls int
}

func (p *stubProvider) Embed(context.Context, string) []float32 {
	p.calls++
	if p.vec != nil {
		return p.vec
	}
	return make([]float32, p.dim)
}

func (p *stubProvider) Dimension() int        { return p.dim }
func (p *stubProvider) ZeroVector() []float32 { return make([]float32, p.dim) }

func TestPipelineReadThrough(t *testing.T) {
	cache := newStubCache()
	provider := &stubProvider{vec: []float32{0.1, 0.2, 0.3}, dim: 3}
	pipeline := NewEmbeddingPipeline(cache, provider, 0, time.Hour, nil)

	first := pipeline.Embedding(context.Background(), "senior go engineer")
	if provider.calls != 1 {
		t.Fatalf("provider calls = %d, want 1", provider.calls)
	}
	if cache.puts != 1 {
		t.Errorf("cache puts = %d, want 1", cache.puts)
	}

	second := pipeline.Embedding(context.Background(), "senior go engineer")
	if provider.calls != 1 {
		t.Errorf("second lookup must be served from cache, provider calls = %d", provider.calls)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("cached vector differs from computed vector")
	}
}

func TestPipelineSharesCacheAcrossWhitespaceVariants(t *testing.T) {
	cache := newStubCache()
	provider := &stubProvider{vec: []float32{1, 2}, dim: 2}
	pipeline := NewEmbeddingPipeline(cache, provider, 0, time.Hour, nil)

	pipeline.Embedding(context.Background(), "python   developer")
	pipeline.Embedding(context.Background(), "  python developer\n")

	if provider.calls != 1 {
		t.Errorf("normalized-identical texts must share a cache entry, provider calls = %d", provider.calls)
	}
}

func TestPipelineEmptyTextSkipsProvider(t *testing.T) {
	provider := &stubProvider{dim: 4}
	pipeline := NewEmbeddingPipeline(newStubCache(), provider, 0, time.Hour, nil)

	vec := pipeline.Embedding(context.Background(), "   \n\t")
	if provider.calls != 0 {
		t.Errorf("provider called for empty text")
	}
	if !IsZeroVector(vec) || len(vec) != 4 {
		t.Errorf("expected zero vector of dimension 4, got %v", vec)
	}
}

func TestPipelineDoesNotCacheZeroVectors(t *testing.T) {
	cache := newStubCache()
	provider := &stubProvider{dim: 3} // always degrades to the zero vector
	pipeline := NewEmbeddingPipeline(cache, provider, 0, time.Hour, nil)

	vec := pipeline.Embedding(context.Background(), "some text")
	if !IsZeroVector(vec) {
		t.Fatalf("expected degraded zero vector, got %v", vec)
	}
	if cache.puts != 0 {
		t.Error("zero vector must not be cached")
	}

	// Once the provider recovers, the next call computes and caches.
	provider.vec = []float32{1, 0, 0}
	pipeline.Embedding(context.Background(), "some text")
	if cache.puts != 1 {
		t.Errorf("recovered vector not cached, puts = %d", cache.puts)
	}
}

func TestPipelineCacheErrorIsAMiss(t *testing.T) {
	cache := newStubCache()
	cache.getErr = errors.New("redis down")
	provider := &stubProvider{vec: []float32{0.5}, dim: 1}
	pipeline := NewEmbeddingPipeline(cache, provider, 0, time.Hour, nil)

	vec := pipeline.Embedding(context.Background(), "text")
	if provider.calls != 1 {
		t.Errorf("cache failure must fall through to the provider, calls = %d", provider.calls)
	}
	if !reflect.DeepEqual(vec, []float32{0.5}) {
		t.Errorf("vec = %v", vec)
	}
}

func TestPipelineTruncatesLongText(t *testing.T) {
	cache := newStubCache()
	provider := &stubProvider{vec: []float32{1}, dim: 1}
	pipeline := NewEmbeddingPipeline(cache, provider, 10, time.Hour, nil)

	pipeline.Embedding(context.Background(), "aaaaaaaaaa tail that gets cut")
	pipeline.Embedding(context.Background(), "aaaaaaaaaa different tail")

	// Both inputs share the first 10 normalized bytes, hence one entry.
	if provider.calls != 1 {
		t.Errorf("truncated-identical texts must share a cache entry, calls = %d", provider.calls)
	}
}

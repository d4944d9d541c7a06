package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// VectorStore persists entity embeddings on the owning document (one
// vector per entity, overwritten on regeneration) and retrieves them for
// pairwise similarity.
type VectorStore struct {
	col *mongo.Collection
}

func NewVectorStore(col *mongo.Collection) *VectorStore {
	return &VectorStore{col: col}
}

// Save overwrites the entity's embedding. Last writer wins; values are
// idempotent per content so redundant concurrent writes are safe.
func (s *VectorStore) Save(ctx context.Context, entityID string, vec []float32) error {
	now := time.Now().UTC()
	_, err := s.col.UpdateOne(
		ctx,
		bson.M{"_id": entityID},
		bson.M{"$set": bson.M{"embedding": vec, "embedded_at": now, "updated_at": now}},
	)
	if err != nil {
		return fmt.Errorf("failed to save embedding for %s: %w", entityID, err)
	}
	return nil
}

// Load returns the stored embedding, or nil when the entity was never
// embedded. The nil result is a well-defined low-confidence case, not an
// error.
func (s *VectorStore) Load(ctx context.Context, entityID string) ([]float32, error) {
	var doc struct {
		Embedding []float32 `bson:"embedding"`
	}
	err := s.col.FindOne(
		ctx,
		bson.M{"_id": entityID},
		options.FindOne().SetProjection(bson.M{"embedding": 1}),
	).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load embedding for %s: %w", entityID, err)
	}
	return doc.Embedding, nil
}

// CosineSimilarity computes dot(a,b) / (||a||*||b||), clamped to [0,1].
// Negative similarities are floored to 0: this domain treats
// dissimilarity, not opposition, as the meaningful extreme. Absent,
// empty, mismatched, and zero vectors all yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}

// IsZeroVector reports whether vec is absent or all zeros, i.e. the
// deterministic fallback produced when embedding is unavailable.
func IsZeroVector(vec []float32) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}

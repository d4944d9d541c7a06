package services

import (
	"fmt"
	"math"
)

// ScorePolicy blends the semantic similarity and skill coverage signals
// into the 0-100 integer score the API exposes. Weights are normalized at
// construction so ranking stays stable even if configuration drifts.
type ScorePolicy struct {
	similarityWeight float64
	skillWeight      float64
}

// NewScorePolicy validates and normalizes the weights. Non-positive
// totals are rejected rather than silently defaulted.
func NewScorePolicy(similarityWeight, skillWeight float64) (*ScorePolicy, error) {
	if similarityWeight < 0 || skillWeight < 0 {
		return nil, fmt.Errorf("score weights must be non-negative, got %v and %v", similarityWeight, skillWeight)
	}
	total := similarityWeight + skillWeight
	if total <= 0 {
		return nil, fmt.Errorf("score weights must sum to a positive value")
	}
	return &ScorePolicy{
		similarityWeight: similarityWeight / total,
		skillWeight:      skillWeight / total,
	}, nil
}

// DefaultScorePolicy is the 60/40 similarity/skills blend.
func DefaultScorePolicy() *ScorePolicy {
	p, _ := NewScorePolicy(0.6, 0.4)
	return p
}

// Combine maps (similarity, coverage) to an integer score in [0,100].
// Inputs are clamped to [0,1] first so a misbehaving upstream cannot push
// the score out of range.
func (p *ScorePolicy) Combine(similarity, coverage float64) int {
	similarity = clamp01(similarity)
	coverage = clamp01(coverage)

	raw := similarity*p.similarityWeight + coverage*p.skillWeight
	score := int(math.Round(raw * 100))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// SimilarityWeight returns the normalized similarity weight.
func (p *ScorePolicy) SimilarityWeight() float64 { return p.similarityWeight }

// SkillWeight returns the normalized skill weight.
func (p *ScorePolicy) SkillWeight() float64 { return p.skillWeight }

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

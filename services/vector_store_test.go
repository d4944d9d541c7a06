package services

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical vectors", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal vectors", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite vectors clamp to zero", []float32{1, 0}, []float32{-1, 0}, 0},
		{"zero vector yields zero", []float32{0, 0, 0}, []float32{1, 2, 3}, 0},
		{"both zero", []float32{0, 0}, []float32{0, 0}, 0},
		{"dimension mismatch", []float32{1, 2}, []float32{1, 2, 3}, 0},
		{"nil input", nil, []float32{1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCosineSimilarityBounds(t *testing.T) {
	a := []float32{0.1, 0.9, 0.3, 0.5}
	b := []float32{0.4, 0.2, 0.8, 0.1}
	got := CosineSimilarity(a, b)
	if got < 0 || got > 1 {
		t.Errorf("similarity %v out of [0,1]", got)
	}
}

func TestIsZeroVector(t *testing.T) {
	if !IsZeroVector(nil) {
		t.Error("nil is the zero-vector case")
	}
	if !IsZeroVector([]float32{0, 0, 0}) {
		t.Error("all-zero vector must be detected")
	}
	if IsZeroVector([]float32{0, 0.001, 0}) {
		t.Error("non-zero vector misdetected")
	}
}

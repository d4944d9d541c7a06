package services

import (
	"strings"
	"testing"
)

func TestExplainDeterministic(t *testing.T) {
	in := ExplanationInput{
		JobTitle:      "Backend Engineer",
		CandidateName: "Alex Chen",
		OverallScore:  65,
		Matched:       []string{"python"},
		Missing:       []string{"sql"},
		CoverageRatio: 0.5,
	}

	first := Explain(in)
	second := Explain(in)
	if first != second {
		t.Error("identical inputs must produce byte-identical explanations")
	}
}

func TestExplainTone(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{90, "strong match"},
		{75, "strong match"},
		{65, "moderate match"},
		{50, "moderate match"},
		{49, "weak match"},
		{0, "weak match"},
	}

	for _, tt := range tests {
		got := Explain(ExplanationInput{OverallScore: tt.score})
		if !strings.Contains(got, tt.want) {
			t.Errorf("score %d: expected %q in %q", tt.score, tt.want, got)
		}
	}
}

func TestMatchBandBoundaries(t *testing.T) {
	// The stats buckets and the explanation tone both read matchBand, so
	// the API never reports a result as strong in one place and moderate
	// in another.
	tests := []struct {
		score int
		want  string
	}{
		{100, "strong"},
		{strongMatchThreshold, "strong"},
		{strongMatchThreshold - 1, "moderate"},
		{moderateMatchThreshold, "moderate"},
		{moderateMatchThreshold - 1, "weak"},
		{0, "weak"},
	}

	for _, tt := range tests {
		if got := matchBand(tt.score); got != tt.want {
			t.Errorf("matchBand(%d) = %q, want %q", tt.score, got, tt.want)
		}
		explained := Explain(ExplanationInput{OverallScore: tt.score})
		if !strings.Contains(explained, tt.want+" match") {
			t.Errorf("score %d: explanation tone disagrees with band %q: %q", tt.score, tt.want, explained)
		}
	}
}

func TestExplainMentionsSkills(t *testing.T) {
	got := Explain(ExplanationInput{
		JobTitle:      "Data Engineer",
		CandidateName: "Sam Lee",
		OverallScore:  65,
		Matched:       []string{"python"},
		Missing:       []string{"spark", "sql"},
		CoverageRatio: 1.0 / 3.0,
	})

	for _, want := range []string{"Sam Lee", "Data Engineer", "python", "spark", "sql", "33%"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in explanation %q", want, got)
		}
	}
}

func TestExplainFullCoverage(t *testing.T) {
	got := Explain(ExplanationInput{
		OverallScore:  88,
		Matched:       []string{"go", "kubernetes"},
		CoverageRatio: 1,
	})
	if !strings.Contains(got, "all required skills") {
		t.Errorf("expected full-coverage phrasing in %q", got)
	}
	if !strings.Contains(got, "go and kubernetes") {
		t.Errorf("expected two-skill join in %q", got)
	}
}

func TestExplainNoRequirements(t *testing.T) {
	got := Explain(ExplanationInput{OverallScore: 60})
	if !strings.Contains(got, "no specific skill requirements") {
		t.Errorf("expected no-requirements phrasing in %q", got)
	}
}

func TestExplainLowConfidence(t *testing.T) {
	got := Explain(ExplanationInput{
		OverallScore:  20,
		Missing:       []string{"sql"},
		LowConfidence: true,
	})
	if !strings.Contains(got, "skill overlap only") {
		t.Errorf("expected low-confidence caveat in %q", got)
	}
}

func TestExplainAnonymousFallbacks(t *testing.T) {
	got := Explain(ExplanationInput{OverallScore: 10})
	if !strings.Contains(got, "The candidate") || !strings.Contains(got, "this position") {
		t.Errorf("expected placeholder name and title in %q", got)
	}
}

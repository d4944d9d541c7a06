package services

import (
	"fmt"
	"strings"
)

// ExplanationInput carries the facts an explanation is assembled from.
// Skill slices must already be sorted so the output is deterministic for
// identical inputs.
type ExplanationInput struct {
	JobTitle      string
	CandidateName string
	OverallScore  int
	Matched       []string
	Missing       []string
	CoverageRatio float64
	LowConfidence bool
}

// Explain builds a short human-readable match summary from a fixed
// template. Same input, byte-identical output; no model call on this
// path.
func Explain(in ExplanationInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s scores %d/100 for %s. ", displayName(in.CandidateName), in.OverallScore, displayTitle(in.JobTitle))
	b.WriteString(toneSentence(in.OverallScore))

	switch {
	case len(in.Matched) > 0 && len(in.Missing) > 0:
		fmt.Fprintf(&b, " Covers %s, but lacks %s (%d%% of required skills).",
			joinSkills(in.Matched), joinSkills(in.Missing), coveragePercent(in.CoverageRatio))
	case len(in.Matched) > 0:
		fmt.Fprintf(&b, " Covers all required skills: %s.", joinSkills(in.Matched))
	case len(in.Missing) > 0:
		fmt.Fprintf(&b, " None of the required skills were found; missing %s.", joinSkills(in.Missing))
	default:
		b.WriteString(" The position lists no specific skill requirements.")
	}

	if in.LowConfidence {
		b.WriteString(" Semantic similarity could not be computed for this pair, so the score reflects skill overlap only.")
	}

	return b.String()
}

// Score bands shared by the explanation tone and the per-job stats
// buckets so API labels never disagree.
const (
	strongMatchThreshold   = 75
	moderateMatchThreshold = 50
)

func matchBand(score int) string {
	switch {
	case score >= strongMatchThreshold:
		return "strong"
	case score >= moderateMatchThreshold:
		return "moderate"
	default:
		return "weak"
	}
}

func toneSentence(score int) string {
	return "This is a " + matchBand(score) + " match."
}

func joinSkills(skills []string) string {
	switch len(skills) {
	case 0:
		return ""
	case 1:
		return skills[0]
	case 2:
		return skills[0] + " and " + skills[1]
	default:
		return strings.Join(skills[:len(skills)-1], ", ") + ", and " + skills[len(skills)-1]
	}
}

func coveragePercent(ratio float64) int {
	if ratio < 0 {
		return 0
	}
	if ratio > 1 {
		return 100
	}
	return int(ratio*100 + 0.5)
}

func displayName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "The candidate"
	}
	return name
}

func displayTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return "this position"
	}
	return title
}

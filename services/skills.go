package services

import (
	"regexp"
	"sort"
	"strings"
)

// skillVocabulary lists the canonical skill tokens the extractor
// recognizes. Pattern matching against a maintained vocabulary keeps this
// half of the score independent of the embedding model's health.
var skillVocabulary = []string{
	// Programming languages
	"python", "java", "javascript", "typescript", "c++", "c#", "php", "ruby",
	"go", "rust", "swift", "kotlin", "scala", "r", "matlab", "sql",

	// Web technologies
	"html", "css", "react", "angular", "vue", "node.js", "express", "django",
	"flask", "spring", "laravel", "graphql", "rest api", "microservices",

	// Databases
	"mysql", "postgresql", "mongodb", "redis", "elasticsearch", "oracle",
	"sqlite", "cassandra",

	// Cloud and DevOps
	"aws", "azure", "gcp", "docker", "kubernetes", "terraform", "ansible",
	"jenkins", "git", "ci/cd", "linux", "bash", "nginx",

	// Data science
	"machine learning", "deep learning", "natural language processing",
	"pandas", "numpy", "tensorflow", "pytorch", "spark", "hadoop",
	"data analysis", "tableau", "power bi",

	// Mobile
	"ios", "android", "react native", "flutter",

	// Testing
	"unit testing", "integration testing", "selenium",

	// Soft skills
	"leadership", "communication", "teamwork", "problem solving",
	"project management", "mentoring", "agile", "scrum",
}

// skillSynonyms maps variations to canonical vocabulary tokens.
var skillSynonyms = map[string]string{
	"js":                      "javascript",
	"ecmascript":              "javascript",
	"ts":                      "typescript",
	"py":                      "python",
	"golang":                  "go",
	"postgres":                "postgresql",
	"psql":                    "postgresql",
	"mongo":                   "mongodb",
	"nodejs":                  "node.js",
	"node":                    "node.js",
	"reactjs":                 "react",
	"angularjs":               "angular",
	"vuejs":                   "vue",
	"k8s":                     "kubernetes",
	"ml":                      "machine learning",
	"artificial intelligence": "machine learning",
	"ai":                      "machine learning",
	"dl":                      "deep learning",
	"neural networks":         "deep learning",
	"nlp":                     "natural language processing",
	"restful api":             "rest api",
	"continuous integration":  "ci/cd",
	"continuous deployment":   "ci/cd",
	"kanban":                  "agile",
	"pm":                      "project management",
}

// SkillComparison is the output of comparing a job's required skills with
// a candidate's extracted skills. All sets are deduplicated and sorted.
type SkillComparison struct {
	Matched       []string `json:"matched"`
	Missing       []string `json:"missing"`
	Additional    []string `json:"additional"`
	CoverageRatio float64  `json:"coverage_ratio"` // |matched| / |required|
}

// SkillExtractor derives a normalized skill set from free text using
// keyword matching. Deterministic; no probabilistic model. Tokens outside
// the vocabulary are ignored.
type SkillExtractor struct {
	patterns map[string]*regexp.Regexp // canonical skill -> match pattern
}

func NewSkillExtractor() *SkillExtractor {
	// One alternation per canonical skill covering the skill itself and
	// all of its synonyms, anchored on non-identifier boundaries so terms
	// like "c++" and "node.js" still match whole words.
	variants := make(map[string][]string, len(skillVocabulary))
	for _, skill := range skillVocabulary {
		variants[skill] = append(variants[skill], skill)
	}
	for synonym, canonical := range skillSynonyms {
		if _, ok := variants[canonical]; ok {
			variants[canonical] = append(variants[canonical], synonym)
		}
	}

	patterns := make(map[string]*regexp.Regexp, len(variants))
	for skill, alts := range variants {
		quoted := make([]string, len(alts))
		for i, alt := range alts {
			quoted[i] = regexp.QuoteMeta(alt)
		}
		expr := `(^|[^a-z0-9+#])(` + strings.Join(quoted, "|") + `)($|[^a-z0-9+#])`
		patterns[skill] = regexp.MustCompile(expr)
	}

	return &SkillExtractor{patterns: patterns}
}

// Extract returns the canonical skills found in text, case-folded,
// deduplicated, and sorted. Empty or unrecognized text yields an empty
// set, never an error.
func (e *SkillExtractor) Extract(text string) []string {
	if strings.TrimSpace(text) == "" {
		return []string{}
	}

	lowered := strings.ToLower(text)
	found := make([]string, 0, 8)
	for skill, pattern := range e.patterns {
		if pattern.MatchString(lowered) {
			found = append(found, skill)
		}
	}

	sort.Strings(found)
	return found
}

// Normalize canonicalizes an externally supplied skill list: case-folds,
// resolves synonyms, deduplicates, and sorts. Tokens outside the synonym
// table pass through case-folded so explicitly required niche skills are
// not silently dropped.
func (e *SkillExtractor) Normalize(skills []string) []string {
	seen := make(map[string]struct{}, len(skills))
	out := make([]string, 0, len(skills))
	for _, raw := range skills {
		skill := strings.ToLower(strings.TrimSpace(raw))
		if skill == "" {
			continue
		}
		if canonical, ok := skillSynonyms[skill]; ok {
			skill = canonical
		}
		if _, dup := seen[skill]; dup {
			continue
		}
		seen[skill] = struct{}{}
		out = append(out, skill)
	}
	sort.Strings(out)
	return out
}

// CompareSkills computes the matched, missing, and additional sets plus
// the coverage ratio. Inputs must already be normalized. An empty
// required set cannot be failed: coverage is 1.0 by definition.
func CompareSkills(required, candidate []string) SkillComparison {
	requiredSet := toSet(required)
	candidateSet := toSet(candidate)

	matched := make([]string, 0, len(requiredSet))
	missing := make([]string, 0, len(requiredSet))
	for skill := range requiredSet {
		if _, ok := candidateSet[skill]; ok {
			matched = append(matched, skill)
		} else {
			missing = append(missing, skill)
		}
	}

	additional := make([]string, 0, len(candidateSet))
	for skill := range candidateSet {
		if _, ok := requiredSet[skill]; !ok {
			additional = append(additional, skill)
		}
	}

	sort.Strings(matched)
	sort.Strings(missing)
	sort.Strings(additional)

	coverage := 1.0
	if len(requiredSet) > 0 {
		coverage = float64(len(matched)) / float64(len(requiredSet))
	}

	return SkillComparison{
		Matched:       matched,
		Missing:       missing,
		Additional:    additional,
		CoverageRatio: coverage,
	}
}

func toSet(skills []string) map[string]struct{} {
	set := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		if s != "" {
			set[s] = struct{}{}
		}
	}
	return set
}

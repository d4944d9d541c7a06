package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"talent-match-platform/models"
)

type fakeDocs struct {
	jobs    map[string]*models.Job
	resumes map[string]*models.Resume
}

func (f *fakeDocs) GetJob(_ context.Context, id string) (*models.Job, error) {
	job, ok := f.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return job, nil
}

func (f *fakeDocs) GetResume(_ context.Context, id string) (*models.Resume, error) {
	resume, ok := f.resumes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return resume, nil
}

func (f *fakeDocs) ListResumeIDs(_ context.Context) ([]string, error) {
	ids := make([]string, 0, len(f.resumes))
	for id := range f.resumes {
		ids = append(ids, id)
	}
	return ids, nil
}

type fakeVectors struct {
	mu      sync.Mutex
	vecs    map[string][]float32
	saveErr error
}

func newFakeVectors() *fakeVectors {
	return &fakeVectors{vecs: make(map[string][]float32)}
}

func (f *fakeVectors) Load(_ context.Context, entityID string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.vecs[entityID], nil
}

func (f *fakeVectors) Save(_ context.Context, entityID string, vec []float32) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vecs[entityID] = vec
	return nil
}

// fakeMatches mirrors the store's upsert contract: one row per pair,
// computed fields replaced, status and created_at preserved.
type fakeMatches struct {
	mu   sync.Mutex
	rows map[string]*models.MatchResult
	seq  int
}

func newFakeMatches() *fakeMatches {
	return &fakeMatches{rows: make(map[string]*models.MatchResult)}
}

func (f *fakeMatches) Upsert(_ context.Context, result *models.MatchResult) (*models.MatchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := result.JobID + "|" + result.ResumeID
	now := time.Now().UTC()
	row, ok := f.rows[key]
	if !ok {
		f.seq++
		row = &models.MatchResult{
			ID:        fmt.Sprintf("match-%d", f.seq),
			JobID:     result.JobID,
			ResumeID:  result.ResumeID,
			Status:    models.StatusPending,
			CreatedAt: now,
		}
		f.rows[key] = row
	}
	row.SimilarityScore = result.SimilarityScore
	row.SkillCoverage = result.SkillCoverage
	row.OverallScore = result.OverallScore
	row.MatchedSkills = result.MatchedSkills
	row.MissingSkills = result.MissingSkills
	row.AdditionalSkills = result.AdditionalSkills
	row.Explanation = result.Explanation
	row.LowConfidence = result.LowConfidence
	row.UpdatedAt = now

	copied := *row
	return &copied, nil
}

type fakeEmbedder struct {
	vecs map[string][]float32
	dim  int
}

func (f *fakeEmbedder) Embedding(_ context.Context, text string) []float32 {
	if vec, ok := f.vecs[text]; ok {
		return vec
	}
	return make([]float32, f.dim)
}

type failingEnhancer struct{}

func (failingEnhancer) Enhance(context.Context, string, string, string) (string, error) {
	return "", errors.New("model unavailable")
}

// similarity075 returns vector pairs whose cosine similarity is 0.75.
func similarity075() ([]float32, []float32) {
	return []float32{1, 0}, []float32{0.75, 0.66143783}
}

func newTestEngine(docs *fakeDocs, jobVecs, resumeVecs *fakeVectors, matches *fakeMatches, opts EngineOptions) *MatchingEngine {
	return NewMatchingEngine(
		docs, jobVecs, resumeVecs, matches,
		&fakeEmbedder{dim: 2},
		NewSkillExtractor(),
		DefaultScorePolicy(),
		opts,
	)
}

func TestMatchPairScenario(t *testing.T) {
	jobVec, resumeVec := similarity075()
	docs := &fakeDocs{
		jobs: map[string]*models.Job{
			"job1": {ID: "job1", Title: "Backend Engineer", IsActive: true, SkillsRequired: []string{"Python", "SQL"}},
		},
		resumes: map[string]*models.Resume{
			"res1": {ID: "res1", CandidateName: "Alex Chen", Content: "Built services in python with docker deployments"},
		},
	}
	jobVecs := newFakeVectors()
	jobVecs.vecs["job1"] = jobVec
	resumeVecs := newFakeVectors()
	resumeVecs.vecs["res1"] = resumeVec
	matches := newFakeMatches()

	engine := newTestEngine(docs, jobVecs, resumeVecs, matches, EngineOptions{})

	got, err := engine.MatchPair(context.Background(), "job1", "res1")
	if err != nil {
		t.Fatalf("MatchPair: %v", err)
	}

	if got.OverallScore != 65 {
		t.Errorf("overall = %d, want 65", got.OverallScore)
	}
	if math.Abs(got.SimilarityScore-0.75) > 1e-6 {
		t.Errorf("similarity = %v, want 0.75", got.SimilarityScore)
	}
	if math.Abs(got.SkillCoverage-0.5) > 1e-9 {
		t.Errorf("coverage = %v, want 0.5", got.SkillCoverage)
	}
	if !reflect.DeepEqual(got.MatchedSkills, []string{"python"}) {
		t.Errorf("matched = %v", got.MatchedSkills)
	}
	if !reflect.DeepEqual(got.MissingSkills, []string{"sql"}) {
		t.Errorf("missing = %v", got.MissingSkills)
	}
	if !reflect.DeepEqual(got.AdditionalSkills, []string{"docker"}) {
		t.Errorf("additional = %v", got.AdditionalSkills)
	}
	if got.Status != models.StatusPending {
		t.Errorf("status = %q, want pending", got.Status)
	}
	if got.LowConfidence {
		t.Error("unexpected low-confidence flag with real vectors")
	}
	if !strings.Contains(got.Explanation, "Alex Chen") {
		t.Errorf("explanation missing candidate name: %q", got.Explanation)
	}
}

func TestMatchPairIdempotent(t *testing.T) {
	jobVec, resumeVec := similarity075()
	docs := &fakeDocs{
		jobs:    map[string]*models.Job{"job1": {ID: "job1", IsActive: true, SkillsRequired: []string{"python"}}},
		resumes: map[string]*models.Resume{"res1": {ID: "res1", Content: "python"}},
	}
	jobVecs := newFakeVectors()
	jobVecs.vecs["job1"] = jobVec
	resumeVecs := newFakeVectors()
	resumeVecs.vecs["res1"] = resumeVec
	matches := newFakeMatches()

	engine := newTestEngine(docs, jobVecs, resumeVecs, matches, EngineOptions{})

	first, err := engine.MatchPair(context.Background(), "job1", "res1")
	if err != nil {
		t.Fatalf("first MatchPair: %v", err)
	}
	second, err := engine.MatchPair(context.Background(), "job1", "res1")
	if err != nil {
		t.Fatalf("second MatchPair: %v", err)
	}

	if len(matches.rows) != 1 {
		t.Errorf("expected one row per pair, got %d", len(matches.rows))
	}
	if first.ID != second.ID {
		t.Errorf("re-match created a new row: %s vs %s", first.ID, second.ID)
	}
	if first.OverallScore != second.OverallScore {
		t.Errorf("score unstable across identical runs: %d vs %d", first.OverallScore, second.OverallScore)
	}
	if !first.CreatedAt.Equal(second.CreatedAt) {
		t.Error("created_at must survive re-matching")
	}
}

func TestMatchPairPreservesReviewStatus(t *testing.T) {
	jobVec, resumeVec := similarity075()
	docs := &fakeDocs{
		jobs:    map[string]*models.Job{"job1": {ID: "job1", IsActive: true, SkillsRequired: []string{"python"}}},
		resumes: map[string]*models.Resume{"res1": {ID: "res1", Content: "python"}},
	}
	jobVecs := newFakeVectors()
	jobVecs.vecs["job1"] = jobVec
	resumeVecs := newFakeVectors()
	resumeVecs.vecs["res1"] = resumeVec
	matches := newFakeMatches()

	engine := newTestEngine(docs, jobVecs, resumeVecs, matches, EngineOptions{})

	if _, err := engine.MatchPair(context.Background(), "job1", "res1"); err != nil {
		t.Fatalf("MatchPair: %v", err)
	}

	// A reviewer shortlists the candidate between runs.
	matches.rows["job1|res1"].Status = models.StatusShortlisted

	got, err := engine.MatchPair(context.Background(), "job1", "res1")
	if err != nil {
		t.Fatalf("re-match: %v", err)
	}
	if got.Status != models.StatusShortlisted {
		t.Errorf("status = %q, re-matching must not reset reviewer decisions", got.Status)
	}
}

func TestMatchPairEmptyResume(t *testing.T) {
	docs := &fakeDocs{
		jobs:    map[string]*models.Job{"job1": {ID: "job1", IsActive: true, SkillsRequired: []string{"python"}}},
		resumes: map[string]*models.Resume{"res1": {ID: "res1", Content: ""}},
	}
	matches := newFakeMatches()

	// No stored vectors and the embedder knows no text, so both sides
	// degrade to the zero vector.
	engine := newTestEngine(docs, newFakeVectors(), newFakeVectors(), matches, EngineOptions{})

	got, err := engine.MatchPair(context.Background(), "job1", "res1")
	if err != nil {
		t.Fatalf("empty resume must not error: %v", err)
	}
	if got.OverallScore != 0 {
		t.Errorf("overall = %d, want 0", got.OverallScore)
	}
	if got.SimilarityScore != 0 {
		t.Errorf("similarity = %v, want 0", got.SimilarityScore)
	}
	if !got.LowConfidence {
		t.Error("zero vectors must flag low confidence")
	}
}

func TestMatchPairInactiveJob(t *testing.T) {
	docs := &fakeDocs{
		jobs:    map[string]*models.Job{"job1": {ID: "job1", IsActive: false}},
		resumes: map[string]*models.Resume{"res1": {ID: "res1", Content: "python"}},
	}
	engine := newTestEngine(docs, newFakeVectors(), newFakeVectors(), newFakeMatches(), EngineOptions{})

	if _, err := engine.MatchPair(context.Background(), "job1", "res1"); err == nil {
		t.Error("expected error matching against an inactive job")
	}
}

func TestMatchPairEnhancerFailureKeepsTemplate(t *testing.T) {
	jobVec, resumeVec := similarity075()
	docs := &fakeDocs{
		jobs:    map[string]*models.Job{"job1": {ID: "job1", Title: "SRE", IsActive: true, SkillsRequired: []string{"linux"}}},
		resumes: map[string]*models.Resume{"res1": {ID: "res1", CandidateName: "Kim", Content: "linux"}},
	}
	jobVecs := newFakeVectors()
	jobVecs.vecs["job1"] = jobVec
	resumeVecs := newFakeVectors()
	resumeVecs.vecs["res1"] = resumeVec

	engine := newTestEngine(docs, jobVecs, resumeVecs, newFakeMatches(), EngineOptions{Enhancer: failingEnhancer{}})

	got, err := engine.MatchPair(context.Background(), "job1", "res1")
	if err != nil {
		t.Fatalf("enhancer failure must not fail the match: %v", err)
	}
	if !strings.Contains(got.Explanation, "Kim scores") {
		t.Errorf("expected template explanation, got %q", got.Explanation)
	}
}

func TestMatchPairPersistsComputedEmbedding(t *testing.T) {
	docs := &fakeDocs{
		jobs:    map[string]*models.Job{"job1": {ID: "job1", Title: "Dev", IsActive: true, SkillsRequired: []string{"go"}}},
		resumes: map[string]*models.Resume{"res1": {ID: "res1", Content: "go developer"}},
	}
	jobVecs := newFakeVectors()
	resumeVecs := newFakeVectors()

	embedder := &fakeEmbedder{dim: 2, vecs: map[string][]float32{
		docs.jobs["job1"].EmbeddableText():    {1, 0},
		docs.resumes["res1"].EmbeddableText(): {0, 1},
	}}
	engine := NewMatchingEngine(docs, jobVecs, resumeVecs, newFakeMatches(), embedder, NewSkillExtractor(), DefaultScorePolicy(), EngineOptions{})

	if _, err := engine.MatchPair(context.Background(), "job1", "res1"); err != nil {
		t.Fatalf("MatchPair: %v", err)
	}

	if len(jobVecs.vecs["job1"]) == 0 {
		t.Error("computed job embedding was not persisted")
	}
	if len(resumeVecs.vecs["res1"]) == 0 {
		t.Error("computed resume embedding was not persisted")
	}
}

func TestMatchJobRun(t *testing.T) {
	jobVec, resumeVec := similarity075()
	docs := &fakeDocs{
		jobs: map[string]*models.Job{"job1": {ID: "job1", IsActive: true, SkillsRequired: []string{"python"}}},
		resumes: map[string]*models.Resume{
			"res1": {ID: "res1", Content: "python"},
			"res2": {ID: "res2", Content: "java"},
			"res3": {ID: "res3", Content: ""},
		},
	}
	jobVecs := newFakeVectors()
	jobVecs.vecs["job1"] = jobVec
	resumeVecs := newFakeVectors()
	resumeVecs.vecs["res1"] = resumeVec
	resumeVecs.vecs["res2"] = resumeVec
	matches := newFakeMatches()

	engine := newTestEngine(docs, jobVecs, resumeVecs, matches, EngineOptions{Concurrency: 2})

	summary, err := engine.MatchJob(context.Background(), "job1")
	if err != nil {
		t.Fatalf("MatchJob: %v", err)
	}
	if summary.Attempted != 3 || summary.Succeeded != 3 || summary.Failed != 0 {
		t.Errorf("summary = %+v", summary)
	}
	if len(matches.rows) != 3 {
		t.Errorf("expected 3 persisted results, got %d", len(matches.rows))
	}
}

func TestMatchJobCountsFailures(t *testing.T) {
	docs := &fakeDocs{
		jobs:    map[string]*models.Job{},
		resumes: map[string]*models.Resume{"res1": {ID: "res1", Content: "python"}},
	}
	engine := newTestEngine(docs, newFakeVectors(), newFakeVectors(), newFakeMatches(), EngineOptions{})

	summary, err := engine.MatchJob(context.Background(), "missing-job")
	if err != nil {
		t.Fatalf("MatchJob: %v", err)
	}
	if summary.Failed != 1 || summary.Succeeded != 0 {
		t.Errorf("summary = %+v", summary)
	}
}

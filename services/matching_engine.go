package services

import (
	"context"
	"fmt"
	"time"

	"talent-match-platform/internal/logger"
	"talent-match-platform/internal/telemetry"
	"talent-match-platform/models"
)

// DocumentReader is the engine's view of stored jobs and resumes.
type DocumentReader interface {
	GetJob(ctx context.Context, id string) (*models.Job, error)
	GetResume(ctx context.Context, id string) (*models.Resume, error)
	ListResumeIDs(ctx context.Context) ([]string, error)
}

// VectorAccessor loads and persists one collection's embeddings.
type VectorAccessor interface {
	Load(ctx context.Context, entityID string) ([]float32, error)
	Save(ctx context.Context, entityID string, vec []float32) error
}

// MatchPersister writes computed results; satisfied by MatchStore.
type MatchPersister interface {
	Upsert(ctx context.Context, result *models.MatchResult) (*models.MatchResult, error)
}

// TextEmbedder turns text into a vector; satisfied by EmbeddingPipeline.
type TextEmbedder interface {
	Embedding(ctx context.Context, text string) []float32
}

// ExplanationEnhancer optionally rewrites the template explanation.
// Failures fall back to the template.
type ExplanationEnhancer interface {
	Enhance(ctx context.Context, jobTitle, candidateName, template string) (string, error)
}

// MatchingEngine computes and persists job/resume match results. All
// scoring inputs degrade to well-defined defaults, so the only errors a
// caller sees are document lookup and persistence failures.
type MatchingEngine struct {
	docs          DocumentReader
	jobVectors    VectorAccessor
	resumeVectors VectorAccessor
	matches       MatchPersister
	embedder      TextEmbedder
	extractor     *SkillExtractor
	policy        *ScorePolicy
	enhancer      ExplanationEnhancer
	concurrency   int
	metrics       *telemetry.Metrics
}

type EngineOptions struct {
	Enhancer    ExplanationEnhancer
	Concurrency int
	Metrics     *telemetry.Metrics
}

func NewMatchingEngine(
	docs DocumentReader,
	jobVectors, resumeVectors VectorAccessor,
	matches MatchPersister,
	embedder TextEmbedder,
	extractor *SkillExtractor,
	policy *ScorePolicy,
	opts EngineOptions,
) *MatchingEngine {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 10
	}
	return &MatchingEngine{
		docs:          docs,
		jobVectors:    jobVectors,
		resumeVectors: resumeVectors,
		matches:       matches,
		embedder:      embedder,
		extractor:     extractor,
		policy:        policy,
		enhancer:      opts.Enhancer,
		concurrency:   concurrency,
		metrics:       opts.Metrics,
	}
}

// MatchPair scores one job against one resume and upserts the result.
// The persisted row is returned so callers see reviewer state the upsert
// preserved.
func (e *MatchingEngine) MatchPair(ctx context.Context, jobID, resumeID string) (*models.MatchResult, error) {
	start := time.Now()

	job, err := e.docs.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !job.IsActive {
		return nil, fmt.Errorf("job %s is not active", jobID)
	}

	resume, err := e.docs.GetResume(ctx, resumeID)
	if err != nil {
		return nil, err
	}

	jobVec := e.vectorFor(ctx, e.jobVectors, job.ID, job.EmbeddableText())
	resumeVec := e.vectorFor(ctx, e.resumeVectors, resume.ID, resume.EmbeddableText())

	similarity := CosineSimilarity(jobVec, resumeVec)
	lowConfidence := IsZeroVector(jobVec) || IsZeroVector(resumeVec)

	required := e.extractor.Normalize(job.SkillsRequired)
	if len(required) == 0 {
		required = e.extractor.Extract(job.EmbeddableText())
	}
	candidate := e.extractor.Extract(resume.Content)
	cmp := CompareSkills(required, candidate)

	overall := e.policy.Combine(similarity, cmp.CoverageRatio)

	explanation := Explain(ExplanationInput{
		JobTitle:      job.Title,
		CandidateName: resume.CandidateName,
		OverallScore:  overall,
		Matched:       cmp.Matched,
		Missing:       cmp.Missing,
		CoverageRatio: cmp.CoverageRatio,
		LowConfidence: lowConfidence,
	})
	if e.enhancer != nil {
		enhanced, err := e.enhancer.Enhance(ctx, job.Title, resume.CandidateName, explanation)
		if err != nil {
			logger.Warn("Explanation enhancement failed, keeping template", "job_id", jobID, "resume_id", resumeID, "error", err)
		} else if enhanced != "" {
			explanation = enhanced
		}
	}

	stored, err := e.matches.Upsert(ctx, &models.MatchResult{
		JobID:            job.ID,
		ResumeID:         resume.ID,
		SimilarityScore:  similarity,
		SkillCoverage:    cmp.CoverageRatio,
		OverallScore:     overall,
		MatchedSkills:    cmp.Matched,
		MissingSkills:    cmp.Missing,
		AdditionalSkills: cmp.Additional,
		Explanation:      explanation,
		LowConfidence:    lowConfidence,
	})
	if err != nil {
		return nil, err
	}

	if e.metrics != nil {
		e.metrics.RecordMatch(time.Since(start).Seconds(), lowConfidence)
	}
	return stored, nil
}

// vectorFor prefers the stored embedding and falls back to computing one,
// persisting it for the next run. A failed save costs a recompute later,
// nothing more.
func (e *MatchingEngine) vectorFor(ctx context.Context, store VectorAccessor, entityID, text string) []float32 {
	vec, err := store.Load(ctx, entityID)
	if err != nil {
		logger.Warn("Stored embedding unavailable, recomputing", "entity_id", entityID, "error", err)
	}
	if len(vec) > 0 && !IsZeroVector(vec) {
		return vec
	}

	vec = e.embedder.Embedding(ctx, text)
	if !IsZeroVector(vec) {
		if err := store.Save(ctx, entityID, vec); err != nil {
			logger.Warn("Failed to persist embedding", "entity_id", entityID, "error", err)
		}
	}
	return vec
}

// MatchRunSummary reports the outcome of a whole-job matching run.
type MatchRunSummary struct {
	JobID     string `json:"job_id"`
	Attempted int    `json:"attempted"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
}

// MatchJob scores every stored resume against the job with bounded
// concurrency. Per-pair failures are logged and counted, never fatal to
// the run; rankings are read back from the store afterwards.
func (e *MatchingEngine) MatchJob(ctx context.Context, jobID string) (*MatchRunSummary, error) {
	resumeIDs, err := e.docs.ListResumeIDs(ctx)
	if err != nil {
		return nil, err
	}

	summary := &MatchRunSummary{JobID: jobID, Attempted: len(resumeIDs)}
	if len(resumeIDs) == 0 {
		return summary, nil
	}

	sem := make(chan struct{}, e.concurrency)
	outcomes := make(chan error, len(resumeIDs))
	for _, resumeID := range resumeIDs {
		sem <- struct{}{}
		go func(id string) {
			defer func() { <-sem }()
			_, err := e.MatchPair(ctx, jobID, id)
			if err != nil {
				logger.Error("Match failed", "job_id", jobID, "resume_id", id, "error", err)
			}
			outcomes <- err
		}(resumeID)
	}

	for range resumeIDs {
		if err := <-outcomes; err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	return summary, nil
}

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"talent-match-platform/internal/logger"
	"talent-match-platform/services"
)

const (
	TaskEmbedJob    = "job:embed"
	TaskEmbedResume = "resume:embed"
	TaskMatchJob    = "job:match"
)

type EmbedJobPayload struct {
	JobID string `json:"job_id"`
}

type EmbedResumePayload struct {
	ResumeID string `json:"resume_id"`
	// MatchActiveJobs triggers matching against every active job once the
	// embedding is in place, so freshly ingested resumes rank immediately.
	MatchActiveJobs bool `json:"match_active_jobs"`
}

type MatchJobPayload struct {
	JobID string `json:"job_id"`
}

// Task creators
func NewEmbedJobTask(jobID string) (*asynq.Task, error) {
	payload, err := json.Marshal(EmbedJobPayload{JobID: jobID})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskEmbedJob,
		payload,
		asynq.MaxRetry(5),
		asynq.Timeout(2*time.Minute),
		asynq.Queue("default"),
	), nil
}

func NewEmbedResumeTask(resumeID string, matchActiveJobs bool) (*asynq.Task, error) {
	payload, err := json.Marshal(EmbedResumePayload{ResumeID: resumeID, MatchActiveJobs: matchActiveJobs})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskEmbedResume,
		payload,
		asynq.MaxRetry(5),
		asynq.Timeout(2*time.Minute),
		asynq.Queue("default"),
	), nil
}

func NewMatchJobTask(jobID string) (*asynq.Task, error) {
	payload, err := json.Marshal(MatchJobPayload{JobID: jobID})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskMatchJob,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("critical"),
	), nil
}

// Task handlers
type TaskProcessor struct {
	docs          *services.DocumentStore
	jobVectors    *services.VectorStore
	resumeVectors *services.VectorStore
	pipeline      *services.EmbeddingPipeline
	engine        *services.MatchingEngine
	client        *asynq.Client
}

func NewTaskProcessor(
	docs *services.DocumentStore,
	jobVectors, resumeVectors *services.VectorStore,
	pipeline *services.EmbeddingPipeline,
	engine *services.MatchingEngine,
	client *asynq.Client,
) *TaskProcessor {
	return &TaskProcessor{
		docs:          docs,
		jobVectors:    jobVectors,
		resumeVectors: resumeVectors,
		pipeline:      pipeline,
		engine:        engine,
		client:        client,
	}
}

func (p *TaskProcessor) EmbedJob(ctx context.Context, t *asynq.Task) error {
	var payload EmbedJobPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	job, err := p.docs.GetJob(ctx, payload.JobID)
	if err == services.ErrNotFound {
		logger.Warn("Embed task for deleted job", "job_id", payload.JobID)
		return asynq.SkipRetry
	}
	if err != nil {
		return err
	}

	return p.embed(ctx, p.jobVectors, job.ID, job.EmbeddableText())
}

func (p *TaskProcessor) EmbedResume(ctx context.Context, t *asynq.Task) error {
	var payload EmbedResumePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	resume, err := p.docs.GetResume(ctx, payload.ResumeID)
	if err == services.ErrNotFound {
		logger.Warn("Embed task for deleted resume", "resume_id", payload.ResumeID)
		return asynq.SkipRetry
	}
	if err != nil {
		return err
	}

	if err := p.embed(ctx, p.resumeVectors, resume.ID, resume.EmbeddableText()); err != nil {
		return err
	}

	if payload.MatchActiveJobs {
		p.enqueueMatchesForActiveJobs(ctx)
	}
	return nil
}

func (p *TaskProcessor) MatchJob(ctx context.Context, t *asynq.Task) error {
	var payload MatchJobPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	summary, err := p.engine.MatchJob(ctx, payload.JobID)
	if err != nil {
		return err
	}

	logger.Info("Match run completed",
		"job_id", summary.JobID,
		"attempted", summary.Attempted,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed)

	// A run where every pair failed usually means the job itself is gone
	// or inactive; retrying repeats the same outcome.
	if summary.Attempted > 0 && summary.Succeeded == 0 {
		return fmt.Errorf("no pair succeeded for job %s: %w", payload.JobID, asynq.SkipRetry)
	}
	return nil
}

// embed computes and persists one entity's vector. A zero vector for
// non-empty text means the provider is degraded; returning an error lets
// asynq retry after the circuit recovers.
func (p *TaskProcessor) embed(ctx context.Context, store *services.VectorStore, entityID, text string) error {
	vec := p.pipeline.Embedding(ctx, text)
	if services.IsZeroVector(vec) {
		if services.NormalizeText(text, 0) == "" {
			logger.Warn("Skipping embedding for empty content", "entity_id", entityID)
			return nil
		}
		return fmt.Errorf("embedding unavailable for %s", entityID)
	}

	if err := store.Save(ctx, entityID, vec); err != nil {
		return err
	}

	logger.Info("Embedding stored", "entity_id", entityID, "dimensions", len(vec))
	return nil
}

func (p *TaskProcessor) enqueueMatchesForActiveJobs(ctx context.Context) {
	jobIDs, err := p.docs.ListActiveJobIDs(ctx)
	if err != nil {
		logger.Error("Failed to list active jobs for matching", "error", err)
		return
	}

	for _, jobID := range jobIDs {
		task, err := NewMatchJobTask(jobID)
		if err != nil {
			logger.Error("Failed to build match task", "job_id", jobID, "error", err)
			continue
		}
		if _, err := p.client.EnqueueContext(ctx, task); err != nil {
			logger.Error("Failed to enqueue match task", "job_id", jobID, "error", err)
		}
	}
}

package services

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/hibiken/asynq"

	"talent-match-platform/internal/logger"
)

// EmbedTaskFactory builds the queue tasks the sweep enqueues. Injected so
// this package does not import the queue package it feeds.
type EmbedTaskFactory struct {
	NewJobTask    func(jobID string) (*asynq.Task, error)
	NewResumeTask func(resumeID string, matchActiveJobs bool) (*asynq.Task, error)
}

// BackfillScheduler periodically sweeps for documents whose embeddings
// are missing and enqueues regeneration. Covers entities ingested while
// the embedding provider was down or the worker was offline.
type BackfillScheduler struct {
	scheduler *gocron.Scheduler
	docs      *DocumentStore
	client    *asynq.Client
	tasks     EmbedTaskFactory
	interval  time.Duration
}

func NewBackfillScheduler(docs *DocumentStore, client *asynq.Client, tasks EmbedTaskFactory, interval time.Duration) *BackfillScheduler {
	s := gocron.NewScheduler(time.UTC)
	s.TagsUnique()

	return &BackfillScheduler{
		scheduler: s,
		docs:      docs,
		client:    client,
		tasks:     tasks,
		interval:  interval,
	}
}

// Start registers the sweep and runs the scheduler in the background.
func (b *BackfillScheduler) Start() error {
	_, err := b.scheduler.Every(b.interval).Tag("embedding-backfill").Do(b.sweep)
	if err != nil {
		return err
	}
	b.scheduler.StartAsync()
	logger.Info("Embedding backfill scheduler started", "interval", b.interval.String())
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (b *BackfillScheduler) Stop() {
	b.scheduler.Stop()
}

func (b *BackfillScheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	jobIDs, err := b.docs.ListJobIDsMissingEmbedding(ctx)
	if err != nil {
		logger.Error("Backfill sweep failed to list jobs", "error", err)
	}
	resumeIDs, err := b.docs.ListResumeIDsMissingEmbedding(ctx)
	if err != nil {
		logger.Error("Backfill sweep failed to list resumes", "error", err)
	}

	if len(jobIDs) == 0 && len(resumeIDs) == 0 {
		return
	}
	logger.Info("Backfill sweep found unembedded documents", "jobs", len(jobIDs), "resumes", len(resumeIDs))

	for _, id := range jobIDs {
		task, err := b.tasks.NewJobTask(id)
		if err != nil {
			logger.Error("Failed to build backfill task", "job_id", id, "error", err)
			continue
		}
		if _, err := b.client.EnqueueContext(ctx, task); err != nil {
			logger.Error("Failed to enqueue backfill task", "job_id", id, "error", err)
		}
	}
	for _, id := range resumeIDs {
		task, err := b.tasks.NewResumeTask(id, false)
		if err != nil {
			logger.Error("Failed to build backfill task", "resume_id", id, "error", err)
			continue
		}
		if _, err := b.client.EnqueueContext(ctx, task); err != nil {
			logger.Error("Failed to enqueue backfill task", "resume_id", id, "error", err)
		}
	}
}

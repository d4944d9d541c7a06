package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"talent-match-platform/internal/logger"
	"talent-match-platform/models"
	"talent-match-platform/utils"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = fmt.Errorf("document not found")

// DocumentStore owns the job and resume collections. Resume content above
// the compression threshold is gzipped at rest and transparently restored
// on read.
type DocumentStore struct {
	jobs                 *mongo.Collection
	resumes              *mongo.Collection
	compressionThreshold int
}

func NewDocumentStore(db *mongo.Database, compressionThreshold int) *DocumentStore {
	return &DocumentStore{
		jobs:                 db.Collection("jobs"),
		resumes:              db.Collection("resumes"),
		compressionThreshold: compressionThreshold,
	}
}

// JobCollection exposes the jobs collection for the vector store.
func (s *DocumentStore) JobCollection() *mongo.Collection { return s.jobs }

// ResumeCollection exposes the resumes collection for the vector store.
func (s *DocumentStore) ResumeCollection() *mongo.Collection { return s.resumes }

// SaveJob inserts or fully replaces a job posting. A missing ID is
// assigned; created_at survives replacement.
func (s *DocumentStore) SaveJob(ctx context.Context, job *models.Job) error {
	now := time.Now().UTC()
	if job.ID == "" {
		job.ID = uuid.NewString()
		job.CreatedAt = now
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now

	opts := options.Replace().SetUpsert(true)
	if _, err := s.jobs.ReplaceOne(ctx, bson.M{"_id": job.ID}, job, opts); err != nil {
		return fmt.Errorf("failed to save job %s: %w", job.ID, err)
	}
	return nil
}

// GetJob fetches a job by ID.
func (s *DocumentStore) GetJob(ctx context.Context, id string) (*models.Job, error) {
	var job models.Job
	err := s.jobs.FindOne(ctx, bson.M{"_id": id}).Decode(&job)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job %s: %w", id, err)
	}
	return &job, nil
}

// SetJobActive toggles whether a job participates in matching.
func (s *DocumentStore) SetJobActive(ctx context.Context, id string, active bool) error {
	res, err := s.jobs.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"is_active": active, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("failed to update job %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListJobs returns jobs newest first, optionally only active ones.
func (s *DocumentStore) ListJobs(ctx context.Context, activeOnly bool, limit int64) ([]models.Job, error) {
	filter := bson.M{}
	if activeOnly {
		filter["is_active"] = true
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := s.jobs.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer cursor.Close(ctx)

	var jobs []models.Job
	if err := cursor.All(ctx, &jobs); err != nil {
		return nil, fmt.Errorf("failed to decode jobs: %w", err)
	}
	return jobs, nil
}

// SaveResume inserts or fully replaces a resume. Content above the
// threshold is stored gzipped; the plaintext field is cleared so large
// bodies are not persisted twice.
func (s *DocumentStore) SaveResume(ctx context.Context, resume *models.Resume) error {
	now := time.Now().UTC()
	if resume.ID == "" {
		resume.ID = uuid.NewString()
		resume.CreatedAt = now
	}
	if resume.CreatedAt.IsZero() {
		resume.CreatedAt = now
	}
	resume.UpdatedAt = now

	compressed, algorithm, err := utils.CompressText(resume.Content, s.compressionThreshold)
	if err != nil {
		return fmt.Errorf("failed to compress resume %s: %w", resume.ID, err)
	}
	if algorithm != utils.CompressionNone {
		resume.CompressedContent = compressed
		resume.Compression = algorithm
		resume.Content = ""
	} else {
		resume.CompressedContent = nil
		resume.Compression = utils.CompressionNone
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := s.resumes.ReplaceOne(ctx, bson.M{"_id": resume.ID}, resume, opts); err != nil {
		return fmt.Errorf("failed to save resume %s: %w", resume.ID, err)
	}
	return nil
}

// GetResume fetches a resume by ID with its content restored.
func (s *DocumentStore) GetResume(ctx context.Context, id string) (*models.Resume, error) {
	var resume models.Resume
	err := s.resumes.FindOne(ctx, bson.M{"_id": id}).Decode(&resume)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get resume %s: %w", id, err)
	}

	if resume.Compression == utils.CompressionGzip && len(resume.CompressedContent) > 0 {
		content, err := utils.DecompressText(resume.CompressedContent, resume.Compression)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress resume %s: %w", id, err)
		}
		resume.Content = content
		resume.CompressedContent = nil
	}
	return &resume, nil
}

// ListResumeIDs returns every resume ID, used to fan out a whole-job
// matching run.
func (s *DocumentStore) ListResumeIDs(ctx context.Context) ([]string, error) {
	return s.listIDs(ctx, s.resumes, bson.M{})
}

// ListActiveJobIDs returns the IDs of jobs eligible for matching.
func (s *DocumentStore) ListActiveJobIDs(ctx context.Context) ([]string, error) {
	return s.listIDs(ctx, s.jobs, bson.M{"is_active": true})
}

// ListJobIDsMissingEmbedding returns active jobs whose embedding was
// never generated, for the backfill sweep.
func (s *DocumentStore) ListJobIDsMissingEmbedding(ctx context.Context) ([]string, error) {
	return s.listIDs(ctx, s.jobs, bson.M{
		"is_active": true,
		"$or": bson.A{
			bson.M{"embedding": bson.M{"$exists": false}},
			bson.M{"embedding": bson.M{"$size": 0}},
			bson.M{"embedding": nil},
		},
	})
}

// ListResumeIDsMissingEmbedding returns resumes whose embedding was never
// generated.
func (s *DocumentStore) ListResumeIDsMissingEmbedding(ctx context.Context) ([]string, error) {
	return s.listIDs(ctx, s.resumes, bson.M{
		"$or": bson.A{
			bson.M{"embedding": bson.M{"$exists": false}},
			bson.M{"embedding": bson.M{"$size": 0}},
			bson.M{"embedding": nil},
		},
	})
}

func (s *DocumentStore) listIDs(ctx context.Context, col *mongo.Collection, filter bson.M) ([]string, error) {
	cursor, err := col.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s ids: %w", col.Name(), err)
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			logger.Warn("Skipping undecodable document", "collection", col.Name(), "error", err)
			continue
		}
		ids = append(ids, doc.ID)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s ids: %w", col.Name(), err)
	}
	return ids, nil
}

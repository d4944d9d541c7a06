package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"talent-match-platform/internal/telemetry"
	"talent-match-platform/models"
)

// MatchStore persists match results keyed by (job_id, resume_id). The
// unique compound index makes re-matching an update, never a duplicate
// row, and reviewer state set between runs is preserved.
type MatchStore struct {
	col     *mongo.Collection
	metrics *telemetry.Metrics
}

func NewMatchStore(db *mongo.Database, metrics *telemetry.Metrics) *MatchStore {
	return &MatchStore{col: db.Collection("match_results"), metrics: metrics}
}

// Upsert writes the computed fields for a pair. On first write the row is
// created with status pending; on re-match only scores, skills, and the
// explanation change. Status, reviewer attribution, and created_at are
// never touched here.
func (s *MatchStore) Upsert(ctx context.Context, result *models.MatchResult) (*models.MatchResult, error) {
	now := time.Now().UTC()

	filter := bson.M{"job_id": result.JobID, "resume_id": result.ResumeID}
	update := bson.M{
		"$set": bson.M{
			"similarity_score":  result.SimilarityScore,
			"skill_coverage":    result.SkillCoverage,
			"overall_score":     result.OverallScore,
			"matched_skills":    result.MatchedSkills,
			"missing_skills":    result.MissingSkills,
			"additional_skills": result.AdditionalSkills,
			"explanation":       result.Explanation,
			"low_confidence":    result.LowConfidence,
			"updated_at":        now,
		},
		"$setOnInsert": bson.M{
			"_id":        uuid.NewString(),
			"job_id":     result.JobID,
			"resume_id":  result.ResumeID,
			"status":     models.StatusPending,
			"created_at": now,
		},
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored models.MatchResult
	err := s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored)
	if s.metrics != nil {
		s.metrics.RecordStoreOperation("upsert", "match_results", err == nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to upsert match %s/%s: %w", result.JobID, result.ResumeID, err)
	}
	return &stored, nil
}

// UpdateStatus moves a result through the review lifecycle. Invalid
// statuses are rejected before any write.
func (s *MatchStore) UpdateStatus(ctx context.Context, id, status, updatedBy string) (*models.MatchResult, error) {
	if !models.ValidStatus(status) {
		return nil, fmt.Errorf("invalid status %q", status)
	}

	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"status":            status,
		"status_updated_at": now,
		"status_updated_by": updatedBy,
		"updated_at":        now,
	}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var stored models.MatchResult
	err := s.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&stored)
	if s.metrics != nil {
		s.metrics.RecordStoreOperation("update_status", "match_results", err == nil || err == mongo.ErrNoDocuments)
	}
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update status for match %s: %w", id, err)
	}
	return &stored, nil
}

// GetByID fetches a single match result.
func (s *MatchStore) GetByID(ctx context.Context, id string) (*models.MatchResult, error) {
	var stored models.MatchResult
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&stored)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match %s: %w", id, err)
	}
	return &stored, nil
}

// ListOptions filter and trim a job's ranked result list.
type ListOptions struct {
	MinScore   int
	MaxResults int64
	Status     string
}

// ListByJob returns a job's results ranked best first, ties broken by
// oldest created_at so ordering is stable across requests.
func (s *MatchStore) ListByJob(ctx context.Context, jobID string, opt ListOptions) ([]models.MatchResult, error) {
	filter := bson.M{"job_id": jobID}
	if opt.MinScore > 0 {
		filter["overall_score"] = bson.M{"$gte": opt.MinScore}
	}
	if opt.Status != "" {
		filter["status"] = opt.Status
	}

	findOpts := options.Find().SetSort(bson.D{
		{Key: "overall_score", Value: -1},
		{Key: "created_at", Value: 1},
	})
	if opt.MaxResults > 0 {
		findOpts.SetLimit(opt.MaxResults)
	}

	cursor, err := s.col.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for job %s: %w", jobID, err)
	}
	defer cursor.Close(ctx)

	var results []models.MatchResult
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode matches for job %s: %w", jobID, err)
	}
	return results, nil
}

// JobMatchStats summarizes a job's candidate pool for the stats endpoint.
type JobMatchStats struct {
	JobID            string   `json:"job_id"`
	TotalCandidates  int      `json:"total_candidates"`
	AverageScore     float64  `json:"average_score"`
	TopScore         int      `json:"top_score"`
	StrongMatches    int      `json:"strong_matches"`   // score in the strong band
	ModerateMatches  int      `json:"moderate_matches"` // score in the moderate band
	TopMissingSkills []string `json:"top_missing_skills"`
}

// StatsByJob aggregates the job's results in memory. Pools are bounded by
// resume count, so a pipeline stage is not worth the opacity.
func (s *MatchStore) StatsByJob(ctx context.Context, jobID string) (*JobMatchStats, error) {
	results, err := s.ListByJob(ctx, jobID, ListOptions{})
	if err != nil {
		return nil, err
	}

	stats := &JobMatchStats{JobID: jobID, TotalCandidates: len(results), TopMissingSkills: []string{}}
	if len(results) == 0 {
		return stats, nil
	}

	var sum int
	missingCounts := make(map[string]int)
	for _, r := range results {
		sum += r.OverallScore
		if r.OverallScore > stats.TopScore {
			stats.TopScore = r.OverallScore
		}
		switch matchBand(r.OverallScore) {
		case "strong":
			stats.StrongMatches++
		case "moderate":
			stats.ModerateMatches++
		}
		for _, skill := range r.MissingSkills {
			missingCounts[skill]++
		}
	}
	stats.AverageScore = float64(sum) / float64(len(results))

	type skillCount struct {
		skill string
		count int
	}
	counts := make([]skillCount, 0, len(missingCounts))
	for skill, count := range missingCounts {
		counts = append(counts, skillCount{skill, count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].skill < counts[j].skill
	})
	for i := 0; i < len(counts) && i < 5; i++ {
		stats.TopMissingSkills = append(stats.TopMissingSkills, counts[i].skill)
	}

	return stats, nil
}

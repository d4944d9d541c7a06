package models

import (
	"strings"
	"time"
)

// Job represents a job posting supplied by the document ingestion
// collaborator. The embedding vector is stored on the owning document and
// overwritten whenever it is regenerated.
type Job struct {
	ID             string     `bson:"_id" json:"id"`
	Title          string     `bson:"title" json:"title"`
	Description    string     `bson:"description" json:"description"`
	Requirements   string     `bson:"requirements,omitempty" json:"requirements,omitempty"`
	SkillsRequired []string   `bson:"skills_required,omitempty" json:"skills_required,omitempty"`
	Embedding      []float32  `bson:"embedding,omitempty" json:"-"`
	EmbeddedAt     *time.Time `bson:"embedded_at,omitempty" json:"embedded_at,omitempty"`
	IsActive       bool       `bson:"is_active" json:"is_active"`
	CreatedAt      time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `bson:"updated_at" json:"updated_at"`
}

// EmbeddableText combines the textual fields that feed the embedding
// model for this job.
func (j *Job) EmbeddableText() string {
	parts := []string{j.Title, j.Description, j.Requirements}
	if len(j.SkillsRequired) > 0 {
		parts = append(parts, strings.Join(j.SkillsRequired, " "))
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

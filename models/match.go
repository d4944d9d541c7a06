package models

import "time"

// Candidate status lifecycle for a match result. Status is owned by user
// action; the matching pipeline only ever sets the initial pending state.
const (
	StatusPending     = "pending"
	StatusShortlisted = "shortlisted"
	StatusRejected    = "rejected"
	StatusMaybe       = "maybe"
)

// ValidStatus reports whether s is a recognized candidate status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusShortlisted, StatusRejected, StatusMaybe:
		return true
	}
	return false
}

// MatchResult is the comparison outcome for exactly one (job, resume)
// pair. At most one document exists per pair; the store enforces this
// with a unique compound index and an upsert write path.
type MatchResult struct {
	ID               string     `bson:"_id" json:"id"`
	JobID            string     `bson:"job_id" json:"job_id"`
	ResumeID         string     `bson:"resume_id" json:"resume_id"`
	SimilarityScore  float64    `bson:"similarity_score" json:"similarity_score"`   // [0,1]
	SkillCoverage    float64    `bson:"skill_coverage" json:"skill_coverage"`       // [0,1]
	OverallScore     int        `bson:"overall_score" json:"overall_score"`         // [0,100]
	MatchedSkills    []string   `bson:"matched_skills,omitempty" json:"matched_skills"`
	MissingSkills    []string   `bson:"missing_skills,omitempty" json:"missing_skills"`
	AdditionalSkills []string   `bson:"additional_skills,omitempty" json:"additional_skills"`
	Explanation      string     `bson:"explanation" json:"explanation"`
	LowConfidence    bool       `bson:"low_confidence" json:"low_confidence"`
	Status           string     `bson:"status" json:"status"`
	StatusUpdatedAt  *time.Time `bson:"status_updated_at,omitempty" json:"status_updated_at,omitempty"`
	StatusUpdatedBy  string     `bson:"status_updated_by,omitempty" json:"status_updated_by,omitempty"`
	CreatedAt        time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `bson:"updated_at" json:"updated_at"`
}

// SchedulingAllowed reports whether the interview scheduling collaborator
// may create an interview against this result. A rejected match is
// terminal for scheduling purposes.
func (m *MatchResult) SchedulingAllowed() bool {
	return m.Status != StatusRejected
}

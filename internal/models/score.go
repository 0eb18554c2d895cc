package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is the banding of a composite score.
type Category string

const (
	CategoryTop      Category = "top"
	CategoryModerate Category = "moderate"
	CategoryReject   Category = "reject"
)

// CandidateScore is the scoring stage's output for a (candidate, job) pair.
// At most one exists per pair; re-scoring overwrites it.
type CandidateScore struct {
	CandidateID     uuid.UUID `json:"candidate_id"`
	JobID           uuid.UUID `json:"job_id"`
	SemanticScore   float64   `json:"semantic_score"`
	SkillsScore     float64   `json:"skills_score"`
	ExperienceScore float64   `json:"experience_score"`
	EducationScore  float64   `json:"education_score"`
	CompositeScore  float64   `json:"composite_score"`
	Category        Category  `json:"category"`
	UpdatedAt       time.Time `json:"updated_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Job is a hiring requisition. The pipeline reads it and sets its description
// embedding exactly once; everything else is owned by the API layer.
type Job struct {
	ID                 uuid.UUID `json:"id"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	RequiredSkills     []string  `json:"required_skills"`
	PreferredSkills    []string  `json:"preferred_skills"`
	MinYearsExperience *float64  `json:"min_years_experience,omitempty"`
	PreferredEducation []string  `json:"preferred_education"`
	Embedding          []float32 `json:"-"`
	CreatedAt          time.Time `json:"created_at"`
}

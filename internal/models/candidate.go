package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// WorkExperience is one employment entry on a resume. Start and End are kept
// as the raw strings found in the document; TenureYears is computed from them
// when they parse as dates.
type WorkExperience struct {
	Title       string  `json:"title"`
	Company     string  `json:"company"`
	Start       string  `json:"start"`
	End         string  `json:"end"`
	Description string  `json:"description,omitempty"`
	TenureYears float64 `json:"tenure_years"`
}

type Education struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Year        *int   `json:"year,omitempty"`
	Field       string `json:"field,omitempty"`
}

// Candidate is the parsed output of one upload. Exactly one exists per upload
// once parsing succeeds; it is immutable except for Embedding, which the
// embed stage sets exactly once.
type Candidate struct {
	ID             uuid.UUID        `json:"id"` // same value as the upload id
	JobID          uuid.UUID        `json:"job_id"`
	UploadID       uuid.UUID        `json:"upload_id"`
	RawText        string           `json:"-"`
	Name           string           `json:"name,omitempty"`
	Email          string           `json:"email,omitempty"`
	Phone          string           `json:"phone,omitempty"`
	Skills         []string         `json:"skills"`
	WorkExperience []WorkExperience `json:"work_experience"`
	Education      []Education      `json:"education"`
	TotalYearsExp  float64          `json:"total_years_exp"`
	Embedding      []float32        `json:"-"`
	CreatedAt      time.Time        `json:"created_at"`
}

// EducationText concatenates every education entry into one lowercase-able
// blob for keyword matching.
func (c *Candidate) EducationText() string {
	parts := make([]string, 0, len(c.Education))
	for _, e := range c.Education {
		parts = append(parts, e.Degree, e.Institution, e.Field)
	}
	return strings.Join(parts, " ")
}

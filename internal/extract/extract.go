// Package extract defines the pluggable capabilities the parse and embed
// stages call into, plus the ordered fallback chain that tries a structured
// extractor first and degrades to heuristics.
package extract

import (
	"context"
	"errors"
	"math"

	"resume-triage/internal/models"
)

// Fields is the structured output of a resume field extractor. Everything is
// best-effort; empty fields are acceptable as long as the caller keeps the
// raw text.
type Fields struct {
	Name           string                  `json:"name"`
	Email          string                  `json:"email"`
	Phone          string                  `json:"phone"`
	Skills         []string                `json:"skills"`
	WorkExperience []models.WorkExperience `json:"work_experience"`
	Education      []models.Education      `json:"education"`
	TotalYearsExp  float64                 `json:"total_years_exp"`
}

// Usable reports whether the extraction produced anything beyond an empty
// shell. An unusable result sends the chain to the next extractor.
func (f *Fields) Usable() bool {
	if f == nil {
		return false
	}
	return f.Name != "" || f.Email != "" || len(f.Skills) > 0 ||
		len(f.WorkExperience) > 0 || len(f.Education) > 0
}

// FieldExtractor turns raw resume text into structured fields.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, rawText string) (*Fields, error)
}

// Embedder turns text into a fixed-length vector. Implementations must be
// deterministic for identical input so scoring stays reproducible.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Chain tries each extractor in order and returns the first usable result.
// It fails only when every extractor fails.
type Chain []FieldExtractor

func (c Chain) ExtractFields(ctx context.Context, rawText string) (*Fields, error) {
	var errAll error
	for _, e := range c {
		fields, err := e.ExtractFields(ctx, rawText)
		if err != nil {
			errAll = errors.Join(errAll, err)
			continue
		}
		if fields.Usable() {
			return fields, nil
		}
	}
	if errAll != nil {
		return nil, errAll
	}
	return &Fields{}, nil
}

// Normalize L2-normalizes a vector in place and returns it, so that cosine
// similarity downstream reduces to a dot product. Zero vectors pass through
// unchanged.
func Normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	norm := math.Sqrt(sum)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

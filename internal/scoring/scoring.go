// Package scoring turns a (candidate, job) pair into a CandidateScore. Every
// function here is pure: no store, no queue, no hidden state.
package scoring

import (
	"fmt"
	"strings"
	"time"

	"resume-triage/internal/models"
)

// Composite weights. They sum to 1.0.
const (
	WeightSemantic   = 0.50
	WeightSkills     = 0.30
	WeightExperience = 0.15
	WeightEducation  = 0.05
)

// Thresholds are the category boundaries, evaluated composite >= boundary
// with the highest qualifying band winning.
type Thresholds struct {
	Top      float64
	Moderate float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{Top: 0.75, Moderate: 0.50}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// SemanticScore is the cosine similarity of two L2-normalized vectors, which
// reduces to their dot product, clamped to [0,1].
func SemanticScore(candidate, job []float32) (float64, error) {
	if len(candidate) == 0 || len(job) == 0 {
		return 0, fmt.Errorf("semantic score requires both embeddings")
	}
	if len(candidate) != len(job) {
		return 0, fmt.Errorf("embedding dimension mismatch: %d vs %d", len(candidate), len(job))
	}
	var dot float64
	for i := range candidate {
		dot += float64(candidate[i]) * float64(job[i])
	}
	return clamp01(dot), nil
}

func normalizeSkills(skills []string) map[string]struct{} {
	set := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			set[s] = struct{}{}
		}
	}
	return set
}

// SkillsScore is the Jaccard similarity between the candidate's skills and
// the job's required skills, case-insensitive and trimmed. A job with no
// required skills imposes no constraint and scores 1.0.
func SkillsScore(candidateSkills, requiredSkills []string) float64 {
	required := normalizeSkills(requiredSkills)
	if len(required) == 0 {
		return 1.0
	}
	candidate := normalizeSkills(candidateSkills)
	if len(candidate) == 0 {
		return 0.0
	}

	intersection := 0
	for s := range candidate {
		if _, ok := required[s]; ok {
			intersection++
		}
	}
	union := len(candidate) + len(required) - intersection
	return clamp01(float64(intersection) / float64(union))
}

// ExperienceScore scales the candidate's total years against the job's
// minimum. A job with no minimum (unset or zero) scores 1.0.
func ExperienceScore(totalYears float64, minYears *float64) float64 {
	if minYears == nil || *minYears <= 0 {
		return 1.0
	}
	if totalYears <= 0 {
		return 0.0
	}
	return clamp01(totalYears / *minYears)
}

// EducationScore is the fraction of the job's preferred-education keywords
// found (case-insensitive substring) in the candidate's concatenated
// education text. A job with no preference scores 1.0.
func EducationScore(educationText string, preferredKeywords []string) float64 {
	keywords := make([]string, 0, len(preferredKeywords))
	for _, k := range preferredKeywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			keywords = append(keywords, k)
		}
	}
	if len(keywords) == 0 {
		return 1.0
	}

	text := strings.ToLower(educationText)
	matched := 0
	for _, k := range keywords {
		if strings.Contains(text, k) {
			matched++
		}
	}
	return clamp01(float64(matched) / float64(len(keywords)))
}

// Composite combines the four component scores with the fixed weights.
func Composite(semantic, skills, experience, education float64) float64 {
	return clamp01(WeightSemantic*semantic +
		WeightSkills*skills +
		WeightExperience*experience +
		WeightEducation*education)
}

// Categorize bands a composite score.
func Categorize(composite float64, t Thresholds) models.Category {
	switch {
	case composite >= t.Top:
		return models.CategoryTop
	case composite >= t.Moderate:
		return models.CategoryModerate
	default:
		return models.CategoryReject
	}
}

// Score produces the CandidateScore for a (candidate, job) pair. Both sides
// must already carry their embeddings.
func Score(c *models.Candidate, j *models.Job, t Thresholds) (*models.CandidateScore, error) {
	semantic, err := SemanticScore(c.Embedding, j.Embedding)
	if err != nil {
		return nil, err
	}

	skills := SkillsScore(c.Skills, j.RequiredSkills)
	experience := ExperienceScore(c.TotalYearsExp, j.MinYearsExperience)
	education := EducationScore(c.EducationText(), j.PreferredEducation)
	composite := Composite(semantic, skills, experience, education)

	return &models.CandidateScore{
		CandidateID:     c.ID,
		JobID:           j.ID,
		SemanticScore:   semantic,
		SkillsScore:     skills,
		ExperienceScore: experience,
		EducationScore:  education,
		CompositeScore:  composite,
		Category:        Categorize(composite, t),
		UpdatedAt:       time.Now().UTC(),
	}, nil
}

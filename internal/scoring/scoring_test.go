package scoring

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-triage/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

// Builds a pair of unit vectors whose dot product equals the wanted cosine.
func vectorsWithSimilarity(cos float64) ([]float32, []float32) {
	a := []float32{1, 0}
	b := []float32{float32(cos), float32(math.Sqrt(1 - cos*cos))}
	return a, b
}

func TestSemanticScoreClampsNegative(t *testing.T) {
	a, b := vectorsWithSimilarity(-0.5)
	got, err := SemanticScore(a, b)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestSemanticScoreDimensionMismatch(t *testing.T) {
	_, err := SemanticScore([]float32{1, 0}, []float32{1, 0, 0})
	assert.Error(t, err)
}

func TestSemanticScoreMissingEmbedding(t *testing.T) {
	_, err := SemanticScore(nil, []float32{1})
	assert.Error(t, err)
}

func TestSkillsScore(t *testing.T) {
	tests := []struct {
		name      string
		candidate []string
		required  []string
		want      float64
	}{
		{"identical after normalization", []string{" Python ", "REACT"}, []string{"python", "react"}, 1.0},
		{"disjoint", []string{"go"}, []string{"rust"}, 0.0},
		{"no required skills", []string{"go"}, nil, 1.0},
		{"candidate empty, required set", nil, []string{"go"}, 0.0},
		{"partial overlap", []string{"Python", "React", "SQL"}, []string{"Python", "React"}, 2.0 / 3.0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, SkillsScore(tc.candidate, tc.required), 1e-9)
		})
	}
}

func TestExperienceScore(t *testing.T) {
	assert.Equal(t, 1.0, ExperienceScore(5, floatPtr(3)))
	assert.InDelta(t, 0.5, ExperienceScore(1.5, floatPtr(3)), 1e-9)
	assert.Equal(t, 0.0, ExperienceScore(0, floatPtr(3)))
	assert.Equal(t, 1.0, ExperienceScore(0, nil))
	assert.Equal(t, 1.0, ExperienceScore(0, floatPtr(0)))
}

func TestEducationScore(t *testing.T) {
	assert.Equal(t, 1.0, EducationScore("BSc Computer Science, MIT", []string{"computer science"}))
	assert.Equal(t, 0.0, EducationScore("BA History", []string{"computer science"}))
	assert.Equal(t, 1.0, EducationScore("anything", nil))
	assert.InDelta(t, 0.5, EducationScore("MSc Computer Science", []string{"Computer Science", "Mathematics"}), 1e-9)
}

func TestCategorizeBoundaries(t *testing.T) {
	th := DefaultThresholds()
	assert.Equal(t, models.CategoryTop, Categorize(0.75, th))
	assert.Equal(t, models.CategoryModerate, Categorize(0.50, th))
	assert.Equal(t, models.CategoryModerate, Categorize(0.7499, th))
	assert.Equal(t, models.CategoryReject, Categorize(0.4999, th))
}

func TestCompositeWeightsSumToOne(t *testing.T) {
	assert.InDelta(t, 1.0, WeightSemantic+WeightSkills+WeightExperience+WeightEducation, 1e-12)
	assert.Equal(t, 1.0, Composite(1, 1, 1, 1))
	assert.Equal(t, 0.0, Composite(0, 0, 0, 0))
}

func TestScoreStrongCandidate(t *testing.T) {
	candidateVec, jobVec := vectorsWithSimilarity(0.80)

	candidate := &models.Candidate{
		ID:            uuid.New(),
		Skills:        []string{"Python", "React", "SQL"},
		TotalYearsExp: 5,
		Education:     []models.Education{{Degree: "BSc Computer Science", Institution: "State University"}},
		Embedding:     candidateVec,
	}
	job := &models.Job{
		ID:                 uuid.New(),
		RequiredSkills:     []string{"Python", "React"},
		MinYearsExperience: floatPtr(3),
		PreferredEducation: []string{"Computer Science"},
		Embedding:          jobVec,
	}

	score, err := Score(candidate, job, DefaultThresholds())
	require.NoError(t, err)

	assert.InDelta(t, 0.80, score.SemanticScore, 1e-6)
	assert.InDelta(t, 2.0/3.0, score.SkillsScore, 1e-9)
	assert.Equal(t, 1.0, score.ExperienceScore)
	assert.Equal(t, 1.0, score.EducationScore)
	assert.InDelta(t, 0.80, score.CompositeScore, 1e-6)
	assert.Equal(t, models.CategoryTop, score.Category)
}

func TestScoreWeakCandidate(t *testing.T) {
	candidateVec, jobVec := vectorsWithSimilarity(0.30)

	candidate := &models.Candidate{
		ID:        uuid.New(),
		Embedding: candidateVec,
	}
	job := &models.Job{
		ID:                 uuid.New(),
		RequiredSkills:     []string{"Python", "React"},
		MinYearsExperience: floatPtr(3),
		PreferredEducation: []string{"Computer Science"},
		Embedding:          jobVec,
	}

	score, err := Score(candidate, job, DefaultThresholds())
	require.NoError(t, err)

	assert.Equal(t, 0.0, score.SkillsScore)
	assert.Equal(t, 0.0, score.ExperienceScore)
	assert.Equal(t, 0.0, score.EducationScore)
	assert.InDelta(t, 0.15, score.CompositeScore, 1e-6)
	assert.Equal(t, models.CategoryReject, score.Category)
}

func TestAllComponentScoresStayInRange(t *testing.T) {
	candidateVec, jobVec := vectorsWithSimilarity(-0.9)

	candidate := &models.Candidate{
		ID:            uuid.New(),
		Skills:        []string{"", "   "},
		TotalYearsExp: -2,
		Embedding:     candidateVec,
	}
	job := &models.Job{
		ID:                 uuid.New(),
		RequiredSkills:     []string{"go"},
		MinYearsExperience: floatPtr(0),
		Embedding:          jobVec,
	}

	score, err := Score(candidate, job, DefaultThresholds())
	require.NoError(t, err)

	for name, v := range map[string]float64{
		"semantic":   score.SemanticScore,
		"skills":     score.SkillsScore,
		"experience": score.ExperienceScore,
		"education":  score.EducationScore,
		"composite":  score.CompositeScore,
	} {
		assert.GreaterOrEqual(t, v, 0.0, name)
		assert.LessOrEqual(t, v, 1.0, name)
	}
}

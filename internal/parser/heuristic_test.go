package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-triage/internal/errs"
	"resume-triage/internal/models"
)

const sampleResume = `Jane Doe
jane.doe@example.com | (415) 555-0142
San Francisco, CA

EXPERIENCE
Senior Backend Engineer at Initech, Jan 2019 - Mar 2022
Built Go microservices on Kubernetes with PostgreSQL and Redis.
Software Engineer at Hooli, 2015 - 2018
Python and Django web services.

EDUCATION
B.Sc. Computer Science, State University, 2015
`

func TestHeuristicExtractorContactFields(t *testing.T) {
	fields, err := NewHeuristicExtractor().ExtractFields(context.Background(), sampleResume)
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", fields.Name)
	assert.Equal(t, "jane.doe@example.com", fields.Email)
	assert.Equal(t, "(415) 555-0142", fields.Phone)
}

func TestHeuristicExtractorSkills(t *testing.T) {
	fields, err := NewHeuristicExtractor().ExtractFields(context.Background(), sampleResume)
	require.NoError(t, err)

	assert.Contains(t, fields.Skills, "Go")
	assert.Contains(t, fields.Skills, "Kubernetes")
	assert.Contains(t, fields.Skills, "PostgreSQL")
	assert.Contains(t, fields.Skills, "Python")
	assert.Contains(t, fields.Skills, "Django")
	// "Java" must not fire on "JavaScript"-free text, nor anything else here.
	assert.NotContains(t, fields.Skills, "Java")
}

func TestContainsTokenMultiByteBoundary(t *testing.T) {
	// The trailing byte of a multi-byte letter must not read as a word
	// boundary: "go" inside "ażgo" is part of the word.
	assert.False(t, containsToken("ażgo", "go"))
	// A non-letter multi-byte rune is a real boundary.
	assert.True(t, containsToken("plan→go", "go"))
	assert.False(t, containsToken("javascript", "java"))
	assert.True(t, containsToken("java and javascript", "java"))
}

func TestHeuristicExtractorWorkExperience(t *testing.T) {
	fields, err := NewHeuristicExtractor().ExtractFields(context.Background(), sampleResume)
	require.NoError(t, err)

	require.Len(t, fields.WorkExperience, 2)

	first := fields.WorkExperience[0]
	assert.Equal(t, "Senior Backend Engineer", first.Title)
	assert.Equal(t, "Initech", first.Company)
	assert.InDelta(t, 3.17, first.TenureYears, 0.1)

	second := fields.WorkExperience[1]
	assert.InDelta(t, 4.0, second.TenureYears, 0.2)

	// Naive summation across entries, no overlap handling.
	assert.InDelta(t, first.TenureYears+second.TenureYears, fields.TotalYearsExp, 1e-9)
}

func TestHeuristicExtractorEducation(t *testing.T) {
	fields, err := NewHeuristicExtractor().ExtractFields(context.Background(), sampleResume)
	require.NoError(t, err)

	require.Len(t, fields.Education, 1)
	assert.Contains(t, fields.Education[0].Degree, "Computer Science")
	require.NotNil(t, fields.Education[0].Year)
	assert.Equal(t, 2015, *fields.Education[0].Year)
}

func TestHeuristicExtractorYearsFallback(t *testing.T) {
	fields, err := NewHeuristicExtractor().ExtractFields(context.Background(),
		"Generalist with 7+ years of experience shipping software.")
	require.NoError(t, err)

	assert.Equal(t, 7.0, fields.TotalYearsExp)
}

func TestHeuristicExtractorEmptyText(t *testing.T) {
	fields, err := NewHeuristicExtractor().ExtractFields(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, fields.Usable())
}

func TestTotalYearsClipsNegative(t *testing.T) {
	total := TotalYears([]models.WorkExperience{
		{TenureYears: 2.5},
		{TenureYears: -1},
		{TenureYears: 0.5},
	})
	assert.InDelta(t, 3.0, total, 1e-9)
}

func TestTenureOpenEndedRange(t *testing.T) {
	entries := findWorkExperience("Platform Engineer at Initrode, Jan 2020 - Present")
	require.Len(t, entries, 1)
	assert.Greater(t, entries[0].TenureYears, 4.0)
}

func TestExtractTextPlainText(t *testing.T) {
	text, err := ExtractText([]byte("  hello resume  "), "text/plain; charset=utf-8")
	require.NoError(t, err)
	assert.Equal(t, "hello resume", text)
}

func TestExtractTextPermanentFailures(t *testing.T) {
	_, err := ExtractText(nil, "application/pdf")
	assert.True(t, errs.IsPermanent(err))

	_, err = ExtractText([]byte("data"), "image/png")
	assert.True(t, errs.IsPermanent(err))

	_, err = ExtractText([]byte("   "), "text/plain")
	assert.True(t, errs.IsPermanent(err))
}

package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"resume-triage/internal/models"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateJob(ctx context.Context, job *models.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockStore) JobByID(ctx context.Context, jobID uuid.UUID) (*models.Job, error) {
	args := m.Called(ctx, jobID)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Job), args.Error(1)
}

func (m *MockStore) SetJobEmbedding(ctx context.Context, jobID uuid.UUID, vec []float32) (bool, error) {
	args := m.Called(ctx, jobID, vec)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) CreateUpload(ctx context.Context, upload *models.Upload) error {
	args := m.Called(ctx, upload)
	return args.Error(0)
}

func (m *MockStore) UploadByID(ctx context.Context, uploadID uuid.UUID) (*models.Upload, error) {
	args := m.Called(ctx, uploadID)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Upload), args.Error(1)
}

func (m *MockStore) AdvanceUploadStatus(ctx context.Context, uploadID uuid.UUID, from, to models.Status) (bool, error) {
	args := m.Called(ctx, uploadID, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) MarkUploadError(ctx context.Context, uploadID uuid.UUID, from models.Status, message string) (bool, error) {
	args := m.Called(ctx, uploadID, from, message)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) ResetUpload(ctx context.Context, uploadID uuid.UUID) error {
	args := m.Called(ctx, uploadID)
	return args.Error(0)
}

func (m *MockStore) CountsByStatus(ctx context.Context, jobID uuid.UUID) (map[string]int, error) {
	args := m.Called(ctx, jobID)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *MockStore) UpsertCandidate(ctx context.Context, c *models.Candidate) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockStore) CandidateByUploadID(ctx context.Context, uploadID uuid.UUID) (*models.Candidate, error) {
	args := m.Called(ctx, uploadID)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Candidate), args.Error(1)
}

func (m *MockStore) SetCandidateEmbedding(ctx context.Context, candidateID uuid.UUID, vec []float32) (bool, error) {
	args := m.Called(ctx, candidateID, vec)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) UpsertScore(ctx context.Context, score *models.CandidateScore) error {
	args := m.Called(ctx, score)
	return args.Error(0)
}

func (m *MockStore) ScoresByJob(ctx context.Context, jobID uuid.UUID) ([]models.CandidateScore, error) {
	args := m.Called(ctx, jobID)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CandidateScore), args.Error(1)
}

func (m *MockStore) CountsByCategory(ctx context.Context, jobID uuid.UUID) (map[string]int, error) {
	args := m.Called(ctx, jobID)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

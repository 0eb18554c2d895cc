package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"resume-triage/internal/models"
)

type MockTaskQueue struct {
	mock.Mock
}

func (m *MockTaskQueue) Enqueue(ctx context.Context, task models.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskQueue) Dequeue(ctx context.Context) (models.Task, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.Task), args.Error(1)
}

func (m *MockTaskQueue) Ack(ctx context.Context, task models.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

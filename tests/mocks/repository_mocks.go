package mocks

import (
	"context"

	"github.com/canis-majoris/instantly-assignment-v3/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockEmailRepository implements repository.EmailRepository
type MockEmailRepository struct {
	mock.Mock
}

// Create inserts a new email record
func (m *MockEmailRepository) Create(ctx context.Context, email *models.Email) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

// GetByID retrieves an email by its ID
func (m *MockEmailRepository) GetByID(ctx context.Context, id uint) (*models.Email, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Email), args.Error(1)
}

// List retrieves emails matching a filter and optional query
func (m *MockEmailRepository) List(ctx context.Context, filter, query string) ([]models.Email, error) {
	args := m.Called(ctx, filter, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Email), args.Error(1)
}

// ListThreads collapses matching records into one summary per thread
func (m *MockEmailRepository) ListThreads(ctx context.Context, filter, query string) ([]models.ThreadSummary, error) {
	args := m.Called(ctx, filter, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ThreadSummary), args.Error(1)
}

// ListThread retrieves a thread's records oldest first
func (m *MockEmailRepository) ListThread(ctx context.Context, threadID, filter string) ([]models.Email, error) {
	args := m.Called(ctx, threadID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Email), args.Error(1)
}

// UpdateFlags applies flag changes to a record or thread
func (m *MockEmailRepository) UpdateFlags(ctx context.Context, req *models.UpdateRequest) ([]models.Email, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Email), args.Error(1)
}

// SoftDeleteByID marks a single record as deleted
func (m *MockEmailRepository) SoftDeleteByID(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// SoftDeleteThread marks a thread's records as deleted
func (m *MockEmailRepository) SoftDeleteThread(ctx context.Context, threadID, filter string) (int64, error) {
	args := m.Called(ctx, threadID, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockStatsRepository implements repository.StatsRepository
type MockStatsRepository struct {
	mock.Mock
}

// Recalculate recomputes the stats row
func (m *MockStatsRepository) Recalculate(ctx context.Context) (*models.EmailStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EmailStats), args.Error(1)
}

// Get reads the cached stats row
func (m *MockStatsRepository) Get(ctx context.Context) (*models.EmailStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EmailStats), args.Error(1)
}

// Invalidate refreshes the stats cache
func (m *MockStatsRepository) Invalidate(ctx context.Context) (*models.EmailStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EmailStats), args.Error(1)
}

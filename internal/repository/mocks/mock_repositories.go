package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"aycf/internal/model"
	"aycf/internal/repository"
)

type MockJobRepository struct {
	mock.Mock
}

func (m *MockJobRepository) Create(ctx context.Context, job *model.Job) (*model.Job, error) {
	args := m.Called(ctx, job)
	if f, ok := args.Get(0).(func(context.Context, *model.Job) *model.Job); ok {
		return f(ctx, job), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Job), args.Error(1)
}

func (m *MockJobRepository) FindByID(ctx context.Context, id string) (*model.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Job), args.Error(1)
}

func (m *MockJobRepository) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Job], error) {
	args := m.Called(ctx, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Job]), args.Error(1)
}

func (m *MockJobRepository) FindPendingDuplicate(ctx context.Context, paramsKey string) (*model.Job, error) {
	args := m.Called(ctx, paramsKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Job), args.Error(1)
}

func (m *MockJobRepository) ClaimNext(ctx context.Context) (*model.Job, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Job), args.Error(1)
}

func (m *MockJobRepository) Heartbeat(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockJobRepository) Requeue(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockJobRepository) Complete(ctx context.Context, id string, resultCount int, reportKey string) error {
	args := m.Called(ctx, id, resultCount, reportKey)
	return args.Error(0)
}

func (m *MockJobRepository) Fail(ctx context.Context, id string, message string) error {
	args := m.Called(ctx, id, message)
	return args.Error(0)
}

type MockFlightRepository struct {
	mock.Mock
}

func (m *MockFlightRepository) SaveChecked(ctx context.Context, jobID string, flights []model.CheckedFlight) error {
	args := m.Called(ctx, jobID, flights)
	return args.Error(0)
}

func (m *MockFlightRepository) ListByJob(ctx context.Context, jobID string) ([]model.CheckedFlight, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CheckedFlight), args.Error(1)
}

func (m *MockFlightRepository) Search(ctx context.Context, f model.FlightFilter) ([]model.CheckedFlight, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CheckedFlight), args.Error(1)
}

type MockUsageRepository struct {
	mock.Mock
}

func (m *MockUsageRepository) Append(ctx context.Context, log *model.UsageLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockUsageRepository) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.UsageLog], error) {
	args := m.Called(ctx, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.UsageLog]), args.Error(1)
}

// Package repository declares the persistence contracts for search jobs,
// checked flights and usage logs. Implementations live in subpackages.
package repository

import (
	"context"
	"errors"

	"aycf/internal/model"
)

var (
	// ErrNotFound is returned when no row matches.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an insert collides with a unique constraint.
	ErrDuplicate = errors.New("duplicate")
)

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
type PageResult[T any] struct {
	Items []T
	Total int
}

// JobRepository stores search jobs and hands them to workers.
type JobRepository interface {
	// Create inserts a queued job and returns the stored row. It returns
	// ErrDuplicate when a queued or running job has the same parameter key.
	Create(ctx context.Context, job *model.Job) (*model.Job, error)

	FindByID(ctx context.Context, id string) (*model.Job, error)

	// List returns jobs newest first.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Job], error)

	// FindPendingDuplicate returns a queued or running job with the same
	// parameter key, or ErrNotFound.
	FindPendingDuplicate(ctx context.Context, paramsKey string) (*model.Job, error)

	// ClaimNext moves the oldest queued job to running and returns it, or
	// ErrNotFound when the queue is empty. A running job whose lease ran
	// out is claimed again. Concurrent workers never claim the same job.
	ClaimNext(ctx context.Context) (*model.Job, error)

	// Heartbeat extends the lease of a running job.
	Heartbeat(ctx context.Context, id string) error
	// Requeue hands a running job back to the queue.
	Requeue(ctx context.Context, id string) error

	Complete(ctx context.Context, id string, resultCount int, reportKey string) error
	Fail(ctx context.Context, id string, message string) error
}

// FlightRepository stores the flights found by availability checks.
type FlightRepository interface {
	SaveChecked(ctx context.Context, jobID string, flights []model.CheckedFlight) error
	ListByJob(ctx context.Context, jobID string) ([]model.CheckedFlight, error)
	// Search backs the live flight browser.
	Search(ctx context.Context, f model.FlightFilter) ([]model.CheckedFlight, error)
}

// UsageRepository records accepted searches.
type UsageRepository interface {
	Append(ctx context.Context, log *model.UsageLog) error
	List(ctx context.Context, pq PageQuery) (*PageResult[model.UsageLog], error)
}

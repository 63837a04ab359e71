package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"aycf/internal/model"
	"aycf/internal/repository"
)

// DefaultLease is how long a running job may go without a heartbeat before
// another worker claims it again.
const DefaultLease = 10 * time.Minute

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint violation.
const uniqueViolation = "23505"

// JobPostgres is a PostgreSQL implementation of repository.JobRepository.
type JobPostgres struct {
	db    *sql.DB
	lease time.Duration
}

// JobOption customises a JobPostgres.
type JobOption func(*JobPostgres)

// WithLease sets how long a running job keeps its claim without a heartbeat.
func WithLease(d time.Duration) JobOption {
	return func(r *JobPostgres) {
		if d > 0 {
			r.lease = d
		}
	}
}

// NewJobPostgres creates a new JobPostgres repository.
func NewJobPostgres(db *sql.DB, opts ...JobOption) *JobPostgres {
	r := &JobPostgres{db: db, lease: DefaultLease}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ repository.JobRepository = (*JobPostgres)(nil)

const jobColumns = `id, trip_type, max_stops, departure_airports, destination_airports, departure_date,
		email, status, estimated_time, result_count, report_key, error, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func joinCodes(codes []string) string { return strings.Join(codes, ",") }

func splitCodes(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}

func scanJob(s scanner) (*model.Job, error) {
	var (
		j            model.Job
		tripType     string
		status       string
		departures   string
		destinations string
	)
	if err := s.Scan(
		&j.ID,
		&tripType,
		&j.Params.MaxStops,
		&departures,
		&destinations,
		&j.Params.DepartureDate,
		&j.Params.Email,
		&status,
		&j.EstimatedTime,
		&j.ResultCount,
		&j.ReportKey,
		&j.Error,
		&j.CreatedAt,
		&j.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	j.Params.TripType = model.TripType(tripType)
	j.Status = model.JobStatus(status)
	j.Params.DepartureAirports = splitCodes(departures)
	j.Params.DestinationAirports = splitCodes(destinations)
	return &j, nil
}

// Create inserts a new job row and returns the stored record.
func (r *JobPostgres) Create(ctx context.Context, job *model.Job) (*model.Job, error) {
	q := `
		INSERT INTO search_jobs (id, trip_type, max_stops, departure_airports, destination_airports,
			departure_date, email, params_key, status, estimated_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		RETURNING ` + jobColumns
	row := r.db.QueryRowContext(ctx, q,
		job.ID,
		string(job.Params.TripType),
		job.Params.MaxStops,
		joinCodes(job.Params.DepartureAirports),
		joinCodes(job.Params.DestinationAirports),
		job.Params.DepartureDate,
		job.Params.Email,
		job.Params.Key(),
		string(job.Status),
		job.EstimatedTime,
		job.CreatedAt,
	)
	created, err := scanJob(row)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return nil, repository.ErrDuplicate
	}
	return created, err
}

// FindByID fetches a single job by its ID.
func (r *JobPostgres) FindByID(ctx context.Context, id string) (*model.Job, error) {
	q := `SELECT ` + jobColumns + ` FROM search_jobs WHERE id = $1`
	return scanJob(r.db.QueryRowContext(ctx, q, id))
}

// List returns jobs using LIMIT/OFFSET pagination and a total count.
func (r *JobPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Job], error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM search_jobs`).Scan(&total); err != nil {
		return nil, err
	}

	q := `SELECT ` + jobColumns + `
		FROM search_jobs
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, q, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &repository.PageResult[model.Job]{Items: items, Total: total}, nil
}

// FindPendingDuplicate returns the newest queued or running job with the same key.
func (r *JobPostgres) FindPendingDuplicate(ctx context.Context, paramsKey string) (*model.Job, error) {
	q := `SELECT ` + jobColumns + `
		FROM search_jobs
		WHERE params_key = $1 AND status IN ('queued', 'running')
		ORDER BY created_at DESC
		LIMIT 1`
	return scanJob(r.db.QueryRowContext(ctx, q, paramsKey))
}

// ClaimNext marks the oldest queued job as running. A running job whose
// updated_at is older than the lease was abandoned by a crashed worker and
// is claimed again. SKIP LOCKED keeps concurrent workers off each other's
// rows.
func (r *JobPostgres) ClaimNext(ctx context.Context) (*model.Job, error) {
	q := `
		UPDATE search_jobs SET status = 'running', updated_at = now()
		WHERE id = (
			SELECT id FROM search_jobs
			WHERE status = 'queued'
				OR (status = 'running' AND updated_at < now() - make_interval(secs => $1))
			ORDER BY created_at, id
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + jobColumns
	return scanJob(r.db.QueryRowContext(ctx, q, r.lease.Seconds()))
}

// Heartbeat bumps updated_at so the lease of a running job does not expire.
func (r *JobPostgres) Heartbeat(ctx context.Context, id string) error {
	const q = `UPDATE search_jobs SET updated_at = now() WHERE id = $1 AND status = 'running'`
	return r.exec(ctx, q, id)
}

// Requeue puts a running job back in the queue.
func (r *JobPostgres) Requeue(ctx context.Context, id string) error {
	const q = `UPDATE search_jobs SET status = 'queued', updated_at = now() WHERE id = $1 AND status = 'running'`
	return r.exec(ctx, q, id)
}

// Complete marks a job done with its result count and report key.
func (r *JobPostgres) Complete(ctx context.Context, id string, resultCount int, reportKey string) error {
	const q = `
		UPDATE search_jobs
		SET status = 'done', result_count = $2, report_key = $3, error = '', updated_at = now()
		WHERE id = $1`
	return r.exec(ctx, q, id, resultCount, reportKey)
}

// Fail marks a job failed with message.
func (r *JobPostgres) Fail(ctx context.Context, id string, message string) error {
	const q = `UPDATE search_jobs SET status = 'failed', error = $2, updated_at = now() WHERE id = $1`
	return r.exec(ctx, q, id, message)
}

func (r *JobPostgres) exec(ctx context.Context, q string, args ...any) error {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

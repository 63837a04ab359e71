package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aycf/internal/model"
	"aycf/internal/repository"
)

var jobCols = []string{
	"id", "trip_type", "max_stops", "departure_airports", "destination_airports", "departure_date",
	"email", "status", "estimated_time", "result_count", "report_key", "error", "created_at", "updated_at",
}

func jobRow(id string, status model.JobStatus, now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(jobCols).
		AddRow(id, "oneway", 1, "AUH,BUD", "", "2025-04-13", "pass@example.com",
			string(status), "1 minute, 40 seconds", 0, "", "", now, now)
}

func TestJobPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewJobPostgres(db)
	now := time.Now().UTC()
	job := &model.Job{
		ID: "0b5e2c1e-9a0c-4a51-9f0e-2f1f7f4c2a10",
		Params: model.SearchParams{
			TripType:          model.TripOneWay,
			MaxStops:          1,
			DepartureAirports: []string{"AUH", "BUD"},
			DepartureDate:     "2025-04-13",
			Email:             "pass@example.com",
		},
		Status:        model.JobQueued,
		EstimatedTime: "1 minute, 40 seconds",
		CreatedAt:     now,
	}

	mock.ExpectQuery("INSERT INTO search_jobs").
		WithArgs(job.ID, "oneway", 1, "AUH,BUD", "", "2025-04-13", "pass@example.com",
			job.Params.Key(), "queued", "1 minute, 40 seconds", now).
		WillReturnRows(jobRow(job.ID, model.JobQueued, now))

	got, err := repo.Create(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, []string{"AUH", "BUD"}, got.Params.DepartureAirports)
	assert.Equal(t, []string{}, got.Params.DestinationAirports)
	assert.Equal(t, model.TripOneWay, got.Params.TripType)
	assert.Equal(t, model.JobQueued, got.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobPostgres_CreateDuplicatePending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewJobPostgres(db)
	job := &model.Job{
		ID:     "job-2",
		Params: model.SearchParams{TripType: model.TripOneWay, DepartureAirports: []string{"BUD"}, Email: "pass@example.com"},
		Status: model.JobQueued,
	}

	mock.ExpectQuery("INSERT INTO search_jobs").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "uq_search_jobs_pending_params"})
	_, err = repo.Create(context.Background(), job)
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	mock.ExpectQuery("INSERT INTO search_jobs").
		WillReturnError(&pgconn.PgError{Code: "23502"})
	_, err = repo.Create(context.Background(), job)
	require.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrDuplicate)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewJobPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM search_jobs WHERE id = ?").
			WithArgs("job-1").
			WillReturnRows(jobRow("job-1", model.JobDone, time.Now()))

		job, err := repo.FindByID(ctx, "job-1")
		require.NoError(t, err)
		assert.Equal(t, model.JobDone, job.Status)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM search_jobs WHERE id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		job, err := repo.FindByID(ctx, "missing")
		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.Nil(t, job)
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobPostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewJobPostgres(db)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM search_jobs").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery("SELECT (.+) FROM search_jobs ORDER BY").
		WithArgs(10, 0).
		WillReturnRows(jobRow("job-1", model.JobQueued, time.Now()))

	res, err := repo.List(context.Background(), repository.PageQuery{Limit: 10, Offset: 0})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Len(t, res.Items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobPostgres_FindPendingDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewJobPostgres(db)

	mock.ExpectQuery("SELECT (.+) FROM search_jobs WHERE params_key = (.+) AND status IN").
		WithArgs("key").
		WillReturnRows(sqlmock.NewRows(jobCols))

	_, err = repo.FindPendingDuplicate(context.Background(), "key")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobPostgres_ClaimNext(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewJobPostgres(db)
	ctx := context.Background()

	mock.ExpectQuery("UPDATE search_jobs SET status = 'running'(.+)FOR UPDATE SKIP LOCKED").
		WillReturnRows(jobRow("job-1", model.JobRunning, time.Now()))
	job, err := repo.ClaimNext(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.JobRunning, job.Status)

	mock.ExpectQuery("UPDATE search_jobs SET status = 'running'").
		WillReturnRows(sqlmock.NewRows(jobCols))
	_, err = repo.ClaimNext(ctx)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobPostgres_ClaimNextReclaimsExpiredLease(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewJobPostgres(db, WithLease(90*time.Second))

	mock.ExpectQuery(`WHERE status = 'queued' OR \(status = 'running' AND updated_at < now\(\) - make_interval\(secs => \$1\)\)`).
		WithArgs(90.0).
		WillReturnRows(jobRow("job-crashed", model.JobRunning, time.Now()))

	job, err := repo.ClaimNext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "job-crashed", job.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobPostgres_HeartbeatAndRequeue(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewJobPostgres(db)
	ctx := context.Background()

	mock.ExpectExec("UPDATE search_jobs SET updated_at = now\\(\\) WHERE id = (.+) AND status = 'running'").
		WithArgs("job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Heartbeat(ctx, "job-1"))

	mock.ExpectExec("UPDATE search_jobs SET status = 'queued'(.+)AND status = 'running'").
		WithArgs("job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Requeue(ctx, "job-1"))

	mock.ExpectExec("UPDATE search_jobs SET status = 'queued'").
		WithArgs("job-done").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Requeue(ctx, "job-done"), repository.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobPostgres_CompleteAndFail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewJobPostgres(db)
	ctx := context.Background()

	mock.ExpectExec("UPDATE search_jobs SET status = 'done'").
		WithArgs("job-1", 4, "reports/job-1.html").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Complete(ctx, "job-1", 4, "reports/job-1.html"))

	mock.ExpectExec("UPDATE search_jobs SET status = 'failed'").
		WithArgs("job-2", "boom").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Fail(ctx, "job-2", "boom"), repository.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

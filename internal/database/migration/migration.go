package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"aycf/internal/logging"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_search_jobs",
		SQL: `CREATE TABLE IF NOT EXISTS search_jobs (
  id                   UUID        PRIMARY KEY,
  trip_type            TEXT        NOT NULL CHECK (trip_type IN ('oneway', 'roundtrip')),
  max_stops            INT         NOT NULL CHECK (max_stops IN (0, 1)),
  departure_airports   TEXT        NOT NULL,
  destination_airports TEXT        NOT NULL DEFAULT '',
  departure_date       TEXT        NOT NULL DEFAULT '',
  email                TEXT        NOT NULL,
  params_key           TEXT        NOT NULL,
  status               TEXT        NOT NULL DEFAULT 'queued',
  estimated_time       TEXT        NOT NULL DEFAULT '',
  result_count         INT         NOT NULL DEFAULT 0,
  report_key           TEXT        NOT NULL DEFAULT '',
  error                TEXT        NOT NULL DEFAULT '',
  created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_search_jobs_status_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_search_jobs_status_created_at ON search_jobs (status, created_at);`,
	},
	{
		Name: "create_index_search_jobs_params_key",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_search_jobs_params_key ON search_jobs (params_key);`,
	},
	{
		Name: "create_table_checked_flights",
		SQL: `CREATE TABLE IF NOT EXISTS checked_flights (
  id             BIGSERIAL   PRIMARY KEY,
  job_id         UUID        NOT NULL REFERENCES search_jobs (id) ON DELETE CASCADE,
  segment_hash   TEXT        NOT NULL,
  search_date    TEXT        NOT NULL,
  flight_code    TEXT        NOT NULL,
  carrier        TEXT        NOT NULL DEFAULT '',
  departure_code TEXT        NOT NULL,
  departure_city TEXT        NOT NULL DEFAULT '',
  departure_time TIMESTAMPTZ NOT NULL,
  departure_tz   TEXT        NOT NULL DEFAULT '',
  arrival_code   TEXT        NOT NULL,
  arrival_city   TEXT        NOT NULL DEFAULT '',
  arrival_time   TIMESTAMPTZ NOT NULL,
  arrival_tz     TEXT        NOT NULL DEFAULT '',
  duration_sec   INT         NOT NULL CHECK (duration_sec >= 0),
  price          TEXT        NOT NULL DEFAULT '',
  currency       TEXT        NOT NULL DEFAULT '',
  checked_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_checked_flights_job_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_checked_flights_job_id ON checked_flights (job_id);`,
	},
	{
		Name: "create_index_checked_flights_route_time",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_checked_flights_route_time ON checked_flights (departure_code, arrival_code, departure_time);`,
	},
	{
		Name: "create_table_usage_logs",
		SQL: `CREATE TABLE IF NOT EXISTS usage_logs (
  id                   BIGSERIAL   PRIMARY KEY,
  ts                   TIMESTAMPTZ NOT NULL DEFAULT now(),
  trip_type            TEXT        NOT NULL,
  max_stops            INT         NOT NULL,
  departure_airports   TEXT        NOT NULL,
  destination_airports TEXT        NOT NULL DEFAULT ''
);`,
	},
	{
		Name: "create_index_usage_logs_ts",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_usage_logs_ts ON usage_logs (ts);`,
	},
	{
		// At most one pending job per parameter key, even when two submits race.
		Name: "create_unique_index_search_jobs_pending_params",
		SQL: `CREATE UNIQUE INDEX IF NOT EXISTS uq_search_jobs_pending_params
  ON search_jobs (params_key) WHERE status IN ('queued', 'running');`,
	},
}

// sentinelQuery checks for the last relation the steps create. Every step
// is idempotent, so older schemas missing it are migrated again.
const sentinelQuery = "SELECT to_regclass('public.uq_search_jobs_pending_params') IS NOT NULL"

// EnsureMigrated runs the schema steps unless the sentinel table already exists.
func EnsureMigrated(ctx context.Context, db *sql.DB, dbHost string) error {
	start := time.Now()
	logger := logging.WithComponent("database").With().Str("db_host", dbHost).Logger()

	logger.Info().Str("event", "db_migration_check").Str("status", "starting").Msg("checking schema")

	var exists bool
	if err := db.QueryRowContext(ctx, sentinelQuery).Scan(&exists); err != nil {
		logger.Error().
			Err(err).
			Str("event", "db_migration_failed").
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("failed to check sentinel table")
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logger.Info().
			Str("event", "db_migration_skip").
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("schema already exists, skipping migration")
		return nil
	}

	logger.Info().Str("event", "db_migration_start").Int("steps", len(steps)).Msg("migrating schema")

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			logger.Error().
				Err(err).
				Str("event", "db_migration_failed").
				Str("migration_step", step.Name).
				Int64("duration_ms", time.Since(start).Milliseconds()).
				Int64("step_duration_ms", time.Since(stepStart).Milliseconds()).
				Msg("migration step failed")
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logger.Debug().
			Str("event", "db_migration_step").
			Str("migration_step", step.Name).
			Int64("step_duration_ms", time.Since(stepStart).Milliseconds()).
			Msg("migration step applied")
	}

	logger.Info().
		Str("event", "db_migration_success").
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("schema migrated")
	return nil
}

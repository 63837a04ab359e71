package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"aycf/internal/flighttime"
	"aycf/internal/model"
	"aycf/internal/repository"
)

// FlightPostgres is a PostgreSQL implementation of repository.FlightRepository.
type FlightPostgres struct {
	db *sql.DB
}

// NewFlightPostgres creates a new FlightPostgres repository.
func NewFlightPostgres(db *sql.DB) *FlightPostgres {
	return &FlightPostgres{db: db}
}

var _ repository.FlightRepository = (*FlightPostgres)(nil)

const flightColumns = `segment_hash, search_date, flight_code, carrier,
		departure_code, departure_city, departure_time, departure_tz,
		arrival_code, arrival_city, arrival_time, arrival_tz,
		duration_sec, price, currency`

const defaultSearchLimit = 200

// SaveChecked stores the flights of a job in one transaction.
func (r *FlightPostgres) SaveChecked(ctx context.Context, jobID string, flights []model.CheckedFlight) error {
	if len(flights) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	const q = `
		INSERT INTO checked_flights (job_id, segment_hash, search_date, flight_code, carrier,
			departure_code, departure_city, departure_time, departure_tz,
			arrival_code, arrival_city, arrival_time, arrival_tz,
			duration_sec, price, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	for _, f := range flights {
		if _, err := tx.ExecContext(ctx, q,
			jobID,
			f.SegmentHash,
			f.Date,
			f.FlightCode,
			f.Carrier,
			f.Departure.Code,
			f.Departure.City,
			f.Departure.Time.UTC(),
			f.Departure.Timezone,
			f.Arrival.Code,
			f.Arrival.City,
			f.Arrival.Time.UTC(),
			f.Arrival.Timezone,
			int(f.Duration/time.Second),
			f.Price,
			f.Currency,
		); err != nil {
			return fmt.Errorf("insert %s: %w", f.FlightCode, err)
		}
	}
	return tx.Commit()
}

// ListByJob returns the flights stored for a job, by departure time.
func (r *FlightPostgres) ListByJob(ctx context.Context, jobID string) ([]model.CheckedFlight, error) {
	q := `SELECT ` + flightColumns + `
		FROM checked_flights
		WHERE job_id = $1
		ORDER BY departure_time, flight_code`
	return r.query(ctx, q, jobID)
}

// Search returns the latest sighting of each flight matching f.
func (r *FlightPostgres) Search(ctx context.Context, f model.FlightFilter) ([]model.CheckedFlight, error) {
	var (
		where []string
		args  []any
	)
	in := func(column string, values []string) {
		if len(values) == 0 {
			return
		}
		ph := make([]string, len(values))
		for i, v := range values {
			args = append(args, v)
			ph[i] = fmt.Sprintf("$%d", len(args))
		}
		where = append(where, fmt.Sprintf("%s IN (%s)", column, strings.Join(ph, ", ")))
	}
	in("departure_code", f.Departures)
	in("arrival_code", f.Arrivals)
	if !f.DateFrom.IsZero() {
		args = append(args, f.DateFrom)
		where = append(where, fmt.Sprintf("departure_time >= $%d", len(args)))
	}
	if !f.DateTo.IsZero() {
		args = append(args, f.DateTo)
		where = append(where, fmt.Sprintf("departure_time < $%d", len(args)))
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	args = append(args, limit)

	cond := ""
	if len(where) > 0 {
		cond = "WHERE " + strings.Join(where, " AND ")
	}
	q := fmt.Sprintf(`SELECT %[1]s FROM (
			SELECT DISTINCT ON (flight_code, departure_time) %[1]s
			FROM checked_flights
			%[2]s
			ORDER BY flight_code, departure_time, checked_at DESC
		) latest
		ORDER BY departure_time, flight_code
		LIMIT $%[3]d`, flightColumns, cond, len(args))
	return r.query(ctx, q, args...)
}

func (r *FlightPostgres) query(ctx context.Context, q string, args ...any) ([]model.CheckedFlight, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.CheckedFlight, 0)
	for rows.Next() {
		var (
			f        model.CheckedFlight
			duration int
		)
		if err := rows.Scan(
			&f.SegmentHash,
			&f.Date,
			&f.FlightCode,
			&f.Carrier,
			&f.Departure.Code,
			&f.Departure.City,
			&f.Departure.Time,
			&f.Departure.Timezone,
			&f.Arrival.Code,
			&f.Arrival.City,
			&f.Arrival.Time,
			&f.Arrival.Timezone,
			&duration,
			&f.Price,
			&f.Currency,
		); err != nil {
			return nil, err
		}
		f.Duration = time.Duration(duration) * time.Second
		f.Departure.Time = inZone(f.Departure.Time, f.Departure.Timezone)
		f.Arrival.Time = inZone(f.Arrival.Time, f.Arrival.Timezone)
		out = append(out, f)
	}
	return out, rows.Err()
}

// inZone restores the local clock of a stored instant.
func inZone(t time.Time, zone string) time.Time {
	loc, err := flighttime.ParseOffset(zone)
	if err != nil {
		return t
	}
	return t.In(loc)
}

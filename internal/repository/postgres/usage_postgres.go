package postgres

import (
	"context"
	"database/sql"

	"aycf/internal/model"
	"aycf/internal/repository"
)

// UsagePostgres is a PostgreSQL implementation of repository.UsageRepository.
type UsagePostgres struct {
	db *sql.DB
}

// NewUsagePostgres creates a new UsagePostgres repository.
func NewUsagePostgres(db *sql.DB) *UsagePostgres {
	return &UsagePostgres{db: db}
}

var _ repository.UsageRepository = (*UsagePostgres)(nil)

// Append inserts a usage row and fills in its ID.
func (r *UsagePostgres) Append(ctx context.Context, log *model.UsageLog) error {
	const q = `
		INSERT INTO usage_logs (ts, trip_type, max_stops, departure_airports, destination_airports)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	return r.db.QueryRowContext(ctx, q,
		log.Timestamp,
		string(log.TripType),
		log.MaxStops,
		joinCodes(log.DepartureAirports),
		joinCodes(log.DestinationAirports),
	).Scan(&log.ID)
}

// List returns usage rows newest first with a total count.
func (r *UsagePostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.UsageLog], error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM usage_logs`).Scan(&total); err != nil {
		return nil, err
	}

	const q = `
		SELECT id, ts, trip_type, max_stops, departure_airports, destination_airports
		FROM usage_logs
		ORDER BY ts DESC, id DESC
		LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, q, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.UsageLog, 0)
	for rows.Next() {
		var (
			u            model.UsageLog
			tripType     string
			departures   string
			destinations string
		)
		if err := rows.Scan(&u.ID, &u.Timestamp, &tripType, &u.MaxStops, &departures, &destinations); err != nil {
			return nil, err
		}
		u.TripType = model.TripType(tripType)
		u.DepartureAirports = splitCodes(departures)
		u.DestinationAirports = splitCodes(destinations)
		items = append(items, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &repository.PageResult[model.UsageLog]{Items: items, Total: total}, nil
}

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aycf/internal/model"
)

var flightCols = []string{
	"segment_hash", "search_date", "flight_code", "carrier",
	"departure_code", "departure_city", "departure_time", "departure_tz",
	"arrival_code", "arrival_city", "arrival_time", "arrival_tz",
	"duration_sec", "price", "currency",
}

func sampleFlight() model.CheckedFlight {
	dep := time.Date(2025, 4, 13, 6, 25, 0, 0, time.FixedZone("UTC+4", 4*3600))
	arr := time.Date(2025, 4, 13, 8, 50, 0, 0, time.FixedZone("UTC+3", 3*3600))
	return model.CheckedFlight{
		SegmentHash: model.SegmentHash("AUH", "AMM"),
		Date:        "2025-04-13",
		FlightCode:  "W6 5042",
		Carrier:     "Wizz Air Abu Dhabi",
		Departure:   model.Endpoint{City: "Abu Dhabi", Code: "AUH", Time: dep, Timezone: "UTC+4"},
		Arrival:     model.Endpoint{City: "Amman", Code: "AMM", Time: arr, Timezone: "UTC+3"},
		Duration:    3*time.Hour + 25*time.Minute,
		Price:       "9.99",
		Currency:    "EUR",
	}
}

func TestFlightPostgres_SaveChecked(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewFlightPostgres(db)
	ctx := context.Background()
	f := sampleFlight()

	t.Run("commits all rows", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO checked_flights").
			WithArgs("job-1", f.SegmentHash, "2025-04-13", "W6 5042", "Wizz Air Abu Dhabi",
				"AUH", "Abu Dhabi", f.Departure.Time.UTC(), "UTC+4",
				"AMM", "Amman", f.Arrival.Time.UTC(), "UTC+3",
				12300, "9.99", "EUR").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO checked_flights").WillReturnResult(sqlmock.NewResult(2, 1))
		mock.ExpectCommit()

		require.NoError(t, repo.SaveChecked(ctx, "job-1", []model.CheckedFlight{f, f}))
	})

	t.Run("rolls back on error", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO checked_flights").WillReturnError(errors.New("fk violation"))
		mock.ExpectRollback()

		err := repo.SaveChecked(ctx, "job-1", []model.CheckedFlight{f})
		assert.ErrorContains(t, err, "insert W6 5042")
	})

	t.Run("nothing to save", func(t *testing.T) {
		require.NoError(t, repo.SaveChecked(ctx, "job-1", nil))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFlightPostgres_ListByJob(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewFlightPostgres(db)
	f := sampleFlight()

	mock.ExpectQuery("SELECT (.+) FROM checked_flights WHERE job_id = ?").
		WithArgs("job-1").
		WillReturnRows(sqlmock.NewRows(flightCols).AddRow(
			f.SegmentHash, f.Date, f.FlightCode, f.Carrier,
			"AUH", "Abu Dhabi", f.Departure.Time.UTC(), "UTC+4",
			"AMM", "Amman", f.Arrival.Time.UTC(), "UTC+3",
			12300, "9.99", "EUR"))

	got, err := repo.ListByJob(context.Background(), "job-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 3*time.Hour+25*time.Minute, got[0].Duration)
	assert.Equal(t, 6, got[0].Departure.Time.Hour())
	assert.True(t, f.Arrival.Time.Equal(got[0].Arrival.Time))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFlightPostgres_Search(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewFlightPostgres(db)
	from := time.Date(2025, 4, 13, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	t.Run("all filters", func(t *testing.T) {
		mock.ExpectQuery(`SELECT DISTINCT ON \(flight_code, departure_time\)(.+)WHERE departure_code IN \(\$1, \$2\) AND arrival_code IN \(\$3\) AND departure_time >= \$4 AND departure_time < \$5(.+)LIMIT \$6`).
			WithArgs("AUH", "BUD", "AMM", from, to, 50).
			WillReturnRows(sqlmock.NewRows(flightCols))

		got, err := repo.Search(context.Background(), model.FlightFilter{
			Departures: []string{"AUH", "BUD"},
			Arrivals:   []string{"AMM"},
			DateFrom:   from,
			DateTo:     to,
			Limit:      50,
		})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("no filters uses default limit", func(t *testing.T) {
		mock.ExpectQuery(`FROM checked_flights ORDER BY flight_code(.+)LIMIT \$1`).
			WithArgs(defaultSearchLimit).
			WillReturnRows(sqlmock.NewRows(flightCols))

		_, err := repo.Search(context.Background(), model.FlightFilter{})
		require.NoError(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

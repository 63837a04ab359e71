package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aycf/internal/model"
	"aycf/internal/repository"
)

func TestUsagePostgres_Append(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUsagePostgres(db)
	now := time.Now().UTC()
	log := &model.UsageLog{
		Timestamp:           now,
		TripType:            model.TripRoundTrip,
		MaxStops:            0,
		DepartureAirports:   []string{"BUD"},
		DestinationAirports: []string{"LTN", "AMM"},
	}

	mock.ExpectQuery("INSERT INTO usage_logs").
		WithArgs(now, "roundtrip", 0, "BUD", "LTN,AMM").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	require.NoError(t, repo.Append(context.Background(), log))
	assert.Equal(t, int64(7), log.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsagePostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUsagePostgres(db)
	now := time.Now()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM usage_logs").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT (.+) FROM usage_logs ORDER BY").
		WithArgs(20, 40).
		WillReturnRows(sqlmock.NewRows([]string{"id", "ts", "trip_type", "max_stops", "departure_airports", "destination_airports"}).
			AddRow(1, now, "oneway", 1, "AUH,BUD", ""))

	res, err := repo.List(context.Background(), repository.PageQuery{Limit: 20, Offset: 40})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	require.Len(t, res.Items, 1)
	assert.Equal(t, []string{"AUH", "BUD"}, res.Items[0].DepartureAirports)
	assert.Empty(t, res.Items[0].DestinationAirports)
	assert.Equal(t, model.TripOneWay, res.Items[0].TripType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

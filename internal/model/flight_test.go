package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentHash(t *testing.T) {
	// sha256("AUH-AMM")
	h := SegmentHash("AUH", "AMM")
	assert.Len(t, h, 64)
	assert.Equal(t, h, NewSegment("AUH", "AMM").Hash)
	assert.NotEqual(t, h, SegmentHash("AMM", "AUH"))
}

func TestCheckedFlightKey(t *testing.T) {
	dep := time.Date(2025, 4, 13, 6, 25, 0, 0, time.FixedZone("UTC+4", 4*3600))
	f := CheckedFlight{FlightCode: "W6 5042", Departure: Endpoint{Time: dep}}
	assert.Equal(t, "W6 5042@2025-04-13T02:25:00Z", f.Key())
}

func TestSearchParamsKey(t *testing.T) {
	a := SearchParams{
		TripType:            TripOneWay,
		MaxStops:            1,
		DepartureAirports:   []string{"BUD", "AUH"},
		DestinationAirports: []string{"LTN"},
		Email:               "Pass@Example.com ",
	}
	b := a
	b.DepartureAirports = []string{"AUH", "BUD"}
	b.Email = "pass@example.com"
	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, []string{"BUD", "AUH"}, a.DepartureAirports)

	b.MaxStops = 0
	assert.NotEqual(t, a.Key(), b.Key())
	assert.Equal(t, "oneway|1|AUH,BUD|LTN||pass@example.com", a.Key())
}

func TestItineraryDurationsAreSeconds(t *testing.T) {
	dep := time.Date(2025, 4, 13, 6, 0, 0, 0, time.UTC)
	first := CheckedFlight{FlightCode: "W6 2201", Departure: Endpoint{Time: dep}, Duration: 2*time.Hour + 30*time.Minute}
	second := CheckedFlight{FlightCode: "W6 4401", Departure: Endpoint{Time: dep.Add(4 * time.Hour)}, Duration: 3 * time.Hour}
	oneWay := OneWayItinerary{First: first, Second: &second, Layover: 90 * time.Minute, TotalDuration: 7 * time.Hour}

	data, err := json.Marshal(oneWay)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, 5400.0, raw["layover_seconds"])
	assert.Equal(t, 25200.0, raw["total_duration_seconds"])
	assert.NotContains(t, raw, "layover")
	assert.NotContains(t, raw, "total_duration")
	firstRaw := raw["first_flight"].(map[string]any)
	assert.Equal(t, 9000.0, firstRaw["duration_seconds"])
	assert.NotContains(t, firstRaw, "duration")
	assert.Equal(t, "W6 2201", firstRaw["flight_code"])

	var back OneWayItinerary
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, oneWay, back)

	direct, err := json.Marshal(OneWayItinerary{First: first, TotalDuration: first.Duration})
	require.NoError(t, err)
	assert.NotContains(t, string(direct), "layover_seconds")

	roundTrip := RoundTripItinerary{Outward: first, Return: second, StayTime: 28 * time.Hour}
	data, err = json.Marshal(roundTrip)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"stay_time_seconds":100800`)
	var rt RoundTripItinerary
	require.NoError(t, json.Unmarshal(data, &rt))
	assert.Equal(t, roundTrip, rt)
}

package model

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// TripType selects between one-way and round-trip searches.
type TripType string

const (
	TripOneWay    TripType = "oneway"
	TripRoundTrip TripType = "roundtrip"
)

// JobStatus tracks a search job through the worker.
type JobStatus string

const (
	JobQueued  JobStatus = "queued"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// SearchParams are the user-supplied parameters of a search.
type SearchParams struct {
	TripType            TripType `json:"trip_type"`
	MaxStops            int      `json:"max_stops"`
	DepartureAirports   []string `json:"departure_airports"`
	DestinationAirports []string `json:"destination_airports"`
	// DepartureDate is YYYY-MM-DD, empty for "next days".
	DepartureDate string `json:"departure_date,omitempty"`
	Email         string `json:"email"`
}

// Key is a canonical form of the parameters used to spot duplicate
// submissions. Airport order and email case do not matter.
func (p SearchParams) Key() string {
	sorted := func(codes []string) string {
		c := append([]string(nil), codes...)
		sort.Strings(c)
		return strings.Join(c, ",")
	}
	return strings.Join([]string{
		string(p.TripType),
		strconv.Itoa(p.MaxStops),
		sorted(p.DepartureAirports),
		sorted(p.DestinationAirports),
		p.DepartureDate,
		strings.ToLower(strings.TrimSpace(p.Email)),
	}, "|")
}

// Job is a queued flight search.
type Job struct {
	ID            string       `json:"id"`
	Params        SearchParams `json:"params"`
	Status        JobStatus    `json:"status"`
	EstimatedTime string       `json:"estimated_time"`
	ResultCount   int          `json:"result_count"`
	ReportKey     string       `json:"report_key,omitempty"`
	Error         string       `json:"error,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// UsageLog records an accepted search for statistics.
type UsageLog struct {
	ID                  int64     `json:"id"`
	Timestamp           time.Time `json:"timestamp"`
	TripType            TripType  `json:"trip_type"`
	MaxStops            int       `json:"max_stops"`
	DepartureAirports   []string  `json:"departure_airports"`
	DestinationAirports []string  `json:"destination_airports"`
}

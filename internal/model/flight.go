package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Segment is one direct leg between two airports, identified by IATA codes.
type Segment struct {
	Hash        string `json:"hash"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

// NewSegment builds a segment and its stable hash.
func NewSegment(origin, destination string) Segment {
	return Segment{
		Hash:        SegmentHash(origin, destination),
		Origin:      origin,
		Destination: destination,
	}
}

// SegmentHash is the hex SHA-256 of "ORIGIN-DESTINATION".
func SegmentHash(origin, destination string) string {
	sum := sha256.Sum256([]byte(origin + "-" + destination))
	return hex.EncodeToString(sum[:])
}

// OneWayCandidate is a direct (Second == nil) or one-stop route worth checking.
type OneWayCandidate struct {
	First  Segment  `json:"first_flight"`
	Second *Segment `json:"second_flight"`
}

// Direct reports whether the candidate has a single leg.
func (c OneWayCandidate) Direct() bool { return c.Second == nil }

// RoundTripCandidate pairs an outward leg with a return leg.
type RoundTripCandidate struct {
	Outward Segment `json:"outward_flight"`
	Return  Segment `json:"return_flight"`
}

// Endpoint is one end of a checked flight.
type Endpoint struct {
	City     string    `json:"city"`
	Code     string    `json:"code"`
	Time     time.Time `json:"time"`
	Timezone string    `json:"timezone"`
}

// CheckedFlight is a concrete flight with AYCF seats returned by the availability endpoint.
type CheckedFlight struct {
	SegmentHash string        `json:"segment_hash"`
	Date        string        `json:"date"`
	FlightCode  string        `json:"flight_code"`
	Carrier     string        `json:"carrier"`
	Departure   Endpoint      `json:"departure"`
	Arrival     Endpoint      `json:"arrival"`
	Duration    time.Duration `json:"-"`
	Price       string        `json:"price"`
	Currency    string        `json:"currency"`
}

// Key identifies a flight independently of the search that found it.
func (f CheckedFlight) Key() string {
	return f.FlightCode + "@" + f.Departure.Time.UTC().Format(time.RFC3339)
}

// OneWayItinerary is a bookable one-way journey.
type OneWayItinerary struct {
	First         CheckedFlight  `json:"first_flight"`
	Second        *CheckedFlight `json:"second_flight,omitempty"`
	Layover       time.Duration  `json:"-"`
	TotalDuration time.Duration  `json:"-"`
}

// RoundTripItinerary is a bookable outward and return pair.
type RoundTripItinerary struct {
	Outward  CheckedFlight `json:"outward_flight"`
	Return   CheckedFlight `json:"return_flight"`
	StayTime time.Duration `json:"-"`
}

// FlightFilter narrows the stored checked flights for the live browser.
type FlightFilter struct {
	Departures []string
	Arrivals   []string
	DateFrom   time.Time
	DateTo     time.Time
	Limit      int
}

package wizz

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"aycf/internal/flighttime"
	"aycf/internal/model"
)

type availabilityRequest struct {
	FlightType      string  `json:"flightType"`
	Origin          string  `json:"origin"`
	Destination     string  `json:"destination"`
	Departure       string  `json:"departure"`
	Arrival         *string `json:"arrival"`
	IntervalSubtype *string `json:"intervalSubtype"`
}

type availabilityResponse struct {
	FlightsOutbound []outboundFlight `json:"flightsOutbound"`
}

type outboundFlight struct {
	FlightCode           string     `json:"flightCode"`
	CarrierText          string     `json:"carrierText"`
	DepartureStation     string     `json:"departureStation"`
	ArrivalStation       string     `json:"arrivalStation"`
	DepartureStationText string     `json:"departureStationText"`
	ArrivalStationText   string     `json:"arrivalStationText"`
	Departure            string     `json:"departure"`
	Arrival              string     `json:"arrival"`
	DepartureDate        string     `json:"departureDate"`
	ArrivalDate          string     `json:"arrivalDate"`
	DepartureOffsetText  string     `json:"departureOffsetText"`
	ArrivalOffsetText    string     `json:"arrivalOffsetText"`
	Duration             string     `json:"duration"`
	Price                flexString `json:"price"`
	Currency             string     `json:"currency"`
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(b)
	return nil
}

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// localTime combines the date field, the optional clock field and the
// offset text into an instant.
func localTime(date, clock, offset string) (time.Time, string, error) {
	loc, err := flighttime.ParseOffset(offset)
	if err != nil {
		return time.Time{}, "", err
	}
	value := strings.TrimSpace(date)
	if !strings.ContainsAny(value, "T ") && clock != "" {
		value += " " + strings.TrimSpace(clock)
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, loc.String(), nil
		}
	}
	return time.Time{}, "", fmt.Errorf("unrecognised flight time %q", value)
}

// toChecked maps one response entry onto a checked flight for segment s on date.
func (o outboundFlight) toChecked(s model.Segment, date string) (model.CheckedFlight, error) {
	dep, depZone, err := localTime(o.DepartureDate, o.Departure, o.DepartureOffsetText)
	if err != nil {
		return model.CheckedFlight{}, fmt.Errorf("%s departure: %w", o.FlightCode, err)
	}
	arr, arrZone, err := localTime(o.ArrivalDate, o.Arrival, o.ArrivalOffsetText)
	if err != nil {
		return model.CheckedFlight{}, fmt.Errorf("%s arrival: %w", o.FlightCode, err)
	}
	duration := arr.Sub(dep)
	if o.Duration != "" {
		if d, err := flighttime.ParseHM(o.Duration); err == nil {
			duration = d
		}
	}
	depCode, arrCode := o.DepartureStation, o.ArrivalStation
	if depCode == "" {
		depCode = s.Origin
	}
	if arrCode == "" {
		arrCode = s.Destination
	}
	return model.CheckedFlight{
		SegmentHash: s.Hash,
		Date:        date,
		FlightCode:  strings.TrimSpace(o.FlightCode),
		Carrier:     strings.TrimSpace(o.CarrierText),
		Departure: model.Endpoint{
			City:     o.DepartureStationText,
			Code:     depCode,
			Time:     dep,
			Timezone: depZone,
		},
		Arrival: model.Endpoint{
			City:     o.ArrivalStationText,
			Code:     arrCode,
			Time:     arr,
			Timezone: arrZone,
		},
		Duration: duration,
		Price:    string(o.Price),
		Currency: o.Currency,
	}, nil
}

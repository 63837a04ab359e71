package model

import (
	"encoding/json"
	"time"
)

// Durations travel as whole seconds in JSON.

func seconds(d time.Duration) int64 { return int64(d / time.Second) }

func fromSeconds(s int64) time.Duration { return time.Duration(s) * time.Second }

func (f CheckedFlight) MarshalJSON() ([]byte, error) {
	type plain CheckedFlight
	return json.Marshal(struct {
		plain
		DurationSeconds int64 `json:"duration_seconds"`
	}{plain(f), seconds(f.Duration)})
}

func (f *CheckedFlight) UnmarshalJSON(data []byte) error {
	type plain CheckedFlight
	aux := struct {
		*plain
		DurationSeconds int64 `json:"duration_seconds"`
	}{plain: (*plain)(f)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	f.Duration = fromSeconds(aux.DurationSeconds)
	return nil
}

func (it OneWayItinerary) MarshalJSON() ([]byte, error) {
	type plain OneWayItinerary
	return json.Marshal(struct {
		plain
		LayoverSeconds       int64 `json:"layover_seconds,omitempty"`
		TotalDurationSeconds int64 `json:"total_duration_seconds"`
	}{plain(it), seconds(it.Layover), seconds(it.TotalDuration)})
}

func (it *OneWayItinerary) UnmarshalJSON(data []byte) error {
	type plain OneWayItinerary
	aux := struct {
		*plain
		LayoverSeconds       int64 `json:"layover_seconds"`
		TotalDurationSeconds int64 `json:"total_duration_seconds"`
	}{plain: (*plain)(it)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	it.Layover = fromSeconds(aux.LayoverSeconds)
	it.TotalDuration = fromSeconds(aux.TotalDurationSeconds)
	return nil
}

func (it RoundTripItinerary) MarshalJSON() ([]byte, error) {
	type plain RoundTripItinerary
	return json.Marshal(struct {
		plain
		StayTimeSeconds int64 `json:"stay_time_seconds"`
	}{plain(it), seconds(it.StayTime)})
}

func (it *RoundTripItinerary) UnmarshalJSON(data []byte) error {
	type plain RoundTripItinerary
	aux := struct {
		*plain
		StayTimeSeconds int64 `json:"stay_time_seconds"`
	}{plain: (*plain)(it)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	it.StayTime = fromSeconds(aux.StayTimeSeconds)
	return nil
}

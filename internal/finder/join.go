package finder

import (
	"sort"

	"aycf/internal/model"
)

// bySegment groups checked flights by segment hash, deduplicated and
// ordered by departure instant.
func bySegment(checked []model.CheckedFlight) map[string][]model.CheckedFlight {
	out := map[string][]model.CheckedFlight{}
	seen := map[string]bool{}
	for _, f := range checked {
		k := f.SegmentHash + "|" + f.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out[f.SegmentHash] = append(out[f.SegmentHash], f)
	}
	for _, flights := range out {
		sort.SliceStable(flights, func(i, j int) bool {
			return flights[i].Departure.Time.Before(flights[j].Departure.Time)
		})
	}
	return out
}

// connects reports whether next departs strictly after prev arrives.
func connects(prev, next model.CheckedFlight) bool {
	return next.Departure.Time.After(prev.Arrival.Time)
}

// JoinOneWay builds itineraries from checked flights. Direct candidates
// yield one itinerary per flight; one-stop candidates pair each first leg
// with every second leg departing after it lands.
func JoinOneWay(cands []model.OneWayCandidate, checked []model.CheckedFlight) []model.OneWayItinerary {
	flights := bySegment(checked)
	var out []model.OneWayItinerary
	seen := map[string]bool{}

	for _, c := range cands {
		for _, first := range flights[c.First.Hash] {
			if c.Second == nil {
				if seen[first.Key()] {
					continue
				}
				seen[first.Key()] = true
				out = append(out, model.OneWayItinerary{First: first, TotalDuration: first.Duration})
				continue
			}
			for _, second := range flights[c.Second.Hash] {
				if !connects(first, second) {
					continue
				}
				key := first.Key() + "+" + second.Key()
				if seen[key] {
					continue
				}
				seen[key] = true
				s := second
				layover := second.Departure.Time.Sub(first.Arrival.Time)
				out = append(out, model.OneWayItinerary{
					First:         first,
					Second:        &s,
					Layover:       layover,
					TotalDuration: first.Duration + layover + second.Duration,
				})
			}
		}
	}
	return out
}

// JoinRoundTrip pairs outward flights with return flights departing after
// the outward flight lands.
func JoinRoundTrip(cands []model.RoundTripCandidate, checked []model.CheckedFlight) []model.RoundTripItinerary {
	flights := bySegment(checked)
	var out []model.RoundTripItinerary
	seen := map[string]bool{}

	for _, c := range cands {
		for _, outward := range flights[c.Outward.Hash] {
			for _, ret := range flights[c.Return.Hash] {
				if !connects(outward, ret) {
					continue
				}
				key := outward.Key() + "+" + ret.Key()
				if seen[key] {
					continue
				}
				seen[key] = true
				out = append(out, model.RoundTripItinerary{
					Outward:  outward,
					Return:   ret,
					StayTime: ret.Departure.Time.Sub(outward.Arrival.Time),
				})
			}
		}
	}
	return out
}

// HasFlights reports, per segment hash, whether any checked flight exists.
func HasFlights(checked []model.CheckedFlight) map[string]bool {
	out := make(map[string]bool, len(checked))
	for _, f := range checked {
		out[f.SegmentHash] = true
	}
	return out
}

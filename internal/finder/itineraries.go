package finder

import (
	"sort"

	"aycf/internal/model"
)

// flightNetwork is the network formed by the legs that actually had flights.
type flightNetwork map[string][]string

// FlightNetwork builds a Network from checked flights, so stored results
// can be joined again after the route network has changed.
func FlightNetwork(checked []model.CheckedFlight) Network {
	n := flightNetwork{}
	seen := map[string]bool{}
	for _, f := range checked {
		from, to := f.Departure.Code, f.Arrival.Code
		if from == "" || to == "" || seen[from+"-"+to] {
			continue
		}
		seen[from+"-"+to] = true
		n[from] = append(n[from], to)
	}
	for _, tos := range n {
		sort.Strings(tos)
	}
	return n
}

func (n flightNetwork) Airports() []string {
	set := map[string]bool{}
	for from, tos := range n {
		set[from] = true
		for _, to := range tos {
			set[to] = true
		}
	}
	out := make([]string, 0, len(set))
	for code := range set {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

func (n flightNetwork) Destinations(code string) []string { return n[code] }

// Itineraries holds the joined result of a search; only the slice matching
// the trip type is filled.
type Itineraries struct {
	OneWay    []model.OneWayItinerary    `json:"oneway,omitempty"`
	RoundTrip []model.RoundTripItinerary `json:"roundtrip,omitempty"`
}

// Count is the number of itineraries.
func (it Itineraries) Count() int { return len(it.OneWay) + len(it.RoundTrip) }

// Join walks n for the search parameters and joins the checked flights
// into itineraries.
func Join(n Network, p model.SearchParams, checked []model.CheckedFlight) Itineraries {
	if p.TripType == model.TripRoundTrip {
		cands := RoundTripCandidates(n, p.DepartureAirports, p.DestinationAirports)
		return Itineraries{RoundTrip: JoinRoundTrip(cands, checked)}
	}
	cands := OneWayCandidates(n, p.DepartureAirports, p.DestinationAirports, p.MaxStops)
	return Itineraries{OneWay: JoinOneWay(cands, checked)}
}

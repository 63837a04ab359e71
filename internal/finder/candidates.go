// Package finder turns a route network and a search request into the
// segments that must be checked, and joins checked flights back into
// bookable itineraries.
package finder

import (
	"aycf/internal/flighttime"
	"aycf/internal/model"
)

// Network is the read side of the route graph the finder walks.
type Network interface {
	Airports() []string
	Destinations(code string) []string
}

// Per-segment cost used by EstimateCheckingTime: seconds per request times
// the number of dates checked, plus a fixed setup cost.
const (
	secondsPerCheck = 5
	datesPerSegment = 4
	setupSeconds    = 20
)

func toSet(codes []string) map[string]bool {
	set := make(map[string]bool, len(codes))
	for _, c := range codes {
		set[c] = true
	}
	return set
}

// OneWayCandidates lists the direct and, when maxStops >= 1, one-stop
// routes from departures to destinations. Empty destinations means every
// airport in the network. Order follows departures, then the network's
// destination order; duplicates are dropped.
func OneWayCandidates(n Network, departures, destinations []string, maxStops int) []model.OneWayCandidate {
	if len(destinations) == 0 {
		destinations = n.Airports()
	}
	if maxStops > 1 {
		maxStops = 1
	}
	wanted := toSet(destinations)

	var out []model.OneWayCandidate
	seen := map[string]bool{}
	add := func(c model.OneWayCandidate) {
		key := c.First.Hash
		if c.Second != nil {
			key += "/" + c.Second.Hash
		}
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, c)
	}

	for _, a := range departures {
		for _, d := range n.Destinations(a) {
			if d != a && wanted[d] {
				add(model.OneWayCandidate{First: model.NewSegment(a, d)})
			}
		}
		if maxStops < 1 {
			continue
		}
		for _, c := range n.Destinations(a) {
			if c == a {
				continue
			}
			for _, d := range n.Destinations(c) {
				if d == a || d == c || !wanted[d] {
					continue
				}
				second := model.NewSegment(c, d)
				add(model.OneWayCandidate{First: model.NewSegment(a, c), Second: &second})
			}
		}
	}
	return out
}

// RoundTripCandidates pairs every outward route A->D with every return
// route D->B where A and B are both departure airports.
func RoundTripCandidates(n Network, departures, destinations []string) []model.RoundTripCandidate {
	if len(destinations) == 0 {
		destinations = n.Airports()
	}
	wanted := toSet(destinations)

	var out []model.RoundTripCandidate
	seen := map[string]bool{}
	for _, a := range departures {
		for _, d := range n.Destinations(a) {
			if d == a || !wanted[d] {
				continue
			}
			back := toSet(n.Destinations(d))
			for _, b := range departures {
				if !back[b] || b == d {
					continue
				}
				c := model.RoundTripCandidate{Outward: model.NewSegment(a, d), Return: model.NewSegment(d, b)}
				key := c.Outward.Hash + "/" + c.Return.Hash
				if seen[key] {
					continue
				}
				seen[key] = true
				out = append(out, c)
			}
		}
	}
	return out
}

type segmentSet struct {
	seen map[string]bool
	list []model.Segment
}

func (s *segmentSet) add(seg model.Segment) {
	if s.seen == nil {
		s.seen = map[string]bool{}
	}
	if s.seen[seg.Hash] {
		return
	}
	s.seen[seg.Hash] = true
	s.list = append(s.list, seg)
}

// UniqueSegments returns the distinct legs of one-way candidates in first-seen order.
func UniqueSegments(cands []model.OneWayCandidate) []model.Segment {
	var s segmentSet
	for _, c := range cands {
		s.add(c.First)
		if c.Second != nil {
			s.add(*c.Second)
		}
	}
	return s.list
}

// UniqueRoundTripSegments returns the distinct legs of round-trip candidates.
func UniqueRoundTripSegments(cands []model.RoundTripCandidate) []model.Segment {
	var s segmentSet
	for _, c := range cands {
		s.add(c.Outward)
		s.add(c.Return)
	}
	return s.list
}

// EstimateSeconds is the expected checking time for n unique segments.
func EstimateSeconds(n int) int {
	return n*secondsPerCheck*datesPerSegment + setupSeconds
}

// EstimateCheckingTime renders EstimateSeconds as "1 hour, 2 minutes, 40 seconds".
func EstimateCheckingTime(n int) string {
	return flighttime.FormatSeconds(EstimateSeconds(n))
}

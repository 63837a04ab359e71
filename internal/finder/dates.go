package finder

import (
	"errors"
	"fmt"
	"time"

	"aycf/internal/flighttime"
	"aycf/internal/model"
)

// WindowDays is how many consecutive dates the airline sells AYCF seats for.
const WindowDays = 4

// ErrDateOutOfWindow rejects departure dates outside today .. today+3.
var ErrDateOutOfWindow = errors.New("departure date outside the booking window")

// Check is one availability request: a segment on a civil date.
type Check struct {
	Segment model.Segment
	Date    string
}

// Key identifies a check for caching and deduplication.
func (c Check) Key() string { return c.Segment.Hash + "@" + c.Date }

// Plan is the ordered set of checks a search needs. Gated checks are only
// worth running when a first leg feeding them had availability.
type Plan struct {
	Checks []Check
	Gated  []Check

	feeders map[string][]string
}

// ValidateDepartureDate accepts an empty date or one within the window.
func ValidateDepartureDate(date string, now time.Time) error {
	if date == "" {
		return nil
	}
	d, err := flighttime.ParseDate(date)
	if err != nil {
		return err
	}
	today := flighttime.Today(now)
	if d.Before(today) || d.After(today.AddDate(0, 0, WindowDays-1)) {
		return fmt.Errorf("%w: %s", ErrDateOutOfWindow, date)
	}
	return nil
}

// ClampDepartureDate moves a departure date that has already passed to
// today. A search queued yesterday for yesterday still runs, over the
// dates that remain bookable.
func ClampDepartureDate(date string, now time.Time) (string, error) {
	if date == "" {
		return "", nil
	}
	d, err := flighttime.ParseDate(date)
	if err != nil {
		return "", err
	}
	today := flighttime.Today(now)
	if d.Before(today) {
		return today.Format(flighttime.DateLayout), nil
	}
	return date, nil
}

func windowFrom(date string, now time.Time) ([]string, error) {
	start := flighttime.Today(now)
	if date != "" {
		d, err := flighttime.ParseDate(date)
		if err != nil {
			return nil, err
		}
		start = d
	}
	return flighttime.Window(start, WindowDays), nil
}

func crossChecks(segs []model.Segment, dates []string) []Check {
	out := make([]Check, 0, len(segs)*len(dates))
	for _, s := range segs {
		for _, d := range dates {
			out = append(out, Check{Segment: s, Date: d})
		}
	}
	return out
}

// OneWayPlan schedules checks for one-way candidates. Without a date every
// segment is checked on every window date. With a date first legs are
// checked on it and second legs on it and the day after, gated on the
// first leg.
func OneWayPlan(cands []model.OneWayCandidate, date string, now time.Time) (Plan, error) {
	if err := ValidateDepartureDate(date, now); err != nil {
		return Plan{}, err
	}
	if date == "" {
		dates, err := windowFrom("", now)
		if err != nil {
			return Plan{}, err
		}
		return Plan{Checks: crossChecks(UniqueSegments(cands), dates)}, nil
	}

	next, err := flighttime.AddDays(date, 1)
	if err != nil {
		return Plan{}, err
	}
	var first, second segmentSet
	feeders := map[string][]string{}
	for _, c := range cands {
		first.add(c.First)
		if c.Second == nil {
			continue
		}
		second.add(*c.Second)
		feeders[c.Second.Hash] = append(feeders[c.Second.Hash], c.First.Hash)
	}
	return Plan{
		Checks:  crossChecks(first.list, []string{date}),
		Gated:   crossChecks(second.list, []string{date, next}),
		feeders: feeders,
	}, nil
}

// RoundTripPlan checks every leg on the window starting at date, or today.
func RoundTripPlan(cands []model.RoundTripCandidate, date string, now time.Time) (Plan, error) {
	if err := ValidateDepartureDate(date, now); err != nil {
		return Plan{}, err
	}
	dates, err := windowFrom(date, now)
	if err != nil {
		return Plan{}, err
	}
	return Plan{Checks: crossChecks(UniqueRoundTripSegments(cands), dates)}, nil
}

// Unlocked returns the gated checks whose segment is fed by a first leg
// that available reports as having flights.
func (p Plan) Unlocked(available func(segmentHash string) bool) []Check {
	var out []Check
	for _, c := range p.Gated {
		for _, feeder := range p.feeders[c.Segment.Hash] {
			if available(feeder) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Size is the number of checks the plan may run.
func (p Plan) Size() int { return len(p.Checks) + len(p.Gated) }

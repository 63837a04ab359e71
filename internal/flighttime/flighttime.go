// Package flighttime holds the date and duration conventions shared by the
// finder, the availability client and the report renderer.
package flighttime

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the civil date format used on the wire and in storage.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD civil date at midnight UTC.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

// Today returns the civil date of now in UTC.
func Today(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays shifts a civil date string by n days.
func AddDays(date string, n int) (string, error) {
	d, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return d.AddDate(0, 0, n).Format(DateLayout), nil
}

// Window returns n consecutive civil dates starting at start.
func Window(start time.Time, n int) []string {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, start.AddDate(0, 0, i).Format(DateLayout))
	}
	return out
}

// FormatHM renders a duration as "03h 05m". Negative durations use their magnitude.
func FormatHM(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	total := int(d / time.Minute)
	return fmt.Sprintf("%02dh %02dm", total/60, total%60)
}

// ParseHM parses "3h 25m", "03h 05m" or "45m".
func ParseHM(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	var total time.Duration
	for _, part := range strings.Fields(s) {
		unit := part[len(part)-1]
		n, err := strconv.Atoi(part[:len(part)-1])
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		switch unit {
		case 'h':
			total += time.Duration(n) * time.Hour
		case 'm':
			total += time.Duration(n) * time.Minute
		default:
			return 0, fmt.Errorf("invalid duration unit in %q", s)
		}
	}
	return total, nil
}

// FormatSeconds renders seconds as "1 day, 2 hours, 3 minutes, 4 seconds",
// omitting zero parts.
func FormatSeconds(seconds int) string {
	parts := []struct {
		size int
		name string
	}{
		{24 * 3600, "day"},
		{3600, "hour"},
		{60, "minute"},
		{1, "second"},
	}
	var out []string
	for _, p := range parts {
		n := seconds / p.size
		seconds %= p.size
		if n == 0 {
			continue
		}
		unit := p.name
		if n > 1 {
			unit += "s"
		}
		out = append(out, fmt.Sprintf("%d %s", n, unit))
	}
	return strings.Join(out, ", ")
}

// ParseOffset parses offset texts such as "UTC +2", "UTC+05:30" or "UTC -3"
// into a fixed zone. An empty string yields UTC.
func ParseOffset(s string) (*time.Location, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "UTC"))
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return time.UTC, nil
	}
	sign := 1
	switch s[0] {
	case '+':
		s = s[1:]
	case '-':
		sign = -1
		s = s[1:]
	}
	hours, minutes := s, "0"
	if i := strings.IndexByte(s, ':'); i >= 0 {
		hours, minutes = s[:i], s[i+1:]
	}
	h, err := strconv.Atoi(hours)
	if err != nil {
		return nil, fmt.Errorf("invalid utc offset %q: %w", s, err)
	}
	m, err := strconv.Atoi(minutes)
	if err != nil {
		return nil, fmt.Errorf("invalid utc offset %q: %w", s, err)
	}
	secs := sign * (h*3600 + m*60)
	return time.FixedZone(formatZone(secs), secs), nil
}

func formatZone(secs int) string {
	sign := "+"
	if secs < 0 {
		sign = "-"
		secs = -secs
	}
	if secs%3600 == 0 {
		return fmt.Sprintf("UTC%s%d", sign, secs/3600)
	}
	return fmt.Sprintf("UTC%s%d:%02d", sign, secs/3600, secs%3600/60)
}

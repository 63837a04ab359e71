package routes

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

// Period is the departure period the published network covers.
type Period struct {
	Start    time.Time `yaml:"start"`
	End      time.Time `yaml:"end"`
	Timezone string    `yaml:"timezone"`
}

// Run is when the airline generated the network.
type Run struct {
	Time     time.Time `yaml:"time"`
	Timezone string    `yaml:"timezone"`
}

// Snapshot is the route network as published: departure city to arrival cities.
type Snapshot struct {
	Connections     map[string][]string `yaml:"connections"`
	DeparturePeriod Period              `yaml:"departure_period"`
	LastRun         Run                 `yaml:"last_run"`
	LastParsed      time.Time           `yaml:"last_parsed"`
}

// LoadSnapshot reads a YAML snapshot. A missing file is an empty snapshot.
func LoadSnapshot(path string) (*Snapshot, error) {
	s := &Snapshot{Connections: map[string][]string{}}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read route snapshot: %w", err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse route snapshot: %w", err)
	}
	if s.Connections == nil {
		s.Connections = map[string][]string{}
	}
	return s, nil
}

// SaveSnapshot writes the snapshot atomically.
func SaveSnapshot(path string, s *Snapshot) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode route snapshot: %w", err)
	}
	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending snapshot: %w", err)
	}
	defer pending.Cleanup() //nolint:errcheck

	if _, err := pending.Write(data); err != nil {
		return fmt.Errorf("write route snapshot: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace route snapshot: %w", err)
	}
	return nil
}

// ImportTable reads the extracted availability table, a CSV with
// "Departure City" and "Arrival City" columns, into a snapshot stamped with now.
func ImportTable(r io.Reader, now time.Time) (*Snapshot, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("route table: read header: %w", err)
	}
	dep, arr := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case "Departure City":
			dep = i
		case "Arrival City":
			arr = i
		}
	}
	if dep < 0 || arr < 0 {
		return nil, fmt.Errorf("route table: need \"Departure City\" and \"Arrival City\" columns")
	}

	s := &Snapshot{Connections: map[string][]string{}, LastParsed: now}
	seen := map[string]map[string]bool{}
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("route table: %w", err)
		}
		from, to := strings.TrimSpace(rec[dep]), strings.TrimSpace(rec[arr])
		if from == "" || to == "" {
			continue
		}
		if seen[from] == nil {
			seen[from] = map[string]bool{}
		}
		if seen[from][to] {
			continue
		}
		seen[from][to] = true
		s.Connections[from] = append(s.Connections[from], to)
	}
	return s, nil
}

// publishHour is when the airline republishes the network, Berlin time.
const publishHour = 7

// NeedsRefresh reports whether a 07:00 Europe/Berlin has passed since lastParsed.
func NeedsRefresh(lastParsed, now time.Time) bool {
	if lastParsed.IsZero() {
		return true
	}
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		loc = time.UTC
	}
	lp := lastParsed.In(loc)
	next := time.Date(lp.Year(), lp.Month(), lp.Day(), publishHour, 0, 0, 0, loc)
	if lp.Hour() >= publishHour {
		next = time.Date(lp.Year(), lp.Month(), lp.Day()+1, publishHour, 0, 0, 0, loc)
	}
	return !now.Before(next)
}

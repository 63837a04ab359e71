// Package report renders search results as a standalone HTML page.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"aycf/internal/flighttime"
	"aycf/internal/model"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

var tmpl = template.Must(template.New("report.html.tmpl").Funcs(template.FuncMap{
	"hm": flighttime.FormatHM,
	"clock": func(t time.Time) string {
		return t.Format("15:04")
	},
	"stamp": func(t time.Time) string {
		return t.UTC().Format("2006-01-02 15:04 UTC")
	},
}).ParseFS(templateFS, "templates/report.html.tmpl"))

// Data is everything a report shows.
type Data struct {
	JobID        string
	TripType     model.TripType
	Departures   []string
	Destinations []string
	OneWay       []model.OneWayItinerary
	RoundTrip    []model.RoundTripItinerary
	GeneratedAt  time.Time
}

// Count is the number of itineraries in the report.
func (d Data) Count() int {
	if d.TripType == model.TripRoundTrip {
		return len(d.RoundTrip)
	}
	return len(d.OneWay)
}

// Render writes the HTML report to w.
func Render(w io.Writer, d Data) error {
	if err := tmpl.Execute(w, d); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

// RenderBytes renders the report into memory.
func RenderBytes(d Data) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

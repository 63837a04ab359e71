package routes

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Airport is one row of the airport catalog.
type Airport struct {
	IATA      string
	ICAO      string
	Name      string
	City      string
	Latitude  float64
	Longitude float64
}

// Catalog resolves the city names used by the route table to IATA codes.
type Catalog struct {
	airports []Airport
	byIATA   map[string]Airport
	aliases  map[string]string
}

var requiredColumns = []string{"iata", "airport", "city"}

// LoadCatalog reads an airport CSV with a header row. Rows without an IATA
// code are dropped and the first row wins for duplicate codes.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("airport catalog: missing header")
		}
		return nil, fmt.Errorf("airport catalog: read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("airport catalog: missing column %q", c)
		}
	}

	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	c := &Catalog{byIATA: make(map[string]Airport), aliases: map[string]string{}}
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("airport catalog: %w", err)
		}
		code := strings.ToUpper(field(rec, "iata"))
		if code == "" {
			continue
		}
		if _, dup := c.byIATA[code]; dup {
			continue
		}
		a := Airport{
			IATA: code,
			ICAO: field(rec, "icao"),
			Name: field(rec, "airport"),
			City: field(rec, "city"),
		}
		a.Latitude, _ = strconv.ParseFloat(field(rec, "latitude"), 64)
		a.Longitude, _ = strconv.ParseFloat(field(rec, "longitude"), 64)
		c.airports = append(c.airports, a)
		c.byIATA[code] = a
	}
	return c, nil
}

// LoadCatalogFile opens path and calls LoadCatalog.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open airport catalog: %w", err)
	}
	defer f.Close()
	return LoadCatalog(f)
}

// LoadAliases reads a YAML map of route table names to catalog names.
// A missing file yields no aliases.
func LoadAliases(path string) (map[string]string, error) {
	out := map[string]string{}
	if path == "" {
		return out, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read aliases: %w", err)
	}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse aliases: %w", err)
	}
	return out, nil
}

// WithAliases sets the special-case name map consulted when a direct match fails.
func (c *Catalog) WithAliases(aliases map[string]string) *Catalog {
	c.aliases = aliases
	return c
}

// Len returns the number of airports in the catalog.
func (c *Catalog) Len() int { return len(c.airports) }

// Lookup returns the catalog row for an IATA code.
func (c *Catalog) Lookup(code string) (Airport, bool) {
	a, ok := c.byIATA[strings.ToUpper(code)]
	return a, ok
}

// Match resolves a display name to IATA codes: exact city, then exact
// airport name, then airport name substring. Aliases are tried when all fail.
func (c *Catalog) Match(name string) []string {
	if codes := c.match(name); len(codes) > 0 {
		return codes
	}
	if alias, ok := c.aliases[name]; ok {
		return c.match(alias)
	}
	return nil
}

func (c *Catalog) match(name string) []string {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil
	}
	matchers := []func(Airport) bool{
		func(a Airport) bool { return strings.ToLower(a.City) == needle },
		func(a Airport) bool { return strings.ToLower(a.Name) == needle },
		func(a Airport) bool { return strings.Contains(strings.ToLower(a.Name), needle) },
	}
	for _, m := range matchers {
		var codes []string
		for _, a := range c.airports {
			if m(a) {
				codes = append(codes, a.IATA)
			}
		}
		if len(codes) > 0 {
			return codes
		}
	}
	return nil
}

package routes

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/dominikbraun/graph"
	"gopkg.in/yaml.v3"
)

// UnresolvedError lists route table names that matched no catalog airport.
type UnresolvedError struct {
	Names []string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("no airport match for %s", strings.Join(e.Names, ", "))
}

// Graph is the directed AYCF route network keyed by IATA code.
type Graph struct {
	g        graph.Graph[string, string]
	adj      map[string][]string
	airports []string
	snapshot *Snapshot
}

// LoadKnownRoutes reads a YAML map of IATA origin to IATA destinations.
// A missing path yields no filter.
func LoadKnownRoutes(path string) (map[string][]string, error) {
	out := map[string][]string{}
	if path == "" {
		return out, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read known routes: %w", err)
	}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse known routes: %w", err)
	}
	return out, nil
}

// Build resolves the snapshot's city names through the catalog and builds
// the network. With a non-empty knownRoutes an edge A->B survives only when
// B is listed under A.
func Build(s *Snapshot, catalog *Catalog, knownRoutes map[string][]string) (*Graph, error) {
	resolved := map[string][]string{}
	var unresolved []string
	resolve := func(name string) {
		if _, ok := resolved[name]; ok {
			return
		}
		codes := catalog.Match(name)
		resolved[name] = codes
		if len(codes) == 0 {
			unresolved = append(unresolved, name)
		}
	}
	for dep, arrs := range s.Connections {
		resolve(dep)
		for _, a := range arrs {
			resolve(a)
		}
	}
	if len(unresolved) > 0 {
		sort.Strings(unresolved)
		return nil, &UnresolvedError{Names: unresolved}
	}

	var allowed map[string]map[string]bool
	if len(knownRoutes) > 0 {
		allowed = make(map[string]map[string]bool, len(knownRoutes))
		for from, tos := range knownRoutes {
			set := make(map[string]bool, len(tos))
			for _, to := range tos {
				set[to] = true
			}
			allowed[from] = set
		}
	}

	g := graph.New(graph.StringHash, graph.Directed())
	addVertex := func(code string) error {
		if err := g.AddVertex(code); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return fmt.Errorf("add airport %s: %w", code, err)
		}
		return nil
	}
	for dep, arrs := range s.Connections {
		for _, from := range resolved[dep] {
			for _, arr := range arrs {
				for _, to := range resolved[arr] {
					if from == to {
						continue
					}
					if allowed != nil && !allowed[from][to] {
						continue
					}
					if err := addVertex(from); err != nil {
						return nil, err
					}
					if err := addVertex(to); err != nil {
						return nil, err
					}
					if err := g.AddEdge(from, to); err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
						return nil, fmt.Errorf("add route %s-%s: %w", from, to, err)
					}
				}
			}
		}
	}
	return newGraph(g, s)
}

// FromCodes builds a network directly from IATA adjacency, for networks
// that need no name resolution.
func FromCodes(conns map[string][]string) (*Graph, error) {
	g := graph.New(graph.StringHash, graph.Directed())
	for from, tos := range conns {
		if err := g.AddVertex(from); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return nil, fmt.Errorf("add airport %s: %w", from, err)
		}
		for _, to := range tos {
			if to == from {
				continue
			}
			if err := g.AddVertex(to); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
				return nil, fmt.Errorf("add airport %s: %w", to, err)
			}
			if err := g.AddEdge(from, to); err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
				return nil, fmt.Errorf("add route %s-%s: %w", from, to, err)
			}
		}
	}
	return newGraph(g, &Snapshot{Connections: conns})
}

func newGraph(g graph.Graph[string, string], s *Snapshot) (*Graph, error) {
	adjacency, err := g.AdjacencyMap()
	if err != nil {
		return nil, fmt.Errorf("route adjacency: %w", err)
	}
	out := &Graph{g: g, adj: make(map[string][]string, len(adjacency)), snapshot: s}
	for from, edges := range adjacency {
		out.airports = append(out.airports, from)
		if len(edges) == 0 {
			continue
		}
		tos := make([]string, 0, len(edges))
		for to := range edges {
			tos = append(tos, to)
		}
		sort.Strings(tos)
		out.adj[from] = tos
	}
	sort.Strings(out.airports)
	return out, nil
}

// Empty returns a network without airports.
func Empty() *Graph {
	return &Graph{adj: map[string][]string{}, snapshot: &Snapshot{Connections: map[string][]string{}}}
}

// Airports returns every airport in the network, sorted.
func (g *Graph) Airports() []string {
	return append([]string(nil), g.airports...)
}

// Departures returns the airports with at least one outgoing route, sorted.
func (g *Graph) Departures() []string {
	out := make([]string, 0, len(g.adj))
	for from := range g.adj {
		out = append(out, from)
	}
	sort.Strings(out)
	return out
}

// Destinations returns the direct destinations of code, sorted.
func (g *Graph) Destinations(code string) []string {
	return append([]string(nil), g.adj[code]...)
}

// HasRoute reports whether a direct route from -> to exists.
func (g *Graph) HasRoute(from, to string) bool {
	for _, d := range g.adj[from] {
		if d == to {
			return true
		}
	}
	return false
}

// HasAirport reports whether code appears in the network.
func (g *Graph) HasAirport(code string) bool {
	i := sort.SearchStrings(g.airports, code)
	return i < len(g.airports) && g.airports[i] == code
}

// Snapshot returns the snapshot the graph was built from.
func (g *Graph) Snapshot() *Snapshot { return g.snapshot }

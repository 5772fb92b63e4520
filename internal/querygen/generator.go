// Package querygen generates random connected conjunctive queries for
// profiling and fuzz-style tests.
package querygen

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"

	"github.com/roach88/cqdecomp/internal/ir"
)

// Config describes the query to generate.
type Config struct {
	Name   string
	Edges  int
	Free   int
	Labels int
	Seed   int64
}

// ErrUnsatisfiable is returned when no duplicate-free edge could be placed.
var ErrUnsatisfiable = errors.New("querygen: could not place a distinct edge")

// maxAttempts bounds retries per edge before giving up.
const maxAttempts = 64

// Validate rejects configurations that cannot yield a connected query.
func (c Config) Validate() error {
	switch {
	case c.Edges < 1 || c.Edges > ir.MaxEdges:
		return fmt.Errorf("querygen: edges must be in [1, %d], got %d", ir.MaxEdges, c.Edges)
	case c.Labels < 1:
		return fmt.Errorf("querygen: labels must be positive, got %d", c.Labels)
	case c.Free < 0 || c.Free > c.Edges+1:
		return fmt.Errorf("querygen: free must be in [0, %d], got %d", c.Edges+1, c.Free)
	}
	return nil
}

// Generate builds a connected query. Free variables are named F0, F1, ...,
// bound ones B0, B1, ... and labels r0, r1, .... Every new edge touches a
// variable that is already connected; its other end is the same variable, an
// existing one, the next pending free variable, or a fresh bound one. The
// same seed always yields the same query.
func Generate(cfg Config, logger *slog.Logger) (*ir.Query, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	g := &generation{
		cfg:  cfg,
		rng:  rand.New(rand.NewPCG(uint64(cfg.Seed), uint64(cfg.Seed)^0x9e3779b97f4a7c15)),
		seen: make(map[ir.Edge]bool),
	}
	for i := range cfg.Free {
		g.free = append(g.free, ir.VertexID("F"+strconv.Itoa(i)))
	}
	if len(g.free) > 0 {
		g.connected = append(g.connected, g.free[0])
		g.placedFree = 1
	} else {
		g.connected = append(g.connected, g.freshBound())
	}

	for i := range cfg.Edges {
		if err := g.addEdge(cfg.Edges - i); err != nil {
			return nil, fmt.Errorf("edge %d: %w", i, err)
		}
	}

	name := cfg.Name
	if name == "" {
		name = fmt.Sprintf("random-e%d-f%d-l%d-s%d", cfg.Edges, cfg.Free, cfg.Labels, cfg.Seed)
	}
	q, err := ir.NewQuery(name, g.edges, g.free)
	if err != nil {
		return nil, err
	}
	logger.Debug("random query generated",
		"name", name,
		"edges", len(q.Edges),
		"variables", q.VertexCount(),
	)
	return q, nil
}

type generation struct {
	cfg        Config
	rng        *rand.Rand
	free       []ir.VertexID
	placedFree int
	bound      int
	connected  []ir.VertexID
	edges      []ir.Edge
	seen       map[ir.Edge]bool
}

func (g *generation) freshBound() ir.VertexID {
	v := ir.VertexID("B" + strconv.Itoa(g.bound))
	g.bound++
	return v
}

const (
	targetSelf = iota
	targetExisting
	targetFree
	targetBound
	targetKinds
)

// addEdge places one edge; remaining counts this edge too.
func (g *generation) addEdge(remaining int) error {
	pending := len(g.free) - g.placedFree
	for range maxAttempts {
		source := g.connected[g.rng.IntN(len(g.connected))]

		kind := g.rng.IntN(targetKinds)
		if pending > 0 && (pending >= remaining || kind == targetFree) {
			kind = targetFree
		} else if kind == targetFree {
			kind = targetBound
		}

		var target ir.VertexID
		switch kind {
		case targetSelf:
			target = source
		case targetExisting:
			target = g.connected[g.rng.IntN(len(g.connected))]
		case targetFree:
			target = g.free[g.placedFree]
		default:
			target = ir.VertexID("B" + strconv.Itoa(g.bound))
		}

		e := ir.Edge{
			Source: source,
			Target: target,
			Label:  ir.Predicate("r" + strconv.Itoa(g.rng.IntN(g.cfg.Labels))),
		}
		if g.rng.IntN(2) == 1 {
			e.Source, e.Target = e.Target, e.Source
		}
		if g.seen[e] {
			continue
		}

		g.seen[e] = true
		g.edges = append(g.edges, e)
		switch kind {
		case targetFree:
			g.connected = append(g.connected, target)
			g.placedFree++
		case targetBound:
			g.connected = append(g.connected, g.freshBound())
		}
		return nil
	}
	return ErrUnsatisfiable
}

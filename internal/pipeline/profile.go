package pipeline

import (
	"context"
	"time"

	"github.com/roach88/cqdecomp/internal/engine"
	"github.com/roach88/cqdecomp/internal/ir"
)

// ProfileEntry is the measurement for one query.
type ProfileEntry struct {
	Query             string            `json:"query"`
	Edges             int               `json:"edges"`
	Elapsed           time.Duration     `json:"elapsed"`
	Counts            Counts            `json:"counts"`
	Catalogue         int               `json:"catalogue"`
	HasFinal          bool              `json:"has_final"`
	Cache             engine.CacheStats `json:"cache"`
	TerminationReason TerminationReason `json:"termination_reason,omitempty"`
}

// Profile aggregates entries over several queries.
type Profile struct {
	Entries []ProfileEntry    `json:"entries"`
	Elapsed time.Duration     `json:"elapsed"`
	Valid   int               `json:"valid"`
	Cache   engine.CacheStats `json:"cache"`
}

// ProfileQueries decomposes each query with the same options and records one entry per
// query. It stops at the first error.
func ProfileQueries(ctx context.Context, queries []*ir.Query, opts Options, options ...Option) (*Profile, error) {
	p := &Profile{}
	for _, q := range queries {
		res, err := Decompose(ctx, q, opts, options...)
		if err != nil {
			return p, err
		}
		p.add(res)
	}
	return p, nil
}

func (p *Profile) add(res *Result) {
	p.Entries = append(p.Entries, ProfileEntry{
		Query:             res.Query,
		Edges:             len(res.Edges),
		Elapsed:           res.Elapsed,
		Counts:            res.Counts,
		Catalogue:         len(res.Catalogue),
		HasFinal:          res.FinalExpression != nil,
		Cache:             res.Cache,
		TerminationReason: res.TerminationReason,
	})
	p.Elapsed += res.Elapsed
	p.Cache = p.Cache.Add(res.Cache)
	if res.HasValidPartition() {
		p.Valid++
	}
}

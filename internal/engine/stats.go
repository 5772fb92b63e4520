package engine

import "sync/atomic"

// CacheStats is a snapshot of memo lookups.
type CacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// Lookups returns the total number of lookups.
func (s CacheStats) Lookups() int64 {
	return s.Hits + s.Misses
}

// HitRate returns hits per lookup, or 0 when nothing was looked up.
func (s CacheStats) HitRate() float64 {
	if s.Lookups() == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Lookups())
}

// Add combines two snapshots.
func (s CacheStats) Add(o CacheStats) CacheStats {
	return CacheStats{Hits: s.Hits + o.Hits, Misses: s.Misses + o.Misses}
}

type cacheCounters struct {
	hits   atomic.Int64
	misses atomic.Int64
}

func (c *cacheCounters) snapshot() CacheStats {
	return CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// Package ir provides the graph model shared by every stage of the
// decomposition pipeline.
//
// This package contains value types and pure helpers only. All other
// internal packages import ir; ir imports nothing internal. This keeps
// the model at the bottom of the dependency graph.
//
// Key constraints:
//   - Edge sets are single-word bit vectors indexed by edge ordinal (MaxEdges)
//   - Components and partitions are immutable once generated
//   - Canonical JSON (RFC 8785) is the only serialization used for hashing
//   - All JSON tags use snake_case
package ir

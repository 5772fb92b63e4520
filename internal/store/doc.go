// Package store provides SQLite-backed run history for decompositions.
//
// A saved run holds:
//   - Runs: the query, its options, partition counts, the final expression
//     and the termination reason
//   - Rules: the rule catalogue and the whole-query rules, in result order
//   - Diagnostics: every structural rejection recorded during the run
//
// Listings are ordered by created_at DESC, id COLLATE BINARY DESC so equal
// timestamps still sort deterministically.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Query and rule fingerprints come from internal/ir/hash.go (RFC 8785
// canonical JSON, SHA-256 with domain separation).
package store

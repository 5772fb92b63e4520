// Package engine implements the rule synthesizer: given a subset of a query's
// edges, it derives every CPQ expression that covers exactly that subset,
// together with the query variables the expression starts and ends at.
//
// ARCHITECTURE:
//
// Synthesis is recursive over edge subsets:
//  1. A single edge yields its forward and inverse labels plus the two
//     backtracking loops (edge there and back, anchored with id).
//  2. A larger subset whose requested join nodes number at most one is
//     tried as a loop: a depth-first walk from each vertex that crosses
//     every edge there and back.
//  3. Every split of the subset into two non-empty halves combines the
//     halves' rules by concatenation (shared middle vertex) and by
//     intersection (shared endpoints).
//
// Every raw candidate is then anchored (a rule that starts and ends at the
// same variable but is not syntactically a loop is intersected with id),
// capped by diameter, checked for well-formedness, and matched back against
// the concrete edges it claims to cover. One rule is kept per ComponentKey;
// the first one discovered wins.
//
// Results are memoized per (edge subset, local join nodes). The memo is safe
// for concurrent use: lookups take a read lock and derivations of the same key
// are collapsed with singleflight.
//
// Per partition, the synthesized rules of each component are filtered by the
// roles its join nodes play and ordered by the preferred orientation derived
// from the query's free variables (see AnalyzeComponent).
package engine

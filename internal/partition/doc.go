// Package partition enumerates the ways to cover a query's edges with
// connected, pairwise-disjoint components and filters them by how many join
// nodes each component needs.
//
// Generation is exhaustive up to an optional cap. Every set partition is
// produced once: the component holding the lowest remaining edge is chosen
// first, and a canonical signature check guards against duplicates.
// Results are ordered by (largest component size, how many components have
// that size, signature), so balanced decompositions come first.
package partition

// Package relgraph maintains the relationship graph between imported tables.
//
// Edges are undirected: (A.x, B.y) and (B.y, A.x) are the same relationship.
// EdgesEqual is the single identity predicate; detection, deduplication,
// membership and join-path lookup all go through it. Only confirmed edges
// take part in joins.
package relgraph

import "github.com/leapstack-labs/leapdash/pkg/core"

// unordered reports whether {a1, a2} and {b1, b2} are the same pair.
func unordered[T comparable](a1, a2, b1, b2 T) bool {
	return (a1 == b1 && a2 == b2) || (a1 == b2 && a2 == b1)
}

type endpoint struct{ table, col string }

// EdgesEqual reports whether a and b join the same pair of fields in either orientation.
// Type and cardinality are ignored.
func EdgesEqual(a, b core.Relationship) bool {
	return unordered(
		endpoint{a.Table1, a.Col1}, endpoint{a.Table2, a.Col2},
		endpoint{b.Table1, b.Col1}, endpoint{b.Table2, b.Col2},
	)
}

// Links reports whether r joins tables x and y, in either orientation.
func Links(r core.Relationship, x, y string) bool {
	return unordered(r.Table1, r.Table2, x, y)
}

// RelatedTables returns the tables directly reachable from base through a confirmed edge.
// base itself is not included.
func RelatedTables(base string, confirmed []core.Relationship) map[string]struct{} {
	out := make(map[string]struct{})
	for _, r := range confirmed {
		if !r.IsConfirmed() {
			continue
		}
		if _, other, _, ok := r.Other(base); ok && other != base {
			out[other] = struct{}{}
		}
	}
	return out
}

// contains reports whether edges holds an edge equal to r.
func contains(edges []core.Relationship, r core.Relationship) bool {
	for _, e := range edges {
		if EdgesEqual(e, r) {
			return true
		}
	}
	return false
}

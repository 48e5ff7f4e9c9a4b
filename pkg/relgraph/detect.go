package relgraph

import (
	"strings"
	"unicode"

	"github.com/leapstack-labs/leapdash/pkg/core"
)

// IdentifierMatcher decides whether a normalised column name looks like a key.
type IdentifierMatcher func(normalized string) bool

// DefaultIdentifierMatcher accepts names ending in "id" or containing "id_".
func DefaultIdentifierMatcher(normalized string) bool {
	return strings.HasSuffix(normalized, "id") || strings.Contains(normalized, "id_")
}

// DetectOptions configures relationship detection.
type DetectOptions struct {
	// Matcher overrides DefaultIdentifierMatcher.
	Matcher IdentifierMatcher
}

// NormalizeColumnName lowercases a column name and strips whitespace and hyphens.
func NormalizeColumnName(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' {
			return -1
		}
		return unicode.ToLower(r)
	}, name)
}

// DetectSuggested proposes one-to-many relationships between columns of
// different tables whose normalised names are equal and identifier-like.
// Candidates equal to a confirmed edge are excluded. The result is ordered by
// table pair, then column pair, following the order of schemas.
func DetectSuggested(schemas []core.TableSchema, confirmed []core.Relationship, opts DetectOptions) []core.Relationship {
	match := opts.Matcher
	if match == nil {
		match = DefaultIdentifierMatcher
	}

	var out []core.Relationship
	for i := 0; i < len(schemas); i++ {
		for j := i + 1; j < len(schemas); j++ {
			a, b := schemas[i], schemas[j]
			if a.Name == b.Name {
				continue
			}
			for _, ca := range a.Columns {
				na := NormalizeColumnName(ca.Name)
				if na == "" || !match(na) {
					continue
				}
				for _, cb := range b.Columns {
					if NormalizeColumnName(cb.Name) != na {
						continue
					}
					r := core.Relationship{
						Table1:      a.Name,
						Col1:        ca.Name,
						Table2:      b.Name,
						Col2:        cb.Name,
						Type:        core.RelationshipSuggested,
						Cardinality: core.OneToMany,
					}
					if contains(confirmed, r) || contains(out, r) {
						continue
					}
					out = append(out, r)
				}
			}
		}
	}
	return out
}

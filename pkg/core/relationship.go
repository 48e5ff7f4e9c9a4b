package core

import "fmt"

// =============================================================================
// Relationships
// =============================================================================

// RelationshipType distinguishes accepted join edges from heuristic candidates.
type RelationshipType string

// Relationship types.
const (
	RelationshipSuggested RelationshipType = "suggested"
	RelationshipConfirmed RelationshipType = "confirmed"
)

// Cardinality describes how rows on either side of an edge relate.
type Cardinality string

// Cardinality values.
const (
	OneToOne   Cardinality = "one-to-one"
	OneToMany  Cardinality = "one-to-many"
	ManyToMany Cardinality = "many-to-many"
)

// Relationship is an undirected join edge between two table columns.
// (A.x, B.y) and (B.y, A.x) denote the same edge.
type Relationship struct {
	Table1      string           `json:"table1" yaml:"table1"`
	Col1        string           `json:"col1" yaml:"col1"`
	Table2      string           `json:"table2" yaml:"table2"`
	Col2        string           `json:"col2" yaml:"col2"`
	Type        RelationshipType `json:"type" yaml:"type"`
	Cardinality Cardinality      `json:"cardinality" yaml:"cardinality"`
}

// IsConfirmed reports whether the edge may be used for joins.
func (r Relationship) IsConfirmed() bool {
	return r.Type == RelationshipConfirmed
}

// Touches reports whether either side of the edge is the given table.
func (r Relationship) Touches(table string) bool {
	return r.Table1 == table || r.Table2 == table
}

// Other returns the column on the given table and the opposite table/column.
// ok is false when the edge does not touch table.
func (r Relationship) Other(table string) (col, otherTable, otherCol string, ok bool) {
	switch table {
	case r.Table1:
		return r.Col1, r.Table2, r.Col2, true
	case r.Table2:
		return r.Col2, r.Table1, r.Col1, true
	}
	return "", "", "", false
}

// String returns "t1.c1 = t2.c2".
func (r Relationship) String() string {
	return fmt.Sprintf("%s.%s = %s.%s", r.Table1, r.Col1, r.Table2, r.Col2)
}

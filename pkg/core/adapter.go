package core

import "strings"

// =============================================================================
// Catalog
// =============================================================================

// Column represents a column in a table schema.
type Column struct {
	Name string `json:"name" yaml:"name"`
	// Type is the free-text SQL type label reported by the engine (e.g. "VARCHAR", "DATE").
	Type string `json:"type" yaml:"type"`
}

// TableSchema is an immutable snapshot of one table's columns.
type TableSchema struct {
	Name    string   `json:"name" yaml:"name"`
	Columns []Column `json:"columns" yaml:"columns"`
}

// Column looks up a column by name.
func (t TableSchema) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Column{}, false
}

// Catalog indexes table schemas by name.
type Catalog struct {
	tables map[string]TableSchema
	order  []string
}

// NewCatalog builds a catalog from a list of schemas. Later duplicates replace earlier ones.
func NewCatalog(schemas []TableSchema) Catalog {
	c := Catalog{tables: make(map[string]TableSchema, len(schemas))}
	for _, s := range schemas {
		if _, ok := c.tables[s.Name]; !ok {
			c.order = append(c.order, s.Name)
		}
		c.tables[s.Name] = s
	}
	return c
}

// Table returns the schema for a table.
func (c Catalog) Table(name string) (TableSchema, bool) {
	t, ok := c.tables[name]
	return t, ok
}

// ColumnType returns the type label of table.column, or "" if unknown.
func (c Catalog) ColumnType(table, column string) string {
	t, ok := c.tables[table]
	if !ok {
		return ""
	}
	col, ok := t.Column(column)
	if !ok {
		return ""
	}
	return col.Type
}

// Schemas returns the schemas in insertion order.
func (c Catalog) Schemas() []TableSchema {
	out := make([]TableSchema, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.tables[name])
	}
	return out
}

// Len returns the number of tables.
func (c Catalog) Len() int {
	return len(c.order)
}

// =============================================================================
// Query results
// =============================================================================

// Row is one result row keyed by column name.
// Values may be any integer or float width, string, bool, time.Time, or nil.
type Row map[string]any

// ResultSet is an ordered sequence of rows with the column order preserved.
type ResultSet struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Len returns the number of rows.
func (r *ResultSet) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// Empty reports whether the result has no rows.
func (r *ResultSet) Empty() bool {
	return r.Len() == 0
}

// Scalar returns the value of column in the first row.
func (r *ResultSet) Scalar(column string) (any, bool) {
	if r.Empty() {
		return nil, false
	}
	v, ok := r.Rows[0][column]
	return v, ok
}

// Package core defines the shared language of the leapdash system.
//
// This package contains:
//   - Catalog entities (TableSchema, Column, Catalog)
//   - Relationship edges between tables
//   - Widget data-source configuration (DataSource, ExtraFields, FieldRef)
//   - Query results (ResultSet, Row)
//   - The error taxonomy shared by the compiler, graph and engine
//
// The Golden Rule: pkg/core imports ONLY stdlib (plus yaml.v3 and mapstructure for decoding).
// All other packages depend on core, not the reverse.
package core

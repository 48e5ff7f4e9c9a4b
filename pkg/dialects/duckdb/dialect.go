// Package duckdb provides the DuckDB SQL dialect definition.
// This package is pure Go with no database driver dependencies.
package duckdb

import "github.com/leapstack-labs/leapdash/pkg/dialect"

// DuckDB is the DuckDB dialect configuration.
var DuckDB = &dialect.Dialect{
	Name: "duckdb",
	Identifiers: dialect.IdentifierConfig{
		Quote:    `"`,
		QuoteEnd: `"`,
		Escape:   `""`,
	},
	DefaultSchema: "main",
	TextType:      "VARCHAR",
	NumericType:   "DOUBLE",
	IntegerType:   "BIGINT",
	TimestampType: "TIMESTAMP",
}

func init() {
	dialect.Register(DuckDB)
}

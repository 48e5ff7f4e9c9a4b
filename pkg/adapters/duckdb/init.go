package duckdb

import (
	"log/slog"

	"github.com/leapstack-labs/leapdash/pkg/adapter"
)

// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/leapdash/pkg/adapters/duckdb"
func init() {
	adapter.Register(adapter.Engine{
		Name:        "duckdb",
		Description: "embedded DuckDB (file or in-memory), CSV and XLSX import",
		New:         func(logger *slog.Logger) adapter.Adapter { return New(logger) },
	})
}

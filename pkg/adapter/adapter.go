// Package adapter defines the SQL engine contract used by the dashboard.
//
// An Adapter owns a database handle; every operation runs in a Session that
// the caller acquires with Connect and closes when done. Concrete adapters
// live in pkg/adapters/ subdirectories and register themselves on import.
package adapter

import (
	"context"

	"github.com/leapstack-labs/leapdash/pkg/core"
)

// Config holds the settings an adapter is opened with.
type Config struct {
	// Type selects the registered adapter, e.g. "duckdb".
	Type string `mapstructure:"type"`
	// Path is the database file. Empty means an in-memory database.
	Path string `mapstructure:"path"`
	// Schema is the working schema used for catalog introspection.
	Schema string `mapstructure:"schema"`
	// Params carries adapter-specific settings.
	Params map[string]any `mapstructure:"params"`
}

// Adapter is a SQL engine.
type Adapter interface {
	// Open prepares the underlying database handle.
	Open(ctx context.Context, cfg Config) error

	// Connect acquires a fresh session. The caller must close it.
	Connect(ctx context.Context) (Session, error)

	// Close releases the database handle.
	Close() error

	// IsConnected reports whether Open has succeeded and Close has not run.
	IsConnected() bool

	// DialectName names the registered dialect used to quote SQL for this engine.
	DialectName() string
}

// Session is a connection scope. Sessions are not safe for concurrent use.
type Session interface {
	// Query runs a statement that returns rows. Engine failures are
	// reported as *core.QueryExecutionError.
	Query(ctx context.Context, sql string) (*core.ResultSet, error)

	// Exec runs a statement that returns no rows.
	Exec(ctx context.Context, sql string) error

	// Close returns the session's connection.
	Close() error
}

// WithSession runs fn in a fresh session and closes it on every exit path.
func WithSession(ctx context.Context, a Adapter, fn func(Session) error) error {
	s, err := a.Connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()
	return fn(s)
}

// Loader is implemented by adapters that can ingest files.
type Loader interface {
	LoadCSV(ctx context.Context, table, path string) error
	LoadXLSX(ctx context.Context, table, path, sheet string) error
}

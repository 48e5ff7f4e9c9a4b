// Package engine renders dashboard widgets.
//
// It wires the compiler, the SQL engine adapter, the chart builder, the
// figure adapter and the filter engine together: a widget's data source is
// compiled against the current catalog and confirmed relationships, executed
// in a fresh session, shaped into a chart spec and normalised into a figure,
// which active filters then restrict.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/leapdash/pkg/adapter"
	"github.com/leapstack-labs/leapdash/pkg/compiler"
	"github.com/leapstack-labs/leapdash/pkg/core"
	"github.com/leapstack-labs/leapdash/pkg/dialect"
	"github.com/leapstack-labs/leapdash/pkg/figure"
	"github.com/leapstack-labs/leapdash/pkg/filter"
	"github.com/leapstack-labs/leapdash/pkg/relgraph"
)

// DefaultConcurrency bounds RenderAll when Config.Concurrency is unset.
const DefaultConcurrency = 4

// Engine renders widgets against one database.
type Engine struct {
	// Database adapter and its dialect, set on first use. Guarded by dbMu.
	db       adapter.Adapter
	dbConfig adapter.Config
	dialect  *dialect.Dialect
	dbMu     sync.Mutex

	catalogMu sync.RWMutex
	catalog   core.Catalog
	hasCat    bool

	graph       *relgraph.Graph
	filters     *filter.Engine
	versions    filter.Versions
	theme       figure.Theme
	rawLimit    int
	concurrency int

	logger *slog.Logger
}

// Config holds engine configuration.
type Config struct {
	// AdapterConfig selects and opens the SQL engine. Type defaults to duckdb.
	AdapterConfig adapter.Config
	// Adapter overrides the registry lookup; it must already be open.
	Adapter adapter.Adapter
	// Graph holds the dashboard relationships. A new empty graph is used if nil.
	Graph *relgraph.Graph
	// Filters is the dashboard filter state. A new engine is used if nil.
	Filters *filter.Engine
	// Theme colours rendered figures.
	Theme figure.Theme
	// RawRowLimit caps ungrouped queries (0 uses the compiler default).
	RawRowLimit int
	// Concurrency bounds RenderAll.
	Concurrency int
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New creates an engine. The database is only opened on first use.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	dbConfig := cfg.AdapterConfig
	if dbConfig.Type == "" {
		dbConfig.Type = "duckdb"
	}

	graph := cfg.Graph
	if graph == nil {
		graph = relgraph.NewGraph(nil, relgraph.WithLogger(logger))
	}
	filters := cfg.Filters
	if filters == nil {
		filters = filter.NewEngine(logger)
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	e := &Engine{
		dbConfig:    dbConfig,
		graph:       graph,
		filters:     filters,
		theme:       cfg.Theme,
		rawLimit:    cfg.RawRowLimit,
		concurrency: concurrency,
		logger:      logger,
	}
	if cfg.Adapter != nil {
		e.db = cfg.Adapter
	}
	return e
}

// connection lazily creates and opens the database and resolves its
// dialect. Both are returned so callers never read the fields unlocked.
func (e *Engine) connection(ctx context.Context) (adapter.Adapter, *dialect.Dialect, error) {
	e.dbMu.Lock()
	defer e.dbMu.Unlock()

	if e.db == nil {
		e.logger.Debug("creating database adapter", "adapter_type", e.dbConfig.Type)
		db, err := adapter.NewAdapter(e.dbConfig, e.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create database adapter: %w", err)
		}
		e.db = db
	}
	if !e.db.IsConnected() {
		if err := e.db.Open(ctx, e.dbConfig); err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		e.dialect = nil
	}

	if e.dialect == nil {
		d, err := dialect.Resolve(e.db.DialectName())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resolve dialect for engine %q: %w", e.dbConfig.Type, err)
		}
		e.dialect = d
		e.logger.Debug("database connected", "dialect", d.Name)
	}
	return e.db, e.dialect, nil
}

// withSession runs fn in a fresh session on the connected database.
func (e *Engine) withSession(ctx context.Context, fn func(adapter.Session, *dialect.Dialect) error) error {
	db, d, err := e.connection(ctx)
	if err != nil {
		return err
	}
	return adapter.WithSession(ctx, db, func(s adapter.Session) error { return fn(s, d) })
}

// Close releases the database.
func (e *Engine) Close() error {
	e.logger.Debug("closing engine")

	e.dbMu.Lock()
	defer e.dbMu.Unlock()
	if e.db == nil {
		return nil
	}
	err := e.db.Close()
	e.db = nil
	e.dialect = nil
	return err
}

// --- Getters (public accessors) ---

// Graph returns the relationship graph.
func (e *Engine) Graph() *relgraph.Graph {
	return e.graph
}

// Filters returns the filter state.
func (e *Engine) Filters() *filter.Engine {
	return e.filters
}

// Dialect returns the dialect of the connected database.
func (e *Engine) Dialect(ctx context.Context) (*dialect.Dialect, error) {
	_, d, err := e.connection(ctx)
	return d, err
}

// Compiler returns a compiler over the current catalog and relationships.
func (e *Engine) Compiler(ctx context.Context) (*compiler.Compiler, error) {
	d, err := e.Dialect(ctx)
	if err != nil {
		return nil, err
	}
	cat, err := e.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return &compiler.Compiler{
		Dialect: d,
		Catalog: cat,
		Graph:   e.graph,
		Options: compiler.Options{RawRowLimit: e.rawLimit},
		Logger:  e.logger,
	}, nil
}

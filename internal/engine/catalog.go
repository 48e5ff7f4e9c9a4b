package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapdash/pkg/adapter"
	"github.com/leapstack-labs/leapdash/pkg/core"
	"github.com/leapstack-labs/leapdash/pkg/dialect"
)

// Catalog returns the cached catalog snapshot, loading it on first use.
func (e *Engine) Catalog(ctx context.Context) (core.Catalog, error) {
	e.catalogMu.RLock()
	if e.hasCat {
		cat := e.catalog
		e.catalogMu.RUnlock()
		return cat, nil
	}
	e.catalogMu.RUnlock()
	return e.RefreshCatalog(ctx)
}

// RefreshCatalog re-reads every table schema and refreshes the suggested
// relationships from it.
func (e *Engine) RefreshCatalog(ctx context.Context) (core.Catalog, error) {
	var cat core.Catalog
	err := e.withSession(ctx, func(s adapter.Session, d *dialect.Dialect) error {
		var err error
		cat, err = adapter.LoadCatalog(ctx, s, d, e.dbConfig.Schema)
		return err
	})
	if err != nil {
		return core.Catalog{}, fmt.Errorf("failed to load catalog: %w", err)
	}

	e.catalogMu.Lock()
	e.catalog = cat
	e.hasCat = true
	e.catalogMu.Unlock()

	suggested := e.graph.RefreshSuggestions(cat.Schemas())
	e.logger.Debug("catalog refreshed",
		slog.Int("tables", cat.Len()),
		slog.Int("suggested", len(suggested)))
	return cat, nil
}

// Query runs ad-hoc SQL in a fresh session.
func (e *Engine) Query(ctx context.Context, sql string) (*core.ResultSet, error) {
	var rs *core.ResultSet
	err := e.withSession(ctx, func(s adapter.Session, _ *dialect.Dialect) error {
		var err error
		rs, err = s.Query(ctx, sql)
		return err
	})
	return rs, err
}

// Import loads a CSV or XLSX file into table and refreshes the catalog.
// sheet is only used for workbooks.
func (e *Engine) Import(ctx context.Context, table, path, sheet string, xlsx bool) error {
	db, _, err := e.connection(ctx)
	if err != nil {
		return err
	}
	loader, ok := db.(adapter.Loader)
	if !ok {
		return fmt.Errorf("adapter %q cannot import files", db.DialectName())
	}

	if xlsx {
		err = loader.LoadXLSX(ctx, table, path, sheet)
	} else {
		err = loader.LoadCSV(ctx, table, path)
	}
	if err != nil {
		return err
	}

	e.logger.Info("imported table", slog.String("table", table), slog.String("path", path))
	_, err = e.RefreshCatalog(ctx)
	return err
}

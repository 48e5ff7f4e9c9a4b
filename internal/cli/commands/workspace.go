package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdash/internal/config"
	"github.com/leapstack-labs/leapdash/internal/engine"
	"github.com/leapstack-labs/leapdash/internal/state"
	"github.com/leapstack-labs/leapdash/pkg/relgraph"
)

// workspace is the open dashboard a command works on: the state store, the
// dashboard row and an engine seeded with its relationships.
type workspace struct {
	cfg       *config.Config
	store     *state.SQLiteStore
	dashboard *state.Dashboard
	engine    *engine.Engine
	logger    *slog.Logger
}

// openWorkspace opens the state store and the configured dashboard,
// creating either if missing.
func openWorkspace(cmd *cobra.Command) (*workspace, error) {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	logger := config.Logger(ctx)

	if dir := filepath.Dir(cfg.StatePath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	d, err := store.GetDashboardByName(cfg.Dashboard)
	if errors.Is(err, state.ErrNotFound) {
		d, err = store.CreateDashboard(cfg.Dashboard)
	}
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	graph := relgraph.NewGraph(d.Relationships, relgraph.WithLogger(logger))
	eng := engine.New(engine.Config{
		AdapterConfig: cfg.AdapterConfig(),
		Graph:         graph,
		Theme:         cfg.FigureTheme(),
		RawRowLimit:   cfg.Query.RawRowLimit,
		Concurrency:   cfg.Query.Concurrency,
		Logger:        logger,
	})

	return &workspace{cfg: cfg, store: store, dashboard: d, engine: eng, logger: logger}, nil
}

// saveRelationships persists the confirmed edges of the dashboard.
func (w *workspace) saveRelationships() error {
	return w.store.SaveRelationships(w.dashboard.ID, w.engine.Graph().Confirmed())
}

// Close releases the engine and the store.
func (w *workspace) Close() error {
	return errors.Join(w.engine.Close(), w.store.Close())
}

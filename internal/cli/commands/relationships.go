package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdash/internal/config"
	"github.com/leapstack-labs/leapdash/pkg/core"
)

// NewRelationshipsCommand creates the relationships command group.
func NewRelationshipsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "relationships",
		Aliases: []string{"rel"},
		Short:   "Manage relationships between tables",
		Long: `Manage the relationships of the current dashboard.

Suggested relationships are detected from matching identifier column names
and never take part in joins until confirmed.`,
	}
	cmd.AddCommand(newRelListCommand(), newRelDetectCommand(), newRelConfirmCommand(), newRelRemoveCommand())
	return cmd
}

func newRelListCommand() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List confirmed relationships",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = ws.Close() }()

			edges := ws.engine.Graph().Confirmed()
			if all {
				if _, err := ws.engine.RefreshCatalog(cmd.Context()); err != nil {
					return err
				}
				edges = ws.engine.Graph().All()
			}
			return renderRelationships(cmd, ws.cfg, edges)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Include suggested relationships")
	return cmd
}

func newRelDetectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "detect",
		Short: "Detect suggested relationships from the catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = ws.Close() }()

			if _, err := ws.engine.RefreshCatalog(cmd.Context()); err != nil {
				return err
			}
			return renderRelationships(cmd, ws.cfg, ws.engine.Graph().Suggested())
		},
	}
}

func newRelConfirmCommand() *cobra.Command {
	var cardinality string
	cmd := &cobra.Command{
		Use:     "confirm <table.column> <table.column>",
		Short:   "Confirm a relationship so widgets can join through it",
		Example: `  leapdash relationships confirm Orders.customer_id Customers.id`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := parseEdge(args[0], args[1])
			if err != nil {
				return err
			}
			r.Cardinality = core.Cardinality(cardinality)

			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = ws.Close() }()

			cat, err := ws.engine.Catalog(cmd.Context())
			if err != nil {
				return err
			}
			for _, ref := range []core.FieldRef{{Table: r.Table1, Column: r.Col1}, {Table: r.Table2, Column: r.Col2}} {
				if cat.ColumnType(ref.Table, ref.Column) == "" {
					return core.NewValidationError("relationship", "unknown column %s", ref)
				}
			}

			ws.engine.Graph().Confirm(r)
			if err := ws.saveRelationships(); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "confirmed %s\n", r)
			return nil
		},
	}
	cmd.Flags().StringVar(&cardinality, "cardinality", string(core.OneToMany), "one-to-one|one-to-many|many-to-many")
	return cmd
}

func newRelRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <table.column> <table.column>",
		Short: "Remove a confirmed relationship",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := parseEdge(args[0], args[1])
			if err != nil {
				return err
			}

			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = ws.Close() }()

			if !ws.engine.Graph().Remove(r) {
				return fmt.Errorf("no relationship %s", r)
			}
			if err := ws.saveRelationships(); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", r)
			return nil
		},
	}
}

// parseEdge reads "Table.column" operands.
func parseEdge(a, b string) (core.Relationship, error) {
	left, err := parseQualified(a)
	if err != nil {
		return core.Relationship{}, err
	}
	right, err := parseQualified(b)
	if err != nil {
		return core.Relationship{}, err
	}
	return core.Relationship{Table1: left.Table, Col1: left.Column, Table2: right.Table, Col2: right.Column}, nil
}

func parseQualified(s string) (core.FieldRef, error) {
	ref := core.ParseFieldRef(s, "")
	if ref.Table == "" || ref.Column == "" {
		return core.FieldRef{}, core.NewValidationError("field", "expected table.column, got %q", s)
	}
	return ref, nil
}

func renderRelationships(cmd *cobra.Command, cfg *config.Config, edges []core.Relationship) error {
	out := cmd.OutOrStdout()
	format := resolveFormat(cfg.Output, out)
	if format == config.OutputJSON {
		return renderJSON(out, edges)
	}
	rs := &core.ResultSet{Columns: []string{"from", "to", "type", "cardinality"}}
	for _, e := range edges {
		rs.Rows = append(rs.Rows, core.Row{
			"from":        e.Table1 + "." + e.Col1,
			"to":          e.Table2 + "." + e.Col2,
			"type":        string(e.Type),
			"cardinality": string(e.Cardinality),
		})
	}
	return renderResultSet(out, rs, format)
}

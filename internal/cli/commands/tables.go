package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdash/internal/config"
	"github.com/leapstack-labs/leapdash/pkg/core"
)

// NewTablesCommand creates the tables command.
func NewTablesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tables [table]",
		Short: "List tables or show a table's columns",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = ws.Close() }()

			cat, err := ws.engine.Catalog(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			format := resolveFormat(ws.cfg.Output, out)

			if len(args) == 1 {
				t, ok := cat.Table(args[0])
				if !ok {
					return core.NewValidationError("table", "unknown table %q", args[0])
				}
				rs := &core.ResultSet{Columns: []string{"column", "type"}}
				for _, c := range t.Columns {
					rs.Rows = append(rs.Rows, core.Row{"column": c.Name, "type": c.Type})
				}
				return renderResultSet(out, rs, format)
			}

			rs := &core.ResultSet{Columns: []string{"table", "columns"}}
			for _, t := range cat.Schemas() {
				rs.Rows = append(rs.Rows, core.Row{"table": t.Name, "columns": len(t.Columns)})
			}
			if format == config.OutputJSON {
				return renderJSON(out, cat.Schemas())
			}
			return renderResultSet(out, rs, format)
		},
	}
}

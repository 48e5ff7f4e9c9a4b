package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdash/internal/config"
	"github.com/leapstack-labs/leapdash/internal/state"
	"github.com/leapstack-labs/leapdash/pkg/core"
)

// NewDashboardsCommand creates the dashboards command group.
func NewDashboardsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboards",
		Short: "List or delete saved dashboards",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved dashboards",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = ws.Close() }()

			list, err := ws.store.ListDashboards()
			if err != nil {
				return err
			}
			return renderDashboards(cmd, ws.cfg, list)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a dashboard with its widgets and relationships",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = ws.Close() }()

			d, err := ws.store.GetDashboardByName(args[0])
			if err != nil {
				return err
			}
			if err := ws.store.DeleteDashboard(d.ID); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted dashboard %q\n", d.Name)
			return nil
		},
	})
	return cmd
}

func renderDashboards(cmd *cobra.Command, cfg *config.Config, list []*state.Dashboard) error {
	out := cmd.OutOrStdout()
	format := resolveFormat(cfg.Output, out)
	if format == config.OutputJSON {
		return renderJSON(out, list)
	}
	rs := &core.ResultSet{Columns: []string{"name", "widgets", "relationships", "updated"}}
	for _, d := range list {
		rs.Rows = append(rs.Rows, core.Row{
			"name":          d.Name,
			"widgets":       len(d.Widgets),
			"relationships": len(d.Relationships),
			"updated":       d.UpdatedAt,
		})
	}
	return renderResultSet(out, rs, format)
}

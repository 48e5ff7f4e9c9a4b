package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdash/internal/config"
)

// NewCompileCommand creates the compile command.
func NewCompileCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "compile <widgets-file>",
		Short: "Print the SQL compiled for each widget",
		Example: `  # Show the SQL of every widget in a file
  leapdash compile widgets.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			widgets, err := loadWidgets(args[0])
			if err != nil {
				return err
			}

			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = ws.Close() }()

			c, err := ws.engine.Compiler(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			type compiled struct {
				ID    string `json:"id"`
				Kind  string `json:"kind,omitempty"`
				SQL   string `json:"sql,omitempty"`
				Error string `json:"error,omitempty"`
			}
			var results []compiled
			var failed int
			for _, w := range widgets {
				q, err := c.Compile(w.DataSource)
				if err != nil {
					failed++
					results = append(results, compiled{ID: w.ID, Error: err.Error()})
					continue
				}
				results = append(results, compiled{ID: w.ID, Kind: string(q.Kind), SQL: q.SQL})
			}

			if resolveFormat(ws.cfg.Output, out) == config.OutputJSON {
				if err := renderJSON(out, results); err != nil {
					return err
				}
			} else {
				for _, r := range results {
					_, _ = fmt.Fprintf(out, "-- %s", r.ID)
					if r.Error != "" {
						_, _ = fmt.Fprintf(out, ": error: %s\n\n", r.Error)
						continue
					}
					_, _ = fmt.Fprintf(out, " (%s)\n%s;\n\n", r.Kind, r.SQL)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d widgets failed to compile", failed, len(widgets))
			}
			return nil
		},
	}
}

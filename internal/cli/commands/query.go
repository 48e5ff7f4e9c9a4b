package commands

import (
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "query [sql]",
		Short: "Run SQL against the dashboard database",
		Long: `Run SQL against the dashboard database.

The statement is read from the argument, or from stdin when omitted.`,
		Example: `  leapdash query 'SELECT * FROM "Orders" LIMIT 5'
  echo 'SELECT 42 AS answer' | leapdash query -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sql, err := readSQL(cmd, args)
			if err != nil {
				return err
			}

			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = ws.Close() }()

			rs, err := ws.engine.Query(cmd.Context(), sql)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return renderResultSet(out, rs, resolveFormat(ws.cfg.Output, out))
		},
	}
}

func readSQL(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return strings.TrimSpace(args[0]), nil
	}
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && f == os.Stdin {
		if stat, err := f.Stat(); err == nil && stat.Mode()&os.ModeCharDevice != 0 {
			return "", cobra.ExactArgs(1)(cmd, args)
		}
	}
	raw, err := io.ReadAll(in)
	if err != nil {
		return "", err
	}
	sql := strings.TrimSpace(string(raw))
	if sql == "" {
		return "", cobra.ExactArgs(1)(cmd, args)
	}
	return sql, nil
}

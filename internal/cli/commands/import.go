package commands

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NewImportCommand creates the import command.
func NewImportCommand() *cobra.Command {
	var table, sheet string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load a CSV or XLSX file into a table",
		Long: `Load a CSV or XLSX file into a table, replacing it if it exists.

The table name defaults to the file name in title case. After the import the
catalog is refreshed and suggested relationships are listed.`,
		Example: `  leapdash import data/orders.csv
  leapdash import data/budget.xlsx --sheet 2024 --table Budget`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			ext := strings.ToLower(filepath.Ext(path))
			var xlsx bool
			switch ext {
			case ".csv", ".tsv", ".txt":
			case ".xlsx", ".xlsm":
				xlsx = true
			default:
				return fmt.Errorf("unsupported file type %q (csv or xlsx)", ext)
			}
			if table == "" {
				table = tableNameFor(path)
			}

			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = ws.Close() }()

			if err := ws.engine.Import(cmd.Context(), table, path, sheet, xlsx); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %s into %q\n", path, table)

			if suggested := ws.engine.Graph().Suggested(); len(suggested) > 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "suggested relationships:")
				return renderRelationships(cmd, ws.cfg, suggested)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&table, "table", "", "Target table name")
	cmd.Flags().StringVar(&sheet, "sheet", "", "Workbook sheet (default: first sheet)")
	return cmd
}

// tableNameFor derives "Sales Orders" from "sales_orders.csv".
func tableNameFor(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	words := strings.FieldsFunc(base, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return "Imported"
	}
	return cases.Title(language.English).String(strings.Join(words, " "))
}

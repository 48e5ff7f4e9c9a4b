package duckdb

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/leapstack-labs/leapdash/pkg/adapter"
	duckdialect "github.com/leapstack-labs/leapdash/pkg/dialects/duckdb"
)

// LoadCSV loads a CSV file into a table, replacing it if present.
// DuckDB infers the column types.
func (a *Adapter) LoadCSV(ctx context.Context, tableName, filePath string) error {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	d := duckdialect.DuckDB
	query := fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s AS SELECT * FROM read_csv_auto(%s, header=true)",
		d.QuoteIdentifier(tableName),
		d.QuoteLiteral(absPath),
	)

	err = adapter.WithSession(ctx, a, func(s adapter.Session) error {
		return s.Exec(ctx, query)
	})
	if err != nil {
		return fmt.Errorf("failed to load CSV: %w", err)
	}
	return nil
}

// LoadXLSX loads one sheet of a workbook into a table. The first row is the
// header. An empty sheet name selects the first sheet. The rows are staged
// through a temporary CSV file so DuckDB infers the column types.
func (a *Adapter) LoadXLSX(ctx context.Context, tableName, filePath, sheet string) error {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("sheet %q is empty", sheet)
	}

	tmp, err := os.CreateTemp("", "leapdash-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create staging file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := writeCSV(tmp, rows); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write staging file: %w", err)
	}

	a.Logger.Debug("staged workbook sheet",
		"sheet", sheet,
		"rows", len(rows)-1,
		"table", tableName)
	return a.LoadCSV(ctx, tableName, tmp.Name())
}

// writeCSV writes rows padded to the header width; excelize trims trailing empty cells.
func writeCSV(f *os.File, rows [][]string) error {
	width := len(rows[0])
	if width == 0 {
		return errors.New("header row is empty")
	}
	w := csv.NewWriter(f)
	for _, row := range rows {
		rec := make([]string, width)
		copy(rec, row)
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("failed to write staging file: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write staging file: %w", err)
	}
	return nil
}

package adapter

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/leapdash/pkg/coerce"
	"github.com/leapstack-labs/leapdash/pkg/core"
	"github.com/leapstack-labs/leapdash/pkg/dialect"
)

// ListTables returns the base tables of schema, sorted by name.
func ListTables(ctx context.Context, s Session, d *dialect.Dialect, schema string) ([]string, error) {
	if schema == "" {
		schema = d.DefaultSchema
	}
	query := fmt.Sprintf(
		"SELECT table_name FROM information_schema.tables WHERE table_schema = %s ORDER BY table_name",
		d.QuoteLiteral(schema),
	)
	rs, err := s.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	tables := make([]string, 0, rs.Len())
	for _, row := range rs.Rows {
		tables = append(tables, coerce.ToText(row["table_name"]))
	}
	return tables, nil
}

// DescribeTable returns the column names and type labels of a table.
func DescribeTable(ctx context.Context, s Session, d *dialect.Dialect, table string) (core.TableSchema, error) {
	rs, err := s.Query(ctx, "DESCRIBE "+d.QuoteIdentifier(table))
	if err != nil {
		return core.TableSchema{}, fmt.Errorf("failed to describe table %s: %w", table, err)
	}
	schema := core.TableSchema{Name: table}
	for _, row := range rs.Rows {
		schema.Columns = append(schema.Columns, core.Column{
			Name: coerce.ToText(row["column_name"]),
			Type: coerce.ToText(row["column_type"]),
		})
	}
	return schema, nil
}

// LoadCatalog describes every table of schema.
func LoadCatalog(ctx context.Context, s Session, d *dialect.Dialect, schema string) (core.Catalog, error) {
	tables, err := ListTables(ctx, s, d, schema)
	if err != nil {
		return core.Catalog{}, err
	}
	schemas := make([]core.TableSchema, 0, len(tables))
	for _, t := range tables {
		ts, err := DescribeTable(ctx, s, d, t)
		if err != nil {
			return core.Catalog{}, err
		}
		schemas = append(schemas, ts)
	}
	return core.NewCatalog(schemas), nil
}

// CreateTableAs materialises a SELECT into a new table.
func CreateTableAs(ctx context.Context, s Session, d *dialect.Dialect, table, selectSQL string) error {
	if err := s.Exec(ctx, fmt.Sprintf("CREATE TABLE %s AS %s", d.QuoteIdentifier(table), selectSQL)); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}
	return nil
}

// DropTableIfExists drops a table when present.
func DropTableIfExists(ctx context.Context, s Session, d *dialect.Dialect, table string) error {
	if err := s.Exec(ctx, "DROP TABLE IF EXISTS "+d.QuoteIdentifier(table)); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", table, err)
	}
	return nil
}

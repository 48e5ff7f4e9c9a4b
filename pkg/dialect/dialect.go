// Package dialect provides SQL dialect configuration and the shared quoting helpers.
//
// Every SQL-emitting path in leapdash renders identifiers and literals through a
// Dialect so that table and column names taken from widget configuration are
// always quoted the same way. Concrete dialects are registered from
// pkg/dialects/*/ packages.
package dialect

import (
	"fmt"
	"strconv"
	"strings"
)

// IdentifierConfig describes identifier quoting.
type IdentifierConfig struct {
	Quote    string // opening quote, e.g. `"`
	QuoteEnd string // closing quote
	Escape   string // replacement for an embedded closing quote, e.g. `""`
}

// Dialect represents a SQL dialect configuration.
type Dialect struct {
	Name        string
	Identifiers IdentifierConfig

	// Database-specific settings
	DefaultSchema string // Default schema name ("main" for DuckDB)

	// Cast targets used by the coercion fragments.
	TextType      string
	NumericType   string
	IntegerType   string
	TimestampType string
}

// QuoteIdentifier quotes an identifier using the dialect's quote characters.
func (d *Dialect) QuoteIdentifier(name string) string {
	// Escape any existing quote end characters in the name (e.g., " -> "")
	escaped := strings.ReplaceAll(name, d.Identifiers.QuoteEnd, d.Identifiers.Escape)
	return d.Identifiers.Quote + escaped + d.Identifiers.QuoteEnd
}

// QuoteLiteral renders a value as a SQL literal.
// Strings are single-quoted with embedded quotes doubled; nil becomes NULL.
func (d *Dialect) QuoteLiteral(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'"
	default:
		return d.QuoteLiteral(fmt.Sprint(x))
	}
}

// Column renders alias."column".
func (d *Dialect) Column(alias, column string) string {
	if alias == "" {
		return d.QuoteIdentifier(column)
	}
	return alias + "." + d.QuoteIdentifier(column)
}

// Table renders a table reference, schema-qualified when schema is set.
func (d *Dialect) Table(schema, table string) string {
	if schema == "" {
		return d.QuoteIdentifier(table)
	}
	return d.QuoteIdentifier(schema) + "." + d.QuoteIdentifier(table)
}

// ---------- Expression helpers ----------

// TryCast renders a non-throwing cast that yields NULL on failure.
func (d *Dialect) TryCast(expr, typ string) string {
	return fmt.Sprintf("TRY_CAST(%s AS %s)", expr, typ)
}

// CastText renders a cast of expr to the dialect's text type.
func (d *Dialect) CastText(expr string) string {
	return fmt.Sprintf("CAST(%s AS %s)", expr, d.TextType)
}

// DateTrunc renders truncation of a timestamp expression to unit.
func (d *Dialect) DateTrunc(unit, expr string) string {
	return fmt.Sprintf("date_trunc(%s, %s)", d.QuoteLiteral(unit), expr)
}

// Interval renders an interval literal of n units.
func (d *Dialect) Interval(n int, unit string) string {
	return fmt.Sprintf("INTERVAL '%d %s'", n, unit)
}

// Strftime renders formatting of a timestamp expression.
func (d *Dialect) Strftime(expr, format string) string {
	return fmt.Sprintf("strftime(%s, %s)", expr, d.QuoteLiteral(format))
}

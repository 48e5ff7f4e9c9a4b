package coerce

import (
	"fmt"

	"github.com/leapstack-labs/leapdash/pkg/dialect"
)

// Epoch magnitudes below these bounds are read as seconds and milliseconds
// respectively. Anything larger is outside the timestamp range and yields NULL.
const (
	maxEpochSeconds = "1e11"
	maxEpochMillis  = "1e14"
)

// StripNumericSQL wraps an already-quoted column reference so that text such as
// "$1,234.56" aggregates as 1234.56. Unparsable values become NULL; the
// expression never raises.
func StripNumericSQL(d *dialect.Dialect, ref string) string {
	stripped := fmt.Sprintf("REPLACE(REPLACE(REPLACE(%s, '$', ''), ',', ''), ' ', '')", d.CastText(ref))
	return d.TryCast(stripped, d.NumericType)
}

// AsTimestampSQL wraps a column reference so that date strings, epoch seconds
// and epoch milliseconds all yield a TIMESTAMP. The value is staged through
// the text type so the expression binds for any column type. The first
// successful interpretation wins; NULL when none applies.
//
// Both epoch branches are range-checked before conversion: epoch_ms and
// to_timestamp raise on out-of-range input even inside TRY_CAST.
func AsTimestampSQL(d *dialect.Dialect, ref string) string {
	text := d.CastText(ref)
	num := d.TryCast(text, d.NumericType)
	return fmt.Sprintf(
		"COALESCE(%s, "+
			"CASE WHEN abs(%s) < %s THEN %s END, "+
			"CASE WHEN abs(%s) < %s THEN %s END)",
		d.TryCast(text, d.TimestampType),
		num, maxEpochSeconds, d.TryCast("to_timestamp("+num+")", d.TimestampType),
		num, maxEpochMillis, d.TryCast("epoch_ms("+d.TryCast(text, d.IntegerType)+")", d.TimestampType),
	)
}

// TimestampSQL casts a column the catalog already reports as date/time-like.
func TimestampSQL(d *dialect.Dialect, ref string) string {
	return d.TryCast(ref, d.TimestampType)
}

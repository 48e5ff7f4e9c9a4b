package compiler

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdash/internal/testutil"
	"github.com/leapstack-labs/leapdash/pkg/coerce"
	"github.com/leapstack-labs/leapdash/pkg/core"
	"github.com/leapstack-labs/leapdash/pkg/dialects/duckdb"
)

func openSalesDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("duckdb", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	for _, stmt := range testutil.SalesSeed {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return db
}

func queryRows(t *testing.T, db *sql.DB, query string) []map[string]any {
	t.Helper()
	rows, err := db.QueryContext(context.Background(), query)
	require.NoError(t, err, query)
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	require.NoError(t, err)

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		require.NoError(t, rows.Scan(ptrs...))
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			row[c] = values[i]
		}
		out = append(out, row)
	}
	require.NoError(t, rows.Err())
	return out
}

func TestDuckDB_MonthlySum(t *testing.T) {
	db := openSalesDB(t)
	c := newTestCompiler(t, ordersCustomers)

	q, err := c.Compile(core.DataSource{
		TableName:   "Orders",
		XAxis:       "order_date",
		YAxis:       core.FieldList{"amount"},
		ChartType:   core.ChartLine,
		ExtraFields: core.ExtraFields{TimeGranularity: core.GranularityMonth},
	})
	require.NoError(t, err)

	rows := queryRows(t, db, q.SQL)
	require.Len(t, rows, 3)

	wantMonths := []time.Month{time.January, time.February, time.March}
	wantSums := []float64{1000.5, 2250, 500}
	for i, row := range rows {
		ts, ok := coerce.ParseTime(row[q.XKey])
		require.True(t, ok)
		assert.Equal(t, wantMonths[i], ts.Month())
		assert.InDelta(t, wantSums[i], coerce.ToNumber(row["amount"]), 1e-9)
	}
}

func TestDuckDB_JoinedAggregate(t *testing.T) {
	db := openSalesDB(t)
	c := newTestCompiler(t, ordersCustomers)

	q, err := c.Compile(core.DataSource{
		TableName: "Orders",
		XAxis:     "Customers.name",
		YAxis:     core.FieldList{"amount"},
		ChartType: core.ChartBar,
	})
	require.NoError(t, err)

	rows := queryRows(t, db, q.SQL)
	require.Len(t, rows, 2)
	assert.Equal(t, "Ada", rows[0]["name"])
	assert.InDelta(t, 1750.5, coerce.ToNumber(rows[0]["amount"]), 1e-9)
	assert.Equal(t, "Bob", rows[1]["name"])
	assert.InDelta(t, 2000, coerce.ToNumber(rows[1]["amount"]), 1e-9)
}

// The reverse join direction sees the same matched rows.
func TestDuckDB_JoinSymmetry(t *testing.T) {
	db := openSalesDB(t)
	c := newTestCompiler(t, ordersCustomers)

	fromOrders, err := c.Compile(core.DataSource{
		TableName: "Orders", XAxis: "Customers.name", YAxis: core.FieldList{"id"},
		ChartType: core.ChartBar, ExtraFields: core.ExtraFields{Aggregation: core.AggCountRows},
	})
	require.NoError(t, err)
	fromCustomers, err := c.Compile(core.DataSource{
		TableName: "Customers", XAxis: "name", YAxis: core.FieldList{"Orders.id"},
		ChartType: core.ChartBar, ExtraFields: core.ExtraFields{Aggregation: core.AggCountRows},
	})
	require.NoError(t, err)

	a := queryRows(t, db, fromOrders.SQL)
	b := queryRows(t, db, fromCustomers.SQL)
	require.Len(t, a, 2)
	require.Len(t, b, 2)
	for i := range a {
		assert.Equal(t, a[i]["name"], b[i]["name"])
		assert.Equal(t, coerce.ToNumber(a[i][fromOrders.YKeys[0]]), coerce.ToNumber(b[i][fromCustomers.YKeys[0]]))
	}
}

func TestDuckDB_KPIWindows(t *testing.T) {
	db := openSalesDB(t)
	c := newTestCompiler(t)

	q, err := c.CompileKPI(kpiSource(core.ExtraFields{
		KPITimeColumn:  "order_date",
		KPIWindowValue: 30,
		KPIWindowUnit:  core.UnitDay,
	}), nil)
	require.NoError(t, err)

	rows := queryRows(t, db, q.SQL)
	require.Len(t, rows, 1)
	// current (Feb 19, Mar 20]: 250 + 500 + n/a; previous (Jan 20, Feb 19]: 2000
	assert.InDelta(t, 750, coerce.ToNumber(rows[0][CurrentValueKey]), 1e-9)
	assert.InDelta(t, 2000, coerce.ToNumber(rows[0][PreviousValueKey]), 1e-9)
}

func TestDuckDB_KPIWithoutTime(t *testing.T) {
	db := openSalesDB(t)
	c := newTestCompiler(t)

	q, err := c.CompileKPI(kpiSource(core.ExtraFields{}), []Condition{
		{Field: "order_date", Values: []any{"2024/03"}},
	})
	require.NoError(t, err)

	rows := queryRows(t, db, q.SQL)
	require.Len(t, rows, 1)
	assert.InDelta(t, 500, coerce.ToNumber(rows[0][CurrentValueKey]), 1e-9)
	assert.Nil(t, rows[0][PreviousValueKey])
}

func TestDuckDB_KPIEmptyFilter(t *testing.T) {
	db := openSalesDB(t)
	c := newTestCompiler(t)

	q, err := c.CompileKPI(kpiSource(core.ExtraFields{KPITimeColumn: "order_date"}), []Condition{
		{Field: "channel", Values: []any{"phone"}},
	})
	require.NoError(t, err)

	rows := queryRows(t, db, q.SQL)
	require.Len(t, rows, 1)
	assert.Zero(t, coerce.ToNumber(rows[0][CurrentValueKey]))
	assert.Zero(t, coerce.ToNumber(rows[0][PreviousValueKey]))
}

func TestDuckDB_TimestampCoercion(t *testing.T) {
	db := openSalesDB(t)
	_, err := db.Exec(`CREATE TABLE events (ts VARCHAR)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO events VALUES ('2024-03-01'), ('1709634600'), ('1709634600000'), ('garbage')`)
	require.NoError(t, err)

	rows := queryRows(t, db, `SELECT `+coerce.AsTimestampSQL(duckdb.DuckDB, `"ts"`)+` AS parsed FROM events`)
	require.Len(t, rows, 4)
	for _, row := range rows[:3] {
		ts, ok := row["parsed"].(time.Time)
		require.True(t, ok, "got %v", row["parsed"])
		assert.Equal(t, 2024, ts.Year())
		assert.Equal(t, time.March, ts.Month())
	}
	assert.Nil(t, rows[3]["parsed"])
}

func TestDuckDB_TimestampCoercionOutOfRange(t *testing.T) {
	db := openSalesDB(t)
	_, err := db.Exec(`CREATE TABLE events (id INTEGER, ts VARCHAR)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO events VALUES
		(1, '2024-03-01'), (2, '1709251200'), (3, '99999999999999999'),
		(4, 'abc'), (5, '-99999999999999999'), (6, '1709251200000')`)
	require.NoError(t, err)

	rows := queryRows(t, db, `SELECT id, `+coerce.AsTimestampSQL(duckdb.DuckDB, `"ts"`)+` AS parsed FROM events ORDER BY id`)
	require.Len(t, rows, 6)

	for _, i := range []int{0, 1, 5} {
		ts, ok := rows[i]["parsed"].(time.Time)
		require.True(t, ok, "row %d: got %v", i+1, rows[i]["parsed"])
		assert.Equal(t, 2024, ts.Year())
		assert.Equal(t, time.March, ts.Month())
	}
	for _, i := range []int{2, 3, 4} {
		assert.Nil(t, rows[i]["parsed"], "row %d", i+1)
	}
}

func TestDuckDB_KPIWithUnparsableTimeColumn(t *testing.T) {
	db := openSalesDB(t)
	_, err := db.Exec(`CREATE TABLE "Events" (ts VARCHAR, amount VARCHAR)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO "Events" VALUES
		('2024-03-20', '10'), ('2024-03-01', '5'), ('99999999999999999', '1000'), ('2024-02-10', '7')`)
	require.NoError(t, err)

	c := &Compiler{
		Dialect: duckdb.DuckDB,
		Catalog: core.NewCatalog([]core.TableSchema{{Name: "Events", Columns: []core.Column{
			{Name: "ts", Type: "VARCHAR"},
			{Name: "amount", Type: "VARCHAR"},
		}}}),
	}
	q, err := c.CompileKPI(core.DataSource{
		TableName: "Events",
		YAxis:     core.FieldList{"amount"},
		ChartType: core.ChartKPI,
		ExtraFields: core.ExtraFields{
			Aggregation:    core.AggSum,
			KPITimeColumn:  "ts",
			KPIWindowValue: 30,
			KPIWindowUnit:  core.UnitDay,
		},
	}, nil)
	require.NoError(t, err)

	rows := queryRows(t, db, q.SQL)
	require.Len(t, rows, 1)
	assert.InDelta(t, 15, coerce.ToNumber(rows[0][CurrentValueKey]), 1e-9)
	assert.InDelta(t, 7, coerce.ToNumber(rows[0][PreviousValueKey]), 1e-9)
}

func TestDuckDB_KPIConditionOnDecimalColumn(t *testing.T) {
	db := openSalesDB(t)
	_, err := db.Exec(`CREATE TABLE "Items" (price DECIMAL(10,2), qty INTEGER)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO "Items" VALUES (2.50, 4), (3.75, 1), (2.50, 2)`)
	require.NoError(t, err)

	c := &Compiler{
		Dialect: duckdb.DuckDB,
		Catalog: core.NewCatalog([]core.TableSchema{{Name: "Items", Columns: []core.Column{
			{Name: "price", Type: "DECIMAL(10,2)"},
			{Name: "qty", Type: "INTEGER"},
		}}}),
	}
	q, err := c.CompileKPI(core.DataSource{
		TableName:   "Items",
		YAxis:       core.FieldList{"qty"},
		ChartType:   core.ChartKPI,
		ExtraFields: core.ExtraFields{Aggregation: core.AggSum, KPIFilterXAxis: "price"},
	}, []Condition{{Field: "price", Values: []any{coerce.ToText(2.5)}}})
	require.NoError(t, err)

	rows := queryRows(t, db, q.SQL)
	require.Len(t, rows, 1)
	assert.InDelta(t, 6, coerce.ToNumber(rows[0][CurrentValueKey]), 1e-9)
}

func TestDuckDB_StripNumeric(t *testing.T) {
	db := openSalesDB(t)
	rows := queryRows(t, db, `SELECT `+coerce.StripNumericSQL(duckdb.DuckDB, `'$1,234.56'`)+` AS v, `+coerce.StripNumericSQL(duckdb.DuckDB, `'abc'`)+` AS bad`)
	require.Len(t, rows, 1)
	assert.InDelta(t, 1234.56, coerce.ToNumber(rows[0]["v"]), 1e-9)
	assert.Nil(t, rows[0]["bad"])
}

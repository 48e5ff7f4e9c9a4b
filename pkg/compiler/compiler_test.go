package compiler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdash/internal/testutil"
	"github.com/leapstack-labs/leapdash/pkg/core"
	"github.com/leapstack-labs/leapdash/pkg/dialects/duckdb"
	"github.com/leapstack-labs/leapdash/pkg/relgraph"
)

const amountNum = `TRY_CAST(REPLACE(REPLACE(REPLACE(CAST(t0."amount" AS VARCHAR), '$', ''), ',', ''), ' ', '') AS DOUBLE)`

func newTestCompiler(t *testing.T, edges ...core.Relationship) *Compiler {
	return &Compiler{
		Dialect: duckdb.DuckDB,
		Catalog: testutil.SalesCatalog(),
		Graph:   relgraph.NewGraph(edges),
		Options: Options{RawRowLimit: 100},
		Logger:  testutil.NewTestLogger(t),
	}
}

var ordersCustomers = testutil.OrdersCustomers

func TestCompile_MonthlyLine(t *testing.T) {
	c := newTestCompiler(t, ordersCustomers)

	q, err := c.Compile(core.DataSource{
		TableName:   "Orders",
		XAxis:       "order_date",
		YAxis:       core.FieldList{"amount"},
		ChartType:   core.ChartLine,
		ExtraFields: core.ExtraFields{TimeGranularity: core.GranularityMonth},
	})
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT date_trunc('month', t0."order_date") AS "order_date", SUM(`+amountNum+`) AS "amount" `+
			`FROM "Orders" AS t0 GROUP BY date_trunc('month', t0."order_date") ORDER BY 1 ASC`,
		q.SQL)
	assert.Equal(t, KindAggregate, q.Kind)
	assert.Equal(t, "order_date", q.XKey)
	assert.Equal(t, []string{"amount"}, q.YKeys)
	assert.True(t, q.TimeAxis)
	assert.Equal(t, core.GranularityMonth, q.Granularity)
	assert.Equal(t, core.AggSum, q.Aggregation)
}

func TestCompile_Aggregations(t *testing.T) {
	c := newTestCompiler(t)

	tests := []struct {
		agg  core.Aggregation
		want string
	}{
		{"", "SUM(" + amountNum + ")"},
		{"sum", "SUM(" + amountNum + ")"},
		{core.AggAvg, "AVG(" + amountNum + ")"},
		{core.AggMin, "MIN(" + amountNum + ")"},
		{core.AggMax, "MAX(" + amountNum + ")"},
		{core.AggCount, `COUNT(t0."amount")`},
		{"count distinct", `COUNT(DISTINCT t0."amount")`},
		{core.AggCountRows, "COUNT(*)"},
	}

	for _, tt := range tests {
		t.Run(string(tt.agg), func(t *testing.T) {
			q, err := c.Compile(core.DataSource{
				TableName:   "Orders",
				XAxis:       "channel",
				YAxis:       core.FieldList{"amount"},
				ChartType:   core.ChartBar,
				ExtraFields: core.ExtraFields{Aggregation: tt.agg},
			})
			require.NoError(t, err)
			assert.Contains(t, q.SQL, tt.want+` AS "amount"`)
			assert.False(t, q.TimeAxis)
		})
	}
}

func TestCompile_JoinedFields(t *testing.T) {
	c := newTestCompiler(t, ordersCustomers)

	q, err := c.Compile(core.DataSource{
		TableName: "Orders",
		XAxis:     "Customers.name",
		YAxis:     core.FieldList{"amount", "id"},
		ChartType: core.ChartBar,
	})
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT t1."name" AS "name", SUM(`+amountNum+`) AS "amount", `+
			`SUM(TRY_CAST(REPLACE(REPLACE(REPLACE(CAST(t0."id" AS VARCHAR), '$', ''), ',', ''), ' ', '') AS DOUBLE)) AS "id" `+
			`FROM "Orders" AS t0 INNER JOIN "Customers" AS t1 ON t0."customer_id" = t1."id" `+
			`GROUP BY t1."name" ORDER BY 1 ASC`,
		q.SQL)
	assert.Equal(t, []string{"amount", "id"}, q.YKeys)
}

func TestCompile_DuplicateKeys(t *testing.T) {
	c := newTestCompiler(t, ordersCustomers)

	q, err := c.Compile(core.DataSource{
		TableName: "Orders",
		XAxis:     "Customers.id",
		YAxis:     core.FieldList{"id"},
		ChartType: core.ChartBar,
	})
	require.NoError(t, err)
	assert.Equal(t, "id", q.XKey)
	assert.Equal(t, []string{"id_2"}, q.YKeys)
}

func TestCompile_SeriesBy(t *testing.T) {
	c := newTestCompiler(t)

	q, err := c.Compile(core.DataSource{
		TableName:   "Orders",
		XAxis:       "order_date",
		YAxis:       core.FieldList{"amount"},
		ChartType:   core.ChartBar,
		ExtraFields: core.ExtraFields{SeriesBy: "channel", TimeGranularity: core.GranularityYear},
	})
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT date_trunc('year', t0."order_date") AS "order_date", t0."channel" AS "channel", SUM(`+amountNum+`) AS "amount" `+
			`FROM "Orders" AS t0 GROUP BY date_trunc('year', t0."order_date"), t0."channel" ORDER BY 1 ASC, 2 ASC`,
		q.SQL)
	assert.Equal(t, "channel", q.SeriesKey)
}

func TestCompile_RawAndScatter(t *testing.T) {
	c := newTestCompiler(t)

	q, err := c.Compile(core.DataSource{
		TableName:   "Orders",
		XAxis:       "order_date",
		YAxis:       core.FieldList{"amount"},
		ChartType:   core.ChartLine,
		ExtraFields: core.ExtraFields{Aggregation: core.AggNone},
	})
	require.NoError(t, err)
	assert.Equal(t, KindRaw, q.Kind)
	assert.Equal(t,
		`SELECT t0."order_date" AS "order_date", `+amountNum+` AS "amount" FROM "Orders" AS t0 LIMIT 100`,
		q.SQL)

	q, err = c.Compile(core.DataSource{
		TableName: "Orders",
		XAxis:     "customer_id",
		YAxis:     core.FieldList{"amount"},
		ChartType: core.ChartScatter,
	})
	require.NoError(t, err)
	assert.Equal(t, KindScatter, q.Kind)
	assert.Contains(t, q.SQL, `CAST(t0."customer_id" AS VARCHAR)`)
	assert.NotContains(t, q.SQL, "GROUP BY")
	assert.Contains(t, q.SQL, "LIMIT 100")
}

func TestCompile_DefaultRawLimit(t *testing.T) {
	c := newTestCompiler(t)
	c.Options.RawRowLimit = 0

	q, err := c.Compile(core.DataSource{
		TableName: "Orders", XAxis: "id", YAxis: core.FieldList{"amount"}, ChartType: core.ChartScatter,
	})
	require.NoError(t, err)
	assert.Contains(t, q.SQL, "LIMIT 5000")
}

func TestCompile_MissingRelationship(t *testing.T) {
	c := newTestCompiler(t)

	_, err := c.Compile(core.DataSource{
		TableName: "Orders",
		XAxis:     "channel",
		YAxis:     core.FieldList{"Customers.name"},
		ChartType: core.ChartBar,
	})

	var missing *core.MissingRelationshipError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "Orders", missing.Base)
	assert.Equal(t, "Customers", missing.Table)
}

func TestCompile_Validation(t *testing.T) {
	c := newTestCompiler(t)

	tests := []struct {
		name  string
		ds    core.DataSource
		field string
	}{
		{"missing table", core.DataSource{XAxis: "a", YAxis: core.FieldList{"b"}, ChartType: core.ChartBar}, "tableName"},
		{"unknown chart", core.DataSource{TableName: "Orders", XAxis: "a", YAxis: core.FieldList{"b"}, ChartType: "gauge"}, "chartType"},
		{"unknown aggregation", core.DataSource{TableName: "Orders", XAxis: "channel", YAxis: core.FieldList{"amount"}, ChartType: core.ChartBar, ExtraFields: core.ExtraFields{Aggregation: "MEDIAN"}}, "extraFields.aggregation"},
		{"missing x", core.DataSource{TableName: "Orders", YAxis: core.FieldList{"amount"}, ChartType: core.ChartBar}, "xAxis"},
		{"missing y", core.DataSource{TableName: "Orders", XAxis: "channel", ChartType: core.ChartPie}, "yAxis"},
		{"kpi without y", core.DataSource{TableName: "Orders", ChartType: core.ChartKPI}, "yAxis"},
		{"multi y with series", core.DataSource{TableName: "Orders", XAxis: "channel", YAxis: core.FieldList{"amount", "id"}, ChartType: core.ChartBar, ExtraFields: core.ExtraFields{SeriesBy: "customer_id"}}, "extraFields.seriesBy"},
		{"unknown column", core.DataSource{TableName: "Orders", XAxis: "region", YAxis: core.FieldList{"amount"}, ChartType: core.ChartBar}, "region"},
		{"bad window unit", core.DataSource{TableName: "Orders", YAxis: core.FieldList{"amount"}, ChartType: core.ChartKPI, ExtraFields: core.ExtraFields{KPITimeColumn: "order_date", KPIWindowUnit: "fortnight"}}, "extraFields.kpiWindowUnit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Compile(tt.ds)
			var ve *core.ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestCompile_NoDialect(t *testing.T) {
	c := &Compiler{}
	_, err := c.Compile(core.DataSource{TableName: "Orders"})
	assert.Error(t, err)
}

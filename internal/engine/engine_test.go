package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdash/internal/testutil"
	"github.com/leapstack-labs/leapdash/pkg/adapter"
	_ "github.com/leapstack-labs/leapdash/pkg/adapters/duckdb"
	"github.com/leapstack-labs/leapdash/pkg/core"
	"github.com/leapstack-labs/leapdash/pkg/dialect"
	"github.com/leapstack-labs/leapdash/pkg/figure"
	"github.com/leapstack-labs/leapdash/pkg/relgraph"
)

func newSalesEngine(t *testing.T) *Engine {
	t.Helper()
	e := New(Config{
		AdapterConfig: adapter.Config{Type: "duckdb"},
		Graph:         relgraph.NewGraph([]core.Relationship{testutil.OrdersCustomers}),
		Theme:         figure.DefaultTheme(),
		Logger:        testutil.NewTestLogger(t),
	})
	t.Cleanup(func() { _ = e.Close() })

	ctx := context.Background()
	require.NoError(t, e.withSession(ctx, func(s adapter.Session, _ *dialect.Dialect) error {
		for _, stmt := range testutil.SalesSeed {
			if err := s.Exec(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	}))
	return e
}

var (
	monthlyWidget = core.Widget{
		ID:    "monthly",
		Title: "Monthly revenue",
		DataSource: core.DataSource{
			TableName:   "Orders",
			XAxis:       "order_date",
			YAxis:       core.FieldList{"amount"},
			ChartType:   core.ChartBar,
			ExtraFields: core.ExtraFields{TimeGranularity: core.GranularityMonth},
		},
	}
	customerWidget = core.Widget{
		ID: "customers",
		DataSource: core.DataSource{
			TableName:   "Orders",
			XAxis:       "Customers.name",
			YAxis:       core.FieldList{"id"},
			ChartType:   core.ChartPie,
			ExtraFields: core.ExtraFields{Aggregation: core.AggCount},
		},
	}
	revenueKPI = core.Widget{
		ID:    "revenue",
		Title: "Revenue",
		DataSource: core.DataSource{
			TableName: "Orders",
			YAxis:     core.FieldList{"amount"},
			ChartType: core.ChartKPI,
			ExtraFields: core.ExtraFields{
				KPIFilterXAxis: "order_date",
				KPILabel:       "Total revenue",
			},
		},
	}
)

func TestEngine_RenderMonthly(t *testing.T) {
	e := newSalesEngine(t)

	res, err := e.Render(context.Background(), monthlyWidget)
	require.NoError(t, err)

	fig := res.Figure
	assert.False(t, fig.Fallback, fig.Reason)
	assert.Equal(t, figure.KindBar, fig.Kind)
	assert.Equal(t, "Monthly revenue", fig.Title)
	assert.Equal(t, []string{"2024/01", "2024/02", "2024/03"}, fig.Axis.Categories)
	require.Len(t, fig.Axis.Series, 1)
	assert.InDeltaSlice(t, []float64{1000.5, 2250, 500}, fig.Axis.Series[0].Values, 1e-9)
	assert.Equal(t, figure.DefaultPalette[0], fig.Axis.Series[0].Color)
	assert.Nil(t, res.Filter)
}

func TestEngine_RenderJoinedPie(t *testing.T) {
	e := newSalesEngine(t)

	res, err := e.Render(context.Background(), customerWidget)
	require.NoError(t, err)

	require.Equal(t, figure.KindPie, res.Figure.Kind)
	var got = map[string]float64{}
	for _, s := range res.Figure.Pie.Slices {
		got[s.Label] = s.Value
	}
	assert.Equal(t, map[string]float64{"Ada": 3, "Bob": 2}, got)
}

func TestEngine_ClickFilterScenario(t *testing.T) {
	e := newSalesEngine(t)
	ctx := context.Background()

	before, err := e.Render(ctx, monthlyWidget)
	require.NoError(t, err)

	draft, err := e.SelectFromFigure(monthlyWidget, before.Figure, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []any{"2024/03"}, draft.Values)
	assert.Empty(t, e.Filters().Active(), "drafts do not filter")

	f, ok := e.Filters().ApplySelection("Orders", "order_date")
	require.True(t, ok)
	assert.Equal(t, "Orders::order_date", f.Key())

	// the clicked widget is restricted client-side
	after, err := e.Render(ctx, monthlyWidget)
	require.NoError(t, err)
	assert.True(t, after.Status.Filtered)
	assert.False(t, after.Status.Empty)
	assert.Equal(t, []string{"2024/03"}, after.Figure.Axis.Categories)
	assert.Equal(t, []float64{500}, after.Figure.Axis.Series[0].Values)

	// a widget on another column is unaffected
	other, err := e.Render(ctx, customerWidget)
	require.NoError(t, err)
	assert.Nil(t, other.Filter)
	assert.Len(t, other.Figure.Pie.Slices, 2)

	// the KPI re-queries with the filter as a condition
	kpi, err := e.Render(ctx, revenueKPI)
	require.NoError(t, err)
	require.NotNil(t, kpi.Filter)
	assert.Contains(t, kpi.Query.SQL, "strftime(")
	require.NotNil(t, kpi.Figure.KPI)
	assert.InDelta(t, 500, kpi.Figure.KPI.Value, 1e-9)
	assert.Nil(t, kpi.Figure.KPI.Previous)
	assert.Equal(t, "Total revenue", kpi.Figure.KPI.Label)

	// clearing restores the full picture
	e.Filters().ClearAll()
	kpi, err = e.Render(ctx, revenueKPI)
	require.NoError(t, err)
	assert.Nil(t, kpi.Filter)
	assert.InDelta(t, 3750.5, kpi.Figure.KPI.Value, 1e-9)
}

func TestEngine_EmptyFilterIntersection(t *testing.T) {
	e := newSalesEngine(t)
	e.Filters().SetDraft("Orders", "order_date", []any{"1999/01"})
	e.Filters().ApplySelection("Orders", "order_date")

	res, err := e.Render(context.Background(), monthlyWidget)
	require.NoError(t, err)
	assert.True(t, res.Status.Empty)
	assert.Equal(t, "no data for current filter", res.Status.Message())
}

func TestEngine_RenderKPIWindow(t *testing.T) {
	e := newSalesEngine(t)

	w := revenueKPI
	w.DataSource.ExtraFields.KPITimeColumn = "order_date"

	res, err := e.Render(context.Background(), w)
	require.NoError(t, err)

	kpi := res.Figure.KPI
	require.NotNil(t, kpi)
	assert.InDelta(t, 750, kpi.Value, 1e-9)
	require.NotNil(t, kpi.Previous)
	assert.InDelta(t, 2000, *kpi.Previous, 1e-9)
	require.NotNil(t, kpi.DeltaPct)
	assert.InDelta(t, -62.5, *kpi.DeltaPct, 1e-9)
	assert.Equal(t, "30 days", kpi.Window)
}

func TestEngine_RenderAll(t *testing.T) {
	e := newSalesEngine(t)

	broken := core.Widget{ID: "broken", DataSource: core.DataSource{
		TableName: "Orders", XAxis: "Shipments.carrier", YAxis: core.FieldList{"amount"}, ChartType: core.ChartBar,
	}}

	results, err := e.RenderAll(context.Background(), []core.Widget{monthlyWidget, broken, revenueKPI, customerWidget})
	require.NoError(t, err)
	require.Len(t, results, 4)

	for i, id := range []string{"monthly", "broken", "revenue", "customers"} {
		assert.Equal(t, id, results[i].WidgetID)
	}
	var missing *core.MissingRelationshipError
	assert.ErrorAs(t, results[1].Err, &missing)
	assert.NoError(t, results[0].Err)
	assert.NoError(t, results[2].Err)
	assert.NoError(t, results[3].Err)
}

func TestEngine_RenderAllCancelled(t *testing.T) {
	e := newSalesEngine(t)
	_, err := e.Catalog(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = e.RenderAll(ctx, []core.Widget{monthlyWidget})
	assert.Error(t, err)
}

func TestEngine_Import(t *testing.T) {
	e := newSalesEngine(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "shipments.csv")
	require.NoError(t, os.WriteFile(path, []byte("shipment_no,customer_id,carrier\n1,1,DHL\n2,2,UPS\n"), 0o600))

	require.NoError(t, e.Import(ctx, "Shipments", path, "", false))

	cat, err := e.Catalog(ctx)
	require.NoError(t, err)
	_, ok := cat.Table("Shipments")
	assert.True(t, ok)

	assert.Contains(t, e.Graph().Suggested(), core.Relationship{
		Table1: "Orders", Col1: "customer_id", Table2: "Shipments", Col2: "customer_id",
		Type: core.RelationshipSuggested, Cardinality: core.OneToMany,
	})
	assert.Equal(t, []core.Relationship{testutil.OrdersCustomers}, e.Graph().Confirmed())

	// joined through a newly confirmed edge
	e.Graph().Confirm(core.Relationship{Table1: "Shipments", Col1: "customer_id", Table2: "Customers", Col2: "id"})
	res, err := e.Render(ctx, core.Widget{ID: "carriers", DataSource: core.DataSource{
		TableName: "Shipments", XAxis: "Customers.name", YAxis: core.FieldList{"carrier"},
		ChartType: core.ChartBar, ExtraFields: core.ExtraFields{Aggregation: core.AggCount},
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ada", "Bob"}, res.Figure.Axis.Categories)
}

func TestEngine_Query(t *testing.T) {
	e := newSalesEngine(t)

	rs, err := e.Query(context.Background(), `SELECT COUNT(*) AS n FROM "Orders"`)
	require.NoError(t, err)
	n, _ := rs.Scalar("n")
	assert.EqualValues(t, 5, n)

	_, err = e.Query(context.Background(), `SELECT * FROM nope`)
	var qe *core.QueryExecutionError
	assert.ErrorAs(t, err, &qe)
}

func TestEngine_SelectFromFigureErrors(t *testing.T) {
	e := New(Config{})
	fig := &figure.Figure{Kind: figure.KindBar, Axis: &figure.AxisData{Categories: []string{"a"}}}

	_, err := e.SelectFromFigure(monthlyWidget, fig, 0, 5)
	assert.Error(t, err)

	noX := core.Widget{ID: "x", DataSource: core.DataSource{TableName: "Orders"}}
	_, err = e.SelectFromFigure(noX, fig, 0, 0)
	var ve *core.ValidationError
	assert.ErrorAs(t, err, &ve)

	kpi := &figure.Figure{Kind: figure.KindKPI, KPI: &figure.KPIData{Label: "Revenue"}}
	_, err = e.SelectFromFigure(revenueKPI, kpi, 0, 0)
	assert.Error(t, err)
}

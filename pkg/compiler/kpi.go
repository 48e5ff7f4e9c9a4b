package compiler

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapdash/pkg/core"
	"github.com/leapstack-labs/leapdash/pkg/relgraph"
)

// Window is a KPI trailing window resolved from extraFields.
type Window struct {
	Value int
	Unit  core.WindowUnit
}

// interval renders the window scaled by n. Weeks and quarters are expanded to
// days and months.
func (w Window) interval(n int) (int, string) {
	switch w.Unit {
	case core.UnitWeek:
		return w.Value * n * 7, "day"
	case core.UnitQuarter:
		return w.Value * n * 3, "month"
	case "":
		return w.Value * n, "day"
	default:
		return w.Value * n, string(w.Unit)
	}
}

// String renders the window as "30 days" or "1 month".
func (w Window) String() string {
	if w.Value == 0 {
		return ""
	}
	unit := string(w.Unit)
	if unit == "" {
		unit = string(core.UnitDay)
	}
	if w.Value != 1 {
		unit += "s"
	}
	return fmt.Sprintf("%d %s", w.Value, unit)
}

// resolveWindow applies the defaults of a KPI window.
func resolveWindow(extra core.ExtraFields) (Window, error) {
	unit, ok := core.ParseWindowUnit(string(extra.KPIWindowUnit))
	if !ok {
		return Window{}, core.NewValidationError("extraFields.kpiWindowUnit", "unsupported window unit %q", extra.KPIWindowUnit)
	}
	value := extra.KPIWindowValue
	if value < 0 {
		return Window{}, core.NewValidationError("extraFields.kpiWindowValue", "window must be positive, got %d", value)
	}
	if value == 0 {
		value = core.DefaultKPIWindow
	}
	return Window{Value: value, Unit: unit}, nil
}

// CompileKPI builds the scalar query of a KPI widget, restricted by conds.
//
// Without a time column the query returns one aggregate as current_value and
// NULL as previous_value. With a time column, current_value aggregates the
// window (max_ts - w, max_ts] and previous_value the window
// (max_ts - 2w, max_ts - w], where max_ts is the latest timestamp among the
// filtered rows. Both are coalesced to 0.
func (c *Compiler) CompileKPI(ds core.DataSource, conds []Condition) (*Query, error) {
	ds, err := c.normalize(ds)
	if err != nil {
		return nil, err
	}
	if ds.ChartType != core.ChartKPI {
		return nil, core.NewValidationError("chartType", "expected a kpi widget, got %s", ds.ChartType)
	}
	if len(ds.YAxis) == 0 {
		return nil, core.NewValidationError("yAxis", "a value field is required for kpi widgets")
	}

	used := append(ds.Tables(), tablesOf(ds, conditionFields(conds))...)
	jp, err := relgraph.ResolveJoinPath(c.Dialect, ds.TableName, used, c.confirmed())
	if err != nil {
		return nil, err
	}
	if err := c.validateColumns(ds, append(ds.Fields(), conditionFields(conds)...)); err != nil {
		return nil, err
	}

	valueRef, err := jp.Ref(ds.YAxis[0])
	if err != nil {
		return nil, err
	}
	where, err := c.where(ds, jp, conds)
	if err != nil {
		return nil, err
	}

	agg := ds.ExtraFields.Aggregation
	q := &Query{
		Kind:        KindKPI,
		ChartType:   core.ChartKPI,
		YKeys:       []string{CurrentValueKey, PreviousValueKey},
		Aggregation: agg,
	}

	if ds.ExtraFields.KPITimeColumn == "" {
		p := newProjection()
		p.selects = append(p.selects,
			c.as(fmt.Sprintf("COALESCE(%s, 0)", c.aggregate(agg, valueRef)), CurrentValueKey),
			c.as("NULL", PreviousValueKey))
		q.SQL = c.render(jp, p, where, 0)
		c.logKPI(ds, q)
		return q, nil
	}

	win, err := resolveWindow(ds.ExtraFields)
	if err != nil {
		return nil, err
	}
	timeRef, err := jp.Ref(ds.ExtraFields.KPITimeColumn)
	if err != nil {
		return nil, err
	}
	q.TimeAxis = true
	q.Window = win
	q.SQL = c.windowedKPI(jp, where, agg, valueRef, c.timestamp(ds, ds.ExtraFields.KPITimeColumn, timeRef), win)
	c.logKPI(ds, q)
	return q, nil
}

func (c *Compiler) logKPI(ds core.DataSource, q *Query) {
	c.logger().Debug("compiled kpi query",
		slog.String("table", ds.TableName),
		slog.String("aggregation", string(q.Aggregation)),
		slog.Bool("windowed", q.TimeAxis))
}

const (
	kpiTS    = "__ts"
	kpiValue = "__v"
	kpiMax   = "max_ts"
)

func (c *Compiler) windowedKPI(jp *relgraph.JoinPath, where []string, agg core.Aggregation, valueRef, tsExpr string, win Window) string {
	// Count-type aggregations see the raw value; the rest see the numeric-coerced one.
	value := valueRef
	if !agg.IsCount() {
		value = c.numeric(valueRef)
	}

	src := newProjection()
	src.selects = append(src.selects,
		c.as(tsExpr, kpiTS),
		c.as(value, kpiValue))
	srcSQL := c.render(jp, src, where, 0)

	ts := c.Dialect.QuoteIdentifier(kpiTS)
	maxTS := c.Dialect.QuoteIdentifier(kpiMax)
	n1, u1 := win.interval(1)
	n2, u2 := win.interval(2)
	oneBack := fmt.Sprintf("%s - %s", maxTS, c.Dialect.Interval(n1, u1))
	twoBack := fmt.Sprintf("%s - %s", maxTS, c.Dialect.Interval(n2, u2))

	current := fmt.Sprintf("%s > %s AND %s <= %s", ts, oneBack, ts, maxTS)
	previous := fmt.Sprintf("%s > %s AND %s <= %s", ts, twoBack, ts, oneBack)

	v := c.Dialect.QuoteIdentifier(kpiValue)
	aggExpr := aggregateNumeric(agg, v)
	if agg.IsCount() {
		aggExpr = c.aggregate(agg, v)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "WITH src AS (%s), bounds AS (SELECT MAX(%s) AS %s FROM src) ", srcSQL, ts, maxTS)
	fmt.Fprintf(&sb, "SELECT COALESCE(%s FILTER (WHERE %s), 0) AS %s, ",
		aggExpr, current, c.Dialect.QuoteIdentifier(CurrentValueKey))
	fmt.Fprintf(&sb, "COALESCE(%s FILTER (WHERE %s), 0) AS %s ",
		aggExpr, previous, c.Dialect.QuoteIdentifier(PreviousValueKey))
	sb.WriteString("FROM src CROSS JOIN bounds")
	return sb.String()
}

func tablesOf(ds core.DataSource, fields []string) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, ds.Ref(f).Table)
	}
	return out
}

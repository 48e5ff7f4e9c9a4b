// Package compiler turns widget data sources into analytical SQL.
//
// A Compiler is stateless between calls: every Compile reads the current
// catalog snapshot and confirmed relationships, resolves the join path, and
// emits one SELECT whose output column names are reported in Query so the
// chart builder knows which row keys to read. All identifiers are quoted and
// all literals escaped through the configured dialect.
package compiler

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapdash/pkg/coerce"
	"github.com/leapstack-labs/leapdash/pkg/core"
	"github.com/leapstack-labs/leapdash/pkg/dialect"
	"github.com/leapstack-labs/leapdash/pkg/relgraph"
)

// DefaultRawRowLimit caps ungrouped (scatter and NONE aggregation) queries.
const DefaultRawRowLimit = 5000

// Kind describes the shape of a compiled query.
type Kind string

// Query kinds.
const (
	KindAggregate Kind = "aggregate"
	KindRaw       Kind = "raw"
	KindScatter   Kind = "scatter"
	KindKPI       Kind = "kpi"
)

// KPI output columns.
const (
	CurrentValueKey  = "current_value"
	PreviousValueKey = "previous_value"
)

// Query is a compiled widget query and the row keys its result carries.
type Query struct {
	SQL         string
	Kind        Kind
	ChartType   core.ChartType
	XKey        string
	YKeys       []string
	SeriesKey   string
	TimeAxis    bool
	Granularity core.Granularity
	Aggregation core.Aggregation
	// Window is set for KPI queries with a time column.
	Window Window
}

// EdgeSource provides the confirmed relationships used for joins.
// *relgraph.Graph satisfies it.
type EdgeSource interface {
	Confirmed() []core.Relationship
}

// Options tunes generated SQL.
type Options struct {
	RawRowLimit int
}

// Compiler compiles data sources against a catalog snapshot and relationship graph.
type Compiler struct {
	Dialect *dialect.Dialect
	Catalog core.Catalog
	Graph   EdgeSource
	Options Options
	Logger  *slog.Logger
}

// Condition restricts a query to rows whose field matches one of Values.
// Values are display labels as produced by the chart builder.
type Condition struct {
	Field  string
	Values []any
}

func (c *Compiler) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

func (c *Compiler) rawLimit() int {
	if c.Options.RawRowLimit <= 0 {
		return DefaultRawRowLimit
	}
	return c.Options.RawRowLimit
}

func (c *Compiler) confirmed() []core.Relationship {
	if c.Graph == nil {
		return nil
	}
	return c.Graph.Confirmed()
}

// Compile builds the query for a widget data source. KPI data sources are
// compiled without conditions; see CompileKPI.
func (c *Compiler) Compile(ds core.DataSource) (*Query, error) {
	ds, err := c.normalize(ds)
	if err != nil {
		return nil, err
	}
	if ds.ChartType == core.ChartKPI {
		return c.CompileKPI(ds, nil)
	}
	if err := validateChart(ds); err != nil {
		return nil, err
	}

	jp, err := relgraph.ResolveJoinPath(c.Dialect, ds.TableName, ds.Tables(), c.confirmed())
	if err != nil {
		return nil, err
	}
	if err := c.validateColumns(ds, ds.Fields()); err != nil {
		return nil, err
	}

	var q *Query
	switch agg := ds.ExtraFields.Aggregation; {
	case ds.ChartType == core.ChartScatter:
		q, err = c.compileScatter(ds, jp)
	case agg == core.AggNone:
		q, err = c.compileRaw(ds, jp)
	default:
		q, err = c.compileAggregate(ds, jp, agg)
	}
	if err != nil {
		return nil, err
	}

	c.logger().Debug("compiled widget query",
		slog.String("table", ds.TableName),
		slog.String("chart", string(ds.ChartType)),
		slog.String("kind", string(q.Kind)))
	return q, nil
}

// ===== Validation =====

// normalize validates the settings shared by every chart type and returns ds
// with canonical chart type and aggregation labels.
func (c *Compiler) normalize(ds core.DataSource) (core.DataSource, error) {
	if c.Dialect == nil {
		return ds, dialect.ErrDialectRequired
	}
	if strings.TrimSpace(ds.TableName) == "" {
		return ds, core.NewValidationError("tableName", "base table is required")
	}
	ct, ok := core.ParseChartType(string(ds.ChartType))
	if !ok {
		return ds, core.NewValidationError("chartType", "unsupported chart type %q", ds.ChartType)
	}
	agg, ok := core.ParseAggregation(string(ds.ExtraFields.Aggregation))
	if !ok {
		return ds, core.NewValidationError("extraFields.aggregation", "unsupported aggregation %q", ds.ExtraFields.Aggregation)
	}
	ds.ChartType = ct
	ds.ExtraFields.Aggregation = agg
	return ds, nil
}

func validateChart(ds core.DataSource) error {
	if strings.TrimSpace(ds.XAxis) == "" {
		return core.NewValidationError("xAxis", "x axis is required for %s charts", ds.ChartType)
	}
	if len(ds.YAxis) == 0 {
		return core.NewValidationError("yAxis", "at least one y axis field is required for %s charts", ds.ChartType)
	}
	if ds.ExtraFields.SeriesBy != "" && len(ds.YAxis) > 1 {
		return core.NewValidationError("extraFields.seriesBy", "series breakdown supports a single y axis field, got %d", len(ds.YAxis))
	}
	return nil
}

// validateColumns rejects references to columns missing from a known table.
// Tables absent from the catalog are not checked.
func (c *Compiler) validateColumns(ds core.DataSource, fields []string) error {
	for _, field := range fields {
		f := ds.Ref(field)
		schema, ok := c.Catalog.Table(f.Table)
		if !ok {
			continue
		}
		if _, ok := schema.Column(f.Column); !ok {
			return core.NewValidationError(field, "column %q does not exist in table %q", f.Column, f.Table)
		}
	}
	return nil
}

// ===== Helpers =====

// columnType is the catalog type label of field, "" when unknown.
func (c *Compiler) columnType(ds core.DataSource, field string) string {
	f := ds.Ref(field)
	return c.Catalog.ColumnType(f.Table, f.Column)
}

func (c *Compiler) isTemporal(ds core.DataSource, field string) bool {
	return coerce.IsTemporalType(c.columnType(ds, field))
}

// timestamp renders field as a TIMESTAMP expression.
func (c *Compiler) timestamp(ds core.DataSource, field, ref string) string {
	if c.isTemporal(ds, field) {
		return coerce.TimestampSQL(c.Dialect, ref)
	}
	return coerce.AsTimestampSQL(c.Dialect, ref)
}

// numeric renders ref coerced to the dialect's numeric type.
func (c *Compiler) numeric(ref string) string {
	return coerce.StripNumericSQL(c.Dialect, ref)
}

// keySet hands out unique output column names.
type keySet map[string]int

func (k keySet) add(name string) string {
	k[name]++
	if n := k[name]; n > 1 {
		unique := fmt.Sprintf("%s_%d", name, n)
		k[unique]++
		return unique
	}
	return name
}

func (c *Compiler) as(expr, key string) string {
	return expr + " AS " + c.Dialect.QuoteIdentifier(key)
}

// aggregate renders the aggregate of ref. NONE folds with SUM.
func (c *Compiler) aggregate(agg core.Aggregation, ref string) string {
	switch agg {
	case core.AggCountRows:
		return "COUNT(*)"
	case core.AggCount:
		return fmt.Sprintf("COUNT(%s)", ref)
	case core.AggCountDistinct:
		return fmt.Sprintf("COUNT(DISTINCT %s)", ref)
	default:
		return aggregateNumeric(agg, c.numeric(ref))
	}
}

// aggregateNumeric renders agg over an expression that is already numeric.
func aggregateNumeric(agg core.Aggregation, expr string) string {
	switch agg {
	case core.AggAvg, core.AggMin, core.AggMax:
		return fmt.Sprintf("%s(%s)", agg, expr)
	default:
		return fmt.Sprintf("SUM(%s)", expr)
	}
}

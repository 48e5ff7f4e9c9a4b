package core

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Chart types
// =============================================================================

// ChartType identifies the widget visualisation and drives query shape.
type ChartType string

// Supported chart types.
const (
	ChartBar     ChartType = "bar"
	ChartLine    ChartType = "line"
	ChartPie     ChartType = "pie"
	ChartScatter ChartType = "scatter"
	ChartRadar   ChartType = "radar"
	ChartKPI     ChartType = "kpi"
)

// ParseChartType normalises a chart type label.
func ParseChartType(s string) (ChartType, bool) {
	switch ct := ChartType(strings.ToLower(strings.TrimSpace(s))); ct {
	case ChartBar, ChartLine, ChartPie, ChartScatter, ChartRadar, ChartKPI:
		return ct, true
	}
	return "", false
}

// =============================================================================
// Aggregations
// =============================================================================

// Aggregation selects the aggregate function applied to Y fields.
type Aggregation string

// Supported aggregations.
const (
	AggSum           Aggregation = "SUM"
	AggCount         Aggregation = "COUNT"
	AggCountDistinct Aggregation = "COUNT_DISTINCT"
	AggCountRows     Aggregation = "COUNT_ROWS"
	AggAvg           Aggregation = "AVG"
	AggMin           Aggregation = "MIN"
	AggMax           Aggregation = "MAX"
	AggNone          Aggregation = "NONE"
)

// ParseAggregation normalises an aggregation label. Empty means SUM.
func ParseAggregation(s string) (Aggregation, bool) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, " ", "_")
	if norm == "" {
		return AggSum, true
	}
	switch a := Aggregation(norm); a {
	case AggSum, AggCount, AggCountDistinct, AggCountRows, AggAvg, AggMin, AggMax, AggNone:
		return a, true
	}
	return "", false
}

// IsCount reports whether the aggregation counts raw values instead of summing numbers.
func (a Aggregation) IsCount() bool {
	return a == AggCount || a == AggCountDistinct || a == AggCountRows
}

// =============================================================================
// Time
// =============================================================================

// Granularity is the temporal bucket applied to a date/time X axis.
type Granularity string

// Granularities. GranularityRaw keeps the raw timestamp (day-level labels).
const (
	GranularityRaw   Granularity = ""
	GranularityDay   Granularity = "day"
	GranularityMonth Granularity = "month"
	GranularityYear  Granularity = "year"
)

// WindowUnit is the unit of a KPI trailing window.
type WindowUnit string

// KPI window units.
const (
	UnitDay     WindowUnit = "day"
	UnitWeek    WindowUnit = "week"
	UnitMonth   WindowUnit = "month"
	UnitQuarter WindowUnit = "quarter"
	UnitYear    WindowUnit = "year"
)

// ParseWindowUnit accepts singular or plural unit names. Empty means day.
func ParseWindowUnit(s string) (WindowUnit, bool) {
	norm := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s")
	if norm == "" {
		return UnitDay, true
	}
	switch u := WindowUnit(norm); u {
	case UnitDay, UnitWeek, UnitMonth, UnitQuarter, UnitYear:
		return u, true
	}
	return "", false
}

// =============================================================================
// Field references
// =============================================================================

// FieldRef is a parsed "table.column" or bare "column" reference.
type FieldRef struct {
	Table  string
	Column string
}

// ParseFieldRef parses ref relative to base. A bare column belongs to base.
func ParseFieldRef(ref, base string) FieldRef {
	ref = strings.TrimSpace(ref)
	if i := strings.Index(ref, "."); i > 0 && i < len(ref)-1 {
		return FieldRef{Table: ref[:i], Column: ref[i+1:]}
	}
	return FieldRef{Table: base, Column: ref}
}

// String returns "table.column".
func (f FieldRef) String() string {
	return f.Table + "." + f.Column
}

// FieldList is a list of field references that also decodes from a single string.
type FieldList []string

// UnmarshalJSON accepts either "a" or ["a", "b"].
func (l *FieldList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*l = splitNonEmpty(one)
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("yAxis must be a string or list of strings: %w", err)
	}
	*l = compact(many)
	return nil
}

// UnmarshalYAML accepts either a scalar or a sequence.
func (l *FieldList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*l = splitNonEmpty(node.Value)
		return nil
	case yaml.SequenceNode:
		var many []string
		if err := node.Decode(&many); err != nil {
			return err
		}
		*l = compact(many)
		return nil
	}
	return fmt.Errorf("yAxis must be a string or list of strings")
}

func splitNonEmpty(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return []string{strings.TrimSpace(s)}
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// =============================================================================
// Data source
// =============================================================================

// ExtraFields carries chart-type specific options of a data source.
type ExtraFields struct {
	Aggregation     Aggregation        `json:"aggregation,omitempty" yaml:"aggregation,omitempty" mapstructure:"aggregation"`
	SeriesBy        string             `json:"seriesBy,omitempty" yaml:"seriesBy,omitempty" mapstructure:"seriesBy"`
	TimeGranularity Granularity        `json:"timeGranularity,omitempty" yaml:"timeGranularity,omitempty" mapstructure:"timeGranularity"`
	KPITimeColumn   string             `json:"kpiTimeColumn,omitempty" yaml:"kpiTimeColumn,omitempty" mapstructure:"kpiTimeColumn"`
	KPIWindowValue  int                `json:"kpiWindowValue,omitempty" yaml:"kpiWindowValue,omitempty" mapstructure:"kpiWindowValue"`
	KPIWindowUnit   WindowUnit         `json:"kpiWindowUnit,omitempty" yaml:"kpiWindowUnit,omitempty" mapstructure:"kpiWindowUnit"`
	KPIFilterXAxis  string             `json:"kpiFilterXAxis,omitempty" yaml:"kpiFilterXAxis,omitempty" mapstructure:"kpiFilterXAxis"`
	KPILabel        string             `json:"kpiLabel,omitempty" yaml:"kpiLabel,omitempty" mapstructure:"kpiLabel"`
	KPIThresholds   map[string]float64 `json:"kpiThresholds,omitempty" yaml:"kpiThresholds,omitempty" mapstructure:"kpiThresholds"`
}

// DefaultKPIWindow is used when a time column is set without a window size.
const DefaultKPIWindow = 30

// DataSource is the declarative configuration a widget is compiled from.
type DataSource struct {
	TableName   string      `json:"tableName" yaml:"tableName" mapstructure:"tableName"`
	XAxis       string      `json:"xAxis,omitempty" yaml:"xAxis,omitempty" mapstructure:"xAxis"`
	YAxis       FieldList   `json:"yAxis,omitempty" yaml:"yAxis,omitempty" mapstructure:"yAxis"`
	ChartType   ChartType   `json:"chartType" yaml:"chartType" mapstructure:"chartType"`
	ExtraFields ExtraFields `json:"extraFields,omitempty" yaml:"extraFields,omitempty" mapstructure:"extraFields"`
}

// Ref parses a field reference relative to the base table.
func (d DataSource) Ref(field string) FieldRef {
	return ParseFieldRef(field, d.TableName)
}

// Fields returns every non-empty field reference used by the data source,
// in X, Y, seriesBy, KPI time column, KPI filter order.
func (d DataSource) Fields() []string {
	var out []string
	add := func(s string) {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	add(d.XAxis)
	for _, y := range d.YAxis {
		add(y)
	}
	add(d.ExtraFields.SeriesBy)
	if d.ChartType == ChartKPI {
		add(d.ExtraFields.KPITimeColumn)
		add(d.ExtraFields.KPIFilterXAxis)
	}
	return out
}

// Tables returns the distinct tables referenced by the data source, base first.
func (d DataSource) Tables() []string {
	seen := map[string]bool{d.TableName: true}
	out := []string{d.TableName}
	for _, f := range d.Fields() {
		t := d.Ref(f).Table
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// Widget is a dashboard widget bound to a data source.
type Widget struct {
	ID         string     `json:"id" yaml:"id"`
	Title      string     `json:"title,omitempty" yaml:"title,omitempty"`
	DataSource DataSource `json:"dataSource" yaml:"dataSource"`
}

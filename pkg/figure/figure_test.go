package figure

import (
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdash/internal/testutil"
	"github.com/leapstack-labs/leapdash/pkg/chart"
	"github.com/leapstack-labs/leapdash/pkg/core"
)

func testOptions(t *testing.T) Options {
	return Options{Theme: DefaultTheme(), Logger: testutil.NewTestLogger(t)}
}

func TestNormalize_RoundTrip(t *testing.T) {
	rows := []core.Row{
		{"region": "North", "revenue": 10, "cost": 4},
		{"region": "South", "revenue": 20, "cost": 8},
		{"region": "East", "revenue": 5, "cost": 1},
	}

	tests := []struct {
		chartType core.ChartType
		yKeys     []string
		kind      Kind
	}{
		{core.ChartBar, []string{"revenue", "cost"}, KindBar},
		{core.ChartLine, []string{"revenue"}, KindLine},
		{core.ChartPie, []string{"revenue"}, KindPie},
		{core.ChartPie, []string{"revenue", "cost"}, KindPie},
		{core.ChartScatter, []string{"cost"}, KindScatter},
		{core.ChartRadar, []string{"revenue", "cost"}, KindRadar},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%d", tt.chartType, len(tt.yKeys)), func(t *testing.T) {
			xKey := "region"
			if tt.chartType == core.ChartScatter {
				xKey = "revenue"
			}
			spec := chart.Build(rows, tt.chartType, xKey, tt.yKeys, chart.Options{})

			for _, input := range []any{spec, *spec} {
				fig := Normalize(input, testOptions(t))
				assert.False(t, fig.Fallback, fig.Reason)
				assert.Equal(t, tt.kind, fig.Kind)
				assert.True(t, fig.HasData())
				assert.Equal(t, spec.Title, fig.Title)
			}
		})
	}
}

func TestNormalize_BarFromSpec(t *testing.T) {
	spec := chart.Build([]core.Row{
		{"region": "North", "revenue": 10},
		{"region": "South", "revenue": 20},
	}, core.ChartBar, "region", []string{"revenue"}, chart.Options{})

	fig := Normalize(spec, testOptions(t))
	require.NotNil(t, fig.Axis)
	assert.Equal(t, []string{"North", "South"}, fig.Axis.Categories)
	require.Len(t, fig.Axis.Series, 1)
	assert.Equal(t, "revenue", fig.Axis.Series[0].Name)
	assert.Equal(t, []float64{10, 20}, fig.Axis.Series[0].Values)
	assert.Equal(t, DefaultPalette[0], fig.Axis.Series[0].Color)
}

func TestNormalize_ChartJS(t *testing.T) {
	input := `{
		"type": "bar",
		"data": {
			"labels": ["Q1", "Q2", "Q3"],
			"datasets": [
				{"label": "Revenue", "data": [100, "250", null]},
				{"label": "Cost", "data": [40, 60]}
			]
		},
		"options": {"plugins": {"title": {"text": "Quarterly"}}}
	}`

	fig := Normalize(input, testOptions(t))

	assert.False(t, fig.Fallback, fig.Reason)
	assert.Equal(t, KindBar, fig.Kind)
	assert.Equal(t, "Quarterly", fig.Title)
	require.NotNil(t, fig.Axis)
	assert.Equal(t, []string{"Q1", "Q2", "Q3"}, fig.Axis.Categories)
	require.Len(t, fig.Axis.Series, 2)
	assert.Equal(t, "Revenue", fig.Axis.Series[0].Name)
	assert.Equal(t, []float64{100, 250, 0}, fig.Axis.Series[0].Values)
	assert.Equal(t, []float64{40, 60, 0}, fig.Axis.Series[1].Values)
}

func TestNormalize_ChartJSBare(t *testing.T) {
	input := map[string]any{
		"labels":   []any{"a", "b"},
		"datasets": []any{map[string]any{"data": []any{1.0, 2.0}}},
	}

	fig := Normalize(input, Options{Type: core.ChartPie})
	require.NotNil(t, fig.Pie)
	assert.Equal(t, []PieSlice{
		{Label: "a", Value: 1, Color: DefaultPalette[0]},
		{Label: "b", Value: 2, Color: DefaultPalette[1]},
	}, fig.Pie.Slices)
}

func TestNormalize_ObjectPoints(t *testing.T) {
	input := `{"series": [{"name": "sales", "type": "line", "data": [{"name": "Mon", "value": 3}, {"name": "Tue", "value": "4"}]}]}`

	fig := Normalize(input, Options{})
	assert.Equal(t, KindLine, fig.Kind)
	assert.Equal(t, []string{"Mon", "Tue"}, fig.Axis.Categories)
	assert.Equal(t, []float64{3, 4}, fig.Axis.Series[0].Values)
}

func TestNormalize_PieScalarsWithLegend(t *testing.T) {
	input := `{"legend": {"data": ["web", "store"]}, "series": [{"type": "pie", "data": [7, 3, 1]}]}`

	fig := Normalize(input, Options{})
	require.NotNil(t, fig.Pie)
	labels := []string{}
	for _, s := range fig.Pie.Slices {
		labels = append(labels, s.Label)
	}
	assert.Equal(t, []string{"web", "store", "Slice 3"}, labels)
}

func TestNormalize_ScatterPoints(t *testing.T) {
	input := `{"series": [{"type": "scatter", "data": [[1, 2], {"x": 3, "y": 4}, {"value": [5, 6], "name": "p3"}]}]}`

	fig := Normalize(input, Options{})
	require.NotNil(t, fig.Scatter)
	require.Len(t, fig.Scatter.Series, 1)
	assert.Equal(t, []ScatterPoint{
		{X: 1, Y: 2, Label: "1"},
		{X: 3, Y: 4, Label: "3"},
		{X: 5, Y: 6, Label: "p3"},
	}, fig.Scatter.Series[0].Points)
}

func TestNormalize_RadarNested(t *testing.T) {
	input := `{
		"radar": {"indicator": [{"name": "speed", "max": 10}, {"name": "power"}]},
		"series": [{"type": "radar", "data": [{"name": "a", "value": [3, 12]}, {"name": "b", "value": [1]}]}]
	}`

	fig := Normalize(input, Options{})
	require.NotNil(t, fig.Radar)
	assert.Equal(t, []string{"speed", "power"}, fig.Radar.Indicators)
	assert.Equal(t, []float64{10, 12}, fig.Radar.Max)
	require.Len(t, fig.Radar.Series, 2)
	assert.Equal(t, []float64{1, 0}, fig.Radar.Series[1].Values)
}

func TestNormalize_KPI(t *testing.T) {
	fig := Normalize(chart.BuildKPI(150, 100, chart.KPIOptions{Label: "Revenue"}), Options{})
	require.NotNil(t, fig.KPI)
	assert.Equal(t, KindKPI, fig.Kind)
	assert.Equal(t, 150.0, fig.KPI.Value)
	require.NotNil(t, fig.KPI.DeltaPct)
	assert.InDelta(t, 50, *fig.KPI.DeltaPct, 1e-9)

	assert.Equal(t, "Revenue", fig.KPI.Label)
}

func TestNormalize_FallbackDerivesBar(t *testing.T) {
	rs := &core.ResultSet{
		Columns: []string{"region", "note", "total"},
		Rows: []core.Row{
			{"region": "North", "note": "x", "total": "$1,000"},
			{"region": "South", "note": "y", "total": nil},
			{"region": "East", "note": "z", "total": 7},
		},
	}

	logger, rec := testutil.NewRecorder()
	fig := Normalize(`{"series": []}`, Options{Fallback: rs, Logger: logger})

	assert.True(t, fig.Fallback)
	assert.NotEmpty(t, fig.Reason)

	warn, ok := rec.Find("chart normalization fallback")
	require.True(t, ok)
	assert.Equal(t, slog.LevelWarn, warn.Level)
	assert.Equal(t, "bar", warn.Attrs["kind"])
	assert.Equal(t, fig.Reason, warn.Attrs["reason"])
	assert.Equal(t, KindBar, fig.Kind)
	assert.Equal(t, []string{"North", "South", "East"}, fig.Axis.Categories)
	assert.Equal(t, "total", fig.Axis.Series[0].Name)
	assert.Equal(t, []float64{1000, 0, 7}, fig.Axis.Series[0].Values)
}

func TestNormalize_FallbackFrequency(t *testing.T) {
	rs := &core.ResultSet{Columns: []string{"city", "note"}}
	// 30 distinct cities; city-29 appears 3 times, city-5 twice
	for i := 0; i < 30; i++ {
		rs.Rows = append(rs.Rows, core.Row{"city": fmt.Sprintf("city-%d", i), "note": "n"})
	}
	rs.Rows = append(rs.Rows,
		core.Row{"city": "city-29", "note": "n"},
		core.Row{"city": "city-29", "note": "n"},
		core.Row{"city": "city-5", "note": "n"},
	)

	fig := Normalize("not json", Options{Fallback: rs})

	assert.True(t, fig.Fallback)
	require.NotNil(t, fig.Axis)
	assert.Len(t, fig.Axis.Categories, MaxFrequencyCategories)
	assert.Equal(t, []string{"city-29", "city-5", "city-0"}, fig.Axis.Categories[:3])
	assert.Equal(t, []float64{3, 2, 1}, fig.Axis.Series[0].Values[:3])
}

func TestNormalize_Placeholder(t *testing.T) {
	for _, input := range []any{nil, "", "[]", `{"title": "x"}`, 42, (*chart.Spec)(nil)} {
		fig := Normalize(input, Options{})
		require.NotNil(t, fig)
		assert.Equal(t, KindEmpty, fig.Kind, "%v", input)
		assert.True(t, fig.Fallback)
		assert.False(t, fig.HasData())
	}
}

type explosive struct{}

func (explosive) MarshalJSON() ([]byte, error) { panic("boom") }

func TestNormalize_NeverPanics(t *testing.T) {
	var fig *Figure
	assert.NotPanics(t, func() { fig = Normalize(explosive{}, testOptions(t)) })
	require.NotNil(t, fig)
	assert.True(t, fig.Fallback)
	assert.Contains(t, fig.Reason, "boom")
}

func TestLabelAt(t *testing.T) {
	fig := &Figure{Kind: KindBar, Axis: &AxisData{Categories: []string{"2024/01", "2024/02"}}}

	label, ok := fig.LabelAt(0, 1)
	assert.True(t, ok)
	assert.Equal(t, "2024/02", label)

	_, ok = fig.LabelAt(0, 2)
	assert.False(t, ok)
	_, ok = fig.LabelAt(0, -1)
	assert.False(t, ok)

	pie := &Figure{Kind: KindPie, Pie: &PieData{Slices: []PieSlice{{Label: "web"}}}}
	label, ok = pie.LabelAt(3, 0)
	assert.True(t, ok)
	assert.Equal(t, "web", label)

	kpi := &Figure{Kind: KindKPI, KPI: &KPIData{Label: "Revenue", Value: 10}}
	label, ok = kpi.LabelAt(0, 0)
	assert.False(t, ok)
	assert.Empty(t, label)
}

func TestKeep(t *testing.T) {
	fig := &Figure{Kind: KindBar, Axis: &AxisData{
		Categories: []string{"a", "b", "c"},
		Series:     []AxisSeries{{Name: "v", Values: []float64{1, 2, 3}}},
	}}

	kept := fig.Keep(func(l string) bool { return l != "b" })

	assert.Equal(t, []string{"a", "c"}, kept.Axis.Categories)
	assert.Equal(t, []float64{1, 3}, kept.Axis.Series[0].Values)
	// original untouched
	assert.Equal(t, []float64{1, 2, 3}, fig.Axis.Series[0].Values)
}

func TestThemePalette(t *testing.T) {
	spec := chart.Build([]core.Row{{"x": "a", "p": 1, "q": 2}}, core.ChartBar, "x", []string{"p", "q"}, chart.Options{})

	fig := Normalize(spec, Options{Theme: Theme{Palette: []string{"#000"}}})
	assert.Equal(t, "#000", fig.Axis.Series[0].Color)
	assert.Equal(t, "#000", fig.Axis.Series[1].Color)
}

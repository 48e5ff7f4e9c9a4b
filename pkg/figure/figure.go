// Package figure normalises chart configurations into a closed set of figure
// variants the dashboard can always render.
//
// Input comes from two places: specs produced by the chart builder, and
// free-form JSON written by people or returned by an LLM (ECharts options,
// Chart.js configs, half-formed mixtures of both). Normalize never panics and
// never returns nil; when nothing usable is found it derives a bar figure
// from the query rows or returns an empty placeholder, flagged as a fallback.
package figure

import "slices"

// Kind identifies the figure variant.
type Kind string

// Figure kinds. Bar and line figures carry Axis data.
const (
	KindBar     Kind = "bar"
	KindLine    Kind = "line"
	KindPie     Kind = "pie"
	KindScatter Kind = "scatter"
	KindRadar   Kind = "radar"
	KindKPI     Kind = "kpi"
	KindEmpty   Kind = "empty"
)

// Figure is a normalised chart. Exactly one of the variant pointers matching
// Kind is set; KindEmpty sets none.
type Figure struct {
	Kind  Kind
	Title string

	Axis    *AxisData
	Pie     *PieData
	Scatter *ScatterData
	Radar   *RadarData
	KPI     *KPIData

	// Fallback is set when the input could not be used as given.
	Fallback bool
	Reason   string
}

// AxisData is a category axis with aligned value series.
type AxisData struct {
	XName      string
	YName      string
	Categories []string
	Series     []AxisSeries
}

// AxisSeries is one bar or line series; Values align with Categories.
type AxisSeries struct {
	Name   string
	Type   Kind
	Values []float64
	Color  string
}

// PieData is a list of labelled slices.
type PieData struct {
	Name   string
	Slices []PieSlice
}

// PieSlice is one pie slice.
type PieSlice struct {
	Label string
	Value float64
	Color string
}

// ScatterData holds point series.
type ScatterData struct {
	XName  string
	YName  string
	Series []ScatterSeries
}

// ScatterSeries is one point series.
type ScatterSeries struct {
	Name   string
	Points []ScatterPoint
	Color  string
}

// ScatterPoint is an x/y pair with the label it originated from, if any.
type ScatterPoint struct {
	X, Y  float64
	Label string
}

// RadarData holds radar indicators and aligned series.
type RadarData struct {
	Indicators []string
	Max        []float64
	Series     []RadarSeries
}

// RadarSeries is one radar polygon; Values align with Indicators.
type RadarSeries struct {
	Name   string
	Values []float64
	Color  string
}

// KPIData is a headline number with optional comparison.
type KPIData struct {
	Label      string
	Value      float64
	Previous   *float64
	DeltaPct   *float64
	Thresholds map[string]float64
	Window     string
}

// HasData reports whether the figure has at least one non-empty series.
func (f *Figure) HasData() bool {
	if f == nil {
		return false
	}
	switch f.Kind {
	case KindBar, KindLine:
		if f.Axis == nil {
			return false
		}
		for _, s := range f.Axis.Series {
			if len(s.Values) > 0 {
				return true
			}
		}
	case KindPie:
		return f.Pie != nil && len(f.Pie.Slices) > 0
	case KindScatter:
		if f.Scatter == nil {
			return false
		}
		for _, s := range f.Scatter.Series {
			if len(s.Points) > 0 {
				return true
			}
		}
	case KindRadar:
		if f.Radar == nil {
			return false
		}
		for _, s := range f.Radar.Series {
			if len(s.Values) > 0 {
				return true
			}
		}
	case KindKPI:
		return f.KPI != nil
	}
	return false
}

// LabelAt returns the category label of a point, as needed to turn a click
// into a filter value. series is ignored for variants whose points share labels.
// Only bar, line, pie, radar and scatter figures have labelled points.
func (f *Figure) LabelAt(series, point int) (string, bool) {
	if f == nil || point < 0 {
		return "", false
	}
	switch f.Kind {
	case KindBar, KindLine:
		if f.Axis != nil && point < len(f.Axis.Categories) {
			return f.Axis.Categories[point], true
		}
	case KindPie:
		if f.Pie != nil && point < len(f.Pie.Slices) {
			return f.Pie.Slices[point].Label, true
		}
	case KindRadar:
		if f.Radar != nil && point < len(f.Radar.Indicators) {
			return f.Radar.Indicators[point], true
		}
	case KindScatter:
		if f.Scatter == nil || series < 0 || series >= len(f.Scatter.Series) {
			return "", false
		}
		pts := f.Scatter.Series[series].Points
		if point < len(pts) && pts[point].Label != "" {
			return pts[point].Label, true
		}
	}
	// KPI cards have no categories to select.
	return "", false
}

// Categories returns the distinct category labels of the figure in display order.
func (f *Figure) Categories() []string {
	if f == nil {
		return nil
	}
	var out []string
	switch f.Kind {
	case KindBar, KindLine:
		if f.Axis != nil {
			out = slices.Clone(f.Axis.Categories)
		}
	case KindPie:
		if f.Pie != nil {
			for _, s := range f.Pie.Slices {
				out = append(out, s.Label)
			}
		}
	case KindRadar:
		if f.Radar != nil {
			out = slices.Clone(f.Radar.Indicators)
		}
	case KindScatter:
		if f.Scatter != nil {
			seen := map[string]bool{}
			for _, s := range f.Scatter.Series {
				for _, p := range s.Points {
					if p.Label != "" && !seen[p.Label] {
						seen[p.Label] = true
						out = append(out, p.Label)
					}
				}
			}
		}
	}
	return out
}

// Keep returns a copy of the figure restricted to the categories for which
// keep returns true. KPI and empty figures are returned unchanged.
func (f *Figure) Keep(keep func(label string) bool) *Figure {
	if f == nil {
		return nil
	}
	out := *f
	switch f.Kind {
	case KindBar, KindLine:
		if f.Axis == nil {
			break
		}
		axis := *f.Axis
		axis.Categories = nil
		axis.Series = make([]AxisSeries, len(f.Axis.Series))
		for i, s := range f.Axis.Series {
			axis.Series[i] = s
			axis.Series[i].Values = nil
		}
		for ci, c := range f.Axis.Categories {
			if !keep(c) {
				continue
			}
			axis.Categories = append(axis.Categories, c)
			for i, s := range f.Axis.Series {
				if ci < len(s.Values) {
					axis.Series[i].Values = append(axis.Series[i].Values, s.Values[ci])
				}
			}
		}
		out.Axis = &axis
	case KindPie:
		if f.Pie == nil {
			break
		}
		pie := *f.Pie
		pie.Slices = nil
		for _, s := range f.Pie.Slices {
			if keep(s.Label) {
				pie.Slices = append(pie.Slices, s)
			}
		}
		out.Pie = &pie
	case KindRadar:
		if f.Radar == nil {
			break
		}
		radar := RadarData{Series: make([]RadarSeries, len(f.Radar.Series))}
		for i, s := range f.Radar.Series {
			radar.Series[i] = s
			radar.Series[i].Values = nil
		}
		for ii, ind := range f.Radar.Indicators {
			if !keep(ind) {
				continue
			}
			radar.Indicators = append(radar.Indicators, ind)
			if ii < len(f.Radar.Max) {
				radar.Max = append(radar.Max, f.Radar.Max[ii])
			}
			for i, s := range f.Radar.Series {
				if ii < len(s.Values) {
					radar.Series[i].Values = append(radar.Series[i].Values, s.Values[ii])
				}
			}
		}
		out.Radar = &radar
	case KindScatter:
		if f.Scatter == nil {
			break
		}
		sc := *f.Scatter
		sc.Series = make([]ScatterSeries, len(f.Scatter.Series))
		for i, s := range f.Scatter.Series {
			sc.Series[i] = s
			sc.Series[i].Points = nil
			for _, p := range s.Points {
				if keep(p.Label) {
					sc.Series[i].Points = append(sc.Series[i].Points, p)
				}
			}
		}
		out.Scatter = &sc
	}
	return &out
}

// Package chart shapes query result rows into chart specifications.
//
// A Spec serialises to the ECharts-style option keys the dashboard front end
// consumes (title, xAxis, yAxis, legend, radar, series) plus a kpi block for
// KPI widgets. The figure package reads Specs back, along with arbitrary
// chart JSON, into its normalised variants.
package chart

// Spec is a chart configuration.
type Spec struct {
	Title  string   `json:"title,omitempty"`
	XAxis  *Axis    `json:"xAxis,omitempty"`
	YAxis  *Axis    `json:"yAxis,omitempty"`
	Legend *Legend  `json:"legend,omitempty"`
	Radar  *Radar   `json:"radar,omitempty"`
	Series []Series `json:"series,omitempty"`
	KPI    *KPI     `json:"kpi,omitempty"`
}

// Axis is a category or value axis.
type Axis struct {
	Name string   `json:"name,omitempty"`
	Data []string `json:"data,omitempty"`
}

// Legend lists series or slice names.
type Legend struct {
	Data []string `json:"data"`
}

// Radar holds the indicator axes of a radar chart.
type Radar struct {
	Indicator []Indicator `json:"indicator"`
}

// Indicator is one radar axis.
type Indicator struct {
	Name string  `json:"name"`
	Max  float64 `json:"max,omitempty"`
}

// Series is one data series. Data holds []float64 for bar and line,
// []Slice for pie and []Point for scatter. Radar series carry Value instead.
type Series struct {
	Name  string    `json:"name,omitempty"`
	Type  string    `json:"type"`
	Data  any       `json:"data,omitempty"`
	Value []float64 `json:"value,omitempty"`
}

// Slice is a named pie value.
type Slice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Point is an [x, y] scatter pair.
type Point [2]float64

// KPI is the headline figure of a KPI widget.
type KPI struct {
	Label      string             `json:"label,omitempty"`
	Value      float64            `json:"value"`
	Previous   *float64           `json:"previous"`
	DeltaPct   *float64           `json:"deltaPct"`
	Thresholds map[string]float64 `json:"thresholds,omitempty"`
	Window     string             `json:"window,omitempty"`
}

// Categories returns the x axis labels, or nil.
func (s *Spec) Categories() []string {
	if s == nil || s.XAxis == nil {
		return nil
	}
	return s.XAxis.Data
}

package figure

import (
	"math"
	"strconv"

	"github.com/leapstack-labs/leapdash/pkg/coerce"
	"github.com/leapstack-labs/leapdash/pkg/core"
)

// fromMap reads a decoded chart configuration. The result may carry no data;
// the caller decides whether to fall back.
func fromMap(m map[string]any, configured core.ChartType) *Figure {
	if m == nil {
		return &Figure{Kind: KindEmpty}
	}
	kind := resolveKind(m, configured)
	fig := &Figure{Kind: kind, Title: titleOf(m)}

	if kind == KindKPI {
		fig.KPI = kpiOf(m)
		return fig
	}

	if labels, datasets, ok := chartJS(m); ok {
		fromChartJS(fig, labels, datasets)
		return fig
	}

	switch kind {
	case KindPie:
		fig.Pie = pieOf(m)
	case KindScatter:
		fig.Scatter = scatterOf(m)
	case KindRadar:
		fig.Radar = radarOf(m)
	default:
		fig.Axis = axisOf(m, kind)
	}
	return fig
}

// ===== Generic accessors =====

func str(v any) string {
	if v == nil {
		return ""
	}
	return coerce.ToText(v)
}

func list(v any) []any {
	switch x := v.(type) {
	case []any:
		return x
	case map[string]any:
		return []any{x}
	}
	return nil
}

// first returns v, or the first element when v is a list (ECharts allows both for axes).
func first(v any) map[string]any {
	switch x := v.(type) {
	case map[string]any:
		return x
	case []any:
		if len(x) > 0 {
			m, _ := x[0].(map[string]any)
			return m
		}
	}
	return nil
}

func seriesList(m map[string]any) []any {
	return list(m["series"])
}

func labelsOf(v any) []string {
	items := list(v)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if im, ok := item.(map[string]any); ok {
			out = append(out, str(firstOf(im, "name", "value", "text")))
			continue
		}
		out = append(out, str(item))
	}
	return out
}

func firstOf(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func titleOf(m map[string]any) string {
	switch t := m["title"].(type) {
	case string:
		return t
	case map[string]any:
		return str(t["text"])
	case []any:
		if tm := first(t); tm != nil {
			return str(tm["text"])
		}
	}
	if opts, ok := m["options"].(map[string]any); ok {
		if pl, ok := opts["plugins"].(map[string]any); ok {
			if tm, ok := pl["title"].(map[string]any); ok {
				return str(tm["text"])
			}
		}
	}
	return ""
}

// point reads one data point: a scalar, {value, name}, {x, y} or [x, y].
// label is the category the point names, if any; x is set for pairs.
type point struct {
	label string
	x, y  float64
	pair  bool
	ok    bool
}

func readPoint(v any) point {
	switch p := v.(type) {
	case map[string]any:
		label := str(firstOf(p, "name", "label", "category"))
		if val, ok := p["value"]; ok {
			if arr, ok := val.([]any); ok {
				pt := readPoint(arr)
				if label != "" {
					pt.label = label
				}
				return pt
			}
			return point{label: label, y: coerce.ToNumber(val), ok: true}
		}
		if yv, ok := p["y"]; ok {
			xv := p["x"]
			if label == "" && xv != nil {
				label = str(xv)
			}
			xf, isNum := coerce.Number(xv)
			return point{label: label, x: xf, y: coerce.ToNumber(yv), pair: isNum, ok: true}
		}
		return point{}
	case []any:
		switch len(p) {
		case 0:
			return point{}
		case 1:
			return point{y: coerce.ToNumber(p[0]), ok: true}
		}
		xv, yv := p[0], p[len(p)-1]
		xf, isNum := coerce.Number(xv)
		return point{label: str(xv), x: xf, y: coerce.ToNumber(yv), pair: isNum, ok: true}
	case nil:
		return point{y: 0, ok: true}
	default:
		return point{y: coerce.ToNumber(p), ok: true}
	}
}

func indexLabel(i int) string {
	return strconv.Itoa(i + 1)
}

// ===== ECharts-style options =====

func axisOf(m map[string]any, kind Kind) *AxisData {
	axis := &AxisData{}
	xAxis, yAxis := first(m["xAxis"]), first(m["yAxis"])
	if xAxis != nil {
		axis.XName = str(xAxis["name"])
		axis.Categories = labelsOf(xAxis["data"])
	}
	if yAxis != nil {
		axis.YName = str(yAxis["name"])
		// horizontal bars put the categories on the y axis
		if len(axis.Categories) == 0 {
			axis.Categories = labelsOf(yAxis["data"])
		}
	}
	if len(axis.Categories) == 0 {
		axis.Categories = labelsOf(m["labels"])
	}

	var inferred []string
	for i, s := range seriesList(m) {
		name, data := seriesData(s, i)
		if len(data) == 0 {
			continue
		}
		values := make([]float64, 0, len(data))
		labels := make([]string, 0, len(data))
		for _, d := range data {
			pt := readPoint(d)
			values = append(values, pt.y)
			labels = append(labels, pt.label)
		}
		if inferred == nil && hasLabels(labels) {
			inferred = labels
		}
		axis.Series = append(axis.Series, AxisSeries{Name: name, Type: kind, Values: values})
	}
	if len(axis.Categories) == 0 {
		axis.Categories = inferred
	}
	align(axis)
	return axis
}

// seriesData returns a series name and its data points. A bare list is a
// single unnamed series.
func seriesData(s any, i int) (string, []any) {
	switch x := s.(type) {
	case map[string]any:
		name := str(firstOf(x, "name", "label"))
		if name == "" {
			name = "Series " + indexLabel(i)
		}
		if d := list(x["data"]); d != nil {
			return name, d
		}
		return name, list(x["value"])
	case []any:
		return "Series " + indexLabel(i), x
	}
	return "", nil
}

func hasLabels(labels []string) bool {
	for _, l := range labels {
		if l != "" {
			return true
		}
	}
	return false
}

// align pads categories with positional labels and series values with zeros
// so every series has exactly one value per category.
func align(axis *AxisData) {
	n := len(axis.Categories)
	for _, s := range axis.Series {
		n = max(n, len(s.Values))
	}
	for i := len(axis.Categories); i < n; i++ {
		axis.Categories = append(axis.Categories, indexLabel(i))
	}
	for i := range axis.Series {
		for len(axis.Series[i].Values) < n {
			axis.Series[i].Values = append(axis.Series[i].Values, 0)
		}
	}
}

func pieOf(m map[string]any) *PieData {
	pie := &PieData{}
	labels := labelsOf(firstOf(m, "labels"))
	if len(labels) == 0 {
		if lg := first(m["legend"]); lg != nil {
			labels = labelsOf(lg["data"])
		}
	}
	if len(labels) == 0 {
		if xa := first(m["xAxis"]); xa != nil {
			labels = labelsOf(xa["data"])
		}
	}

	for i, s := range seriesList(m) {
		name, data := seriesData(s, i)
		if pie.Name == "" {
			pie.Name = name
		}
		for j, d := range data {
			pt := readPoint(d)
			if !pt.ok {
				continue
			}
			label := pt.label
			if label == "" {
				if j < len(labels) {
					label = labels[j]
				} else {
					label = "Slice " + indexLabel(j)
				}
			}
			pie.Slices = append(pie.Slices, PieSlice{Label: label, Value: pt.y})
		}
	}
	return pie
}

func scatterOf(m map[string]any) *ScatterData {
	sc := &ScatterData{}
	if xa := first(m["xAxis"]); xa != nil {
		sc.XName = str(xa["name"])
	}
	if ya := first(m["yAxis"]); ya != nil {
		sc.YName = str(ya["name"])
	}
	for i, s := range seriesList(m) {
		name, data := seriesData(s, i)
		series := ScatterSeries{Name: name}
		for j, d := range data {
			pt := readPoint(d)
			if !pt.ok {
				continue
			}
			if !pt.pair {
				pt.x = float64(j)
			}
			series.Points = append(series.Points, ScatterPoint{X: pt.x, Y: pt.y, Label: pt.label})
		}
		if len(series.Points) > 0 {
			sc.Series = append(sc.Series, series)
		}
	}
	return sc
}

func radarOf(m map[string]any) *RadarData {
	radar := &RadarData{}
	var maxes []float64
	if rm := first(m["radar"]); rm != nil {
		for _, ind := range list(rm["indicator"]) {
			if im, ok := ind.(map[string]any); ok {
				radar.Indicators = append(radar.Indicators, str(firstOf(im, "name", "text")))
				maxes = append(maxes, coerce.ToNumber(im["max"]))
				continue
			}
			radar.Indicators = append(radar.Indicators, str(ind))
			maxes = append(maxes, 0)
		}
	}
	if len(radar.Indicators) == 0 {
		radar.Indicators = labelsOf(m["labels"])
	}

	for i, s := range seriesList(m) {
		sm, ok := s.(map[string]any)
		if !ok {
			if vals := numbers(list(s)); len(vals) > 0 {
				radar.Series = append(radar.Series, RadarSeries{Name: "Series " + indexLabel(i), Values: vals})
			}
			continue
		}
		name := str(firstOf(sm, "name", "label"))
		if v := list(sm["value"]); v != nil {
			radar.Series = append(radar.Series, RadarSeries{Name: name, Values: numbers(v)})
			continue
		}
		data := list(sm["data"])
		if len(data) > 0 && !isNested(data) {
			radar.Series = append(radar.Series, RadarSeries{Name: name, Values: numbers(data)})
			continue
		}
		for j, d := range data {
			switch e := d.(type) {
			case map[string]any:
				n := str(e["name"])
				if n == "" {
					n = name
				}
				radar.Series = append(radar.Series, RadarSeries{Name: n, Values: numbers(list(e["value"]))})
			case []any:
				radar.Series = append(radar.Series, RadarSeries{Name: name + " " + indexLabel(j), Values: numbers(e)})
			}
		}
	}

	alignRadar(radar, maxes)
	return radar
}

func isNested(data []any) bool {
	switch data[0].(type) {
	case map[string]any, []any:
		return true
	}
	return false
}

func numbers(items []any) []float64 {
	out := make([]float64, 0, len(items))
	for _, it := range items {
		out = append(out, readPoint(it).y)
	}
	return out
}

func alignRadar(radar *RadarData, maxes []float64) {
	n := len(radar.Indicators)
	for _, s := range radar.Series {
		n = max(n, len(s.Values))
	}
	for i := len(radar.Indicators); i < n; i++ {
		radar.Indicators = append(radar.Indicators, indexLabel(i))
	}
	radar.Max = make([]float64, n)
	copy(radar.Max, maxes)
	for i := range radar.Series {
		for len(radar.Series[i].Values) < n {
			radar.Series[i].Values = append(radar.Series[i].Values, 0)
		}
		for j, v := range radar.Series[i].Values {
			if v > radar.Max[j] {
				radar.Max[j] = v
			}
		}
	}
	// drop empty series
	kept := radar.Series[:0]
	for _, s := range radar.Series {
		if len(s.Values) > 0 {
			kept = append(kept, s)
		}
	}
	radar.Series = kept
}

// ===== Chart.js configs =====

// chartJS recognises {data: {labels, datasets}} and bare {labels, datasets}.
func chartJS(m map[string]any) ([]string, []any, bool) {
	if dm, ok := m["data"].(map[string]any); ok {
		if ds, ok := dm["datasets"]; ok {
			return labelsOf(dm["labels"]), list(ds), true
		}
	}
	if ds, ok := m["datasets"]; ok {
		return labelsOf(m["labels"]), list(ds), true
	}
	return nil, nil, false
}

func fromChartJS(fig *Figure, labels []string, datasets []any) {
	switch fig.Kind {
	case KindPie:
		fig.Pie = pieOf(map[string]any{"labels": anyList(labels), "series": datasets})
	case KindScatter:
		fig.Scatter = scatterOf(map[string]any{"series": datasets})
	case KindRadar:
		fig.Radar = radarOf(map[string]any{"labels": anyList(labels), "series": datasets})
	default:
		fig.Axis = axisOf(map[string]any{"labels": anyList(labels), "series": datasets}, fig.Kind)
	}
}

func anyList(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

// ===== KPI =====

func kpiOf(m map[string]any) *KPIData {
	km, ok := m["kpi"].(map[string]any)
	if !ok {
		km = m
	}
	val, ok := coerce.Number(firstOf(km, "value", "current", "current_value"))
	if !ok {
		return nil
	}
	kpi := &KPIData{
		Label:  str(firstOf(km, "label", "name")),
		Value:  val,
		Window: str(km["window"]),
	}
	if prev, ok := coerce.Number(firstOf(km, "previous", "previous_value")); ok {
		kpi.Previous = &prev
	}
	if d, ok := coerce.Number(km["deltaPct"]); ok {
		kpi.DeltaPct = &d
	} else if kpi.Previous != nil && *kpi.Previous != 0 {
		d := (val - *kpi.Previous) / math.Abs(*kpi.Previous) * 100
		kpi.DeltaPct = &d
	}
	if th, ok := km["thresholds"].(map[string]any); ok {
		kpi.Thresholds = make(map[string]float64, len(th))
		for k, v := range th {
			kpi.Thresholds[k] = coerce.ToNumber(v)
		}
	}
	return kpi
}

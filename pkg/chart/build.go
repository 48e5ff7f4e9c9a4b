package chart

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/leapdash/pkg/coerce"
	"github.com/leapstack-labs/leapdash/pkg/core"
)

// Options controls how rows are shaped.
type Options struct {
	// SeriesKey pivots bar and line charts into one series per distinct value.
	SeriesKey string
	Title     string
	// TimeAxis formats X values as dates at Granularity.
	TimeAxis    bool
	Granularity core.Granularity
}

// Build shapes rows into a chart spec for chartType. xKey and yKeys name the
// row keys holding the category and the measures. Values are coerced with
// coerce.ToNumber, so dirty or missing cells count as 0.
func Build(rows []core.Row, chartType core.ChartType, xKey string, yKeys []string, opts Options) *Spec {
	b := builder{rows: rows, xKey: xKey, yKeys: yKeys, opts: opts}

	spec := &Spec{Title: opts.Title}
	if spec.Title == "" {
		spec.Title = defaultTitle(xKey, yKeys)
	}

	switch chartType {
	case core.ChartPie:
		b.pie(spec)
	case core.ChartRadar:
		b.radar(spec)
	case core.ChartScatter:
		b.scatter(spec)
	case core.ChartLine:
		b.cartesian(spec, "line")
	default:
		b.cartesian(spec, "bar")
	}
	return spec
}

type builder struct {
	rows  []core.Row
	xKey  string
	yKeys []string
	opts  Options
}

func (b builder) label(row core.Row) string {
	v := row[b.xKey]
	if b.opts.TimeAxis {
		return coerce.FormatDate(v, b.opts.Granularity)
	}
	return coerce.ToText(v)
}

// categories returns distinct X labels in first-seen order.
func (b builder) categories() []string {
	seen := make(map[string]bool, len(b.rows))
	var out []string
	for _, row := range b.rows {
		l := b.label(row)
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}

func (b builder) cartesian(spec *Spec, typ string) {
	spec.YAxis = &Axis{Name: humanize(strings.Join(b.yKeys, ", "))}

	if b.opts.SeriesKey != "" && len(b.yKeys) > 0 {
		b.pivot(spec, typ)
		return
	}

	labels := make([]string, 0, len(b.rows))
	for _, row := range b.rows {
		labels = append(labels, b.label(row))
	}
	spec.XAxis = &Axis{Name: humanize(b.xKey), Data: labels}

	for _, y := range b.yKeys {
		data := make([]float64, 0, len(b.rows))
		for _, row := range b.rows {
			data = append(data, coerce.ToNumber(row[y]))
		}
		spec.Series = append(spec.Series, Series{Name: y, Type: typ, Data: data})
	}
	spec.Legend = &Legend{Data: append([]string(nil), b.yKeys...)}
}

// pivot builds one series per distinct SeriesKey value over the distinct X
// categories, reading the first Y of the first matching row. Missing cells are 0.
func (b builder) pivot(spec *Spec, typ string) {
	cats := b.categories()
	spec.XAxis = &Axis{Name: humanize(b.xKey), Data: cats}

	type cell struct{ x, s string }
	values := make(map[cell]float64)
	var names []string
	seen := make(map[string]bool)
	for _, row := range b.rows {
		s := coerce.ToText(row[b.opts.SeriesKey])
		if !seen[s] {
			seen[s] = true
			names = append(names, s)
		}
		k := cell{b.label(row), s}
		if _, ok := values[k]; !ok {
			values[k] = coerce.ToNumber(row[b.yKeys[0]])
		}
	}

	for _, name := range names {
		data := make([]float64, len(cats))
		for i, c := range cats {
			data[i] = values[cell{c, name}]
		}
		spec.Series = append(spec.Series, Series{Name: name, Type: typ, Data: data})
	}
	spec.Legend = &Legend{Data: names}
}

// pie emits one slice per Y (column sums) when there are several measures,
// otherwise one slice per distinct X with duplicate categories summed.
func (b builder) pie(spec *Spec) {
	var slices []Slice
	if len(b.yKeys) > 1 {
		for _, y := range b.yKeys {
			var sum float64
			for _, row := range b.rows {
				sum += coerce.ToNumber(row[y])
			}
			slices = append(slices, Slice{Name: y, Value: sum})
		}
	} else if len(b.yKeys) == 1 {
		index := make(map[string]int)
		for _, row := range b.rows {
			l := b.label(row)
			i, ok := index[l]
			if !ok {
				i = len(slices)
				index[l] = i
				slices = append(slices, Slice{Name: l})
			}
			slices[i].Value += coerce.ToNumber(row[b.yKeys[0]])
		}
	}

	names := make([]string, len(slices))
	for i, s := range slices {
		names[i] = s.Name
	}
	name := spec.Title
	if len(b.yKeys) == 1 {
		name = b.yKeys[0]
	}
	spec.Series = []Series{{Name: name, Type: "pie", Data: slices}}
	spec.Legend = &Legend{Data: names}
}

// radar uses distinct X labels as indicators and one series per Y aligned to them.
func (b builder) radar(spec *Spec) {
	cats := b.categories()
	index := make(map[string]int, len(cats))
	for i, c := range cats {
		index[c] = i
	}

	indicators := make([]Indicator, len(cats))
	for i, c := range cats {
		indicators[i] = Indicator{Name: c}
	}

	for _, y := range b.yKeys {
		values := make([]float64, len(cats))
		for _, row := range b.rows {
			values[index[b.label(row)]] += coerce.ToNumber(row[y])
		}
		for i, v := range values {
			if v > indicators[i].Max {
				indicators[i].Max = v
			}
		}
		spec.Series = append(spec.Series, Series{Name: y, Type: "radar", Value: values})
	}

	spec.Radar = &Radar{Indicator: indicators}
	spec.Legend = &Legend{Data: append([]string(nil), b.yKeys...)}
}

func (b builder) scatter(spec *Spec) {
	spec.XAxis = &Axis{Name: humanize(b.xKey)}
	spec.YAxis = &Axis{Name: humanize(strings.Join(b.yKeys, ", "))}
	for _, y := range b.yKeys {
		points := make([]Point, 0, len(b.rows))
		for _, row := range b.rows {
			points = append(points, Point{coerce.ToNumber(row[b.xKey]), coerce.ToNumber(row[y])})
		}
		spec.Series = append(spec.Series, Series{Name: y, Type: "scatter", Data: points})
	}
	spec.Legend = &Legend{Data: append([]string(nil), b.yKeys...)}
}

// humanize turns a column key into a display name: "order_date" -> "Order Date".
func humanize(key string) string {
	key = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(key)
	return cases.Title(language.English).String(strings.Join(strings.Fields(key), " "))
}

func defaultTitle(xKey string, yKeys []string) string {
	if len(yKeys) == 0 {
		return humanize(xKey)
	}
	measures := make([]string, len(yKeys))
	for i, y := range yKeys {
		measures[i] = humanize(y)
	}
	if xKey == "" {
		return strings.Join(measures, " & ")
	}
	return strings.Join(measures, " & ") + " by " + humanize(xKey)
}

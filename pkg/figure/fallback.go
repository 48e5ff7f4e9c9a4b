package figure

import (
	"cmp"
	"slices"

	"github.com/leapstack-labs/leapdash/pkg/coerce"
	"github.com/leapstack-labs/leapdash/pkg/core"
)

// MaxFrequencyCategories caps the categories of a derived frequency chart.
const MaxFrequencyCategories = 24

// derive builds a bar figure straight from result rows: the first column is
// the category and the first other all-numeric column the measure. Without a
// numeric column it counts the most frequent category values instead.
// It returns nil when there are no rows.
func derive(rs *core.ResultSet) *Figure {
	if rs == nil || rs.Empty() || len(rs.Columns) == 0 {
		return nil
	}
	category := rs.Columns[0]

	if measure, ok := numericColumn(rs, category); ok {
		axis := &AxisData{XName: category, YName: measure}
		values := make([]float64, 0, len(rs.Rows))
		for _, row := range rs.Rows {
			axis.Categories = append(axis.Categories, coerce.ToText(row[category]))
			values = append(values, coerce.ToNumber(row[measure]))
		}
		axis.Series = []AxisSeries{{Name: measure, Type: KindBar, Values: values}}
		return &Figure{Kind: KindBar, Title: measure + " by " + category, Axis: axis, Fallback: true}
	}

	return frequency(rs, category)
}

// numericColumn finds the first column other than skip whose non-null values
// all parse as numbers, with at least one value present.
func numericColumn(rs *core.ResultSet, skip string) (string, bool) {
	for _, col := range rs.Columns {
		if col == skip {
			continue
		}
		seen := false
		numeric := true
		for _, row := range rs.Rows {
			v := row[col]
			if v == nil {
				continue
			}
			if _, ok := coerce.Number(v); !ok {
				numeric = false
				break
			}
			seen = true
		}
		if numeric && seen {
			return col, true
		}
	}
	return "", false
}

func frequency(rs *core.ResultSet, category string) *Figure {
	type bucket struct {
		label string
		count int
		first int
	}
	index := make(map[string]int)
	var buckets []bucket
	for i, row := range rs.Rows {
		l := coerce.ToText(row[category])
		if j, ok := index[l]; ok {
			buckets[j].count++
			continue
		}
		index[l] = len(buckets)
		buckets = append(buckets, bucket{label: l, count: 1, first: i})
	}

	slices.SortStableFunc(buckets, func(a, b bucket) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		return cmp.Compare(a.first, b.first)
	})
	if len(buckets) > MaxFrequencyCategories {
		buckets = buckets[:MaxFrequencyCategories]
	}

	axis := &AxisData{XName: category, YName: "count"}
	values := make([]float64, len(buckets))
	for i, b := range buckets {
		axis.Categories = append(axis.Categories, b.label)
		values[i] = float64(b.count)
	}
	axis.Series = []AxisSeries{{Name: "count", Type: KindBar, Values: values}}
	return &Figure{Kind: KindBar, Title: "count by " + category, Axis: axis, Fallback: true}
}

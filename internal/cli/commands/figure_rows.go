package commands

import (
	"github.com/leapstack-labs/leapdash/pkg/coerce"
	"github.com/leapstack-labs/leapdash/pkg/core"
	"github.com/leapstack-labs/leapdash/pkg/figure"
)

// figureRows flattens a figure into a table for text output.
func figureRows(fig *figure.Figure) *core.ResultSet {
	rs := &core.ResultSet{}
	if fig == nil {
		return rs
	}

	switch {
	case fig.Axis != nil:
		x := fig.Axis.XName
		if x == "" {
			x = "category"
		}
		rs.Columns = []string{x}
		for _, s := range fig.Axis.Series {
			rs.Columns = append(rs.Columns, s.Name)
		}
		for i, c := range fig.Axis.Categories {
			row := core.Row{x: c}
			for _, s := range fig.Axis.Series {
				if i < len(s.Values) {
					row[s.Name] = s.Values[i]
				}
			}
			rs.Rows = append(rs.Rows, row)
		}

	case fig.Pie != nil:
		rs.Columns = []string{"label", "value"}
		for _, sl := range fig.Pie.Slices {
			rs.Rows = append(rs.Rows, core.Row{"label": sl.Label, "value": sl.Value})
		}

	case fig.Scatter != nil:
		rs.Columns = []string{"series", "x", "y", "label"}
		for _, s := range fig.Scatter.Series {
			for _, p := range s.Points {
				rs.Rows = append(rs.Rows, core.Row{"series": s.Name, "x": p.X, "y": p.Y, "label": p.Label})
			}
		}

	case fig.Radar != nil:
		rs.Columns = []string{"indicator", "max"}
		for _, s := range fig.Radar.Series {
			rs.Columns = append(rs.Columns, s.Name)
		}
		for i, ind := range fig.Radar.Indicators {
			row := core.Row{"indicator": ind}
			if i < len(fig.Radar.Max) {
				row["max"] = fig.Radar.Max[i]
			}
			for _, s := range fig.Radar.Series {
				if i < len(s.Values) {
					row[s.Name] = s.Values[i]
				}
			}
			rs.Rows = append(rs.Rows, row)
		}

	case fig.KPI != nil:
		k := fig.KPI
		rs.Columns = []string{"label", "value", "previous", "delta_pct", "window"}
		row := core.Row{"label": k.Label, "value": k.Value, "window": k.Window}
		if k.Previous != nil {
			row["previous"] = *k.Previous
		}
		if k.DeltaPct != nil {
			row["delta_pct"] = coerce.ToText(*k.DeltaPct) + "%"
		}
		rs.Rows = append(rs.Rows, row)
	}
	return rs
}

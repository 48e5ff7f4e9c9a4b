package chart

import (
	"math"

	"github.com/leapstack-labs/leapdash/pkg/coerce"
)

// KPIOptions describes a KPI block.
type KPIOptions struct {
	Label      string
	Title      string
	Thresholds map[string]float64
	// Window is a display label such as "30 days".
	Window string
}

// BuildKPI builds a KPI spec from the current and previous aggregates.
// previous is nil when the widget has no comparison window. deltaPct is
// (current-previous)/|previous|*100, or nil when previous is nil or zero.
func BuildKPI(current, previous any, opts KPIOptions) *Spec {
	kpi := &KPI{
		Label:      opts.Label,
		Value:      coerce.ToNumber(current),
		Thresholds: opts.Thresholds,
		Window:     opts.Window,
	}

	if prev, ok := coerce.Number(previous); ok {
		kpi.Previous = &prev
		if prev != 0 {
			delta := (kpi.Value - prev) / math.Abs(prev) * 100
			kpi.DeltaPct = &delta
		}
	}

	title := opts.Title
	if title == "" {
		title = opts.Label
	}
	return &Spec{Title: title, KPI: kpi}
}

package filter

import (
	"strings"

	"github.com/leapstack-labs/leapdash/pkg/figure"
)

// Binding describes the X axis a rendered widget is bound to.
type Binding struct {
	Table  string
	Column string
	// Categories are the labels the widget currently displays.
	Categories []string
}

// Match finds the active filter that applies to a widget. An exact table and
// column match wins over a column with the same name on another table, which
// wins over a filter sharing at least one value with the displayed categories.
func (e *Engine) Match(b Binding) (Filter, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	keys := e.keysLocked()
	if f, ok := e.active[KeyFor(b.Table, b.Column)]; ok && b.Column != "" {
		return cloneFilter(f), true
	}
	if b.Column != "" {
		for _, k := range keys {
			if f := e.active[k]; strings.EqualFold(f.Column, b.Column) {
				return cloneFilter(f), true
			}
		}
	}
	if len(b.Categories) == 0 {
		return Filter{}, false
	}
	cats := make(map[string]bool, len(b.Categories))
	for _, c := range b.Categories {
		cats[c] = true
	}
	for _, k := range keys {
		f := e.active[k]
		for _, v := range f.Values {
			if cats[valueKey(v)] {
				return cloneFilter(f), true
			}
		}
	}
	return Filter{}, false
}

// Status reports how a filter affected a figure.
type Status struct {
	Filtered bool
	// Empty is set when nothing displayed survived the filter.
	Empty bool
	Key   string
}

// Message is the text shown in place of an emptied chart.
func (s Status) Message() string {
	if s.Empty {
		return "no data for current filter"
	}
	return ""
}

// Restrict keeps the categories of fig that are values of f. KPI figures are
// returned unchanged; they re-query instead.
func Restrict(fig *figure.Figure, f Filter) (*figure.Figure, Status) {
	if fig == nil || fig.Kind == figure.KindKPI || fig.Kind == figure.KindEmpty {
		return fig, Status{}
	}
	keep := make(map[string]bool, len(f.Values))
	for _, v := range f.Values {
		keep[valueKey(v)] = true
	}
	out := fig.Keep(func(label string) bool { return keep[label] })
	st := Status{Filtered: true, Key: f.Key()}
	st.Empty = !out.HasData()
	return out, st
}

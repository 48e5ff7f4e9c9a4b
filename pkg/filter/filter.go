// Package filter holds the cross-widget filter state of a dashboard.
//
// Clicking a chart element seeds a draft selection for a table column; the
// draft only becomes an active filter when it is applied. Widgets consult the
// active filters at render time: chart widgets restrict their categories
// client-side, KPI widgets re-query with the filter as a condition.
package filter

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/leapstack-labs/leapdash/pkg/coerce"
)

// KeyFor returns the state key of a table column.
func KeyFor(table, column string) string {
	return table + "::" + column
}

// Filter is a committed column-value restriction.
type Filter struct {
	TableName string `json:"tableName"`
	Column    string `json:"column"`
	Values    []any  `json:"values"`
}

// Key returns the state key of the filter.
func (f Filter) Key() string {
	return KeyFor(f.TableName, f.Column)
}

// Has reports whether v is one of the filter values. Values compare by their
// text form, so 3 and "3" are the same value.
func (f Filter) Has(v any) bool {
	return indexOf(f.Values, v) >= 0
}

// Draft is a pending selection that has not been applied yet.
type Draft struct {
	WidgetID  string
	TableName string
	Column    string
	Values    []any
}

// Engine is the filter state of one dashboard. It is safe for concurrent use.
type Engine struct {
	mu      sync.RWMutex
	active  map[string]Filter
	drafts  map[string]Draft
	version uint64
	logger  *slog.Logger
}

// NewEngine creates an empty filter engine.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		active: make(map[string]Filter),
		drafts: make(map[string]Draft),
		logger: logger,
	}
}

// ===== Drafts =====

// SelectValue toggles value in the draft for table.column, seeding the draft
// from the active filter when none is open. Active filters are not touched.
func (e *Engine) SelectValue(widgetID, table, column string, value any) Draft {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := KeyFor(table, column)
	d, ok := e.drafts[key]
	if !ok {
		d = Draft{TableName: table, Column: column}
		if f, ok := e.active[key]; ok {
			d.Values = slices.Clone(f.Values)
		}
	}
	d.WidgetID = widgetID
	d.Values = slices.Clone(d.Values)

	if i := indexOf(d.Values, value); i >= 0 {
		d.Values = slices.Delete(d.Values, i, i+1)
	} else {
		d.Values = append(d.Values, value)
	}
	e.drafts[key] = d
	return cloneDraft(d)
}

// SetDraft replaces the draft for table.column, as the filter panel does.
func (e *Engine) SetDraft(table, column string, values []any) Draft {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := Draft{TableName: table, Column: column, Values: dedupe(values)}
	e.drafts[KeyFor(table, column)] = d
	return cloneDraft(d)
}

// Draft returns the open draft for table.column.
func (e *Engine) Draft(table, column string) (Draft, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	d, ok := e.drafts[KeyFor(table, column)]
	return cloneDraft(d), ok
}

// Discard drops the draft for table.column.
func (e *Engine) Discard(table, column string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.drafts, KeyFor(table, column))
}

// ===== Active filters =====

// ApplySelection commits the draft for table.column. An empty draft removes
// the active filter; otherwise the draft replaces it. Without an open draft
// nothing changes. It reports the resulting filter, if any.
func (e *Engine) ApplySelection(table, column string) (Filter, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := KeyFor(table, column)
	d, ok := e.drafts[key]
	if !ok {
		f, ok := e.active[key]
		return cloneFilter(f), ok
	}
	delete(e.drafts, key)

	if len(d.Values) == 0 {
		e.removeLocked(key)
		return Filter{}, false
	}

	f := Filter{TableName: table, Column: column, Values: slices.Clone(d.Values)}
	if prev, ok := e.active[key]; ok && sameValues(prev.Values, f.Values) {
		return cloneFilter(prev), true
	}
	e.active[key] = f
	e.version++
	e.logger.Debug("filter applied",
		slog.String("key", key),
		slog.Int("values", len(f.Values)),
		slog.Uint64("version", e.version))
	return cloneFilter(f), true
}

// Remove drops the active filter for table.column.
func (e *Engine) Remove(table, column string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.removeLocked(KeyFor(table, column))
}

func (e *Engine) removeLocked(key string) {
	if _, ok := e.active[key]; !ok {
		return
	}
	delete(e.active, key)
	e.version++
	e.logger.Debug("filter removed", slog.String("key", key), slog.Uint64("version", e.version))
}

// ClearAll removes every active filter and draft.
func (e *Engine) ClearAll() {
	e.mu.Lock()
	defer e.mu.Unlock()

	clear(e.drafts)
	if len(e.active) == 0 {
		return
	}
	clear(e.active)
	e.version++
	e.logger.Debug("filters cleared", slog.Uint64("version", e.version))
}

// Active returns the active filters ordered by key.
func (e *Engine) Active() []Filter {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]Filter, 0, len(e.active))
	for _, key := range e.keysLocked() {
		out = append(out, cloneFilter(e.active[key]))
	}
	return out
}

// Get returns the active filter stored under key.
func (e *Engine) Get(key string) (Filter, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	f, ok := e.active[key]
	return cloneFilter(f), ok
}

// Version increases every time the active filters change.
func (e *Engine) Version() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.version
}

func (e *Engine) keysLocked() []string {
	keys := make([]string, 0, len(e.active))
	for k := range e.active {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// ===== Values =====

func valueKey(v any) string {
	return coerce.ToText(v)
}

func indexOf(values []any, v any) int {
	k := valueKey(v)
	return slices.IndexFunc(values, func(x any) bool { return valueKey(x) == k })
}

func dedupe(values []any) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		if indexOf(out, v) < 0 {
			out = append(out, v)
		}
	}
	return out
}

func sameValues(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for _, v := range a {
		if indexOf(b, v) < 0 {
			return false
		}
	}
	return true
}

func cloneFilter(f Filter) Filter {
	f.Values = slices.Clone(f.Values)
	return f
}

func cloneDraft(d Draft) Draft {
	d.Values = slices.Clone(d.Values)
	return d
}

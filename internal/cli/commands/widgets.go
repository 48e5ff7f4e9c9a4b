package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leapdash/pkg/core"
)

// loadWidgets reads widgets from a YAML (or JSON) file. The file holds a
// single widget, a list of widgets, or a mapping with a widgets list.
// Data sources are decoded loosely, so "yAxis: amount" and "kpiWindowValue: '30'"
// are accepted. Widgets without an id are numbered w1, w2, ...
func loadWidgets(path string) ([]core.Widget, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read widget file: %w", err)
	}

	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse widget file %s: %w", path, err)
	}

	var items []any
	switch v := doc.(type) {
	case []any:
		items = v
	case map[string]any:
		if list, ok := v["widgets"].([]any); ok {
			items = list
		} else {
			items = []any{v}
		}
	default:
		return nil, fmt.Errorf("widget file %s holds no widgets", path)
	}

	widgets := make([]core.Widget, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("widget %d is a %T, not a mapping", i+1, item)
		}
		w, err := decodeWidget(m)
		if err != nil {
			return nil, fmt.Errorf("widget %d: %w", i+1, err)
		}
		if w.ID == "" {
			w.ID = "w" + strconv.Itoa(i+1)
		}
		widgets = append(widgets, w)
	}
	return widgets, nil
}

func decodeWidget(m map[string]any) (core.Widget, error) {
	w := core.Widget{
		ID:    strings.TrimSpace(fmt.Sprint(valueOr(m["id"], ""))),
		Title: fmt.Sprint(valueOr(m["title"], "")),
	}
	dsMap, ok := m["dataSource"].(map[string]any)
	if !ok {
		return w, core.NewValidationError("dataSource", "missing dataSource mapping")
	}
	ds, err := core.DecodeDataSource(dsMap)
	if err != nil {
		return w, err
	}
	w.DataSource = ds
	return w, nil
}

func valueOr(v, def any) any {
	if v == nil {
		return def
	}
	return v
}

// findWidget returns the widget with id.
func findWidget(widgets []core.Widget, id string) (core.Widget, bool) {
	for _, w := range widgets {
		if w.ID == id {
			return w, true
		}
	}
	return core.Widget{}, false
}

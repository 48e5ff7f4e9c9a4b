package figure

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapdash/pkg/chart"
	"github.com/leapstack-labs/leapdash/pkg/core"
)

// Options configures Normalize.
type Options struct {
	// Type is the widget's configured chart type. It wins over any type found in the input.
	Type core.ChartType
	// Fallback rows are used to derive a bar figure when the input has no usable series.
	Fallback *core.ResultSet
	Theme    Theme
	Logger   *slog.Logger
}

// Normalize converts a chart configuration into a Figure.
//
// input may be a *chart.Spec, a chart.Spec, JSON text or bytes, or an already
// decoded map. The result is never nil. When the input yields no non-empty
// series the figure is derived from opts.Fallback, or is an empty placeholder;
// both are flagged with Fallback and logged as a warning.
func Normalize(input any, opts Options) (fig *Figure) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	defer func() {
		if r := recover(); r != nil {
			fig = placeholder(fmt.Sprintf("chart normalization panicked: %v", r))
			logger.Warn("chart normalization fallback", slog.String("reason", fig.Reason))
		}
	}()

	m, err := decode(input)
	if err != nil {
		return fallback(opts, logger, err.Error())
	}

	fig = fromMap(m, opts.Type)
	if fig.HasData() {
		opts.Theme.apply(fig)
		return fig
	}

	reason := "chart configuration has no data series"
	if m == nil {
		reason = "no chart configuration"
	}
	return fallback(opts, logger, reason)
}

func fallback(opts Options, logger *slog.Logger, reason string) *Figure {
	fig := derive(opts.Fallback)
	if fig == nil {
		fig = placeholder(reason)
	} else {
		fig.Reason = reason
		opts.Theme.apply(fig)
	}
	logger.Warn("chart normalization fallback",
		slog.String("reason", reason),
		slog.String("kind", string(fig.Kind)))
	return fig
}

func placeholder(reason string) *Figure {
	return &Figure{Kind: KindEmpty, Fallback: true, Reason: reason}
}

// decode turns the supported input forms into a generic JSON object.
func decode(input any) (map[string]any, error) {
	switch v := input.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return v, nil
	case *chart.Spec:
		if v == nil {
			return nil, nil
		}
		return viaJSON(v)
	case chart.Spec:
		return viaJSON(v)
	case json.RawMessage:
		return decodeText(v)
	case []byte:
		return decodeText(v)
	case string:
		return decodeText([]byte(v))
	case []any:
		return map[string]any{"series": v}, nil
	default:
		return viaJSON(v)
	}
}

func viaJSON(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chart configuration: %w", err)
	}
	return decodeText(raw)
}

func decodeText(raw []byte) (map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("failed to parse chart configuration: %w", err)
	}
	switch x := v.(type) {
	case map[string]any:
		return x, nil
	case []any:
		return map[string]any{"series": x}, nil
	}
	return nil, fmt.Errorf("chart configuration is a %T, not an object", v)
}

// resolveKind picks the figure kind from the configured type, then the input.
func resolveKind(m map[string]any, configured core.ChartType) Kind {
	if k, ok := kindOf(string(configured)); ok {
		return k
	}
	for _, key := range []string{"chartType", "type"} {
		if k, ok := kindOf(str(m[key])); ok {
			return k
		}
	}
	if series := seriesList(m); len(series) > 0 {
		if sm, ok := series[0].(map[string]any); ok {
			if k, ok := kindOf(str(sm["type"])); ok {
				return k
			}
		}
	}
	if cfg, ok := m["config"].(map[string]any); ok {
		if k, ok := kindOf(str(cfg["type"])); ok {
			return k
		}
	}
	switch {
	case m["kpi"] != nil:
		return KindKPI
	case m["radar"] != nil:
		return KindRadar
	}
	return KindBar
}

func kindOf(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bar", "column", "horizontalbar":
		return KindBar, true
	case "line", "area":
		return KindLine, true
	case "pie", "doughnut", "donut", "polararea":
		return KindPie, true
	case "scatter", "bubble":
		return KindScatter, true
	case "radar":
		return KindRadar, true
	case "kpi":
		return KindKPI, true
	}
	return "", false
}

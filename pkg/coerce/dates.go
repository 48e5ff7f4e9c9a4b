package coerce

import (
	"math"
	"strings"
	"time"

	"github.com/leapstack-labs/leapdash/pkg/core"
)

// layouts are tried in order when parsing text dates.
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"2006/01",
	"2006-01",
	"01/02/2006",
	"2006",
}

// Epoch values at or above this magnitude are treated as milliseconds.
const epochMillisThreshold = 1e11

// ParseTime interprets a value as a point in time.
// Accepts time.Time, common date/time strings, and epoch seconds or milliseconds.
func ParseTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return x, !x.IsZero()
	case *time.Time:
		if x == nil {
			return time.Time{}, false
		}
		return *x, !x.IsZero()
	case string:
		return parseTimeText(x)
	case []byte:
		return parseTimeText(string(x))
	case bool:
		return time.Time{}, false
	}
	f, ok := Number(v)
	if !ok {
		return time.Time{}, false
	}
	return fromEpoch(f), true
}

func parseTimeText(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	// A bare numeric string is an epoch value, but a four-digit year was already handled.
	if f, ok := parseNumber(s); ok && strings.Trim(s, "0123456789.-") == "" {
		return fromEpoch(f), true
	}
	return time.Time{}, false
}

func fromEpoch(f float64) time.Time {
	if math.Abs(f) >= epochMillisThreshold {
		return time.UnixMilli(int64(f)).UTC()
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}

// FormatDate renders a date label for the given granularity:
// year "YYYY", month "YYYY/MM", otherwise "YYYY/MM/DD".
// Values that are not dates are returned as raw text.
func FormatDate(v any, g core.Granularity) string {
	t, ok := ParseTime(v)
	if !ok {
		return ToText(v)
	}
	return t.Format(goLayout(g))
}

func goLayout(g core.Granularity) string {
	switch g {
	case core.GranularityYear:
		return "2006"
	case core.GranularityMonth:
		return "2006/01"
	default:
		return "2006/01/02"
	}
}

// StrftimeLayout returns the SQL strftime format matching FormatDate for g.
func StrftimeLayout(g core.Granularity) string {
	switch g {
	case core.GranularityYear:
		return "%Y"
	case core.GranularityMonth:
		return "%Y/%m"
	default:
		return "%Y/%m/%d"
	}
}

// LabelGranularity infers the granularity a label produced by FormatDate was
// rendered with. ok is false when the label is not a date label.
func LabelGranularity(label string) (core.Granularity, bool) {
	label = strings.TrimSpace(label)
	for _, g := range []core.Granularity{core.GranularityYear, core.GranularityMonth, core.GranularityDay} {
		layout := goLayout(g)
		if len(label) != len(layout) {
			continue
		}
		if _, err := time.Parse(layout, label); err == nil {
			return g, true
		}
	}
	return "", false
}

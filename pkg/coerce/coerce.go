// Package coerce converts dirty cell values into numbers, text and dates.
//
// Imported data routinely stores numbers as text ("$1,234.56", "12%") and dates
// as strings or epoch numbers. The Go-side helpers here and the SQL fragments in
// sql.go agree on the same cleaning rules so that client-side shaping and
// engine-side aggregation see the same values.
package coerce

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// numericNoise is stripped from text before parsing a number.
var numericNoise = strings.NewReplacer("$", "", ",", "", "%", "", " ", "", "\t", "", "\u00a0", "")

// ToNumber converts a value to float64. nil, unparsable and non-finite values yield 0.
func ToNumber(v any) float64 {
	f, ok := Number(v)
	if !ok {
		return 0
	}
	return f
}

// Number converts a value to float64 and reports whether it held a finite number.
func Number(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int8:
		f = float64(x)
	case int16:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint8:
		f = float64(x)
	case uint16:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case *big.Int:
		if x == nil {
			return 0, false
		}
		f, _ = new(big.Float).SetInt(x).Float64()
	case json.Number:
		return parseNumber(string(x))
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		return parseNumber(x)
	case []byte:
		return parseNumber(string(x))
	default:
		return parseNumber(fmt.Sprint(x))
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseNumber(s string) (float64, bool) {
	s = numericNoise.Replace(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ToText renders a value as a display label.
func ToText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

package coerce

import "strings"

// IsTemporalType reports whether a free-text SQL type label is date/time-like.
func IsTemporalType(typ string) bool {
	t := strings.ToUpper(typ)
	return strings.Contains(t, "DATE") || strings.Contains(t, "TIME")
}

// IsTextType reports whether a type label is character data.
func IsTextType(typ string) bool {
	t := strings.ToUpper(typ)
	for _, k := range []string{"CHAR", "TEXT", "STRING", "UTF8"} {
		if strings.Contains(t, k) {
			return true
		}
	}
	return false
}

// IsNumericType reports whether a type label is a numeric SQL type.
func IsNumericType(typ string) bool {
	t := strings.ToUpper(typ)
	if IsTemporalType(t) || t == "INTERVAL" {
		return false
	}
	for _, k := range []string{"INT", "DECIMAL", "NUMERIC", "DOUBLE", "FLOAT", "REAL"} {
		if strings.Contains(t, k) {
			return true
		}
	}
	return false
}

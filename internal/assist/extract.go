package assist

import (
	"regexp"
	"strings"
)

var (
	sqlMarker   = regexp.MustCompile(`(?is)\[SQL\](.*?)\[/SQL\]`)
	chartMarker = regexp.MustCompile(`(?is)\[CHART\](.*?)\[/CHART\]`)
	fence       = regexp.MustCompile("(?s)```([A-Za-z0-9_-]*)[ \t]*\\r?\\n(.*?)```")
)

// ExtractSQL returns the SQL statement embedded in text.
// A [SQL] block wins over a ```sql fence. Trailing semicolons are removed.
func ExtractSQL(text string) (string, bool) {
	sql, ok := extract(text, sqlMarker, "sql")
	if !ok {
		return "", false
	}
	sql = strings.TrimRight(sql, "; \t\r\n")
	return sql, sql != ""
}

// ExtractChart returns the chart configuration JSON embedded in text.
// A [CHART] block wins over a ```json fence.
func ExtractChart(text string) (string, bool) {
	return extract(text, chartMarker, "json")
}

func extract(text string, marker *regexp.Regexp, lang string) (string, bool) {
	if m := marker.FindStringSubmatch(text); m != nil {
		if body := strings.TrimSpace(unfence(m[1])); body != "" {
			return body, true
		}
	}
	for _, m := range fence.FindAllStringSubmatch(text, -1) {
		if strings.EqualFold(m[1], lang) {
			if body := strings.TrimSpace(m[2]); body != "" {
				return body, true
			}
		}
	}
	return "", false
}

// unfence strips a code fence wrapped inside a marker block.
func unfence(s string) string {
	s = strings.TrimSpace(s)
	if m := fence.FindStringSubmatch(s); m != nil && strings.HasPrefix(s, "```") {
		return m[2]
	}
	return s
}

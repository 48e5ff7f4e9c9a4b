// Package assist turns natural-language questions into SQL and charts.
//
// A Generator produces free text from a prompt. The text may embed a SQL
// statement and a JSON chart configuration, either fenced (```sql, ```json)
// or delimited ([SQL]...[/SQL], [CHART]...[/CHART]). The Assistant extracts
// both, runs the SQL, regenerates on execution errors a bounded number of
// times, and normalises the chart against the result rows.
package assist

import "context"

// Prompt is a single generation request.
type Prompt struct {
	System string
	User   string
}

// Generator is a text-in, text-out language model.
type Generator interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, p Prompt) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, p Prompt) (string, error) {
	return f(ctx, p)
}

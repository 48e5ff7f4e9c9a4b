package assist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapdash/pkg/core"
	"github.com/leapstack-labs/leapdash/pkg/figure"
)

// DefaultMaxRetries bounds SQL regeneration when Assistant.MaxRetries is negative.
const DefaultMaxRetries = 2

// ErrNoSQL is returned when the generated text contains no SQL statement.
var ErrNoSQL = errors.New("response contains no SQL statement")

// Database runs the generated SQL.
type Database interface {
	Catalog(ctx context.Context) (core.Catalog, error)
	Query(ctx context.Context, sql string) (*core.ResultSet, error)
}

// Assistant answers questions against a Database.
type Assistant struct {
	Generator Generator
	DB        Database
	// MaxRetries is the number of regenerations after a failed statement.
	MaxRetries int
	Theme      figure.Theme
	Logger     *slog.Logger
}

// Answer is the outcome of Ask.
type Answer struct {
	SQL      string
	Rows     *core.ResultSet
	Figure   *figure.Figure
	Text     string
	Attempts int
}

const systemPrompt = `You write DuckDB SQL for a dashboard.
Answer with one SQL statement between [SQL] and [/SQL].
Optionally add a chart configuration as JSON between [CHART] and [/CHART],
using {"title", "xAxis": {"data"}, "series": [{"name", "type", "data"}]}
or {"series": [{"type": "pie", "data": [{"name", "value"}]}]}.
Quote identifiers with double quotes. Only use the tables listed.`

// Ask generates SQL for question, runs it and builds a figure.
// A statement rejected by the database is sent back to the generator with the
// error, up to MaxRetries times.
func (a *Assistant) Ask(ctx context.Context, question string) (*Answer, error) {
	logger := a.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if strings.TrimSpace(question) == "" {
		return nil, core.NewValidationError("question", "question is empty")
	}

	cat, err := a.DB.Catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	retries := a.MaxRetries
	if retries < 0 {
		retries = DefaultMaxRetries
	}

	prompt := Prompt{System: systemPrompt, User: userPrompt(cat, question)}
	var lastErr error
	for attempt := 1; attempt <= retries+1; attempt++ {
		text, err := a.Generator.Generate(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("failed to generate SQL: %w", err)
		}

		sql, ok := ExtractSQL(text)
		if !ok {
			return nil, ErrNoSQL
		}
		logger.Debug("generated sql", slog.Int("attempt", attempt), slog.String("sql", sql))

		rows, err := a.DB.Query(ctx, sql)
		if err != nil {
			var qe *core.QueryExecutionError
			if !errors.As(err, &qe) {
				return nil, err
			}
			lastErr = err
			logger.Warn("generated sql failed", slog.Int("attempt", attempt), slog.String("error", qe.Err.Error()))
			prompt.User = retryPrompt(cat, question, sql, qe)
			continue
		}

		chartJSON, _ := ExtractChart(text)
		fig := figure.Normalize(chartJSON, figure.Options{
			Fallback: rows,
			Theme:    a.Theme,
			Logger:   logger,
		})
		return &Answer{SQL: sql, Rows: rows, Figure: fig, Text: text, Attempts: attempt}, nil
	}
	return nil, fmt.Errorf("generated SQL failed after %d attempts: %w", retries+1, lastErr)
}

func userPrompt(cat core.Catalog, question string) string {
	var sb strings.Builder
	sb.WriteString("Tables:\n")
	for _, t := range cat.Schemas() {
		cols := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			cols[i] = fmt.Sprintf("%q %s", c.Name, c.Type)
		}
		fmt.Fprintf(&sb, "- %q (%s)\n", t.Name, strings.Join(cols, ", "))
	}
	sb.WriteString("\nQuestion: ")
	sb.WriteString(question)
	return sb.String()
}

func retryPrompt(cat core.Catalog, question, sql string, qe *core.QueryExecutionError) string {
	return fmt.Sprintf("%s\n\nThe previous statement failed.\n[SQL]\n%s\n[/SQL]\nError: %s\nFix the statement.",
		userPrompt(cat, question), sql, qe.Err.Error())
}

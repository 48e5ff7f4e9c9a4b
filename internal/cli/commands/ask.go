package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdash/internal/assist"
	"github.com/leapstack-labs/leapdash/internal/config"
)

// NewAskCommand creates the ask command.
func NewAskCommand() *cobra.Command {
	var showSQL bool
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question with generated SQL and a chart",
		Long: `Answer a natural-language question about the imported tables.

A Vertex AI model writes the SQL (llm.project, llm.region and llm.model in
leapdash.yaml). Statements the database rejects are sent back to the model
with the error, up to llm.max_retries times.`,
		Example: `  leapdash ask "revenue by channel last quarter"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = ws.Close() }()

			llm := ws.cfg.LLM
			gen, err := assist.NewVertexGenerator(ctx, ws.logger, llm.Project, llm.Region, llm.Model)
			if err != nil {
				return err
			}
			defer func() { _ = gen.Close() }()

			a := &assist.Assistant{
				Generator:  gen,
				DB:         ws.engine,
				MaxRetries: llm.MaxRetries,
				Theme:      ws.cfg.FigureTheme(),
				Logger:     ws.logger,
			}
			ans, err := a.Ask(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return renderAnswer(cmd, ws.cfg, ans, showSQL)
		},
	}
	cmd.Flags().BoolVar(&showSQL, "sql", true, "Print the generated SQL")
	return cmd
}

func renderAnswer(cmd *cobra.Command, cfg *config.Config, ans *assist.Answer, showSQL bool) error {
	out := cmd.OutOrStdout()
	format := resolveFormat(cfg.Output, out)
	if format == config.OutputJSON {
		return renderJSON(out, map[string]any{
			"sql":      ans.SQL,
			"attempts": ans.Attempts,
			"rows":     ans.Rows.Rows,
			"figure":   ans.Figure,
		})
	}

	if showSQL {
		_, _ = fmt.Fprintf(out, "%s;\n\n", ans.SQL)
	}
	if err := renderResultSet(out, ans.Rows, format); err != nil {
		return err
	}
	if ans.Figure != nil && ans.Figure.HasData() {
		_, _ = fmt.Fprintf(out, "\n## %s (%s)\n", ans.Figure.Title, ans.Figure.Kind)
		return renderResultSet(out, figureRows(ans.Figure), format)
	}
	return nil
}

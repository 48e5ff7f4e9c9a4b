package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdash/internal/config"
	"github.com/leapstack-labs/leapdash/internal/engine"
	"github.com/leapstack-labs/leapdash/pkg/core"
	"github.com/leapstack-labs/leapdash/pkg/figure"
)

type renderOptions struct {
	filters []string
	click   string
	save    bool
}

// NewRenderCommand creates the render command.
func NewRenderCommand() *cobra.Command {
	var opts renderOptions
	cmd := &cobra.Command{
		Use:   "render [widgets-file]",
		Short: "Render widgets into figures",
		Long: `Render widgets into figures.

Without a file the widgets saved on the current dashboard are rendered.
Filters restrict every widget bound to the filtered column; --click selects
a point of a rendered widget and applies it as a filter, the way a click on
the canvas does.`,
		Example: `  # Render a widget file and save it on the dashboard
  leapdash render widgets.yaml --save

  # Restrict widgets to two channels
  leapdash render --filter Orders.channel=web,store

  # Click the third point of the first series of widget w1
  leapdash render --click w1:0:2`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, args, opts)
		},
	}
	cmd.Flags().StringArrayVar(&opts.filters, "filter", nil, "Apply a filter table.column=v1,v2 (repeatable)")
	cmd.Flags().StringVar(&opts.click, "click", "", "Select widget:series:point and apply it as a filter")
	cmd.Flags().BoolVar(&opts.save, "save", false, "Save the widgets on the dashboard")
	return cmd
}

func runRender(cmd *cobra.Command, args []string, opts renderOptions) error {
	ctx := cmd.Context()
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	widgets := ws.dashboard.Widgets
	if len(args) == 1 {
		if widgets, err = loadWidgets(args[0]); err != nil {
			return err
		}
	}
	if len(widgets) == 0 {
		return fmt.Errorf("dashboard %q has no widgets; pass a widgets file", ws.dashboard.Name)
	}
	if opts.save {
		if err := ws.store.SaveWidgets(ws.dashboard.ID, widgets, ws.dashboard.Layout); err != nil {
			return err
		}
	}

	filters := ws.engine.Filters()
	for _, f := range opts.filters {
		table, column, values, err := parseFilter(f)
		if err != nil {
			return err
		}
		filters.SetDraft(table, column, values)
		filters.ApplySelection(table, column)
	}

	results, err := ws.engine.RenderAll(ctx, widgets)
	if err != nil {
		return err
	}

	if opts.click != "" {
		if err := applyClick(ws.engine, widgets, results, opts.click); err != nil {
			return err
		}
		if results, err = ws.engine.RenderAll(ctx, widgets); err != nil {
			return err
		}
	}

	return renderResults(cmd, ws.cfg, results)
}

// parseFilter reads "table.column=v1,v2".
func parseFilter(s string) (table, column string, values []any, err error) {
	ref, list, ok := strings.Cut(s, "=")
	if !ok {
		return "", "", nil, core.NewValidationError("filter", "expected table.column=values, got %q", s)
	}
	field, err := parseQualified(ref)
	if err != nil {
		return "", "", nil, err
	}
	for _, v := range strings.Split(list, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return field.Table, field.Column, values, nil
}

// applyClick selects widget:series:point on its rendered figure and applies it.
func applyClick(e *engine.Engine, widgets []core.Widget, results []*engine.Result, click string) error {
	parts := strings.Split(click, ":")
	if len(parts) != 3 {
		return core.NewValidationError("click", "expected widget:series:point, got %q", click)
	}
	series, err1 := strconv.Atoi(parts[1])
	point, err2 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil {
		return core.NewValidationError("click", "series and point must be integers, got %q", click)
	}

	w, ok := findWidget(widgets, parts[0])
	if !ok {
		return core.NewValidationError("click", "unknown widget %q", parts[0])
	}
	var fig *figure.Figure
	for _, r := range results {
		if r.WidgetID == w.ID {
			if r.Err != nil {
				return fmt.Errorf("widget %s failed to render: %w", w.ID, r.Err)
			}
			fig = r.Figure
		}
	}

	draft, err := e.SelectFromFigure(w, fig, series, point)
	if err != nil {
		return err
	}
	e.Filters().ApplySelection(draft.TableName, draft.Column)
	return nil
}

type renderView struct {
	ID     string         `json:"id"`
	SQL    string         `json:"sql,omitempty"`
	Figure *figure.Figure `json:"figure,omitempty"`
	Filter string         `json:"filter,omitempty"`
	Status string         `json:"status,omitempty"`
	Error  string         `json:"error,omitempty"`
}

func renderResults(cmd *cobra.Command, cfg *config.Config, results []*engine.Result) error {
	out := cmd.OutOrStdout()
	format := resolveFormat(cfg.Output, out)

	views := make([]renderView, 0, len(results))
	var failed int
	for _, r := range results {
		v := renderView{ID: r.WidgetID, Figure: r.Figure, Status: r.Status.Message()}
		if r.Query != nil {
			v.SQL = r.Query.SQL
		}
		if r.Filter != nil {
			v.Filter = r.Filter.TableName + "." + r.Filter.Column
		}
		if r.Err != nil {
			failed++
			v.Error = r.Err.Error()
		}
		views = append(views, v)
	}

	if format == config.OutputJSON {
		if err := renderJSON(out, views); err != nil {
			return err
		}
	} else {
		for _, v := range views {
			_, _ = fmt.Fprintf(out, "%s\n", viewHeading(v))
			if v.Error != "" {
				_, _ = fmt.Fprintf(out, "error: %s\n\n", v.Error)
				continue
			}
			if v.Status != "" {
				_, _ = fmt.Fprintf(out, "%s\n\n", v.Status)
				continue
			}
			if err := renderResultSet(out, figureRows(v.Figure), format); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(out)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d widgets failed to render", failed, len(results))
	}
	return nil
}

func viewHeading(v renderView) string {
	heading := "## " + v.ID
	if v.Figure != nil {
		heading += " (" + string(v.Figure.Kind) + ")"
		if v.Figure.Title != "" {
			heading += " " + v.Figure.Title
		}
	}
	if v.Filter != "" {
		heading += " [filtered by " + v.Filter + "]"
	}
	return heading
}

package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapdash/pkg/adapter"
	"github.com/leapstack-labs/leapdash/pkg/chart"
	"github.com/leapstack-labs/leapdash/pkg/compiler"
	"github.com/leapstack-labs/leapdash/pkg/core"
	"github.com/leapstack-labs/leapdash/pkg/dialect"
	"github.com/leapstack-labs/leapdash/pkg/figure"
	"github.com/leapstack-labs/leapdash/pkg/filter"
)

// ErrStale is returned when a newer render of the same widget started while
// this one was running. The result is discarded.
var ErrStale = errors.New("stale widget result discarded")

// Result is a rendered widget.
type Result struct {
	WidgetID string
	Query    *compiler.Query
	Rows     *core.ResultSet
	Spec     *chart.Spec
	Figure   *figure.Figure
	// Filter is the active filter that restricted the widget, if any.
	Filter *filter.Filter
	Status filter.Status
	// Err is set by RenderAll for widgets that failed.
	Err error
}

// Render compiles, runs and shapes one widget. KPI widgets go through RenderKPI.
func (e *Engine) Render(ctx context.Context, w core.Widget) (*Result, error) {
	if w.DataSource.ChartType == core.ChartKPI {
		return e.RenderKPI(ctx, w)
	}

	c, err := e.Compiler(ctx)
	if err != nil {
		return nil, err
	}
	q, err := c.Compile(w.DataSource)
	if err != nil {
		return nil, err
	}

	stamp := e.versions.Begin(w.ID)
	rows, err := e.run(ctx, q.SQL)
	if err != nil {
		return nil, err
	}
	if !e.versions.IsCurrent(w.ID, stamp) {
		return nil, ErrStale
	}

	spec := chart.Build(rows.Rows, q.ChartType, q.XKey, q.YKeys, chart.Options{
		SeriesKey:   q.SeriesKey,
		Title:       w.Title,
		TimeAxis:    q.TimeAxis,
		Granularity: q.Granularity,
	})
	fig := figure.Normalize(spec, figure.Options{
		Type:     q.ChartType,
		Fallback: rows,
		Theme:    e.theme,
		Logger:   e.logger.With(slog.String("widget", w.ID)),
	})

	res := &Result{WidgetID: w.ID, Query: q, Rows: rows, Spec: spec, Figure: fig}
	e.restrict(w, res)
	return res, nil
}

// restrict applies the active filter matching the widget's X axis.
func (e *Engine) restrict(w core.Widget, res *Result) {
	ref := w.DataSource.Ref(w.DataSource.XAxis)
	f, ok := e.filters.Match(filter.Binding{
		Table:      ref.Table,
		Column:     ref.Column,
		Categories: res.Figure.Categories(),
	})
	if !ok {
		return
	}
	res.Figure, res.Status = filter.Restrict(res.Figure, f)
	res.Filter = &f
	e.logger.Debug("widget filtered",
		slog.String("widget", w.ID),
		slog.String("filter", f.Key()),
		slog.Bool("empty", res.Status.Empty))
}

// RenderKPI computes a KPI widget. Active filters matching the widget's
// filter field (kpiFilterXAxis, else xAxis) become query conditions, so the
// aggregate always covers the full filtered row set.
func (e *Engine) RenderKPI(ctx context.Context, w core.Widget) (*Result, error) {
	c, err := e.Compiler(ctx)
	if err != nil {
		return nil, err
	}

	ds := w.DataSource
	var conds []compiler.Condition
	var applied *filter.Filter
	if field := kpiFilterField(ds); field != "" {
		ref := ds.Ref(field)
		if f, ok := e.filters.Match(filter.Binding{Table: ref.Table, Column: ref.Column}); ok {
			conds = append(conds, compiler.Condition{Field: ref.String(), Values: f.Values})
			applied = &f
		}
	}

	q, err := c.CompileKPI(ds, conds)
	if err != nil {
		return nil, err
	}

	stamp := e.versions.Begin(w.ID)
	rows, err := e.run(ctx, q.SQL)
	if err != nil {
		return nil, err
	}
	if !e.versions.IsCurrent(w.ID, stamp) {
		return nil, ErrStale
	}

	current, _ := rows.Scalar(compiler.CurrentValueKey)
	previous, _ := rows.Scalar(compiler.PreviousValueKey)
	label := ds.ExtraFields.KPILabel
	if label == "" {
		label = w.Title
	}
	spec := chart.BuildKPI(current, previous, chart.KPIOptions{
		Label:      label,
		Title:      w.Title,
		Thresholds: ds.ExtraFields.KPIThresholds,
		Window:     q.Window.String(),
	})
	fig := figure.Normalize(spec, figure.Options{Type: core.ChartKPI, Theme: e.theme, Logger: e.logger})

	res := &Result{WidgetID: w.ID, Query: q, Rows: rows, Spec: spec, Figure: fig, Filter: applied}
	if applied != nil {
		res.Status = filter.Status{Filtered: true, Key: applied.Key()}
	}
	return res, nil
}

func kpiFilterField(ds core.DataSource) string {
	if ds.ExtraFields.KPIFilterXAxis != "" {
		return ds.ExtraFields.KPIFilterXAxis
	}
	return ds.XAxis
}

func (e *Engine) run(ctx context.Context, sql string) (*core.ResultSet, error) {
	var rows *core.ResultSet
	err := e.withSession(ctx, func(s adapter.Session, _ *dialect.Dialect) error {
		var err error
		rows, err = s.Query(ctx, sql)
		return err
	})
	return rows, err
}

// RenderAll renders widgets concurrently, at most Config.Concurrency at a
// time. Results keep the order of widgets; a failing widget carries its error
// in Result.Err instead of failing the others. Only context cancellation is
// returned as an error.
func (e *Engine) RenderAll(ctx context.Context, widgets []core.Widget) ([]*Result, error) {
	// Catalog and dialect are loaded once up front.
	if _, err := e.Catalog(ctx); err != nil {
		return nil, err
	}

	results := make([]*Result, len(widgets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i, w := range widgets {
		g.Go(func() error {
			res, err := e.Render(gctx, w)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				e.logger.Warn("widget render failed", slog.String("widget", w.ID), slog.Any("error", err))
				res = &Result{WidgetID: w.ID, Err: err}
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("render cancelled: %w", err)
	}
	return results, nil
}

// SelectFromFigure turns a click on point of series into a draft selection
// on the widget's X axis column.
func (e *Engine) SelectFromFigure(w core.Widget, fig *figure.Figure, series, point int) (filter.Draft, error) {
	label, ok := fig.LabelAt(series, point)
	if !ok {
		return filter.Draft{}, fmt.Errorf("widget %s has no point %d in series %d", w.ID, point, series)
	}
	field := w.DataSource.XAxis
	if field == "" {
		return filter.Draft{}, core.NewValidationError("xAxis", "widget %s has no field to filter on", w.ID)
	}
	ref := w.DataSource.Ref(field)
	return e.filters.SelectValue(w.ID, ref.Table, ref.Column, label), nil
}

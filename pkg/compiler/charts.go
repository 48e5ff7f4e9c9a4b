package compiler

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapdash/pkg/core"
	"github.com/leapstack-labs/leapdash/pkg/relgraph"
)

// projection collects the select list of a chart query.
type projection struct {
	keys    keySet
	selects []string
	groups  []string
	orders  []string
}

func newProjection() *projection {
	return &projection{keys: keySet{}}
}

// compileScatter selects numeric X and Y pairs without grouping.
func (c *Compiler) compileScatter(ds core.DataSource, jp *relgraph.JoinPath) (*Query, error) {
	p := newProjection()
	q := &Query{Kind: KindScatter, ChartType: ds.ChartType, Aggregation: core.AggNone}

	xRef, err := jp.Ref(ds.XAxis)
	if err != nil {
		return nil, err
	}
	q.XKey = p.keys.add(ds.Ref(ds.XAxis).Column)
	p.selects = append(p.selects, c.as(c.numeric(xRef), q.XKey))

	if err := c.selectYs(ds, jp, p, q, c.numeric); err != nil {
		return nil, err
	}

	q.SQL = c.render(jp, p, nil, c.rawLimit())
	return q, nil
}

// compileRaw selects (bucketed) X, numeric Ys and the series column without grouping.
func (c *Compiler) compileRaw(ds core.DataSource, jp *relgraph.JoinPath) (*Query, error) {
	p := newProjection()
	q := &Query{Kind: KindRaw, ChartType: ds.ChartType, Aggregation: core.AggNone}

	if _, err := c.selectX(ds, jp, p, q); err != nil {
		return nil, err
	}
	if err := c.selectSeries(ds, jp, p, q); err != nil {
		return nil, err
	}
	if err := c.selectYs(ds, jp, p, q, c.numeric); err != nil {
		return nil, err
	}

	q.SQL = c.render(jp, p, nil, c.rawLimit())
	return q, nil
}

// compileAggregate groups by X (and the series column) and aggregates every Y.
func (c *Compiler) compileAggregate(ds core.DataSource, jp *relgraph.JoinPath, agg core.Aggregation) (*Query, error) {
	p := newProjection()
	q := &Query{Kind: KindAggregate, ChartType: ds.ChartType, Aggregation: agg}

	xExpr, err := c.selectX(ds, jp, p, q)
	if err != nil {
		return nil, err
	}
	p.groups = append(p.groups, xExpr)
	p.orders = append(p.orders, strconv.Itoa(len(p.selects))+" ASC")

	if ds.ExtraFields.SeriesBy != "" {
		if err := c.selectSeries(ds, jp, p, q); err != nil {
			return nil, err
		}
		seriesRef, _ := jp.Ref(ds.ExtraFields.SeriesBy)
		p.groups = append(p.groups, seriesRef)
		p.orders = append(p.orders, strconv.Itoa(len(p.selects))+" ASC")
	}

	if err := c.selectYs(ds, jp, p, q, func(ref string) string { return c.aggregate(agg, ref) }); err != nil {
		return nil, err
	}

	q.SQL = c.render(jp, p, nil, 0)
	return q, nil
}

// selectX adds the X column, truncated to the configured granularity when the
// catalog reports a date/time type. It returns the un-aliased expression.
func (c *Compiler) selectX(ds core.DataSource, jp *relgraph.JoinPath, p *projection, q *Query) (string, error) {
	xRef, err := jp.Ref(ds.XAxis)
	if err != nil {
		return "", err
	}
	expr := xRef
	if c.isTemporal(ds, ds.XAxis) {
		q.TimeAxis = true
		q.Granularity = ds.ExtraFields.TimeGranularity
		switch q.Granularity {
		case core.GranularityDay, core.GranularityMonth, core.GranularityYear:
			expr = c.Dialect.DateTrunc(string(q.Granularity), xRef)
		}
	}
	q.XKey = p.keys.add(ds.Ref(ds.XAxis).Column)
	p.selects = append(p.selects, c.as(expr, q.XKey))
	return expr, nil
}

func (c *Compiler) selectSeries(ds core.DataSource, jp *relgraph.JoinPath, p *projection, q *Query) error {
	if ds.ExtraFields.SeriesBy == "" {
		return nil
	}
	ref, err := jp.Ref(ds.ExtraFields.SeriesBy)
	if err != nil {
		return err
	}
	q.SeriesKey = p.keys.add(ds.Ref(ds.ExtraFields.SeriesBy).Column)
	p.selects = append(p.selects, c.as(ref, q.SeriesKey))
	return nil
}

func (c *Compiler) selectYs(ds core.DataSource, jp *relgraph.JoinPath, p *projection, q *Query, wrap func(string) string) error {
	for _, y := range ds.YAxis {
		ref, err := jp.Ref(y)
		if err != nil {
			return err
		}
		key := p.keys.add(ds.Ref(y).Column)
		q.YKeys = append(q.YKeys, key)
		p.selects = append(p.selects, c.as(wrap(ref), key))
	}
	return nil
}

// render assembles the SELECT statement. limit <= 0 means no LIMIT.
func (c *Compiler) render(jp *relgraph.JoinPath, p *projection, where []string, limit int) string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(p.selects, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(jp.From())
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	if len(p.groups) > 0 {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(p.groups, ", "))
	}
	if len(p.orders) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(p.orders, ", "))
	}
	if limit > 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(limit))
	}
	return sb.String()
}

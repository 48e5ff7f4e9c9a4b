package relgraph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapdash/pkg/core"
	"github.com/leapstack-labs/leapdash/pkg/dialect"
)

// Join is one resolved join step from the base table.
type Join struct {
	Table   string
	Alias   string
	BaseCol string // column on the base table
	Col     string // column on the joined table
}

// JoinPath is the FROM clause of a widget query: the base table aliased t0 and
// one inner join per additional table, aliased t1..tn in first-use order.
type JoinPath struct {
	Base    string
	Joins   []Join
	aliases map[string]string
	dialect *dialect.Dialect
}

// BaseAlias is the alias of the widget's base table.
const BaseAlias = "t0"

// ResolveJoinPath builds the join path needed to reference the tables in used
// from base. Every non-base table must share a direct confirmed edge with base;
// otherwise a *core.MissingRelationshipError is returned. Only the first
// matching confirmed edge is used for each table.
func ResolveJoinPath(d *dialect.Dialect, base string, used []string, confirmed []core.Relationship) (*JoinPath, error) {
	if d == nil {
		return nil, dialect.ErrDialectRequired
	}
	if strings.TrimSpace(base) == "" {
		return nil, core.NewValidationError("tableName", "base table is required")
	}

	jp := &JoinPath{
		Base:    base,
		aliases: map[string]string{base: BaseAlias},
		dialect: d,
	}

	for _, table := range used {
		if _, ok := jp.aliases[table]; ok || table == "" {
			continue
		}
		edge, ok := directEdge(base, table, confirmed)
		if !ok {
			return nil, &core.MissingRelationshipError{Base: base, Table: table}
		}
		baseCol, _, col, _ := edge.Other(base)
		alias := "t" + strconv.Itoa(len(jp.Joins)+1)
		jp.aliases[table] = alias
		jp.Joins = append(jp.Joins, Join{Table: table, Alias: alias, BaseCol: baseCol, Col: col})
	}

	return jp, nil
}

func directEdge(base, table string, confirmed []core.Relationship) (core.Relationship, bool) {
	for _, r := range confirmed {
		if !r.IsConfirmed() {
			continue
		}
		if Links(r, base, table) {
			return r, true
		}
	}
	return core.Relationship{}, false
}

// Alias returns the alias assigned to table.
func (jp *JoinPath) Alias(table string) (string, bool) {
	a, ok := jp.aliases[table]
	return a, ok
}

// Ref renders a "table.column" or bare "column" reference as tN."column".
func (jp *JoinPath) Ref(field string) (string, error) {
	f := core.ParseFieldRef(field, jp.Base)
	alias, ok := jp.aliases[f.Table]
	if !ok {
		return "", fmt.Errorf("table %q is not part of the join path from %q", f.Table, jp.Base)
	}
	return jp.dialect.Column(alias, f.Column), nil
}

// From renders the FROM clause including joins, without the FROM keyword.
func (jp *JoinPath) From() string {
	var sb strings.Builder
	sb.WriteString(jp.dialect.QuoteIdentifier(jp.Base))
	sb.WriteString(" AS ")
	sb.WriteString(BaseAlias)
	for _, j := range jp.Joins {
		fmt.Fprintf(&sb, " INNER JOIN %s AS %s ON %s = %s",
			jp.dialect.QuoteIdentifier(j.Table), j.Alias,
			jp.dialect.Column(BaseAlias, j.BaseCol), jp.dialect.Column(j.Alias, j.Col))
	}
	return sb.String()
}

// Tables returns base followed by the joined tables in alias order.
func (jp *JoinPath) Tables() []string {
	out := []string{jp.Base}
	for _, j := range jp.Joins {
		out = append(out, j.Table)
	}
	return out
}

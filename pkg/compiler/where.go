package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapdash/pkg/coerce"
	"github.com/leapstack-labs/leapdash/pkg/core"
	"github.com/leapstack-labs/leapdash/pkg/relgraph"
)

// conditionFields returns the fields referenced by conditions with at least one value.
func conditionFields(conds []Condition) []string {
	var out []string
	for _, cond := range conds {
		if len(cond.Values) > 0 && strings.TrimSpace(cond.Field) != "" {
			out = append(out, cond.Field)
		}
	}
	return out
}

// where renders one predicate per condition; conditions without values are skipped.
//
// Labels on a date/time column are compared against strftime of the column
// using the layout the label was rendered with, so "2024/03" matches every
// row in March 2024. Numeric columns compare as numbers, so the label "2.5"
// matches a DECIMAL 2.50. Text columns compare as they are and other known
// types compare their text form. Columns missing from the catalog are treated
// like date/time columns, with unrecognised labels matched as text.
func (c *Compiler) where(ds core.DataSource, jp *relgraph.JoinPath, conds []Condition) ([]string, error) {
	var out []string
	for _, cond := range conds {
		if len(cond.Values) == 0 || strings.TrimSpace(cond.Field) == "" {
			continue
		}
		ref, err := jp.Ref(cond.Field)
		if err != nil {
			return nil, err
		}

		typ := c.columnType(ds, cond.Field)
		switch {
		case coerce.IsNumericType(typ):
			out = append(out, c.numericIn(ref, cond.Values))
			continue
		case coerce.IsTextType(typ):
			out = append(out, c.inList(ref, textValues(cond.Values)))
			continue
		case typ != "" && !coerce.IsTemporalType(typ):
			out = append(out, c.inList(c.Dialect.CastText(ref), textValues(cond.Values)))
			continue
		}

		byGranularity := map[core.Granularity][]string{}
		var plain []string
		for _, v := range cond.Values {
			label := coerce.ToText(v)
			if g, ok := coerce.LabelGranularity(label); ok {
				byGranularity[g] = append(byGranularity[g], label)
			} else {
				plain = append(plain, label)
			}
		}

		var alts []string
		for _, g := range sortedGranularities(byGranularity) {
			expr := c.Dialect.Strftime(c.timestamp(ds, cond.Field, ref), coerce.StrftimeLayout(g))
			alts = append(alts, c.inList(expr, byGranularity[g]))
		}
		if len(plain) > 0 {
			alts = append(alts, c.inList(c.Dialect.CastText(ref), plain))
		}
		if len(alts) == 1 {
			out = append(out, alts[0])
		} else {
			out = append(out, "("+strings.Join(alts, " OR ")+")")
		}
	}
	return out, nil
}

func (c *Compiler) inList(expr string, values []string) string {
	lits := make([]string, len(values))
	for i, v := range values {
		lits[i] = c.Dialect.QuoteLiteral(v)
	}
	return fmt.Sprintf("%s IN (%s)", expr, strings.Join(lits, ", "))
}

// numericIn compares ref as a number. Labels that do not parse as numbers
// fall back to a text comparison.
func (c *Compiler) numericIn(ref string, values []any) string {
	var nums, other []string
	for _, v := range values {
		if f, ok := coerce.Number(v); ok {
			nums = append(nums, c.Dialect.QuoteLiteral(f))
		} else {
			other = append(other, coerce.ToText(v))
		}
	}

	var alts []string
	if len(nums) > 0 {
		alts = append(alts, fmt.Sprintf("%s IN (%s)",
			c.Dialect.TryCast(ref, c.Dialect.NumericType), strings.Join(nums, ", ")))
	}
	if len(other) > 0 {
		alts = append(alts, c.inList(c.Dialect.CastText(ref), other))
	}
	if len(alts) == 1 {
		return alts[0]
	}
	return "(" + strings.Join(alts, " OR ") + ")"
}

func textValues(values []any) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = coerce.ToText(v)
	}
	return out
}

func sortedGranularities(m map[core.Granularity][]string) []core.Granularity {
	out := make([]core.Granularity, 0, len(m))
	for g := range m {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

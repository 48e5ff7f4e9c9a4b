package assist

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdash/internal/testutil"
	"github.com/leapstack-labs/leapdash/pkg/core"
	"github.com/leapstack-labs/leapdash/pkg/figure"
)

// fakeDB accepts only the statements it has results for.
type fakeDB struct {
	results map[string]*core.ResultSet
	queries []string
}

func (f *fakeDB) Catalog(context.Context) (core.Catalog, error) {
	return testutil.SalesCatalog(), nil
}

func (f *fakeDB) Query(_ context.Context, sql string) (*core.ResultSet, error) {
	f.queries = append(f.queries, sql)
	if rs, ok := f.results[sql]; ok {
		return rs, nil
	}
	return nil, &core.QueryExecutionError{SQL: sql, Err: errors.New("Catalog Error: Table does not exist")}
}

// scripted returns the replies in order and records the prompts.
type scripted struct {
	replies []string
	prompts []Prompt
}

func (s *scripted) Generate(_ context.Context, p Prompt) (string, error) {
	s.prompts = append(s.prompts, p)
	if len(s.replies) == 0 {
		return "", errors.New("no more replies")
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r, nil
}

const goodSQL = `SELECT channel, SUM(amount) AS total FROM "Orders" GROUP BY 1`

func channelTotals() *core.ResultSet {
	return &core.ResultSet{
		Columns: []string{"channel", "total"},
		Rows: []core.Row{
			{"channel": "web", "total": 1500.5},
			{"channel": "store", "total": 2250.0},
		},
	}
}

func TestAssistant_Ask(t *testing.T) {
	db := &fakeDB{results: map[string]*core.ResultSet{goodSQL: channelTotals()}}
	gen := &scripted{replies: []string{
		"[SQL]" + goodSQL + "[/SQL]\n[CHART]{\"series\":[{\"type\":\"pie\",\"data\":[{\"name\":\"web\",\"value\":1500.5},{\"name\":\"store\",\"value\":2250}]}]}[/CHART]",
	}}

	a := &Assistant{Generator: gen, DB: db, Logger: testutil.NewTestLogger(t)}
	ans, err := a.Ask(context.Background(), "revenue by channel")
	require.NoError(t, err)

	assert.Equal(t, goodSQL, ans.SQL)
	assert.Equal(t, 1, ans.Attempts)
	assert.Equal(t, 2, ans.Rows.Len())
	require.NotNil(t, ans.Figure)
	assert.Equal(t, figure.KindPie, ans.Figure.Kind)
	assert.False(t, ans.Figure.Fallback)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0].User, `"Orders"`)
	assert.Contains(t, gen.prompts[0].User, "Question: revenue by channel")
	assert.NotEmpty(t, gen.prompts[0].System)
}

func TestAssistant_RetriesFailedSQL(t *testing.T) {
	db := &fakeDB{results: map[string]*core.ResultSet{goodSQL: channelTotals()}}
	gen := &scripted{replies: []string{
		"[SQL]SELECT * FROM orderz[/SQL]",
		"```sql\n" + goodSQL + "\n```",
	}}

	a := &Assistant{Generator: gen, DB: db, MaxRetries: 2}
	ans, err := a.Ask(context.Background(), "revenue by channel")
	require.NoError(t, err)

	assert.Equal(t, 2, ans.Attempts)
	assert.Equal(t, []string{"SELECT * FROM orderz", goodSQL}, db.queries)
	require.Len(t, gen.prompts, 2)
	assert.Contains(t, gen.prompts[1].User, "SELECT * FROM orderz")
	assert.Contains(t, gen.prompts[1].User, "Table does not exist")

	// no chart in the reply: the figure is derived from the rows
	assert.True(t, ans.Figure.Fallback)
	require.NotNil(t, ans.Figure.Axis)
	assert.Equal(t, []string{"web", "store"}, ans.Figure.Axis.Categories)
	assert.Equal(t, []float64{1500.5, 2250}, ans.Figure.Axis.Series[0].Values)
}

func TestAssistant_GivesUpAfterMaxRetries(t *testing.T) {
	db := &fakeDB{}
	gen := &scripted{replies: []string{
		"[SQL]SELECT 1 FROM a[/SQL]",
		"[SQL]SELECT 1 FROM b[/SQL]",
		"[SQL]SELECT 1 FROM c[/SQL]",
	}}

	a := &Assistant{Generator: gen, DB: db, MaxRetries: 1}
	_, err := a.Ask(context.Background(), "anything")
	require.Error(t, err)

	var qe *core.QueryExecutionError
	assert.ErrorAs(t, err, &qe)
	assert.Equal(t, "SELECT 1 FROM b", qe.SQL)
	assert.Len(t, db.queries, 2)
	assert.True(t, strings.Contains(err.Error(), "2 attempts"))
}

func TestAssistant_Errors(t *testing.T) {
	tests := []struct {
		name     string
		question string
		gen      Generator
		check    func(t *testing.T, err error)
	}{
		{
			name:     "empty question",
			question: "  ",
			gen:      &scripted{},
			check: func(t *testing.T, err error) {
				var ve *core.ValidationError
				assert.ErrorAs(t, err, &ve)
			},
		},
		{
			name:     "no sql in reply",
			question: "hello",
			gen:      &scripted{replies: []string{"I am not sure."}},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrNoSQL)
			},
		},
		{
			name:     "generator failure",
			question: "hello",
			gen: GeneratorFunc(func(context.Context, Prompt) (string, error) {
				return "", errors.New("quota exceeded")
			}),
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "quota exceeded")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Assistant{Generator: tt.gen, DB: &fakeDB{}}
			_, err := a.Ask(context.Background(), tt.question)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestAssistant_NonExecutionErrorNotRetried(t *testing.T) {
	gen := &scripted{replies: []string{"[SQL]SELECT 1[/SQL]", "[SQL]SELECT 1[/SQL]"}}
	db := errDB{err: context.Canceled}

	a := &Assistant{Generator: gen, DB: db, MaxRetries: 3}
	_, err := a.Ask(context.Background(), "q")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, gen.prompts, 1)
}

type errDB struct{ err error }

func (errDB) Catalog(context.Context) (core.Catalog, error) { return core.Catalog{}, nil }

func (d errDB) Query(context.Context, string) (*core.ResultSet, error) { return nil, d.err }

package relgraph

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdash/pkg/core"
	"github.com/leapstack-labs/leapdash/pkg/dialects/duckdb"
)

func confirmed(t1, c1, t2, c2 string) core.Relationship {
	return core.Relationship{
		Table1: t1, Col1: c1, Table2: t2, Col2: c2,
		Type: core.RelationshipConfirmed, Cardinality: core.OneToMany,
	}
}

func TestEdgesEqual(t *testing.T) {
	a := confirmed("Orders", "customer_id", "Customers", "id")

	tests := []struct {
		name string
		b    core.Relationship
		want bool
	}{
		{"identical", a, true},
		{"swapped", confirmed("Customers", "id", "Orders", "customer_id"), true},
		{"type ignored", core.Relationship{Table1: "Orders", Col1: "customer_id", Table2: "Customers", Col2: "id"}, true},
		{"different column", confirmed("Orders", "customer_id", "Customers", "customer_id"), false},
		{"half swapped", confirmed("Customers", "customer_id", "Orders", "id"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EdgesEqual(a, tt.b))
			assert.Equal(t, tt.want, EdgesEqual(tt.b, a))
		})
	}
}

func TestLinks(t *testing.T) {
	r := confirmed("Orders", "customer_id", "Customers", "id")

	tests := []struct {
		name string
		x, y string
		want bool
	}{
		{"forward", "Orders", "Customers", true},
		{"reverse", "Customers", "Orders", true},
		{"one side", "Orders", "Regions", false},
		{"same table twice", "Orders", "Orders", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Links(r, tt.x, tt.y))
		})
	}

	self := confirmed("Employees", "manager_id", "Employees", "id")
	assert.True(t, Links(self, "Employees", "Employees"))
}

func TestRelatedTables(t *testing.T) {
	edges := []core.Relationship{
		confirmed("Orders", "customer_id", "Customers", "id"),
		confirmed("Regions", "id", "Orders", "region_id"),
		{Table1: "Orders", Col1: "product_id", Table2: "Products", Col2: "id", Type: core.RelationshipSuggested},
		confirmed("Customers", "id", "Accounts", "customer_id"),
	}

	got := RelatedTables("Orders", edges)
	assert.Equal(t, map[string]struct{}{"Customers": {}, "Regions": {}}, got)
}

func TestResolveJoinPath(t *testing.T) {
	edges := []core.Relationship{
		confirmed("Orders", "customer_id", "Customers", "id"),
		confirmed("Regions", "id", "Orders", "region_id"),
	}

	jp, err := ResolveJoinPath(duckdb.DuckDB, "Orders", []string{"Orders", "Regions", "Customers", "Regions"}, edges)
	require.NoError(t, err)

	assert.Equal(t,
		`"Orders" AS t0 INNER JOIN "Regions" AS t1 ON t0."region_id" = t1."id" INNER JOIN "Customers" AS t2 ON t0."customer_id" = t2."id"`,
		jp.From())
	assert.Equal(t, []string{"Orders", "Regions", "Customers"}, jp.Tables())

	ref, err := jp.Ref("Customers.name")
	require.NoError(t, err)
	assert.Equal(t, `t2."name"`, ref)

	ref, err = jp.Ref("amount")
	require.NoError(t, err)
	assert.Equal(t, `t0."amount"`, ref)

	_, err = jp.Ref("Products.name")
	assert.Error(t, err)
}

func TestResolveJoinPath_Missing(t *testing.T) {
	edges := []core.Relationship{
		confirmed("Orders", "customer_id", "Customers", "id"),
		{Table1: "Orders", Col1: "product_id", Table2: "Products", Col2: "id", Type: core.RelationshipSuggested},
		confirmed("Customers", "id", "Accounts", "customer_id"),
	}

	for _, table := range []string{"Products", "Accounts"} {
		_, err := ResolveJoinPath(duckdb.DuckDB, "Orders", []string{table}, edges)
		var missing *core.MissingRelationshipError
		require.True(t, errors.As(err, &missing), table)
		assert.Equal(t, "Orders", missing.Base)
		assert.Equal(t, table, missing.Table)
	}
}

// The same edge resolves from either side with the same equality, so the
// inner-joined row set is identical.
func TestResolveJoinPath_Symmetric(t *testing.T) {
	edges := []core.Relationship{confirmed("Orders", "customer_id", "Customers", "id")}

	ab, err := ResolveJoinPath(duckdb.DuckDB, "Orders", []string{"Customers"}, edges)
	require.NoError(t, err)
	ba, err := ResolveJoinPath(duckdb.DuckDB, "Customers", []string{"Orders"}, edges)
	require.NoError(t, err)

	require.Len(t, ab.Joins, 1)
	require.Len(t, ba.Joins, 1)
	assert.Equal(t, ab.Joins[0].BaseCol, ba.Joins[0].Col)
	assert.Equal(t, ab.Joins[0].Col, ba.Joins[0].BaseCol)
	assert.Contains(t, ab.From(), "INNER JOIN")
	assert.Contains(t, ba.From(), "INNER JOIN")
}

func TestResolveJoinPath_QuotesIdentifiers(t *testing.T) {
	edges := []core.Relationship{confirmed(`we"ird`, "id", "Other", `x"id`)}

	jp, err := ResolveJoinPath(duckdb.DuckDB, `we"ird`, []string{"Other"}, edges)
	require.NoError(t, err)
	assert.Equal(t, `"we""ird" AS t0 INNER JOIN "Other" AS t1 ON t0."id" = t1."x""id"`, jp.From())
}

func salesSchemas() []core.TableSchema {
	return []core.TableSchema{
		{Name: "Orders", Columns: []core.Column{
			{Name: "order_id", Type: "BIGINT"},
			{Name: "Customer ID", Type: "BIGINT"},
			{Name: "amount", Type: "DOUBLE"},
			{Name: "name", Type: "VARCHAR"},
		}},
		{Name: "Customers", Columns: []core.Column{
			{Name: "customer-id", Type: "BIGINT"},
			{Name: "name", Type: "VARCHAR"},
		}},
		{Name: "Shipments", Columns: []core.Column{
			{Name: "order_id", Type: "BIGINT"},
			{Name: "CustomerId", Type: "BIGINT"},
		}},
	}
}

func TestDetectSuggested(t *testing.T) {
	got := DetectSuggested(salesSchemas(), nil, DetectOptions{})

	want := []core.Relationship{
		{Table1: "Orders", Col1: "Customer ID", Table2: "Customers", Col2: "customer-id", Type: core.RelationshipSuggested, Cardinality: core.OneToMany},
		{Table1: "Orders", Col1: "order_id", Table2: "Shipments", Col2: "order_id", Type: core.RelationshipSuggested, Cardinality: core.OneToMany},
		{Table1: "Orders", Col1: "Customer ID", Table2: "Shipments", Col2: "CustomerId", Type: core.RelationshipSuggested, Cardinality: core.OneToMany},
		{Table1: "Customers", Col1: "customer-id", Table2: "Shipments", Col2: "CustomerId", Type: core.RelationshipSuggested, Cardinality: core.OneToMany},
	}
	assert.Equal(t, want, got)
}

func TestDetectSuggested_ExcludesConfirmed(t *testing.T) {
	conf := []core.Relationship{confirmed("Shipments", "order_id", "Orders", "order_id")}

	got := DetectSuggested(salesSchemas(), conf, DetectOptions{})
	for _, r := range got {
		assert.False(t, EdgesEqual(r, conf[0]), r.String())
	}
	assert.Len(t, got, 3)
}

func TestDetectSuggested_Idempotent(t *testing.T) {
	first := DetectSuggested(salesSchemas(), nil, DetectOptions{})
	second := DetectSuggested(salesSchemas(), nil, DetectOptions{})
	assert.Equal(t, first, second)
}

func TestDetectSuggested_CustomMatcher(t *testing.T) {
	byName := func(n string) bool { return n == "name" }

	got := DetectSuggested(salesSchemas(), nil, DetectOptions{Matcher: byName})
	require.Len(t, got, 1)
	assert.Equal(t, "Orders.name = Customers.name", got[0].String())
}

func TestGraph(t *testing.T) {
	g := NewGraph(nil, WithMatcher(DefaultIdentifierMatcher))

	suggested := g.RefreshSuggestions(salesSchemas())
	require.Len(t, suggested, 4)
	assert.Empty(t, g.Confirmed())

	// confirm using the reverse orientation
	g.Confirm(core.Relationship{Table1: "Customers", Col1: "customer-id", Table2: "Orders", Col2: "Customer ID"})
	assert.Len(t, g.Confirmed(), 1)
	assert.Len(t, g.Suggested(), 3)
	assert.Len(t, g.All(), 4)

	// a re-detected suggestion never downgrades the confirmed edge
	suggested = g.RefreshSuggestions(salesSchemas())
	assert.Len(t, suggested, 3)
	g.Add(core.Relationship{Table1: "Orders", Col1: "Customer ID", Table2: "Customers", Col2: "customer-id", Type: core.RelationshipSuggested})
	assert.Len(t, g.Confirmed(), 1)

	assert.True(t, g.Remove(confirmed("Orders", "Customer ID", "Customers", "customer-id")))
	assert.False(t, g.Remove(confirmed("Orders", "Customer ID", "Customers", "customer-id")))
	assert.Empty(t, g.Confirmed())

	g.Replace([]core.Relationship{confirmed("A", "id", "B", "a_id"), confirmed("B", "a_id", "A", "id")})
	assert.Len(t, g.All(), 1)
}

func TestGraph_ReturnsCopies(t *testing.T) {
	g := NewGraph([]core.Relationship{confirmed("A", "id", "B", "a_id")})
	edges := g.Confirmed()
	edges[0].Table1 = "Z"
	assert.Equal(t, "A", g.Confirmed()[0].Table1)
}

func TestGraph_Concurrent(t *testing.T) {
	g := NewGraph(nil)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Confirm(confirmed("A", "id", "B", "a_id"))
			_ = g.Confirmed()
			g.RefreshSuggestions(salesSchemas())
		}()
	}
	wg.Wait()
	assert.Len(t, g.Confirmed(), 1)
}

package testutil

import "github.com/leapstack-labs/leapdash/pkg/core"

// SalesSchemas describes the Orders/Customers dataset created by SalesSeed.
// Orders.amount is deliberately text with currency noise.
func SalesSchemas() []core.TableSchema {
	return []core.TableSchema{
		{Name: "Orders", Columns: []core.Column{
			{Name: "id", Type: "BIGINT"},
			{Name: "customer_id", Type: "BIGINT"},
			{Name: "amount", Type: "VARCHAR"},
			{Name: "order_date", Type: "DATE"},
			{Name: "channel", Type: "VARCHAR"},
		}},
		{Name: "Customers", Columns: []core.Column{
			{Name: "id", Type: "BIGINT"},
			{Name: "name", Type: "VARCHAR"},
		}},
	}
}

// SalesCatalog returns SalesSchemas as a catalog.
func SalesCatalog() core.Catalog {
	return core.NewCatalog(SalesSchemas())
}

// SalesSeed creates and fills the dataset. The latest order is 2024-03-20.
var SalesSeed = []string{
	`CREATE TABLE "Orders" (id BIGINT, customer_id BIGINT, amount VARCHAR, order_date DATE, channel VARCHAR)`,
	`INSERT INTO "Orders" VALUES
		(1, 1, '$1,000.50', '2024-01-15', 'web'),
		(2, 2, '2,000', '2024-02-10', 'store'),
		(3, 1, '$500', '2024-03-05', 'web'),
		(4, 2, 'n/a', '2024-03-20', 'web'),
		(5, 1, '250', '2024-02-20', 'store')`,
	`CREATE TABLE "Customers" (id BIGINT, name VARCHAR)`,
	`INSERT INTO "Customers" VALUES (1, 'Ada'), (2, 'Bob')`,
}

// OrdersCustomers is the confirmed edge Orders.customer_id = Customers.id.
var OrdersCustomers = core.Relationship{
	Table1: "Orders", Col1: "customer_id", Table2: "Customers", Col2: "id",
	Type: core.RelationshipConfirmed, Cardinality: core.OneToMany,
}

//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/xenking/order-gateway/internal/domain/auth"
	"github.com/xenking/order-gateway/internal/domain/customer"
	"github.com/xenking/order-gateway/internal/domain/order"
	"github.com/xenking/order-gateway/internal/domain/product"
	"github.com/xenking/order-gateway/internal/domain/record"
)

func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		tcpostgres.WithDatabase("gateway_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgContainer.Terminate(ctx) })

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := NewPool(ctx, dsn, PoolConfig{MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, RunMigrations(ctx, pool, zap.NewNop()))
	return pool
}

func seedCatalog(t *testing.T, pool *pgxpool.Pool) (customerID, productA, productB uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO customers (customer_name, city) VALUES ('Contoso', 'Springfield') RETURNING customer_id`,
	).Scan(&customerID))
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO products (product_name, product_cost) VALUES ('Widget', 19.99) RETURNING product_id`,
	).Scan(&productA))
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO products (product_name, product_cost) VALUES ('Gadget', 5.00) RETURNING product_id`,
	).Scan(&productB))
	return customerID, productA, productB
}

func TestProcedures_CreateAndRead(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	pool := setupPool(t)
	procs := NewProcedures(pool)
	ctx := context.Background()

	customerID, productA, productB := seedCatalog(t, pool)
	date := time.Date(2024, 12, 20, 14, 30, 0, 0, time.UTC)

	n, err := procs.CreateOrder(ctx, date, customerID, order.ProductRows{
		{ProductID: productA, Quantity: 2},
		{ProductID: productB, Quantity: 1},
		{ProductID: productA, Quantity: 1},
	})
	require.NoError(t, err)
	assert.Positive(t, n)

	products, err := procs.GetAllProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.IsType(t, decimal.Decimal{}, products[0]["ProductCost"])
	assert.IsType(t, "", products[0]["ProductId"])

	sets, err := procs.GetOrderDetails(ctx, n)
	require.NoError(t, err)
	require.Len(t, sets, 3)

	d, err := order.CorrelateOne(sets)
	require.NoError(t, err)
	assert.Equal(t, customerID.String(), d.Customer.ID.Value)
	assert.True(t, date.Equal(d.Order.InvoiceDate.Value))
	require.Len(t, d.LineItems, 3)
	assert.True(t, decimal.RequireFromString("39.98").Equal(d.LineItems[0].TotalCost.Value))

	all, err := procs.GetAllOrdersWithDetails(ctx)
	require.NoError(t, err)
	details := order.Correlate(all.At(order.SetOrders), all.At(order.SetCustomers), all.At(order.SetLineItems))
	require.Len(t, details, 1)
	assert.Len(t, details[0].LineItems, 3)

	missing, err := procs.GetOrderDetails(ctx, n+100)
	require.NoError(t, err)
	_, err = order.CorrelateOne(missing)
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestProcedures_CreateOrderBusinessRules(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	pool := setupPool(t)
	procs := NewProcedures(pool)
	ctx := context.Background()

	customerID, productA, _ := seedCatalog(t, pool)
	date := time.Now().UTC().Truncate(time.Second)

	_, err := procs.CreateOrder(ctx, date, uuid.New(), order.ProductRows{{ProductID: productA, Quantity: 1}})
	var brErr *order.BusinessRuleError
	require.ErrorAs(t, err, &brErr)
	assert.Equal(t, order.CodeUnknownCustomer, brErr.Code)

	_, err = procs.CreateOrder(ctx, date, customerID, order.ProductRows{{ProductID: uuid.New(), Quantity: 1}})
	require.ErrorAs(t, err, &brErr)
	assert.Equal(t, order.CodeUnknownProduct, brErr.Code)

	summary, err := procs.GetAllOrdersSummary(ctx)
	require.NoError(t, err)
	assert.Empty(t, summary, "rejected orders must not be persisted")
}

func TestAPIKeyRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	pool := setupPool(t)
	repo := NewAPIKeyRepository(pool)
	ctx := context.Background()

	hash := auth.Hash([]byte("pepper"), "secret")
	require.NoError(t, repo.Upsert(ctx, auth.APIKeyInfo{ID: "default", KeyHash: hash, Name: "Default"}))

	info, err := repo.FindByHash(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, "default", info.ID)

	_, err = repo.FindByHash(ctx, "nope")
	require.ErrorIs(t, err, auth.ErrUnknownKey)
}

func TestCatalog_Upsert(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	pool := setupPool(t)
	catalog := NewCatalog(pool)
	procs := NewProcedures(pool)
	ctx := context.Background()

	id := uuid.New()
	n, err := catalog.UpsertCustomers(ctx, []customer.Customer{
		{ID: record.NewOpt(id.String()), Name: record.NewOpt("Contoso"), City: record.NewOpt("Springfield")},
		{Name: record.NewOpt("Generated Id Co")},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, err = catalog.UpsertCustomers(ctx, []customer.Customer{
		{ID: record.NewOpt(id.String()), Name: record.NewOpt("Contoso Ltd")},
	})
	require.NoError(t, err)

	rows, err := procs.GetAllCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	byID := map[string]customer.Customer{}
	for _, r := range rows {
		c := customer.Shape(r)
		byID[c.ID.Value] = c
	}
	assert.Equal(t, "Contoso Ltd", byID[id.String()].Name.Value)
	assert.False(t, byID[id.String()].City.Set, "upsert replaces the whole record")

	pid := uuid.New()
	_, err = catalog.UpsertProducts(ctx, []product.Product{
		{ID: record.NewOpt(pid.String()), Name: record.NewOpt("Widget"), Cost: record.NewOpt(decimal.RequireFromString("19.99"))},
	})
	require.NoError(t, err)
	products, err := procs.GetAllProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.True(t, decimal.RequireFromString("19.99").Equal(product.Shape(products[0]).Cost.Value))

	_, err = catalog.UpsertProducts(ctx, []product.Product{{ID: record.NewOpt("not-a-uuid")}})
	require.Error(t, err)
}

func TestCatalog_UpsertRepeatedIDLastWins(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	pool := setupPool(t)
	catalog := NewCatalog(pool)
	procs := NewProcedures(pool)
	ctx := context.Background()

	pid := uuid.New()
	n, err := catalog.UpsertProducts(ctx, []product.Product{
		{ID: record.NewOpt(pid.String()), Name: record.NewOpt("Widget"), Cost: record.NewOpt(decimal.RequireFromString("1.00"))},
		{Name: record.NewOpt("No Id A")},
		{Name: record.NewOpt("No Id B")},
		{ID: record.NewOpt(pid.String()), Name: record.NewOpt("Widget v2"), Cost: record.NewOpt(decimal.RequireFromString("2.50"))},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	rows, err := procs.GetAllProducts(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, r := range rows {
		p := product.Shape(r)
		if p.ID.Value != pid.String() {
			continue
		}
		assert.Equal(t, "Widget v2", p.Name.Value)
		assert.True(t, decimal.RequireFromString("2.50").Equal(p.Cost.Value))
	}
}

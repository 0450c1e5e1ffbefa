package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/order-gateway/internal/domain/customer"
	"github.com/xenking/order-gateway/internal/domain/product"
	"github.com/xenking/order-gateway/internal/domain/record"
)

const (
	stageCustomersSQL = `CREATE TEMP TABLE stage_customers (
		customer_id uuid, customer_name text, address1 text, address2 text,
		city text, state text, postal_code text, telephone text,
		contact_name text, email_address text, seq bigserial
	) ON COMMIT DROP`
	mergeCustomersSQL = `INSERT INTO customers AS c (
		customer_id, customer_name, address1, address2, city, state,
		postal_code, telephone, contact_name, email_address)
	SELECT DISTINCT ON (id) id, customer_name, address1, address2,
		city, state, postal_code, telephone, contact_name, email_address
	FROM (SELECT COALESCE(customer_id, gen_random_uuid()) AS id, * FROM stage_customers) s
	ORDER BY id, seq DESC
	ON CONFLICT (customer_id) DO UPDATE SET
		customer_name = EXCLUDED.customer_name,
		address1      = EXCLUDED.address1,
		address2      = EXCLUDED.address2,
		city          = EXCLUDED.city,
		state         = EXCLUDED.state,
		postal_code   = EXCLUDED.postal_code,
		telephone     = EXCLUDED.telephone,
		contact_name  = EXCLUDED.contact_name,
		email_address = EXCLUDED.email_address`

	stageProductsSQL = `CREATE TEMP TABLE stage_products (
		product_id uuid, product_name text, product_cost numeric(12, 2), seq bigserial
	) ON COMMIT DROP`
	mergeProductsSQL = `INSERT INTO products AS p (product_id, product_name, product_cost)
	SELECT DISTINCT ON (id) id, product_name, product_cost
	FROM (SELECT COALESCE(product_id, gen_random_uuid()) AS id, * FROM stage_products) s
	ORDER BY id, seq DESC
	ON CONFLICT (product_id) DO UPDATE SET
		product_name = EXCLUDED.product_name,
		product_cost = EXCLUDED.product_cost`
)

var (
	customerStageColumns = []string{
		"customer_id", "customer_name", "address1", "address2", "city",
		"state", "postal_code", "telephone", "contact_name", "email_address",
	}
	productStageColumns = []string{"product_id", "product_name", "product_cost"}
)

// Catalog loads customers and products in bulk.
type Catalog struct {
	pool *pgxpool.Pool
}

// NewCatalog returns a Catalog that uses the given pool.
func NewCatalog(pool *pgxpool.Pool) *Catalog {
	return &Catalog{pool: pool}
}

// UpsertCustomers inserts or replaces customers by id. Customers without an
// id get a generated one. When an id repeats, the last occurrence wins. It
// returns the number of affected rows.
func (c *Catalog) UpsertCustomers(ctx context.Context, customers []customer.Customer) (int64, error) {
	rows := make([][]any, 0, len(customers))
	for i, cu := range customers {
		id, err := optUUID(cu.ID)
		if err != nil {
			return 0, fmt.Errorf("customer %d: %w", i, err)
		}
		rows = append(rows, []any{
			id, optText(cu.Name), optText(cu.Address1), optText(cu.Address2),
			optText(cu.City), optText(cu.State), optText(cu.PostalCode),
			optText(cu.Telephone), optText(cu.ContactName), optText(cu.EmailAddress),
		})
	}
	return c.merge(ctx, stageCustomersSQL, "stage_customers", customerStageColumns, rows, mergeCustomersSQL)
}

// UpsertProducts inserts or replaces products by id. When an id repeats, the
// last occurrence wins.
func (c *Catalog) UpsertProducts(ctx context.Context, products []product.Product) (int64, error) {
	rows := make([][]any, 0, len(products))
	for i, p := range products {
		id, err := optUUID(p.ID)
		if err != nil {
			return 0, fmt.Errorf("product %d: %w", i, err)
		}
		var cost any
		if v, ok := p.Cost.Get(); ok {
			cost = v
		}
		rows = append(rows, []any{id, optText(p.Name), cost})
	}
	return c.merge(ctx, stageProductsSQL, "stage_products", productStageColumns, rows, mergeProductsSQL)
}

// merge copies rows into a transaction-scoped staging table and folds them
// into the target with one statement.
func (c *Catalog) merge(ctx context.Context, stageSQL, stage string, columns []string, rows [][]any, mergeSQL string) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	var affected int64
	err := pgx.BeginFunc(ctx, c.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, stageSQL); err != nil {
			return fmt.Errorf("creating %s: %w", stage, err)
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{stage}, columns, pgx.CopyFromRows(rows)); err != nil {
			return fmt.Errorf("copying into %s: %w", stage, err)
		}
		tag, err := tx.Exec(ctx, mergeSQL)
		if err != nil {
			return fmt.Errorf("merging %s: %w", stage, err)
		}
		affected = tag.RowsAffected()
		return nil
	})
	return affected, err
}

func optText(o record.Opt[string]) any {
	if v, ok := o.Get(); ok {
		return v
	}
	if o.Raw != nil {
		return fmt.Sprint(o.Raw)
	}
	return nil
}

func optUUID(o record.Opt[string]) (any, error) {
	v, ok := o.Get()
	if !ok && o.Raw != nil {
		return nil, fmt.Errorf("invalid id %v", o.Raw)
	}
	if !ok || v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, fmt.Errorf("invalid id %q: %w", v, err)
	}
	return id, nil
}

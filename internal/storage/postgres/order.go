package postgres

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/order-gateway/internal/domain/customer"
	"github.com/xenking/order-gateway/internal/domain/order"
	"github.com/xenking/order-gateway/internal/domain/product"
	"github.com/xenking/order-gateway/internal/domain/record"
)

const (
	getAllCustomersSQL     = `SELECT * FROM usp_get_all_customers()`
	getAllProductsSQL      = `SELECT * FROM usp_get_all_products()`
	getAllOrdersSummarySQL = `SELECT * FROM usp_get_all_orders_summary()`
	getAllLineItemsSQL     = `SELECT * FROM usp_get_line_items()`

	getOrderSQL          = `SELECT * FROM usp_get_order($1)`
	getOrderCustomerSQL  = `SELECT * FROM usp_get_order_customer($1)`
	getOrderLineItemsSQL = `SELECT * FROM usp_get_line_items($1)`

	createProductsTableSQL = `CREATE TEMP TABLE new_order_products (
		ord        serial,
		product_id uuid NOT NULL,
		quantity   integer NOT NULL
	) ON COMMIT DROP`
	createOrderSQL = `SELECT usp_create_order($1, $2)`
)

var productsTable = pgx.Identifier{"new_order_products"}

var (
	_ customer.Source = (*Procedures)(nil)
	_ product.Source  = (*Procedures)(nil)
	_ order.Source    = (*Procedures)(nil)
)

// Procedures calls the gateway's stored procedures.
type Procedures struct {
	pool *pgxpool.Pool
}

// NewProcedures returns a Procedures that uses the given pool.
func NewProcedures(pool *pgxpool.Pool) *Procedures {
	return &Procedures{pool: pool}
}

// GetAllCustomers returns every customer.
func (p *Procedures) GetAllCustomers(ctx context.Context) (record.Recordset, error) {
	return p.query(ctx, getAllCustomersSQL)
}

// GetAllProducts returns the product catalog.
func (p *Procedures) GetAllProducts(ctx context.Context) (record.Recordset, error) {
	return p.query(ctx, getAllProductsSQL)
}

// GetAllOrdersSummary returns every order header.
func (p *Procedures) GetAllOrdersSummary(ctx context.Context) (record.Recordset, error) {
	return p.query(ctx, getAllOrdersSummarySQL)
}

// GetAllOrdersWithDetails returns the orders, customers and line items result
// sets, read from one snapshot in a single round trip.
func (p *Procedures) GetAllOrdersWithDetails(ctx context.Context) (record.Recordsets, error) {
	return p.queryBatch(ctx,
		batchQuery{sql: getAllOrdersSummarySQL},
		batchQuery{sql: getAllCustomersSQL},
		batchQuery{sql: getAllLineItemsSQL},
	)
}

// GetOrderDetails returns the order, customer and line item result sets of a
// single invoice. Unknown invoices yield empty sets.
func (p *Procedures) GetOrderDetails(ctx context.Context, invoiceNumber int64) (record.Recordsets, error) {
	if invoiceNumber <= 0 || invoiceNumber > math.MaxInt32 {
		return record.Recordsets{}, nil
	}
	n := int32(invoiceNumber)
	return p.queryBatch(ctx,
		batchQuery{sql: getOrderSQL, args: []any{n}},
		batchQuery{sql: getOrderCustomerSQL, args: []any{n}},
		batchQuery{sql: getOrderLineItemsSQL, args: []any{n}},
	)
}

// CreateOrder copies the product rows into a transaction-scoped temp table
// and calls usp_create_order in the same transaction. Business rule
// rejections are returned as *order.BusinessRuleError.
func (p *Procedures) CreateOrder(
	ctx context.Context,
	invoiceDate time.Time,
	customerID uuid.UUID,
	products order.BulkRows,
) (int64, error) {
	var invoiceNumber int32
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, createProductsTableSQL); err != nil {
			return fmt.Errorf("creating products table: %w", err)
		}

		src := pgx.CopyFromSlice(products.Len(), func(i int) ([]any, error) {
			return products.Values(i), nil
		})
		if _, err := tx.CopyFrom(ctx, productsTable, products.Columns(), src); err != nil {
			return fmt.Errorf("copying products: %w", err)
		}

		return tx.QueryRow(ctx, createOrderSQL, invoiceDate, customerID).Scan(&invoiceNumber)
	})
	if err != nil {
		return 0, decodeError(err)
	}
	return int64(invoiceNumber), nil
}

func (p *Procedures) query(ctx context.Context, sql string, args ...any) (record.Recordset, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", sql, err)
	}
	set, err := collectRecordset(rows)
	if err != nil {
		return nil, fmt.Errorf("collect %q: %w", sql, err)
	}
	return set, nil
}

type batchQuery struct {
	sql  string
	args []any
}

// queryBatch sends all queries as one batch inside a read-only repeatable read
// transaction and returns one result set per query.
func (p *Procedures) queryBatch(ctx context.Context, queries ...batchQuery) (record.Recordsets, error) {
	sets := make(record.Recordsets, len(queries))
	txOpts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

	err := pgx.BeginTxFunc(ctx, p.pool, txOpts, func(tx pgx.Tx) error {
		b := &pgx.Batch{}
		for i, q := range queries {
			b.Queue(q.sql, q.args...).Query(func(rows pgx.Rows) error {
				set, err := collectRecordset(rows)
				if err != nil {
					return fmt.Errorf("collect %q: %w", q.sql, err)
				}
				sets[i] = set
				return nil
			})
		}
		return tx.SendBatch(ctx, b).Close()
	})
	if err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}
	return sets, nil
}

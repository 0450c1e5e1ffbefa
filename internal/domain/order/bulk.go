package order

import "github.com/google/uuid"

// BulkRows is a table-valued parameter: a fixed list of columns and a
// sequence of rows to transfer in one call.
type BulkRows interface {
	Columns() []string
	Len() int
	Values(i int) []any
}

// ProductRow is one requested product line of a new order.
type ProductRow struct {
	ProductID uuid.UUID
	Quantity  int32
}

// ProductRows is the ordered product list of a new order. Duplicate
// products are kept as separate rows.
type ProductRows []ProductRow

var _ BulkRows = ProductRows(nil)

var productColumns = []string{"product_id", "quantity"}

func (r ProductRows) Columns() []string { return productColumns }

func (r ProductRows) Len() int { return len(r) }

func (r ProductRows) Values(i int) []any {
	return []any{r[i].ProductID, r[i].Quantity}
}

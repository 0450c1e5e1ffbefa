package order

import (
	"github.com/xenking/order-gateway/internal/domain/customer"
	"github.com/xenking/order-gateway/internal/domain/record"
)

// Result set positions of the multi-result order procedures.
const (
	SetOrders = iota
	SetCustomers
	SetLineItems
)

// Correlate joins the three result sets of the bulk detail procedure.
//
// Customers are matched on their id, compared case-insensitively. When the
// customer set repeats an id, the last row wins. Orders without a matching
// customer are left out. Line items are attached by invoice number in the
// order they were received, and the output keeps the order of orders.
func Correlate(orders, customers, items record.Recordset) []Detail {
	byCustomer := make(map[string]record.Row, len(customers))
	for _, c := range customers {
		if k, ok := record.Key(c, customer.ColID); ok {
			byCustomer[k] = c
		}
	}

	byInvoice := make(map[int64]record.Recordset)
	for _, li := range items {
		if n, ok := record.Int(li, ColInvoiceNumber).Get(); ok {
			byInvoice[n] = append(byInvoice[n], li)
		}
	}

	details := make([]Detail, 0, len(orders))
	for _, o := range orders {
		k, ok := record.Key(o, ColCustomerID)
		if !ok {
			continue
		}
		c, ok := byCustomer[k]
		if !ok {
			continue
		}

		var lines record.Recordset
		if n, ok := record.Int(o, ColInvoiceNumber).Get(); ok {
			lines = byInvoice[n]
		}
		details = append(details, ShapeDetail(o, c, lines))
	}
	return details
}

// CorrelateOne builds the Detail of a single-order lookup from the first row
// of the order and customer sets. It returns ErrNotFound when either is
// missing.
func CorrelateOne(sets record.Recordsets) (Detail, error) {
	o, ok := sets.At(SetOrders).First()
	if !ok {
		return Detail{}, ErrNotFound
	}
	c, ok := sets.At(SetCustomers).First()
	if !ok {
		return Detail{}, ErrNotFound
	}
	return ShapeDetail(o, c, sets.At(SetLineItems)), nil
}

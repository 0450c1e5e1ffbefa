package order

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/order-gateway/internal/domain/customer"
	"github.com/xenking/order-gateway/internal/domain/record"
)

// Source column names for order and line item rows.
const (
	ColInvoiceNumber = "InvoiceNumber"
	ColInvoiceDate   = "InvoiceDate"
	ColCustomerID    = "CustomerId"

	ColLineItemID  = "LineItemId"
	ColProductID   = "ProductId"
	ColQuantity    = "Quantity"
	ColProductName = "ProductName"
	ColProductCost = "ProductCost"
	ColTotalCost   = "TotalCost"
)

// Summary is an order header without line items.
type Summary struct {
	InvoiceNumber record.Opt[int64]
	InvoiceDate   record.Opt[time.Time]
	CustomerID    record.Opt[string]
}

// ShapeSummary renames the columns of an order row.
func ShapeSummary(r record.Row) Summary {
	return Summary{
		InvoiceNumber: record.Int(r, ColInvoiceNumber),
		InvoiceDate:   record.Time(r, ColInvoiceDate),
		CustomerID:    record.String(r, ColCustomerID),
	}
}

// Row converts s back to its source columns.
func (s Summary) Row() record.Row {
	r := make(record.Row, 3)
	record.Put(r, ColInvoiceNumber, s.InvoiceNumber)
	record.Put(r, ColInvoiceDate, s.InvoiceDate)
	record.Put(r, ColCustomerID, s.CustomerID)
	return r
}

// LineItem is one product line of an order. TotalCost is reported by the
// database and never recomputed here.
type LineItem struct {
	ID          record.Opt[int64]
	ProductID   record.Opt[string]
	Quantity    record.Opt[int64]
	InvoiceDate record.Opt[time.Time]
	ProductName record.Opt[string]
	ProductCost record.Opt[decimal.Decimal]
	TotalCost   record.Opt[decimal.Decimal]
}

// ShapeLineItem renames the columns of a line item row. The invoice number
// column is used only for grouping and is not carried over.
func ShapeLineItem(r record.Row) LineItem {
	return LineItem{
		ID:          record.Int(r, ColLineItemID),
		ProductID:   record.String(r, ColProductID),
		Quantity:    record.Int(r, ColQuantity),
		InvoiceDate: record.Time(r, ColInvoiceDate),
		ProductName: record.String(r, ColProductName),
		ProductCost: record.Decimal(r, ColProductCost),
		TotalCost:   record.Decimal(r, ColTotalCost),
	}
}

// Row converts li back to its source columns.
func (li LineItem) Row() record.Row {
	r := make(record.Row, 7)
	record.Put(r, ColLineItemID, li.ID)
	record.Put(r, ColProductID, li.ProductID)
	record.Put(r, ColQuantity, li.Quantity)
	record.Put(r, ColInvoiceDate, li.InvoiceDate)
	record.Put(r, ColProductName, li.ProductName)
	record.Put(r, ColProductCost, li.ProductCost)
	record.Put(r, ColTotalCost, li.TotalCost)
	return r
}

// Detail is an order together with its customer and line items.
type Detail struct {
	Customer  customer.Customer
	Order     Summary
	LineItems []LineItem
}

// ShapeDetail builds a Detail from an order row, its customer row and its
// line item rows. LineItems is never nil.
func ShapeDetail(orderRow, customerRow record.Row, items record.Recordset) Detail {
	d := Detail{
		Customer:  customer.Shape(customerRow),
		Order:     ShapeSummary(orderRow),
		LineItems: make([]LineItem, len(items)),
	}
	for i, r := range items {
		d.LineItems[i] = ShapeLineItem(r)
	}
	return d
}

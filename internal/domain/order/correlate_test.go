package order

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/order-gateway/internal/domain/record"
)

func TestCorrelate_DropsOrderWithoutCustomer(t *testing.T) {
	orders := record.Recordset{{ColInvoiceNumber: int64(1), ColCustomerID: "A"}}
	customers := record.Recordset{{"CustomerId": "B", "CustomerName": "Other"}}

	got := Correlate(orders, customers, nil)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestCorrelate_CaseInsensitiveCustomer(t *testing.T) {
	orders := record.Recordset{{ColInvoiceNumber: int64(7), ColCustomerID: "A"}}
	customers := record.Recordset{{"CustomerId": "a", "CustomerName": "Acme"}}

	got := Correlate(orders, customers, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "Acme", got[0].Customer.Name.Value)
	assert.Equal(t, int64(7), got[0].Order.InvoiceNumber.Value)
	assert.NotNil(t, got[0].LineItems)
	assert.Empty(t, got[0].LineItems)
}

func TestCorrelate_DuplicateCustomerLastWins(t *testing.T) {
	orders := record.Recordset{{ColInvoiceNumber: int64(1), ColCustomerID: "c1"}}
	customers := record.Recordset{
		{"CustomerId": "C1", "CustomerName": "First"},
		{"CustomerId": "c1", "CustomerName": "Second"},
	}

	got := Correlate(orders, customers, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "Second", got[0].Customer.Name.Value)
}

func TestCorrelate_GroupsLineItems(t *testing.T) {
	orders := record.Recordset{
		{ColInvoiceNumber: int64(2), ColCustomerID: "c1"},
		{ColInvoiceNumber: int64(1), ColCustomerID: "c1"},
		{ColInvoiceNumber: int64(3), ColCustomerID: "missing"},
	}
	customers := record.Recordset{{"CustomerId": "c1"}}
	items := record.Recordset{
		{ColInvoiceNumber: int64(1), ColLineItemID: int64(10)},
		{ColInvoiceNumber: int64(2), ColLineItemID: int64(20)},
		{ColInvoiceNumber: int64(1), ColLineItemID: int64(11)},
		{ColInvoiceNumber: int64(3), ColLineItemID: int64(30)},
	}

	got := Correlate(orders, customers, items)
	require.Len(t, got, 2)

	assert.Equal(t, int64(2), got[0].Order.InvoiceNumber.Value)
	require.Len(t, got[0].LineItems, 1)
	assert.Equal(t, int64(20), got[0].LineItems[0].ID.Value)

	assert.Equal(t, int64(1), got[1].Order.InvoiceNumber.Value)
	require.Len(t, got[1].LineItems, 2)
	assert.Equal(t, int64(10), got[1].LineItems[0].ID.Value)
	assert.Equal(t, int64(11), got[1].LineItems[1].ID.Value)
}

func TestCorrelateOne(t *testing.T) {
	tests := []struct {
		name    string
		sets    record.Recordsets
		wantErr error
		items   int
	}{
		{
			name:    "no sets",
			sets:    nil,
			wantErr: ErrNotFound,
		},
		{
			name:    "no order row",
			sets:    record.Recordsets{{}, {{"CustomerId": "c1"}}},
			wantErr: ErrNotFound,
		},
		{
			name:    "no customer row",
			sets:    record.Recordsets{{{ColInvoiceNumber: int64(1)}}, {}},
			wantErr: ErrNotFound,
		},
		{
			name: "with line items",
			sets: record.Recordsets{
				{{ColInvoiceNumber: int64(1), ColCustomerID: "c1"}},
				{{"CustomerId": "c1"}},
				{{ColLineItemID: int64(1)}, {ColLineItemID: int64(2)}},
			},
			items: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := CorrelateOne(tt.sets)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, d.LineItems, tt.items)
		})
	}
}

func TestShapeLineItem(t *testing.T) {
	date := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	row := record.Row{
		ColLineItemID:  int64(5),
		ColProductID:   productA,
		ColQuantity:    int32(3),
		ColInvoiceDate: date,
		ColProductName: "Bolt",
		ColProductCost: "1.10",
		ColTotalCost:   "3.30",
	}

	li := ShapeLineItem(row)
	assert.Equal(t, int64(3), li.Quantity.Value)
	assert.True(t, decimal.RequireFromString("3.30").Equal(li.TotalCost.Value))
	assert.True(t, date.Equal(li.InvoiceDate.Value))

	// Shaping the inverse again is stable.
	assert.Equal(t, li, ShapeLineItem(li.Row()))
}

func TestShapeSummary_RoundTrip(t *testing.T) {
	row := record.Row{
		ColInvoiceNumber: int64(12),
		ColInvoiceDate:   time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		ColCustomerID:    customerA,
	}
	assert.Equal(t, row, ShapeSummary(row).Row())
}

func TestShape_OffTypeColumnsPassThrough(t *testing.T) {
	summary := record.Row{
		ColInvoiceNumber: int64(1),
		ColInvoiceDate:   "2024-12-20 14:30:00",
		ColCustomerID:    customerA,
	}
	s := ShapeSummary(summary)
	assert.False(t, s.InvoiceDate.Set)
	assert.Equal(t, summary, s.Row())

	item := record.Row{
		ColLineItemID:  "abc-1",
		ColProductID:   productA,
		ColQuantity:    "2",
		ColInvoiceDate: "20/12/2024",
		ColProductName: "Bolt",
		ColProductCost: "1.10",
		ColTotalCost:   "2.20",
	}
	li := ShapeLineItem(item)
	assert.Equal(t, "abc-1", li.ID.Raw)
	assert.Equal(t, "2", li.Quantity.Raw)

	got := li.Row()
	assert.Equal(t, "abc-1", got[ColLineItemID])
	assert.Equal(t, "2", got[ColQuantity])
	assert.Equal(t, "20/12/2024", got[ColInvoiceDate])
	assert.True(t, decimal.RequireFromString("2.20").Equal(got[ColTotalCost].(decimal.Decimal)))
}

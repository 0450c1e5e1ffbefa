package order

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCreateRequest(t *testing.T) {
	body := `{
		"invoiceData": {"invoiceDate": "2024-12-20T14:30:00Z", "customerId": "` + customerA + `", "note": 1},
		"products": [
			{"productId": "` + productA + `", "quantity": 2},
			{"productId": "` + productB + `", "quantity": "3"},
			{"productId": "` + productA + `", "quantity": 2}
		],
		"extra": {"ignored": [1, 2]}
	}`

	req, err := DecodeCreateRequest([]byte(body))
	require.NoError(t, err)

	assert.Equal(t, "2024-12-20T14:30:00Z", req.InvoiceDate)
	assert.Equal(t, customerA, req.CustomerID)
	require.Len(t, req.Products, 3)
	assert.Equal(t, "3", req.Products[1].Quantity)

	params, err := req.Validate()
	require.NoError(t, err)
	assert.Equal(t, ProductRows{
		{ProductID: uuid.MustParse(productA), Quantity: 2},
		{ProductID: uuid.MustParse(productB), Quantity: 3},
		{ProductID: uuid.MustParse(productA), Quantity: 2},
	}, params.Products)
}

func TestDecodeCreateRequest_LooseShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "empty body", body: "", want: "invoiceData.invoiceDate is required"},
		{name: "array body", body: `[1,2]`, want: "invoiceData.invoiceDate is required"},
		{name: "invoiceData not object", body: `{"invoiceData": "x"}`, want: "invoiceData.invoiceDate is required"},
		{
			name: "products not array",
			body: `{"invoiceData": {"invoiceDate": "2024-01-01", "customerId": "c"}, "products": {}}`,
			want: "products must be a non-empty array",
		},
		{
			name: "product not object",
			body: `{"invoiceData": {"invoiceDate": "2024-01-01", "customerId": "` + customerA + `"}, "products": [null]}`,
			want: "products[0].productId is required",
		},
		{
			name: "quantity boolean",
			body: `{"invoiceData": {"invoiceDate": "2024-01-01", "customerId": "` + customerA + `"},
				"products": [{"productId": "` + productA + `", "quantity": true}]}`,
			want: "products[0].quantity must be a positive integer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := DecodeCreateRequest([]byte(tt.body))
			require.NoError(t, err)

			_, err = req.Validate()
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.want, vErr.Message)
		})
	}
}

func TestDecodeCreateRequest_Malformed(t *testing.T) {
	valid := `{"invoiceData":{"invoiceDate":"2024-12-20","customerId":"` + customerA + `"},` +
		`"products":[{"productId":"` + productA + `","quantity":1}]}`

	for _, body := range []string{
		`{"invoiceData": {`,
		valid + ` garbage{`,
		valid + `{}`,
		`[1, 2`,
	} {
		_, err := DecodeCreateRequest([]byte(body))

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr, body)
		assert.Equal(t, "request body must be valid JSON", vErr.Message)
	}

	_, err := DecodeCreateRequest([]byte(valid + "\n  "))
	require.NoError(t, err, "trailing whitespace is allowed")
}

func TestValidate_Order(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *CreateRequest)
		want   string
	}{
		{
			name: "date checked before customer",
			mutate: func(r *CreateRequest) {
				r.InvoiceDate = ""
				r.CustomerID = ""
			},
			want: "invoiceData.invoiceDate is required",
		},
		{
			name: "presence checked before date format",
			mutate: func(r *CreateRequest) {
				r.InvoiceDate = "not a date"
				r.Products = nil
			},
			want: "products must be a non-empty array",
		},
		{
			name:   "bad date",
			mutate: func(r *CreateRequest) { r.InvoiceDate = "2024-13-45" },
			want:   "invoiceData.invoiceDate must be a valid ISO date",
		},
		{
			name:   "bad customer id",
			mutate: func(r *CreateRequest) { r.CustomerID = "acme" },
			want:   "invoiceData.customerId must be a valid UUID",
		},
		{
			name: "first bad product wins",
			mutate: func(r *CreateRequest) {
				r.Products[0].Quantity = "-1"
				r.Products[1].ProductID = ""
			},
			want: "products[0].quantity must be a positive integer",
		},
		{
			name:   "missing product id",
			mutate: func(r *CreateRequest) { r.Products[1].ProductID = " " },
			want:   "products[1].productId is required",
		},
		{
			name:   "bad product id",
			mutate: func(r *CreateRequest) { r.Products[1].ProductID = "42" },
			want:   "products[1].productId must be a valid UUID",
		},
		{
			name:   "fractional quantity",
			mutate: func(r *CreateRequest) { r.Products[1].Quantity = "1.5" },
			want:   "products[1].quantity must be a positive integer",
		},
		{
			name:   "missing quantity",
			mutate: func(r *CreateRequest) { r.Products[0].Quantity = "" },
			want:   "products[0].quantity must be a positive integer",
		},
		{
			name:   "quantity overflow",
			mutate: func(r *CreateRequest) { r.Products[0].Quantity = "3000000000" },
			want:   "products[0].quantity must be a positive integer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			_, err := req.Validate()

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.want, vErr.Message)
		})
	}
}

func TestValidate_PreservesRowsAndDuplicates(t *testing.T) {
	ids := []string{productA, productB, productA, productA}
	req := validRequest()
	req.Products = nil
	for i, id := range ids {
		req.Products = append(req.Products, ProductEntry{ProductID: id, Quantity: []string{"1", "2.0", "1e1", " 4 "}[i]})
	}

	params, err := req.Validate()
	require.NoError(t, err)
	require.Equal(t, len(ids), params.Products.Len())

	wantQty := []int32{1, 2, 10, 4}
	for i, id := range ids {
		assert.Equal(t, uuid.MustParse(id), params.Products[i].ProductID)
		assert.Equal(t, wantQty[i], params.Products[i].Quantity)
	}
	assert.Equal(t, []string{"product_id", "quantity"}, params.Products.Columns())
}

func TestValidate_InvoiceDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{in: "2024-12-20T14:30:00Z", want: time.Date(2024, 12, 20, 14, 30, 0, 0, time.UTC)},
		{in: "2024-12-20T14:30:00.987Z", want: time.Date(2024, 12, 20, 14, 30, 0, 0, time.UTC)},
		{in: "2024-12-20T16:30:00+02:00", want: time.Date(2024, 12, 20, 14, 30, 0, 0, time.UTC)},
		{in: "2024-12-20T14:30:00", want: time.Date(2024, 12, 20, 14, 30, 0, 0, time.UTC)},
		{in: "2024-12-20", want: time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			req := validRequest()
			req.InvoiceDate = tt.in

			params, err := req.Validate()
			require.NoError(t, err)
			assert.Equal(t, tt.want, params.InvoiceDate)
		})
	}
}

func TestParseInvoiceNumber(t *testing.T) {
	n, err := ParseInvoiceNumber("15")
	require.NoError(t, err)
	assert.Equal(t, int64(15), n)

	n, err = ParseInvoiceNumber("2147483647")
	require.NoError(t, err)
	assert.Equal(t, int64(2147483647), n)

	for _, in := range []string{"0", "-4", "abc", "1.5", "", "2147483648"} {
		_, err := ParseInvoiceNumber(in)
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr, in)
		assert.Equal(t, "invoiceNumber must be a positive integer", vErr.Message)
	}
}

package order

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/jx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateRequest is the loosely typed body of a create order call. Fields hold
// the raw text the client sent. Values of an unexpected JSON type are read as
// empty so that validation reports them as missing.
type CreateRequest struct {
	InvoiceDate string
	CustomerID  string
	Products    []ProductEntry
}

// ProductEntry is one raw element of the products array. Quantity keeps the
// literal number or string the client sent.
type ProductEntry struct {
	ProductID string
	Quantity  string
}

// CreateParams is a validated create order request.
type CreateParams struct {
	InvoiceDate time.Time
	CustomerID  uuid.UUID
	Products    ProductRows
}

// DecodeCreateRequest reads a create order body:
//
//	{"invoiceData": {"invoiceDate": "...", "customerId": "..."},
//	 "products": [{"productId": "...", "quantity": 2}]}
//
// An empty body or a non-object value decodes to an empty request. Malformed
// JSON, including trailing data after the value, is a ValidationError.
func DecodeCreateRequest(data []byte) (CreateRequest, error) {
	var req CreateRequest
	if len(bytes.TrimSpace(data)) == 0 {
		return req, nil
	}

	if !jx.Valid(data) {
		return CreateRequest{}, invalid("request body must be valid JSON")
	}

	d := jx.DecodeBytes(data)
	if d.Next() != jx.Object {
		return req, nil
	}

	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "invoiceData":
			return req.decodeInvoiceData(d)
		case "products":
			return req.decodeProducts(d)
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return CreateRequest{}, invalid("request body must be valid JSON")
	}
	return req, nil
}

func (r *CreateRequest) decodeInvoiceData(d *jx.Decoder) error {
	r.InvoiceDate, r.CustomerID = "", ""
	if d.Next() != jx.Object {
		return d.Skip()
	}
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "invoiceDate":
			r.InvoiceDate, err = looseString(d)
		case "customerId":
			r.CustomerID, err = looseString(d)
		default:
			err = d.Skip()
		}
		return err
	})
}

func (r *CreateRequest) decodeProducts(d *jx.Decoder) error {
	r.Products = nil
	if d.Next() != jx.Array {
		return d.Skip()
	}
	r.Products = []ProductEntry{}
	return d.Arr(func(d *jx.Decoder) error {
		var p ProductEntry
		if d.Next() != jx.Object {
			r.Products = append(r.Products, p)
			return d.Skip()
		}
		err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
			var err error
			switch string(key) {
			case "productId":
				p.ProductID, err = looseString(d)
			case "quantity":
				p.Quantity, err = looseString(d)
			default:
				err = d.Skip()
			}
			return err
		})
		r.Products = append(r.Products, p)
		return err
	})
}

// looseString reads a string or the literal text of a number. Any other
// value is skipped and read as empty.
func looseString(d *jx.Decoder) (string, error) {
	switch d.Next() {
	case jx.String:
		return d.Str()
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return "", err
		}
		return n.String(), nil
	default:
		return "", d.Skip()
	}
}

// Validate checks the request and builds the bulk product rows. Checks run in
// a fixed order and the first failure is returned as a ValidationError.
// Product entries are checked in array order and the message names the
// offending index.
func (r CreateRequest) Validate() (CreateParams, error) {
	dateRaw := strings.TrimSpace(r.InvoiceDate)
	customerRaw := strings.TrimSpace(r.CustomerID)

	if dateRaw == "" {
		return CreateParams{}, invalid("invoiceData.invoiceDate is required")
	}
	if customerRaw == "" {
		return CreateParams{}, invalid("invoiceData.customerId is required")
	}
	if len(r.Products) == 0 {
		return CreateParams{}, invalid("products must be a non-empty array")
	}

	date, ok := parseInvoiceDate(dateRaw)
	if !ok {
		return CreateParams{}, invalid("invoiceData.invoiceDate must be a valid ISO date")
	}
	customerID, err := uuid.Parse(customerRaw)
	if err != nil {
		return CreateParams{}, invalid("invoiceData.customerId must be a valid UUID")
	}

	rows := make(ProductRows, len(r.Products))
	for i, p := range r.Products {
		pid := strings.TrimSpace(p.ProductID)
		if pid == "" {
			return CreateParams{}, invalid("products[%d].productId is required", i)
		}
		productID, err := uuid.Parse(pid)
		if err != nil {
			return CreateParams{}, invalid("products[%d].productId must be a valid UUID", i)
		}
		qty, ok := parsePositiveInt32(p.Quantity)
		if !ok {
			return CreateParams{}, invalid("products[%d].quantity must be a positive integer", i)
		}
		rows[i] = ProductRow{ProductID: productID, Quantity: qty}
	}

	return CreateParams{
		InvoiceDate: date,
		CustomerID:  customerID,
		Products:    rows,
	}, nil
}

var invoiceDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// parseInvoiceDate accepts ISO 8601 timestamps. Values without an offset are
// taken as UTC. The result is truncated to whole seconds to match the
// precision of the stored column.
func parseInvoiceDate(s string) (time.Time, bool) {
	for _, layout := range invoiceDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Truncate(time.Second), true
		}
	}
	return time.Time{}, false
}

// parsePositiveInt32 accepts an integral number in 1..MaxInt32, written
// either as a JSON number or as a numeric string. It parses quantities and
// invoice numbers, both stored as 32-bit integers.
func parsePositiveInt32(s string) (int32, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 32); err == nil {
		return int32(n), n > 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsInteger() || !d.IsPositive() {
		return 0, false
	}
	if d.GreaterThan(decimal.NewFromInt(math.MaxInt32)) {
		return 0, false
	}
	return int32(d.IntPart()), true
}

// ParseInvoiceNumber parses an invoice number taken from a URL path.
func ParseInvoiceNumber(s string) (int64, error) {
	n, ok := parsePositiveInt32(s)
	if !ok {
		return 0, invalid("invoiceNumber must be a positive integer")
	}
	return int64(n), nil
}

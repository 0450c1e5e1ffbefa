package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/order-gateway/internal/domain/customer"
	"github.com/xenking/order-gateway/internal/domain/order"
	"github.com/xenking/order-gateway/internal/domain/product"
	"github.com/xenking/order-gateway/internal/domain/record"
)

// timeLayout renders timestamps in UTC with millisecond precision.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	encode(e)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Int(status)
		e.FieldStart("message")
		e.Str(msg)
		e.ObjEnd()
	})
}

// writeError maps domain errors to responses. Anything unrecognized is
// logged and reported as a generic 500 without details.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		vErr  *order.ValidationError
		brErr *order.BusinessRuleError
	)
	switch {
	case errors.As(err, &vErr):
		writeMessage(w, http.StatusBadRequest, vErr.Message)
	case errors.As(err, &brErr):
		writeMessage(w, http.StatusBadRequest, brErr.Message)
	case errors.Is(err, order.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "Order not found")
	default:
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

func optStr(e *jx.Encoder, field string, o record.Opt[string]) {
	e.FieldStart(field)
	if v, ok := o.Get(); ok {
		e.Str(v)
		return
	}
	writeRaw(e, o.Raw)
}

func optInt(e *jx.Encoder, field string, o record.Opt[int64]) {
	e.FieldStart(field)
	if v, ok := o.Get(); ok {
		e.Int64(v)
		return
	}
	writeRaw(e, o.Raw)
}

func optTime(e *jx.Encoder, field string, o record.Opt[time.Time]) {
	e.FieldStart(field)
	if v, ok := o.Get(); ok {
		e.Str(v.UTC().Format(timeLayout))
		return
	}
	writeRaw(e, o.Raw)
}

// optDecimal writes the exact decimal digits as a JSON number.
func optDecimal(e *jx.Encoder, field string, o record.Opt[decimal.Decimal]) {
	e.FieldStart(field)
	if v, ok := o.Get(); ok {
		e.Num(jx.Num(v.String()))
		return
	}
	writeRaw(e, o.Raw)
}

// writeRaw writes a column value of an unexpected type as close to its Go
// type as JSON allows. Nil is written as null.
func writeRaw(e *jx.Encoder, v any) {
	switch v := v.(type) {
	case nil:
		e.Null()
	case string:
		e.Str(v)
	case []byte:
		e.Str(string(v))
	case bool:
		e.Bool(v)
	case int:
		e.Int(v)
	case int8:
		e.Int64(int64(v))
	case int16:
		e.Int64(int64(v))
	case int32:
		e.Int32(v)
	case int64:
		e.Int64(v)
	case uint8:
		e.UInt64(uint64(v))
	case uint16:
		e.UInt64(uint64(v))
	case uint32:
		e.UInt32(v)
	case uint64:
		e.UInt64(v)
	case float32:
		e.Float32(v)
	case float64:
		e.Float64(v)
	case decimal.Decimal:
		e.Num(jx.Num(v.String()))
	case time.Time:
		e.Str(v.UTC().Format(timeLayout))
	case fmt.Stringer:
		e.Str(v.String())
	default:
		e.Str(fmt.Sprint(v))
	}
}

func encodeCustomer(e *jx.Encoder, c customer.Customer) {
	e.ObjStart()
	optStr(e, "customerId", c.ID)
	optStr(e, "customerName", c.Name)
	optStr(e, "customerAddress1", c.Address1)
	optStr(e, "customerAddress2", c.Address2)
	optStr(e, "customerCity", c.City)
	optStr(e, "customerState", c.State)
	optStr(e, "customerPostalCode", c.PostalCode)
	optStr(e, "customerTelephone", c.Telephone)
	optStr(e, "customerContactName", c.ContactName)
	optStr(e, "customerEmailAddress", c.EmailAddress)
	e.ObjEnd()
}

func encodeProduct(e *jx.Encoder, p product.Product) {
	e.ObjStart()
	optStr(e, "productId", p.ID)
	optStr(e, "productName", p.Name)
	optDecimal(e, "productCost", p.Cost)
	e.ObjEnd()
}

func encodeSummary(e *jx.Encoder, s order.Summary) {
	e.ObjStart()
	optInt(e, "invoiceNumber", s.InvoiceNumber)
	optTime(e, "invoiceDate", s.InvoiceDate)
	optStr(e, "customerId", s.CustomerID)
	e.ObjEnd()
}

func encodeLineItem(e *jx.Encoder, li order.LineItem) {
	e.ObjStart()
	optInt(e, "lineItemId", li.ID)
	optStr(e, "productId", li.ProductID)
	optInt(e, "quantity", li.Quantity)
	optTime(e, "invoiceDate", li.InvoiceDate)
	optStr(e, "productName", li.ProductName)
	optDecimal(e, "productCost", li.ProductCost)
	optDecimal(e, "totalCost", li.TotalCost)
	e.ObjEnd()
}

func encodeDetail(e *jx.Encoder, d order.Detail) {
	e.ObjStart()
	e.FieldStart("customerDetail")
	encodeCustomer(e, d.Customer)
	e.FieldStart("orderDetail")
	encodeSummary(e, d.Order)
	e.FieldStart("lineItems")
	e.ArrStart()
	for _, li := range d.LineItems {
		encodeLineItem(e, li)
	}
	e.ArrEnd()
	e.ObjEnd()
}

// encodeArray writes items as a JSON array. A nil slice is written as [].
func encodeArray[T any](items []T, encode func(*jx.Encoder, T)) func(*jx.Encoder) {
	return func(e *jx.Encoder) {
		e.ArrStart()
		for _, it := range items {
			encode(e, it)
		}
		e.ArrEnd()
	}
}

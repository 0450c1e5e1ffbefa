// Package record holds the raw, column-keyed rows returned by stored
// procedures and the typed accessors the domain shapers use to read them.
package record

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Row is a single result row keyed by the column name exactly as the
// procedure returns it (for example "CustomerId").
type Row map[string]any

// Recordset is an ordered list of rows from one result set.
type Recordset []Row

// First returns the first row of the set.
func (s Recordset) First() (Row, bool) {
	if len(s) == 0 {
		return nil, false
	}
	return s[0], true
}

// Recordsets is the ordered list of result sets produced by a multi-result
// procedure call.
type Recordsets []Recordset

// At returns the i-th result set, or an empty set when the call produced
// fewer result sets.
func (s Recordsets) At(i int) Recordset {
	if i < 0 || i >= len(s) {
		return nil
	}
	return s[i]
}

// Opt is an optional value. A column that is absent or NULL yields an unset
// Opt. A column of an unexpected type also yields an unset Opt, but its value
// is kept in Raw and passes through unchanged.
type Opt[T any] struct {
	Value T
	Set   bool
	Raw   any
}

// NewOpt returns a set Opt holding v.
func NewOpt[T any](v T) Opt[T] {
	return Opt[T]{Value: v, Set: true}
}

// Get returns the value and whether it is set.
func (o Opt[T]) Get() (v T, ok bool) {
	if !o.Set {
		return v, false
	}
	return o.Value, true
}

// Or returns the value if set, otherwise d.
func (o Opt[T]) Or(d T) T {
	if o.Set {
		return o.Value
	}
	return d
}

// Put stores o under col when it is set, or its raw value when it holds one.
func Put[T any](r Row, col string, o Opt[T]) {
	if v, ok := o.Get(); ok {
		r[col] = v
		return
	}
	if o.Raw != nil {
		r[col] = o.Raw
	}
}

// raw returns an unset Opt carrying the column value as is.
func raw[T any](r Row, col string) Opt[T] {
	return Opt[T]{Raw: r[col]}
}

// String reads a textual column. UUID values are rendered in canonical form.
func String(r Row, col string) Opt[string] {
	switch v := r[col].(type) {
	case string:
		return NewOpt(v)
	case uuid.UUID:
		return NewOpt(v.String())
	case [16]byte:
		return NewOpt(uuid.UUID(v).String())
	case []byte:
		return NewOpt(string(v))
	default:
		return raw[string](r, col)
	}
}

// Int reads an integer column. Every signed and unsigned width is accepted,
// as are floats holding an integral value.
func Int(r Row, col string) Opt[int64] {
	switch v := r[col].(type) {
	case int:
		return NewOpt(int64(v))
	case int8:
		return NewOpt(int64(v))
	case int16:
		return NewOpt(int64(v))
	case int32:
		return NewOpt(int64(v))
	case int64:
		return NewOpt(v)
	case uint8:
		return NewOpt(int64(v))
	case uint16:
		return NewOpt(int64(v))
	case uint32:
		return NewOpt(int64(v))
	case float64:
		if v == float64(int64(v)) {
			return NewOpt(int64(v))
		}
	}
	return raw[int64](r, col)
}

// Time reads a timestamp column. RFC 3339 strings are parsed.
func Time(r Row, col string) Opt[time.Time] {
	switch v := r[col].(type) {
	case time.Time:
		return NewOpt(v)
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return NewOpt(t)
		}
	}
	return raw[time.Time](r, col)
}

// Key returns the case-insensitive join key of a column: its textual form,
// lowercased. Absent and NULL columns have no key.
func Key(r Row, col string) (string, bool) {
	v, ok := r[col]
	if !ok || v == nil {
		return "", false
	}
	if s := String(r, col); s.Set {
		return strings.ToLower(s.Value), true
	}
	return strings.ToLower(fmt.Sprint(v)), true
}

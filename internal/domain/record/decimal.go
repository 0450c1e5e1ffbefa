package record

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Decimal reads a monetary column. Decimal values pass through; strings,
// floats and integers are converted. Unparseable input yields an unset Opt
// carrying the raw value.
func Decimal(r Row, col string) Opt[decimal.Decimal] {
	switch v := r[col].(type) {
	case decimal.Decimal:
		return NewOpt(v)
	case decimal.NullDecimal:
		if v.Valid {
			return NewOpt(v.Decimal)
		}
		return Opt[decimal.Decimal]{}
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err == nil {
			return NewOpt(d)
		}
	case float64:
		return NewOpt(decimal.NewFromFloat(v))
	case float32:
		return NewOpt(decimal.NewFromFloat32(v))
	default:
		if i := Int(r, col); i.Set {
			return NewOpt(decimal.NewFromInt(i.Value))
		}
	}
	return raw[decimal.Decimal](r, col)
}

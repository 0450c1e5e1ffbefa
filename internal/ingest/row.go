package ingest

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/order-gateway/internal/domain/record"
)

// DecodeRow reads one flat JSON object into a row. Integers become int64,
// other numbers decimal.Decimal. Nested values are rejected.
func DecodeRow(line []byte) (record.Row, error) {
	row := record.Row{}
	err := jx.DecodeBytes(line).ObjBytes(func(d *jx.Decoder, key []byte) error {
		col := string(key)
		switch d.Next() {
		case jx.String:
			s, err := d.Str()
			row[col] = s
			return err
		case jx.Number:
			n, err := d.Num()
			if err != nil {
				return err
			}
			if n.IsInt() {
				v, err := n.Int64()
				if err == nil {
					row[col] = v
					return nil
				}
			}
			v, err := decimal.NewFromString(n.String())
			if err != nil {
				return errors.Wrapf(err, "column %s", col)
			}
			row[col] = v
			return nil
		case jx.Bool:
			b, err := d.Bool()
			row[col] = b
			return err
		case jx.Null:
			row[col] = nil
			return d.Null()
		default:
			return errors.Errorf("column %s: nested values are not supported", col)
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode row")
	}
	return row, nil
}

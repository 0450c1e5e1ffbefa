package postgres

import (
	"strconv"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/xenking/order-gateway/internal/domain/order"
	"github.com/xenking/order-gateway/internal/domain/record"
)

// collectRecordset reads all rows into column-keyed records.
func collectRecordset(rows pgx.Rows) (record.Recordset, error) {
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, err
	}

	set := make(record.Recordset, len(maps))
	for i, m := range maps {
		for col, v := range m {
			m[col] = normalize(v)
		}
		set[i] = record.Row(m)
	}
	return set, nil
}

// normalize maps driver values to the forms the domain shapers expect: UUIDs
// as canonical strings and every integer width as int64. NUMERIC is already
// decoded to decimal.Decimal by the registered codec.
func normalize(v any) any {
	switch v := v.(type) {
	case [16]byte:
		return uuid.UUID(v).String()
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	default:
		return v
	}
}

// decodeError turns the application SQLSTATEs raised by usp_create_order into
// an order.BusinessRuleError. Other errors are returned unchanged.
func decodeError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	code, convErr := strconv.Atoi(pgErr.Code)
	if convErr != nil || !order.IsBusinessRuleCode(code) {
		return err
	}
	return &order.BusinessRuleError{Code: code, Message: pgErr.Message}
}

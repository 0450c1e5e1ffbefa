package order

import (
	"fmt"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when an order or its customer does not exist.
var ErrNotFound = errors.New("order not found")

// ValidationError reports a malformed client request. Message is safe to
// return to the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// Business rule codes raised by the order creation procedure.
const (
	CodeUnknownCustomer = 50001
	CodeUnknownProduct  = 50002
)

// IsBusinessRuleCode reports whether code is one of the application codes the
// database uses to reject an order.
func IsBusinessRuleCode(code int) bool {
	return code == CodeUnknownCustomer || code == CodeUnknownProduct
}

// BusinessRuleError is a rejection raised by the database while creating an
// order, such as an unknown customer or product.
type BusinessRuleError struct {
	Code    int
	Message string
}

func (e *BusinessRuleError) Error() string {
	return e.Message
}

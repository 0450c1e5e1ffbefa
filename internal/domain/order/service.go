package order

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/xenking/order-gateway/internal/domain/record"
)

// Source calls the order procedures.
//
// CreateOrder returns a *BusinessRuleError when the database rejects the
// order for a business reason.
type Source interface {
	GetAllOrdersSummary(ctx context.Context) (record.Recordset, error)
	GetAllOrdersWithDetails(ctx context.Context) (record.Recordsets, error)
	GetOrderDetails(ctx context.Context, invoiceNumber int64) (record.Recordsets, error)
	CreateOrder(ctx context.Context, invoiceDate time.Time, customerID uuid.UUID, products BulkRows) (int64, error)
}

// Service implements the order operations of the gateway.
type Service struct {
	src Source
}

// NewService creates an order Service.
func NewService(src Source) *Service {
	return &Service{src: src}
}

// ListSummaries returns every order header.
func (s *Service) ListSummaries(ctx context.Context) ([]Summary, error) {
	rows, err := s.src.GetAllOrdersSummary(ctx)
	if err != nil {
		return nil, fmt.Errorf("get all orders summary: %w", err)
	}

	summaries := make([]Summary, len(rows))
	for i, r := range rows {
		summaries[i] = ShapeSummary(r)
	}
	return summaries, nil
}

// ListDetails returns every order with its customer and line items. Orders
// whose customer is missing are left out.
func (s *Service) ListDetails(ctx context.Context) ([]Detail, error) {
	sets, err := s.src.GetAllOrdersWithDetails(ctx)
	if err != nil {
		return nil, fmt.Errorf("get all orders with details: %w", err)
	}
	return Correlate(sets.At(SetOrders), sets.At(SetCustomers), sets.At(SetLineItems)), nil
}

// GetDetails returns a single order. It fails with a ValidationError for a
// non-positive invoice number and with ErrNotFound when the order or its
// customer does not exist.
func (s *Service) GetDetails(ctx context.Context, invoiceNumber int64) (Detail, error) {
	if invoiceNumber <= 0 {
		return Detail{}, invalid("invoiceNumber must be a positive integer")
	}

	sets, err := s.src.GetOrderDetails(ctx, invoiceNumber)
	if err != nil {
		return Detail{}, fmt.Errorf("get order details %d: %w", invoiceNumber, err)
	}
	return CorrelateOne(sets)
}

// Create validates req and creates the order in one procedure call. Nothing
// is sent to the database when validation fails.
func (s *Service) Create(ctx context.Context, req CreateRequest) (int64, error) {
	params, err := req.Validate()
	if err != nil {
		return 0, err
	}

	invoiceNumber, err := s.src.CreateOrder(ctx, params.InvoiceDate, params.CustomerID, params.Products)
	if err != nil {
		return 0, fmt.Errorf("create order: %w", err)
	}
	return invoiceNumber, nil
}

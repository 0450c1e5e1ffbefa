package product

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/xenking/order-gateway/internal/domain/record"
)

// Source column names.
const (
	ColID   = "ProductId"
	ColName = "ProductName"
	ColCost = "ProductCost"
)

// Product represents a catalog item available for purchase.
type Product struct {
	ID   record.Opt[string]
	Name record.Opt[string]
	// Cost is the unit price. Textual and floating point costs are coerced
	// to an exact decimal.
	Cost record.Opt[decimal.Decimal]
}

// Shape renames the columns of a product row.
func Shape(r record.Row) Product {
	return Product{
		ID:   record.String(r, ColID),
		Name: record.String(r, ColName),
		Cost: record.Decimal(r, ColCost),
	}
}

// Row converts p back to its source columns.
func (p Product) Row() record.Row {
	r := make(record.Row, 3)
	record.Put(r, ColID, p.ID)
	record.Put(r, ColName, p.Name)
	record.Put(r, ColCost, p.Cost)
	return r
}

// Source calls the product procedures.
type Source interface {
	GetAllProducts(ctx context.Context) (record.Recordset, error)
}

// Service lists the product catalog.
type Service struct {
	src Source
}

// NewService creates a product Service.
func NewService(src Source) *Service {
	return &Service{src: src}
}

// List returns the whole catalog.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	rows, err := s.src.GetAllProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("get all products: %w", err)
	}

	products := make([]Product, len(rows))
	for i, r := range rows {
		products[i] = Shape(r)
	}
	return products, nil
}

// Package customer shapes customer rows into API objects.
package customer

import (
	"context"
	"fmt"

	"github.com/xenking/order-gateway/internal/domain/record"
)

// Source column names.
const (
	ColID           = "CustomerId"
	ColName         = "CustomerName"
	ColAddress1     = "CustomerAddress1"
	ColAddress2     = "CustomerAddress2"
	ColCity         = "CustomerCity"
	ColState        = "CustomerState"
	ColPostalCode   = "CustomerPostalCode"
	ColTelephone    = "CustomerTelephone"
	ColContactName  = "CustomerContactName"
	ColEmailAddress = "CustomerEmailAddress"
)

// Customer is a customer record as exposed by the API.
type Customer struct {
	ID           record.Opt[string]
	Name         record.Opt[string]
	Address1     record.Opt[string]
	Address2     record.Opt[string]
	City         record.Opt[string]
	State        record.Opt[string]
	PostalCode   record.Opt[string]
	Telephone    record.Opt[string]
	ContactName  record.Opt[string]
	EmailAddress record.Opt[string]
}

// Shape renames the columns of a customer row. Missing columns stay unset.
func Shape(r record.Row) Customer {
	return Customer{
		ID:           record.String(r, ColID),
		Name:         record.String(r, ColName),
		Address1:     record.String(r, ColAddress1),
		Address2:     record.String(r, ColAddress2),
		City:         record.String(r, ColCity),
		State:        record.String(r, ColState),
		PostalCode:   record.String(r, ColPostalCode),
		Telephone:    record.String(r, ColTelephone),
		ContactName:  record.String(r, ColContactName),
		EmailAddress: record.String(r, ColEmailAddress),
	}
}

// Row converts c back to its source columns.
func (c Customer) Row() record.Row {
	r := make(record.Row, 10)
	record.Put(r, ColID, c.ID)
	record.Put(r, ColName, c.Name)
	record.Put(r, ColAddress1, c.Address1)
	record.Put(r, ColAddress2, c.Address2)
	record.Put(r, ColCity, c.City)
	record.Put(r, ColState, c.State)
	record.Put(r, ColPostalCode, c.PostalCode)
	record.Put(r, ColTelephone, c.Telephone)
	record.Put(r, ColContactName, c.ContactName)
	record.Put(r, ColEmailAddress, c.EmailAddress)
	return r
}

// Source calls the customer procedures.
type Source interface {
	GetAllCustomers(ctx context.Context) (record.Recordset, error)
}

// Service lists customers.
type Service struct {
	src Source
}

// NewService creates a customer Service.
func NewService(src Source) *Service {
	return &Service{src: src}
}

// List returns every customer in the order the procedure returns them.
func (s *Service) List(ctx context.Context) ([]Customer, error) {
	rows, err := s.src.GetAllCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("get all customers: %w", err)
	}

	customers := make([]Customer, len(rows))
	for i, r := range rows {
		customers[i] = Shape(r)
	}
	return customers, nil
}

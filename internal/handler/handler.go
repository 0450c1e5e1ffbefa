package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/order-gateway/internal/domain/customer"
	"github.com/xenking/order-gateway/internal/domain/order"
	"github.com/xenking/order-gateway/internal/domain/product"
)

// CustomerService lists customers.
type CustomerService interface {
	List(ctx context.Context) ([]customer.Customer, error)
}

// ProductService lists products.
type ProductService interface {
	List(ctx context.Context) ([]product.Product, error)
}

// OrderService implements the order operations.
type OrderService interface {
	ListSummaries(ctx context.Context) ([]order.Summary, error)
	ListDetails(ctx context.Context) ([]order.Detail, error)
	GetDetails(ctx context.Context, invoiceNumber int64) (order.Detail, error)
	Create(ctx context.Context, req order.CreateRequest) (int64, error)
}

// HandlerConfig holds non-dependency configuration for the Handler.
type HandlerConfig struct {
	// MaxBodyBytes caps the size of request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64
}

// Handler serves the gateway API, delegating to the domain services.
type Handler struct {
	customers    CustomerService
	products     ProductService
	orders       OrderService
	maxBodyBytes int64
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	cfg HandlerConfig,
	customers CustomerService,
	products ProductService,
	orders OrderService,
) *Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	return &Handler{
		customers:    customers,
		products:     products,
		orders:       orders,
		maxBodyBytes: cfg.MaxBodyBytes,
	}
}

// Routes returns the API router, to be mounted under /api. Every entity route
// requires an API key, checked before route matching so unknown paths under a
// protected prefix are rejected as unauthorized too.
func (h *Handler) Routes(sec *SecurityHandler) chi.Router {
	r := chi.NewRouter()
	r.NotFound(NotFound)
	r.MethodNotAllowed(NotFound)

	r.Route("/customer", func(r chi.Router) {
		r.Use(sec.Middleware)
		r.Get("/viewall", h.ListCustomers)
	})
	r.Route("/product", func(r chi.Router) {
		r.Use(sec.Middleware)
		r.Get("/viewall", h.ListProducts)
	})
	r.Route("/order", func(r chi.Router) {
		r.Use(sec.Middleware)
		r.Get("/viewall", h.ListOrders)
		r.Get("/vieworderdetail", h.ListOrderDetails)
		r.Get("/details/{invoiceNumber}", h.GetOrderDetails)
		r.Post("/new", h.CreateOrder)
	})

	return r
}

// NotFound writes the 404 response for unknown routes.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusNotFound, "Not Found")
}

// Package observability decorates domain services with tracing and metrics.
package observability

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/order-gateway/internal/domain/order"
)

const instrumentationName = "github.com/xenking/order-gateway/internal/observability"

// OrderService is the decorated contract.
type OrderService interface {
	ListSummaries(ctx context.Context) ([]order.Summary, error)
	ListDetails(ctx context.Context) ([]order.Detail, error)
	GetDetails(ctx context.Context, invoiceNumber int64) (order.Detail, error)
	Create(ctx context.Context, req order.CreateRequest) (int64, error)
}

// Orders wraps an OrderService with spans and counters.
type Orders struct {
	inner  OrderService
	tracer trace.Tracer

	created  metric.Int64Counter
	rejected metric.Int64Counter
}

// Option configures Orders.
type Option func(*options)

type options struct {
	tp trace.TracerProvider
	mp metric.MeterProvider
}

// WithTracerProvider sets the tracer provider. Defaults to noop.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tp = tp }
}

// WithMeterProvider sets the meter provider. Defaults to noop.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.mp = mp }
}

// NewOrders decorates inner.
func NewOrders(inner OrderService, opts ...Option) (*Orders, error) {
	o := options{
		tp: tracenoop.NewTracerProvider(),
		mp: metricnoop.NewMeterProvider(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	meter := o.mp.Meter(instrumentationName)
	created, err := meter.Int64Counter("orders.created",
		metric.WithDescription("Orders persisted"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "orders.created")
	}
	rejected, err := meter.Int64Counter("orders.rejected",
		metric.WithDescription("Order submissions refused, by reason"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "orders.rejected")
	}

	return &Orders{
		inner:    inner,
		tracer:   o.tp.Tracer(instrumentationName),
		created:  created,
		rejected: rejected,
	}, nil
}

func (s *Orders) ListSummaries(ctx context.Context) ([]order.Summary, error) {
	ctx, span := s.tracer.Start(ctx, "Orders.ListSummaries")
	defer span.End()

	out, err := s.inner.ListSummaries(ctx)
	if err != nil {
		return nil, fail(span, err)
	}
	span.SetAttributes(attribute.Int("orders.count", len(out)))
	return out, nil
}

func (s *Orders) ListDetails(ctx context.Context) ([]order.Detail, error) {
	ctx, span := s.tracer.Start(ctx, "Orders.ListDetails")
	defer span.End()

	out, err := s.inner.ListDetails(ctx)
	if err != nil {
		return nil, fail(span, err)
	}
	span.SetAttributes(attribute.Int("orders.count", len(out)))
	return out, nil
}

func (s *Orders) GetDetails(ctx context.Context, invoiceNumber int64) (order.Detail, error) {
	ctx, span := s.tracer.Start(ctx, "Orders.GetDetails",
		trace.WithAttributes(attribute.Int64("order.invoice_number", invoiceNumber)),
	)
	defer span.End()

	out, err := s.inner.GetDetails(ctx, invoiceNumber)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			// Expected outcome; not a span error.
			span.SetAttributes(attribute.Bool("order.found", false))
			return out, err
		}
		if reason := rejectReason(err); reason != "internal" {
			span.SetAttributes(attribute.String("order.rejected", reason))
			return out, err
		}
		return out, fail(span, err)
	}
	span.SetAttributes(attribute.Int("order.line_items", len(out.LineItems)))
	return out, nil
}

func (s *Orders) Create(ctx context.Context, req order.CreateRequest) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "Orders.Create",
		trace.WithAttributes(attribute.Int("order.products", len(req.Products))),
	)
	defer span.End()

	invoice, err := s.inner.Create(ctx, req)
	if err != nil {
		reason := rejectReason(err)
		s.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
		if reason != "internal" {
			span.SetAttributes(attribute.String("order.rejected", reason))
			return 0, err
		}
		return 0, fail(span, err)
	}

	s.created.Add(ctx, 1)
	span.SetAttributes(attribute.Int64("order.invoice_number", invoice))
	zctx.From(ctx).Info("Order created",
		zap.Int64("invoice_number", invoice),
		zap.Int("products", len(req.Products)),
	)
	return invoice, nil
}

func rejectReason(err error) string {
	var (
		verr *order.ValidationError
		berr *order.BusinessRuleError
	)
	switch {
	case errors.As(err, &verr):
		return "validation"
	case errors.As(err, &berr):
		return "business_rule"
	default:
		return "internal"
	}
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

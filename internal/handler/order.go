package handler

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/order-gateway/internal/domain/order"
)

// ListOrders serves GET /api/order/viewall.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.orders.ListSummaries(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, encodeArray(summaries, encodeSummary))
}

// ListOrderDetails serves GET /api/order/vieworderdetail.
func (h *Handler) ListOrderDetails(w http.ResponseWriter, r *http.Request) {
	details, err := h.orders.ListDetails(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, encodeArray(details, encodeDetail))
}

// GetOrderDetails serves GET /api/order/details/{invoiceNumber}.
func (h *Handler) GetOrderDetails(w http.ResponseWriter, r *http.Request) {
	invoiceNumber, err := order.ParseInvoiceNumber(chi.URLParam(r, "invoiceNumber"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	detail, err := h.orders.GetDetails(r.Context(), invoiceNumber)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeDetail(e, detail)
	})
}

// CreateOrder serves POST /api/order/new and answers 201 with the new
// invoice number.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeMessage(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, r, errors.Wrap(err, "read body"))
		return
	}

	req, err := order.DecodeCreateRequest(body)
	if err != nil {
		writeError(w, r, err)
		return
	}

	invoiceNumber, err := h.orders.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("invoiceNumber")
		e.Int64(invoiceNumber)
		e.ObjEnd()
	})
}

package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/workodr/marketplace-api/internal/middleware"
	"github.com/workodr/marketplace-api/internal/model"
	"github.com/workodr/marketplace-api/internal/repository"
	"github.com/workodr/marketplace-api/internal/response"
)

// InvoiceHandler serves contractor billing and the agent-side invoice
// listing.
type InvoiceHandler struct {
	Log      zerolog.Logger
	Works    *repository.WorkOrderRepo
	Invoices *repository.InvoiceRepo
}

func NewInvoiceHandler(log zerolog.Logger, works *repository.WorkOrderRepo, invoices *repository.InvoiceRepo) *InvoiceHandler {
	return &InvoiceHandler{Log: log, Works: works, Invoices: invoices}
}

type invoiceReq struct {
	WorkOrderID uint64  `json:"work_order_id"`
	Amount      float64 `json:"amount"`
}

// Create handles POST /v1/invoices (CONTRACTOR): bill against one's own
// accepted work order.
func (h *InvoiceHandler) Create(c echo.Context) error {
	claims := middleware.ClaimsFrom(c)
	var req invoiceReq
	if err := c.Bind(&req); err != nil {
		return response.Fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if req.WorkOrderID == 0 || req.Amount <= 0 {
		return response.Fail(c, http.StatusBadRequest, "work_order_id and a positive amount are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	w, err := h.Works.GetByIDAndContractor(ctx, req.WorkOrderID, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.Fail(c, http.StatusNotFound, "Work order not found")
		}
		h.Log.Error().Err(err).Msg("work order load failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}
	if w.Status != model.WorkOrderAccepted {
		return response.Fail(c, http.StatusBadRequest, "Work order is not accepted")
	}

	inv := &model.Invoice{
		WorkOrderID:  req.WorkOrderID,
		ContractorID: claims.UserID,
		Amount:       req.Amount,
		InvoiceDate:  time.Now().UTC(),
	}
	if err := h.Invoices.Create(ctx, inv); err != nil {
		h.Log.Error().Err(err).Msg("invoice create failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}
	return response.OK(c, http.StatusCreated, "Invoice created", inv)
}

// ListMine handles GET /v1/invoices (CONTRACTOR).
func (h *InvoiceHandler) ListMine(c echo.Context) error {
	claims := middleware.ClaimsFrom(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	items, err := h.Invoices.ListByContractor(ctx, claims.UserID)
	if err != nil {
		h.Log.Error().Err(err).Msg("invoice list failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}
	return response.OK(c, http.StatusOK, "", items)
}

// ListReceived handles GET /v1/invoices/received (AGENT): invoices billed
// against any of the caller's job orders.
func (h *InvoiceHandler) ListReceived(c echo.Context) error {
	claims := middleware.ClaimsFrom(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	items, err := h.Invoices.ListByAgent(ctx, claims.UserID)
	if err != nil {
		h.Log.Error().Err(err).Msg("invoice list failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}
	return response.OK(c, http.StatusOK, "", items)
}

package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/workodr/marketplace-api/internal/middleware"
	"github.com/workodr/marketplace-api/internal/model"
	"github.com/workodr/marketplace-api/internal/repository"
	"github.com/workodr/marketplace-api/internal/response"
)

// WorkOrderHandler serves contractor applications and the agent decisions on
// them.  Accepting an application creates the job assignment.
type WorkOrderHandler struct {
	Log         zerolog.Logger
	Jobs        *repository.JobOrderRepo
	Works       *repository.WorkOrderRepo
	Assignments *repository.AssignmentRepo
}

func NewWorkOrderHandler(log zerolog.Logger, jobs *repository.JobOrderRepo, works *repository.WorkOrderRepo, assignments *repository.AssignmentRepo) *WorkOrderHandler {
	return &WorkOrderHandler{Log: log, Jobs: jobs, Works: works, Assignments: assignments}
}

type applyReq struct {
	JobOrderID    uint64  `json:"job_order_id"`
	Proposal      string  `json:"proposal"`
	ProposedCost  float64 `json:"proposed_cost"`
	EstimatedDays int     `json:"estimated_days"`
}

type decideReq struct {
	Status string `json:"status"` // ACCEPTED | REJECTED
}

// Apply handles POST /v1/work-orders (CONTRACTOR): apply to an open job
// order.  One application per contractor per job.
func (h *WorkOrderHandler) Apply(c echo.Context) error {
	claims := middleware.ClaimsFrom(c)
	var req applyReq
	if err := c.Bind(&req); err != nil {
		return response.Fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if req.JobOrderID == 0 {
		return response.Fail(c, http.StatusBadRequest, "job_order_id is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	j, err := h.Jobs.GetByID(ctx, req.JobOrderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.Fail(c, http.StatusNotFound, "Job order not found")
		}
		h.Log.Error().Err(err).Msg("job order load failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}
	if j.Status != model.JobOrderOpen {
		return response.Fail(c, http.StatusBadRequest, "Job order is not open for applications")
	}

	w := &model.WorkOrder{
		JobOrderID:    req.JobOrderID,
		ContractorID:  claims.UserID,
		Proposal:      req.Proposal,
		ProposedCost:  req.ProposedCost,
		EstimatedDays: req.EstimatedDays,
	}
	if err := h.Works.Create(ctx, w); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return response.Fail(c, http.StatusConflict, "You have already applied to this job order")
		}
		h.Log.Error().Err(err).Msg("work order create failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}
	return response.OK(c, http.StatusCreated, "Application submitted", w)
}

// ListMine handles GET /v1/work-orders (CONTRACTOR): the caller's own
// applications.
func (h *WorkOrderHandler) ListMine(c echo.Context) error {
	claims := middleware.ClaimsFrom(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	items, err := h.Works.ListByContractor(ctx, claims.UserID)
	if err != nil {
		h.Log.Error().Err(err).Msg("work order list failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}
	return response.OK(c, http.StatusOK, "", items)
}

// ListForJobOrder handles GET /v1/job-orders/:id/work-orders (AGENT, owner):
// applications received on one of the caller's postings.
func (h *WorkOrderHandler) ListForJobOrder(c echo.Context) error {
	claims := middleware.ClaimsFrom(c)
	id, err := parseID(c)
	if err != nil {
		return response.Fail(c, http.StatusBadRequest, "Invalid id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if _, err := h.Jobs.GetByIDAndAgent(ctx, id, claims.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.Fail(c, http.StatusNotFound, "Job order not found")
		}
		h.Log.Error().Err(err).Msg("job order load failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}

	items, err := h.Works.ListByJobOrder(ctx, id)
	if err != nil {
		h.Log.Error().Err(err).Msg("work order list failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}
	return response.OK(c, http.StatusOK, "", items)
}

// Decide handles PATCH /v1/work-orders/:id (AGENT): accept or reject a
// pending application on one of the caller's job orders.  Acceptance creates
// the job assignment, moves the job order to ASSIGNED and rejects the other
// pending applications; a job order is assigned at most once.
func (h *WorkOrderHandler) Decide(c echo.Context) error {
	claims := middleware.ClaimsFrom(c)
	id, err := parseID(c)
	if err != nil {
		return response.Fail(c, http.StatusBadRequest, "Invalid id")
	}
	var req decideReq
	if err := c.Bind(&req); err != nil {
		return response.Fail(c, http.StatusBadRequest, "Invalid request body")
	}
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	if status != model.WorkOrderAccepted && status != model.WorkOrderRejected {
		return response.Fail(c, http.StatusBadRequest, "Status must be ACCEPTED or REJECTED")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	w, err := h.Works.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.Fail(c, http.StatusNotFound, "Work order not found")
		}
		h.Log.Error().Err(err).Msg("work order load failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}
	// Ownership runs through the parent job order.
	j, err := h.Jobs.GetByIDAndAgent(ctx, w.JobOrderID, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.Fail(c, http.StatusForbidden, "Forbidden")
		}
		h.Log.Error().Err(err).Msg("job order load failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}

	if status == model.WorkOrderAccepted {
		if _, err := h.Assignments.GetByJobOrder(ctx, w.JobOrderID); err == nil {
			return response.Fail(c, http.StatusConflict, "Job order has already been assigned")
		} else if !errors.Is(err, repository.ErrNotFound) {
			h.Log.Error().Err(err).Msg("assignment load failed")
			return response.Fail(c, http.StatusInternalServerError, "Server error")
		}
	}

	if err := h.Works.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.Fail(c, http.StatusConflict, "Work order already decided")
		}
		h.Log.Error().Err(err).Msg("work order update failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}
	w.Status = status

	if status != model.WorkOrderAccepted {
		return response.OK(c, http.StatusOK, "Work order updated", w)
	}

	a := &model.JobAssignment{
		JobOrderID:   w.JobOrderID,
		WorkOrderID:  w.ID,
		ContractorID: w.ContractorID,
	}
	if err := h.Assignments.Create(ctx, a); err != nil {
		h.Log.Error().Err(err).Msg("assignment create failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}
	// Follow-up bookkeeping is best-effort once the assignment exists.
	j.Status = model.JobOrderAssigned
	if err := h.Jobs.Update(ctx, j); err != nil {
		h.Log.Warn().Err(err).Uint64("job_order_id", j.ID).Msg("job order status update failed")
	}
	if err := h.Works.RejectOtherPending(ctx, w.JobOrderID, w.ID); err != nil {
		h.Log.Warn().Err(err).Uint64("job_order_id", w.JobOrderID).Msg("reject other applications failed")
	}

	return response.OK(c, http.StatusOK, "Work order accepted and job assigned", echo.Map{
		"work_order": w, "assignment": a,
	})
}

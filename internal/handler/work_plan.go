package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/workodr/marketplace-api/internal/middleware"
	"github.com/workodr/marketplace-api/internal/model"
	"github.com/workodr/marketplace-api/internal/repository"
	"github.com/workodr/marketplace-api/internal/response"
)

// WorkPlanHandler serves the contractor's execution plan against an
// assignment.
type WorkPlanHandler struct {
	Log         zerolog.Logger
	Assignments *repository.AssignmentRepo
	Plans       *repository.WorkPlanRepo
	Jobs        *repository.JobOrderRepo
}

func NewWorkPlanHandler(log zerolog.Logger, assignments *repository.AssignmentRepo, plans *repository.WorkPlanRepo, jobs *repository.JobOrderRepo) *WorkPlanHandler {
	return &WorkPlanHandler{Log: log, Assignments: assignments, Plans: plans, Jobs: jobs}
}

type workPlanReq struct {
	JobAssignmentID uint64 `json:"job_assignment_id"`
	PlanDetails     string `json:"plan_details"`
	StartDate       string `json:"start_date"`        // YYYY-MM-DD, optional
	ExpectedEndDate string `json:"expected_end_date"` // YYYY-MM-DD, optional
}

// Create handles POST /v1/work-plans (CONTRACTOR): attach a plan to one's
// own assignment.  One plan per assignment.
func (h *WorkPlanHandler) Create(c echo.Context) error {
	claims := middleware.ClaimsFrom(c)
	var req workPlanReq
	if err := c.Bind(&req); err != nil {
		return response.Fail(c, http.StatusBadRequest, "Invalid request body")
	}
	req.PlanDetails = strings.TrimSpace(req.PlanDetails)
	if req.JobAssignmentID == 0 || req.PlanDetails == "" {
		return response.Fail(c, http.StatusBadRequest, "job_assignment_id and plan_details are required")
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		return response.Fail(c, http.StatusBadRequest, "Invalid start_date")
	}
	end, err := parseDate(req.ExpectedEndDate)
	if err != nil {
		return response.Fail(c, http.StatusBadRequest, "Invalid expected_end_date")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	a, err := h.Assignments.GetByID(ctx, req.JobAssignmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.Fail(c, http.StatusNotFound, "Assignment not found")
		}
		h.Log.Error().Err(err).Msg("assignment load failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}
	if a.ContractorID != claims.UserID {
		return response.Fail(c, http.StatusForbidden, "You can only create work plans for your own assignments")
	}

	p := &model.WorkPlan{
		JobAssignmentID: req.JobAssignmentID,
		PlanDetails:     req.PlanDetails,
		StartDate:       start,
		ExpectedEndDate: end,
	}
	if err := h.Plans.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return response.Fail(c, http.StatusConflict, "Work plan already exists for this assignment")
		}
		h.Log.Error().Err(err).Msg("work plan create failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}
	return response.OK(c, http.StatusCreated, "Work plan created", p)
}

// ListMine handles GET /v1/work-plans (CONTRACTOR).
func (h *WorkPlanHandler) ListMine(c echo.Context) error {
	claims := middleware.ClaimsFrom(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	items, err := h.Plans.ListByContractor(ctx, claims.UserID)
	if err != nil {
		h.Log.Error().Err(err).Msg("work plan list failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}
	return response.OK(c, http.StatusOK, "", items)
}

// GetByAssignment handles GET /v1/assignments/:id/work-plan.  Visibility
// follows the assignment: the assigned contractor or the agent owning the
// parent job order.
func (h *WorkPlanHandler) GetByAssignment(c echo.Context) error {
	claims := middleware.ClaimsFrom(c)
	id, err := parseID(c)
	if err != nil {
		return response.Fail(c, http.StatusBadRequest, "Invalid id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	a, err := h.Assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.Fail(c, http.StatusNotFound, "Assignment not found")
		}
		h.Log.Error().Err(err).Msg("assignment load failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}
	if a.ContractorID != claims.UserID {
		if _, err := h.Jobs.GetByIDAndAgent(ctx, a.JobOrderID, claims.UserID); err != nil {
			return response.Fail(c, http.StatusForbidden, "Forbidden")
		}
	}

	p, err := h.Plans.GetByAssignment(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.Fail(c, http.StatusNotFound, "Work plan not found")
		}
		h.Log.Error().Err(err).Msg("work plan load failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}
	return response.OK(c, http.StatusOK, "", p)
}

// Update handles PUT /v1/work-plans/:id (CONTRACTOR, owner).  Partial: only
// the provided fields change.
func (h *WorkPlanHandler) Update(c echo.Context) error {
	claims := middleware.ClaimsFrom(c)
	id, err := parseID(c)
	if err != nil {
		return response.Fail(c, http.StatusBadRequest, "Invalid id")
	}
	var req workPlanReq
	if err := c.Bind(&req); err != nil {
		return response.Fail(c, http.StatusBadRequest, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	p, err := h.Plans.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.Fail(c, http.StatusNotFound, "Work plan not found")
		}
		h.Log.Error().Err(err).Msg("work plan load failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}
	// Ownership runs through the assignment.
	a, err := h.Assignments.GetByID(ctx, p.JobAssignmentID)
	if err != nil {
		h.Log.Error().Err(err).Msg("assignment load failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}
	if a.ContractorID != claims.UserID {
		return response.Fail(c, http.StatusForbidden, "You can only update your own work plans")
	}

	if d := strings.TrimSpace(req.PlanDetails); d != "" {
		p.PlanDetails = d
	}
	if req.StartDate != "" {
		start, err := parseDate(req.StartDate)
		if err != nil {
			return response.Fail(c, http.StatusBadRequest, "Invalid start_date")
		}
		p.StartDate = start
	}
	if req.ExpectedEndDate != "" {
		end, err := parseDate(req.ExpectedEndDate)
		if err != nil {
			return response.Fail(c, http.StatusBadRequest, "Invalid expected_end_date")
		}
		p.ExpectedEndDate = end
	}

	if err := h.Plans.Update(ctx, p); err != nil {
		h.Log.Error().Err(err).Msg("work plan update failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}
	return response.OK(c, http.StatusOK, "Work plan updated", p)
}

// parseDate parses an optional YYYY-MM-DD value; empty means absent.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

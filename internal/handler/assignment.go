package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/workodr/marketplace-api/internal/auth"
	"github.com/workodr/marketplace-api/internal/middleware"
	"github.com/workodr/marketplace-api/internal/model"
	"github.com/workodr/marketplace-api/internal/repository"
	"github.com/workodr/marketplace-api/internal/response"
)

// AssignmentHandler serves the read side of job assignments.  Assignments
// are created by accepting a work order, never directly.
type AssignmentHandler struct {
	Log         zerolog.Logger
	Assignments *repository.AssignmentRepo
	Jobs        *repository.JobOrderRepo
}

func NewAssignmentHandler(log zerolog.Logger, assignments *repository.AssignmentRepo, jobs *repository.JobOrderRepo) *AssignmentHandler {
	return &AssignmentHandler{Log: log, Assignments: assignments, Jobs: jobs}
}

// ListMine handles GET /v1/assignments: an agent sees assignments on their
// postings, a contractor sees their own.
func (h *AssignmentHandler) ListMine(c echo.Context) error {
	claims := middleware.ClaimsFrom(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	var (
		items []model.JobAssignment
		err   error
	)
	switch {
	case claims.HasRole(model.RoleAgent):
		items, err = h.Assignments.ListByAgent(ctx, claims.UserID)
	case claims.HasRole(model.RoleContractor):
		items, err = h.Assignments.ListByContractor(ctx, claims.UserID)
	default:
		return response.Fail(c, http.StatusForbidden, "Forbidden")
	}
	if err != nil {
		h.Log.Error().Err(err).Msg("assignment list failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}
	return response.OK(c, http.StatusOK, "", items)
}

// Get handles GET /v1/assignments/:id.  Visible to the assigned contractor
// and to the agent owning the parent job order.
func (h *AssignmentHandler) Get(c echo.Context) error {
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
	if err := h.authorize(ctx, claims, a); err != nil {
		return response.Fail(c, http.StatusForbidden, "Forbidden")
	}
	return response.OK(c, http.StatusOK, "", a)
}

// authorize reports whether the caller may read the assignment: either the
// assigned contractor, or the agent owning the parent job order.
func (h *AssignmentHandler) authorize(ctx context.Context, claims *auth.Claims, a *model.JobAssignment) error {
	if a.ContractorID == claims.UserID {
		return nil
	}
	if _, err := h.Jobs.GetByIDAndAgent(ctx, a.JobOrderID, claims.UserID); err != nil {
		return err
	}
	return nil
}

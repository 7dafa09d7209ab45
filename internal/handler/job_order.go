package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/workodr/marketplace-api/internal/middleware"
	"github.com/workodr/marketplace-api/internal/model"
	"github.com/workodr/marketplace-api/internal/repository"
	"github.com/workodr/marketplace-api/internal/response"
)

// JobOrderHandler serves the agent-side job posting endpoints plus the open
// listing contractors browse.
type JobOrderHandler struct {
	Log  zerolog.Logger
	Jobs *repository.JobOrderRepo
}

func NewJobOrderHandler(log zerolog.Logger, jobs *repository.JobOrderRepo) *JobOrderHandler {
	return &JobOrderHandler{Log: log, Jobs: jobs}
}

type jobOrderReq struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Status      string `json:"status"`
}

// Create handles POST /v1/job-orders (AGENT).
func (h *JobOrderHandler) Create(c echo.Context) error {
	claims := middleware.ClaimsFrom(c)
	var req jobOrderReq
	if err := c.Bind(&req); err != nil {
		return response.Fail(c, http.StatusBadRequest, "Invalid request body")
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return response.Fail(c, http.StatusBadRequest, "Title is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	j := &model.JobOrder{
		AgentID:     claims.UserID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
	}
	if err := h.Jobs.Create(ctx, j); err != nil {
		h.Log.Error().Err(err).Msg("job order create failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}
	return response.OK(c, http.StatusCreated, "Job order created", j)
}

// ListMine handles GET /v1/job-orders (AGENT): the caller's own postings.
func (h *JobOrderHandler) ListMine(c echo.Context) error {
	claims := middleware.ClaimsFrom(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	items, err := h.Jobs.ListByAgent(ctx, claims.UserID)
	if err != nil {
		h.Log.Error().Err(err).Msg("job order list failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}
	return response.OK(c, http.StatusOK, "", items)
}

// ListOpen handles GET /v1/job-orders/open.  OptionalAuth: browsable without
// a session, same data either way.
func (h *JobOrderHandler) ListOpen(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	items, err := h.Jobs.ListOpen(ctx)
	if err != nil {
		h.Log.Error().Err(err).Msg("open job order list failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}
	return response.OK(c, http.StatusOK, "", items)
}

// Get handles GET /v1/job-orders/:id.
func (h *JobOrderHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return response.Fail(c, http.StatusBadRequest, "Invalid id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	j, err := h.Jobs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.Fail(c, http.StatusNotFound, "Job order not found")
		}
		h.Log.Error().Err(err).Msg("job order load failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}
	return response.OK(c, http.StatusOK, "", j)
}

// Update handles PUT /v1/job-orders/:id (AGENT, owner).  Ownership is
// enforced by the agent-scoped query: a foreign record 404s.
func (h *JobOrderHandler) Update(c echo.Context) error {
	claims := middleware.ClaimsFrom(c)
	id, err := parseID(c)
	if err != nil {
		return response.Fail(c, http.StatusBadRequest, "Invalid id")
	}
	var req jobOrderReq
	if err := c.Bind(&req); err != nil {
		return response.Fail(c, http.StatusBadRequest, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	j, err := h.Jobs.GetByIDAndAgent(ctx, id, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.Fail(c, http.StatusNotFound, "Job order not found")
		}
		h.Log.Error().Err(err).Msg("job order load failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}

	if t := strings.TrimSpace(req.Title); t != "" {
		j.Title = t
	}
	if req.Description != "" {
		j.Description = req.Description
	}
	if req.Category != "" {
		j.Category = req.Category
	}
	if req.Status != "" {
		status := strings.ToUpper(strings.TrimSpace(req.Status))
		if !validJobStatus(status) {
			return response.Fail(c, http.StatusBadRequest, "Invalid status")
		}
		j.Status = status
	}

	if err := h.Jobs.Update(ctx, j); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.Fail(c, http.StatusNotFound, "Job order not found")
		}
		h.Log.Error().Err(err).Msg("job order update failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}
	return response.OK(c, http.StatusOK, "Job order updated", j)
}

// Delete handles DELETE /v1/job-orders/:id (AGENT, owner).
func (h *JobOrderHandler) Delete(c echo.Context) error {
	claims := middleware.ClaimsFrom(c)
	id, err := parseID(c)
	if err != nil {
		return response.Fail(c, http.StatusBadRequest, "Invalid id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Jobs.Delete(ctx, id, claims.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.Fail(c, http.StatusNotFound, "Job order not found")
		}
		h.Log.Error().Err(err).Msg("job order delete failed")
		return response.Fail(c, http.StatusInternalServerError, "Server error")
	}
	return response.OK(c, http.StatusOK, "Job order deleted", nil)
}

func validJobStatus(s string) bool {
	switch s {
	case model.JobOrderOpen, model.JobOrderAssigned, model.JobOrderCompleted, model.JobOrderCancelled:
		return true
	}
	return false
}

func parseID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

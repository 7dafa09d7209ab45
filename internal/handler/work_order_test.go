package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workodr/marketplace-api/internal/auth"
	"github.com/workodr/marketplace-api/internal/model"
	"github.com/workodr/marketplace-api/internal/repository"
)

// withClaims injects an authenticated identity directly, bypassing the token
// middleware; middleware behavior has its own tests.
func withClaims(claims *auth.Claims) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("claims", claims)
			return next(c)
		}
	}
}

func newWorkOrderApp(t *testing.T, claims *auth.Claims) (*echo.Echo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	h := NewWorkOrderHandler(zerolog.Nop(), repository.NewJobOrderRepo(db), repository.NewWorkOrderRepo(db), repository.NewAssignmentRepo(db))

	e := echo.New()
	e.POST("/v1/work-orders", h.Apply, withClaims(claims))
	e.PATCH("/v1/work-orders/:id", h.Decide, withClaims(claims))
	return e, mock
}

var jobCols = []string{"id", "agent_id", "title", "description", "category", "status", "created_at", "updated_at"}
var workCols = []string{"id", "job_order_id", "contractor_id", "proposal", "proposed_cost", "estimated_days", "status", "created_at"}
var assignCols = []string{"id", "job_order_id", "work_order_id", "contractor_id", "assigned_at"}

func jobRow(id, agentID uint64, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(jobCols).AddRow(id, agentID, "Roof repair", "", "ROOFING", status, now, now)
}

func workRow(id, jobID, contractorID uint64, status string) *sqlmock.Rows {
	return sqlmock.NewRows(workCols).AddRow(id, jobID, contractorID, "proposal", 1500.0, 5, status, time.Now())
}

func TestApplyToClosedJobOrder(t *testing.T) {
	e, mock := newWorkOrderApp(t, &auth.Claims{UserID: 9, Roles: []string{model.RoleContractor}})

	mock.ExpectQuery("FROM job_orders WHERE id=").
		WillReturnRows(jobRow(3, 4, model.JobOrderAssigned))

	rec := doJSON(e, http.MethodPost, "/v1/work-orders", map[string]interface{}{
		"job_order_id": 3, "proposal": "late to the party",
	}, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Job order is not open for applications", decode(t, rec).Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyTwiceConflicts(t *testing.T) {
	e, mock := newWorkOrderApp(t, &auth.Claims{UserID: 9, Roles: []string{model.RoleContractor}})

	mock.ExpectQuery("FROM job_orders WHERE id=").
		WillReturnRows(jobRow(3, 4, model.JobOrderOpen))
	mock.ExpectExec("INSERT INTO work_orders").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry '3-9' for key 'work_orders.job_contractor'"))

	rec := doJSON(e, http.MethodPost, "/v1/work-orders", map[string]interface{}{
		"job_order_id": 3, "proposal": "again",
	}, "")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecideOnForeignJobOrder(t *testing.T) {
	// Agent 7 tries to decide an application on agent 4's posting.
	e, mock := newWorkOrderApp(t, &auth.Claims{UserID: 7, Roles: []string{model.RoleAgent}})

	mock.ExpectQuery("FROM work_orders WHERE id=").
		WillReturnRows(workRow(21, 3, 9, model.WorkOrderPending))
	mock.ExpectQuery("FROM job_orders WHERE id=").
		WithArgs(uint64(3), uint64(7)).
		WillReturnRows(sqlmock.NewRows(jobCols))

	rec := doJSON(e, http.MethodPatch, "/v1/work-orders/21", map[string]string{"status": "ACCEPTED"}, "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecideAlreadyDecided(t *testing.T) {
	e, mock := newWorkOrderApp(t, &auth.Claims{UserID: 4, Roles: []string{model.RoleAgent}})

	mock.ExpectQuery("FROM work_orders WHERE id=").
		WillReturnRows(workRow(21, 3, 9, model.WorkOrderAccepted))
	mock.ExpectQuery("FROM job_orders WHERE id=").
		WillReturnRows(jobRow(3, 4, model.JobOrderOpen))
	mock.ExpectExec("UPDATE work_orders SET status=").
		WillReturnResult(sqlmock.NewResult(0, 0))

	rec := doJSON(e, http.MethodPatch, "/v1/work-orders/21", map[string]string{"status": "REJECTED"}, "")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Work order already decided", decode(t, rec).Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestDecideAccepts covers the full acceptance pipeline: the work order is
// approved, an assignment row is created, the job order moves to ASSIGNED
// and the losing applications are rejected.
func TestDecideAccepts(t *testing.T) {
	e, mock := newWorkOrderApp(t, &auth.Claims{UserID: 4, Roles: []string{model.RoleAgent}})

	mock.ExpectQuery("FROM work_orders WHERE id=").
		WillReturnRows(workRow(21, 3, 9, model.WorkOrderPending))
	mock.ExpectQuery("FROM job_orders WHERE id=").
		WillReturnRows(jobRow(3, 4, model.JobOrderOpen))
	mock.ExpectQuery("FROM job_assignments WHERE job_order_id=").
		WillReturnRows(sqlmock.NewRows(assignCols))
	mock.ExpectExec("UPDATE work_orders SET status=").
		WithArgs(model.WorkOrderAccepted, uint64(21), model.WorkOrderPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO job_assignments").
		WithArgs(uint64(3), uint64(21), uint64(9)).
		WillReturnResult(sqlmock.NewResult(31, 1))
	mock.ExpectQuery("SELECT assigned_at FROM job_assignments").
		WillReturnRows(sqlmock.NewRows([]string{"assigned_at"}).AddRow(time.Now()))
	mock.ExpectExec("UPDATE job_orders SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE work_orders SET status=").
		WithArgs(model.WorkOrderRejected, uint64(3), uint64(21), model.WorkOrderPending).
		WillReturnResult(sqlmock.NewResult(0, 2))

	rec := doJSON(e, http.MethodPatch, "/v1/work-orders/21", map[string]string{"status": "accepted"}, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	assert.True(t, env.Success)

	var data struct {
		Assignment struct {
			ID           uint64 `json:"id"`
			JobOrderID   uint64 `json:"job_order_id"`
			ContractorID uint64 `json:"contractor_id"`
		} `json:"assignment"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, uint64(31), data.Assignment.ID)
	assert.Equal(t, uint64(3), data.Assignment.JobOrderID)
	assert.Equal(t, uint64(9), data.Assignment.ContractorID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecideAcceptAlreadyAssignedJob(t *testing.T) {
	e, mock := newWorkOrderApp(t, &auth.Claims{UserID: 4, Roles: []string{model.RoleAgent}})

	mock.ExpectQuery("FROM work_orders WHERE id=").
		WillReturnRows(workRow(22, 3, 10, model.WorkOrderPending))
	mock.ExpectQuery("FROM job_orders WHERE id=").
		WillReturnRows(jobRow(3, 4, model.JobOrderAssigned))
	// Another application already won this job order.
	mock.ExpectQuery("FROM job_assignments WHERE job_order_id=").
		WillReturnRows(sqlmock.NewRows(assignCols).AddRow(31, 3, 21, 9, time.Now()))

	rec := doJSON(e, http.MethodPatch, "/v1/work-orders/22", map[string]string{"status": "ACCEPTED"}, "")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Job order has already been assigned", decode(t, rec).Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecideRejectsBadStatus(t *testing.T) {
	e, mock := newWorkOrderApp(t, &auth.Claims{UserID: 4, Roles: []string{model.RoleAgent}})

	rec := doJSON(e, http.MethodPatch, "/v1/work-orders/21", map[string]string{"status": "COMPLETED"}, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

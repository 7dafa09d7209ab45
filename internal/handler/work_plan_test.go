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

func newWorkPlanApp(t *testing.T, claims *auth.Claims) (*echo.Echo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assignments := repository.NewAssignmentRepo(db)
	h := NewWorkPlanHandler(zerolog.Nop(), assignments, repository.NewWorkPlanRepo(db), repository.NewJobOrderRepo(db))

	e := echo.New()
	e.POST("/v1/work-plans", h.Create, withClaims(claims))
	e.PUT("/v1/work-plans/:id", h.Update, withClaims(claims))
	e.GET("/v1/assignments/:id/work-plan", h.GetByAssignment, withClaims(claims))
	return e, mock
}

func assignRow(id, jobID, workID, contractorID uint64) *sqlmock.Rows {
	return sqlmock.NewRows(assignCols).AddRow(id, jobID, workID, contractorID, time.Now())
}

func planRow(id, assignmentID uint64, details string) *sqlmock.Rows {
	cols := []string{"id", "job_assignment_id", "plan_details", "start_date", "expected_end_date", "created_at"}
	return sqlmock.NewRows(cols).AddRow(id, assignmentID, details, nil, nil, time.Now())
}

func TestWorkPlanCreateOnForeignAssignment(t *testing.T) {
	e, mock := newWorkPlanApp(t, &auth.Claims{UserID: 10, Roles: []string{model.RoleContractor}})

	// Assignment 31 belongs to contractor 9.
	mock.ExpectQuery("FROM job_assignments WHERE id=").
		WillReturnRows(assignRow(31, 3, 21, 9))

	rec := doJSON(e, http.MethodPost, "/v1/work-plans", map[string]interface{}{
		"job_assignment_id": 31, "plan_details": "my plan",
	}, "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "You can only create work plans for your own assignments", decode(t, rec).Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkPlanCreateDuplicate(t *testing.T) {
	e, mock := newWorkPlanApp(t, &auth.Claims{UserID: 9, Roles: []string{model.RoleContractor}})

	mock.ExpectQuery("FROM job_assignments WHERE id=").
		WillReturnRows(assignRow(31, 3, 21, 9))
	mock.ExpectExec("INSERT INTO work_plans").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry '31' for key 'work_plans.job_assignment_id'"))

	rec := doJSON(e, http.MethodPost, "/v1/work-plans", map[string]interface{}{
		"job_assignment_id": 31, "plan_details": "second plan",
	}, "")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Work plan already exists for this assignment", decode(t, rec).Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkPlanCreateSuccess(t *testing.T) {
	e, mock := newWorkPlanApp(t, &auth.Claims{UserID: 9, Roles: []string{model.RoleContractor}})

	mock.ExpectQuery("FROM job_assignments WHERE id=").
		WillReturnRows(assignRow(31, 3, 21, 9))
	mock.ExpectExec("INSERT INTO work_plans").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery("SELECT created_at FROM work_plans").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	rec := doJSON(e, http.MethodPost, "/v1/work-plans", map[string]interface{}{
		"job_assignment_id": 31,
		"plan_details":      "demolition first, then rough-in",
		"start_date":        "2026-05-01",
	}, "")

	assert.Equal(t, http.StatusCreated, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "Work plan created", env.Message)

	var p model.WorkPlan
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, uint64(7), p.ID)
	require.NotNil(t, p.StartDate)
	assert.Equal(t, "2026-05-01", p.StartDate.Format("2006-01-02"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkPlanCreateBadDate(t *testing.T) {
	e, mock := newWorkPlanApp(t, &auth.Claims{UserID: 9, Roles: []string{model.RoleContractor}})

	rec := doJSON(e, http.MethodPost, "/v1/work-plans", map[string]interface{}{
		"job_assignment_id": 31, "plan_details": "plan", "start_date": "05/01/2026",
	}, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid start_date", decode(t, rec).Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkPlanUpdateForeign(t *testing.T) {
	e, mock := newWorkPlanApp(t, &auth.Claims{UserID: 10, Roles: []string{model.RoleContractor}})

	mock.ExpectQuery("FROM work_plans WHERE id=").
		WillReturnRows(planRow(7, 31, "original"))
	mock.ExpectQuery("FROM job_assignments WHERE id=").
		WillReturnRows(assignRow(31, 3, 21, 9))

	rec := doJSON(e, http.MethodPut, "/v1/work-plans/7", map[string]interface{}{
		"plan_details": "hijacked",
	}, "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "You can only update your own work plans", decode(t, rec).Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkPlanUpdatePartial(t *testing.T) {
	e, mock := newWorkPlanApp(t, &auth.Claims{UserID: 9, Roles: []string{model.RoleContractor}})

	mock.ExpectQuery("FROM work_plans WHERE id=").
		WillReturnRows(planRow(7, 31, "original"))
	mock.ExpectQuery("FROM job_assignments WHERE id=").
		WillReturnRows(assignRow(31, 3, 21, 9))
	mock.ExpectExec("UPDATE work_plans SET plan_details=").
		WillReturnResult(sqlmock.NewResult(0, 1))

	// Only the end date changes; plan_details is kept.
	rec := doJSON(e, http.MethodPut, "/v1/work-plans/7", map[string]interface{}{
		"expected_end_date": "2026-06-15",
	}, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	var p model.WorkPlan
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, "original", p.PlanDetails)
	require.NotNil(t, p.ExpectedEndDate)
	assert.Equal(t, "2026-06-15", p.ExpectedEndDate.Format("2006-01-02"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkPlanGetByAssignmentAsOwningAgent(t *testing.T) {
	e, mock := newWorkPlanApp(t, &auth.Claims{UserID: 4, Roles: []string{model.RoleAgent}})

	mock.ExpectQuery("FROM job_assignments WHERE id=").
		WillReturnRows(assignRow(31, 3, 21, 9))
	mock.ExpectQuery("FROM job_orders WHERE id=").
		WithArgs(uint64(3), uint64(4)).
		WillReturnRows(jobRow(3, 4, model.JobOrderAssigned))
	mock.ExpectQuery("FROM work_plans WHERE job_assignment_id=").
		WillReturnRows(planRow(7, 31, "demolition first"))

	rec := doJSON(e, http.MethodGet, "/v1/assignments/31/work-plan", nil, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var p model.WorkPlan
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &p))
	assert.Equal(t, uint64(7), p.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkPlanGetByAssignmentForeign(t *testing.T) {
	// Agent 7 neither holds the assignment nor owns the job order.
	e, mock := newWorkPlanApp(t, &auth.Claims{UserID: 7, Roles: []string{model.RoleAgent}})

	mock.ExpectQuery("FROM job_assignments WHERE id=").
		WillReturnRows(assignRow(31, 3, 21, 9))
	mock.ExpectQuery("FROM job_orders WHERE id=").
		WithArgs(uint64(3), uint64(7)).
		WillReturnRows(sqlmock.NewRows(jobCols))

	rec := doJSON(e, http.MethodGet, "/v1/assignments/31/work-plan", nil, "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkPlanGetByAssignmentMissingPlan(t *testing.T) {
	e, mock := newWorkPlanApp(t, &auth.Claims{UserID: 9, Roles: []string{model.RoleContractor}})

	mock.ExpectQuery("FROM job_assignments WHERE id=").
		WillReturnRows(assignRow(31, 3, 21, 9))
	mock.ExpectQuery("FROM work_plans WHERE job_assignment_id=").
		WillReturnRows(sqlmock.NewRows([]string{"id", "job_assignment_id", "plan_details", "start_date", "expected_end_date", "created_at"}))

	rec := doJSON(e, http.MethodGet, "/v1/assignments/31/work-plan", nil, "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Work plan not found", decode(t, rec).Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

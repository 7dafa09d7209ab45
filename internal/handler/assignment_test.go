package handler

import (
	"encoding/json"
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

func newAssignmentApp(t *testing.T, claims *auth.Claims) (*echo.Echo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	h := NewAssignmentHandler(zerolog.Nop(), repository.NewAssignmentRepo(db), repository.NewJobOrderRepo(db))

	e := echo.New()
	e.GET("/v1/assignments", h.ListMine, withClaims(claims))
	e.GET("/v1/assignments/:id", h.Get, withClaims(claims))
	return e, mock
}

func TestAssignmentListAsContractor(t *testing.T) {
	e, mock := newAssignmentApp(t, &auth.Claims{UserID: 9, Roles: []string{model.RoleContractor}})

	mock.ExpectQuery("FROM job_assignments WHERE contractor_id=").
		WithArgs(uint64(9)).
		WillReturnRows(assignRow(31, 3, 21, 9))

	rec := doJSON(e, http.MethodGet, "/v1/assignments", nil, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var items []model.JobAssignment
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &items))
	require.Len(t, items, 1)
	assert.Equal(t, uint64(31), items[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentListAsAgent(t *testing.T) {
	e, mock := newAssignmentApp(t, &auth.Claims{UserID: 4, Roles: []string{model.RoleAgent}})

	mock.ExpectQuery("JOIN job_orders jo ON jo.id = ja.job_order_id").
		WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows(assignCols).
			AddRow(31, 3, 21, 9, time.Now()).
			AddRow(32, 5, 24, 11, time.Now()))

	rec := doJSON(e, http.MethodGet, "/v1/assignments", nil, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var items []model.JobAssignment
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &items))
	assert.Len(t, items, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentGetForeign(t *testing.T) {
	// Contractor 10 asks for contractor 9's assignment and holds no agent
	// claim on the parent job order either.
	e, mock := newAssignmentApp(t, &auth.Claims{UserID: 10, Roles: []string{model.RoleContractor}})

	mock.ExpectQuery("FROM job_assignments WHERE id=").
		WillReturnRows(assignRow(31, 3, 21, 9))
	mock.ExpectQuery("FROM job_orders WHERE id=").
		WithArgs(uint64(3), uint64(10)).
		WillReturnRows(sqlmock.NewRows(jobCols))

	rec := doJSON(e, http.MethodGet, "/v1/assignments/31", nil, "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Forbidden", decode(t, rec).Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentGetNotFound(t *testing.T) {
	e, mock := newAssignmentApp(t, &auth.Claims{UserID: 9, Roles: []string{model.RoleContractor}})

	mock.ExpectQuery("FROM job_assignments WHERE id=").
		WillReturnRows(sqlmock.NewRows(assignCols))

	rec := doJSON(e, http.MethodGet, "/v1/assignments/99", nil, "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Assignment not found", decode(t, rec).Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

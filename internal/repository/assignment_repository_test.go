package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workodr/marketplace-api/internal/model"
)

var assignmentCols = []string{"id", "job_order_id", "work_order_id", "contractor_id", "assigned_at"}

func newAssignmentRepo(t *testing.T) (*AssignmentRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewAssignmentRepo(db), mock
}

func TestAssignmentCreate(t *testing.T) {
	repo, mock := newAssignmentRepo(t)
	now := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO job_assignments").
		WithArgs(uint64(3), uint64(21), uint64(9)).
		WillReturnResult(sqlmock.NewResult(31, 1))
	mock.ExpectQuery("SELECT assigned_at FROM job_assignments").
		WithArgs(uint64(31)).
		WillReturnRows(sqlmock.NewRows([]string{"assigned_at"}).AddRow(now))

	a := &model.JobAssignment{JobOrderID: 3, WorkOrderID: 21, ContractorID: 9}
	require.NoError(t, repo.Create(context.Background(), a))
	assert.Equal(t, uint64(31), a.ID)
	assert.Equal(t, now, a.AssignedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentCreateSecondForJobOrder(t *testing.T) {
	repo, mock := newAssignmentRepo(t)

	mock.ExpectExec("INSERT INTO job_assignments").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry '3' for key 'job_assignments.job_order_id'"))

	a := &model.JobAssignment{JobOrderID: 3, WorkOrderID: 22, ContractorID: 10}
	assert.ErrorIs(t, repo.Create(context.Background(), a), ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentGetByJobOrderMiss(t *testing.T) {
	repo, mock := newAssignmentRepo(t)

	mock.ExpectQuery("FROM job_assignments WHERE job_order_id=").
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows(assignmentCols))

	_, err := repo.GetByJobOrder(context.Background(), 3)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentListByAgent(t *testing.T) {
	repo, mock := newAssignmentRepo(t)
	now := time.Now()

	// Agent scope resolves through the job order join.
	mock.ExpectQuery("JOIN job_orders jo ON jo.id = ja.job_order_id").
		WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows(assignmentCols).
			AddRow(31, 3, 21, 9, now).
			AddRow(32, 5, 24, 11, now))

	items, err := repo.ListByAgent(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, uint64(21), items[0].WorkOrderID)
	assert.Equal(t, uint64(11), items[1].ContractorID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentListByContractor(t *testing.T) {
	repo, mock := newAssignmentRepo(t)

	mock.ExpectQuery("FROM job_assignments WHERE contractor_id=").
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows(assignmentCols).AddRow(31, 3, 21, 9, time.Now()))

	items, err := repo.ListByContractor(context.Background(), 9)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, uint64(3), items[0].JobOrderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

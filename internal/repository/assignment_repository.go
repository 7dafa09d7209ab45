package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/workodr/marketplace-api/internal/model"
)

// AssignmentRepo persists job assignments, the link an agent creates by
// accepting a work order.  job_order_id carries a unique constraint: a job
// order is assigned at most once.
type AssignmentRepo struct{ DB *sql.DB }

func NewAssignmentRepo(db *sql.DB) *AssignmentRepo { return &AssignmentRepo{DB: db} }

const assignmentColumns = "id, job_order_id, work_order_id, contractor_id, assigned_at"

// Create inserts an assignment and populates the generated fields.  Returns
// ErrDuplicate when the job order already has one.
func (r *AssignmentRepo) Create(ctx context.Context, a *model.JobAssignment) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO job_assignments (job_order_id, work_order_id, contractor_id) VALUES (?,?,?)",
		a.JobOrderID, a.WorkOrderID, a.ContractorID)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return r.DB.QueryRowContext(ctx,
		"SELECT assigned_at FROM job_assignments WHERE id=?", a.ID).Scan(&a.AssignedAt)
}

// GetByID fetches an assignment by id.
func (r *AssignmentRepo) GetByID(ctx context.Context, id uint64) (*model.JobAssignment, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+assignmentColumns+" FROM job_assignments WHERE id=? LIMIT 1", id))
}

// GetByJobOrder fetches the assignment of a job order, if any.  Used to
// refuse a second acceptance on an already-assigned job.
func (r *AssignmentRepo) GetByJobOrder(ctx context.Context, jobOrderID uint64) (*model.JobAssignment, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+assignmentColumns+" FROM job_assignments WHERE job_order_id=? LIMIT 1", jobOrderID))
}

// ListByContractor returns a contractor's assignments, newest first.
func (r *AssignmentRepo) ListByContractor(ctx context.Context, contractorID uint64) ([]model.JobAssignment, error) {
	return r.list(ctx,
		"SELECT "+assignmentColumns+" FROM job_assignments WHERE contractor_id=? ORDER BY assigned_at DESC", contractorID)
}

// ListByAgent returns assignments on any of an agent's job orders, resolved
// through the job order join.
func (r *AssignmentRepo) ListByAgent(ctx context.Context, agentID uint64) ([]model.JobAssignment, error) {
	return r.list(ctx,
		`SELECT ja.id, ja.job_order_id, ja.work_order_id, ja.contractor_id, ja.assigned_at
		 FROM job_assignments ja
		 JOIN job_orders jo ON jo.id = ja.job_order_id
		 WHERE jo.agent_id=? ORDER BY ja.assigned_at DESC`, agentID)
}

func (r *AssignmentRepo) scanOne(row *sql.Row) (*model.JobAssignment, error) {
	var a model.JobAssignment
	err := row.Scan(&a.ID, &a.JobOrderID, &a.WorkOrderID, &a.ContractorID, &a.AssignedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AssignmentRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.JobAssignment, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []model.JobAssignment{}
	for rows.Next() {
		var a model.JobAssignment
		if err := rows.Scan(&a.ID, &a.JobOrderID, &a.WorkOrderID, &a.ContractorID, &a.AssignedAt); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

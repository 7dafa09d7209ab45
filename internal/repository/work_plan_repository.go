package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/workodr/marketplace-api/internal/model"
)

// WorkPlanRepo persists the contractor execution plan attached to an
// assignment.  One plan per assignment, enforced by a unique constraint on
// job_assignment_id.
type WorkPlanRepo struct{ DB *sql.DB }

func NewWorkPlanRepo(db *sql.DB) *WorkPlanRepo { return &WorkPlanRepo{DB: db} }

const workPlanColumns = "id, job_assignment_id, plan_details, start_date, expected_end_date, created_at"

// Create inserts a work plan.  Returns ErrDuplicate when the assignment
// already has one.
func (r *WorkPlanRepo) Create(ctx context.Context, p *model.WorkPlan) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO work_plans (job_assignment_id, plan_details, start_date, expected_end_date) VALUES (?,?,?,?)",
		p.JobAssignmentID, p.PlanDetails, p.StartDate, p.ExpectedEndDate)
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
	p.ID = uint64(id)
	return r.DB.QueryRowContext(ctx,
		"SELECT created_at FROM work_plans WHERE id=?", p.ID).Scan(&p.CreatedAt)
}

// GetByID fetches a work plan by id.
func (r *WorkPlanRepo) GetByID(ctx context.Context, id uint64) (*model.WorkPlan, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+workPlanColumns+" FROM work_plans WHERE id=? LIMIT 1", id))
}

// GetByAssignment fetches the plan attached to an assignment.
func (r *WorkPlanRepo) GetByAssignment(ctx context.Context, assignmentID uint64) (*model.WorkPlan, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+workPlanColumns+" FROM work_plans WHERE job_assignment_id=? LIMIT 1", assignmentID))
}

// ListByContractor returns a contractor's work plans across all of their
// assignments, newest first.
func (r *WorkPlanRepo) ListByContractor(ctx context.Context, contractorID uint64) ([]model.WorkPlan, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT wp.id, wp.job_assignment_id, wp.plan_details, wp.start_date, wp.expected_end_date, wp.created_at
		 FROM work_plans wp
		 JOIN job_assignments ja ON ja.id = wp.job_assignment_id
		 WHERE ja.contractor_id=? ORDER BY wp.created_at DESC`, contractorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []model.WorkPlan{}
	for rows.Next() {
		var p model.WorkPlan
		if err := rows.Scan(&p.ID, &p.JobAssignmentID, &p.PlanDetails, &p.StartDate, &p.ExpectedEndDate, &p.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

// Update rewrites the mutable fields of a work plan.
func (r *WorkPlanRepo) Update(ctx context.Context, p *model.WorkPlan) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE work_plans SET plan_details=?, start_date=?, expected_end_date=? WHERE id=?",
		p.PlanDetails, p.StartDate, p.ExpectedEndDate, p.ID)
	return err
}

func (r *WorkPlanRepo) scanOne(row *sql.Row) (*model.WorkPlan, error) {
	var p model.WorkPlan
	err := row.Scan(&p.ID, &p.JobAssignmentID, &p.PlanDetails, &p.StartDate, &p.ExpectedEndDate, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/workodr/marketplace-api/internal/model"
)

// WorkOrderRepo persists contractor applications against job orders.
type WorkOrderRepo struct{ DB *sql.DB }

func NewWorkOrderRepo(db *sql.DB) *WorkOrderRepo { return &WorkOrderRepo{DB: db} }

const workOrderColumns = "id, job_order_id, contractor_id, proposal, proposed_cost, estimated_days, status, created_at"

// Create inserts a PENDING application.  The (job_order_id, contractor_id)
// unique constraint turns a second application into ErrDuplicate.
func (r *WorkOrderRepo) Create(ctx context.Context, w *model.WorkOrder) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO work_orders (job_order_id, contractor_id, proposal, proposed_cost, estimated_days, status) VALUES (?,?,?,?,?,?)",
		w.JobOrderID, w.ContractorID, w.Proposal, w.ProposedCost, w.EstimatedDays, model.WorkOrderPending)
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
	w.ID = uint64(id)
	return r.DB.QueryRowContext(ctx,
		"SELECT status, created_at FROM work_orders WHERE id=?", w.ID).Scan(&w.Status, &w.CreatedAt)
}

// GetByID fetches a work order by id.
func (r *WorkOrderRepo) GetByID(ctx context.Context, id uint64) (*model.WorkOrder, error) {
	var w model.WorkOrder
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+workOrderColumns+" FROM work_orders WHERE id=? LIMIT 1", id).
		Scan(&w.ID, &w.JobOrderID, &w.ContractorID, &w.Proposal, &w.ProposedCost, &w.EstimatedDays, &w.Status, &w.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// GetByIDAndContractor fetches a work order only if the contractor owns it.
func (r *WorkOrderRepo) GetByIDAndContractor(ctx context.Context, id, contractorID uint64) (*model.WorkOrder, error) {
	w, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if w.ContractorID != contractorID {
		return nil, ErrNotFound
	}
	return w, nil
}

// ListByContractor returns a contractor's applications, newest first.
func (r *WorkOrderRepo) ListByContractor(ctx context.Context, contractorID uint64) ([]model.WorkOrder, error) {
	return r.list(ctx,
		"SELECT "+workOrderColumns+" FROM work_orders WHERE contractor_id=? ORDER BY created_at DESC", contractorID)
}

// ListByJobOrder returns all applications on a job order.
func (r *WorkOrderRepo) ListByJobOrder(ctx context.Context, jobOrderID uint64) ([]model.WorkOrder, error) {
	return r.list(ctx,
		"SELECT "+workOrderColumns+" FROM work_orders WHERE job_order_id=? ORDER BY created_at DESC", jobOrderID)
}

// UpdateStatus moves a PENDING application to ACCEPTED or REJECTED.  Zero
// rows affected means the record is missing or already decided.
func (r *WorkOrderRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE work_orders SET status=? WHERE id=? AND status=?",
		status, id, model.WorkOrderPending)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// RejectOtherPending rejects every other PENDING application on a job order
// in one statement.  Runs after an acceptance so losing applicants are
// resolved immediately.
func (r *WorkOrderRepo) RejectOtherPending(ctx context.Context, jobOrderID, keepID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE work_orders SET status=? WHERE job_order_id=? AND id<>? AND status=?",
		model.WorkOrderRejected, jobOrderID, keepID, model.WorkOrderPending)
	return err
}

func (r *WorkOrderRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.WorkOrder, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []model.WorkOrder{}
	for rows.Next() {
		var w model.WorkOrder
		if err := rows.Scan(&w.ID, &w.JobOrderID, &w.ContractorID, &w.Proposal, &w.ProposedCost, &w.EstimatedDays, &w.Status, &w.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, w)
	}
	return items, rows.Err()
}

package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/workodr/marketplace-api/internal/model"
)

// JobOrderRepo encapsulates database queries for job orders.  Ownership is
// enforced at the query level: mutating methods are scoped by agent_id so a
// foreign record behaves exactly like a missing one.
type JobOrderRepo struct{ DB *sql.DB }

func NewJobOrderRepo(db *sql.DB) *JobOrderRepo { return &JobOrderRepo{DB: db} }

const jobOrderColumns = "id, agent_id, title, description, category, status, created_at, updated_at"

// Create inserts a new OPEN job order and populates the generated fields.
func (r *JobOrderRepo) Create(ctx context.Context, j *model.JobOrder) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO job_orders (agent_id, title, description, category, status) VALUES (?,?,?,?,?)",
		j.AgentID, j.Title, j.Description, j.Category, model.JobOrderOpen)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	j.ID = uint64(id)
	return r.DB.QueryRowContext(ctx,
		"SELECT status, created_at, updated_at FROM job_orders WHERE id=?",
		j.ID).Scan(&j.Status, &j.CreatedAt, &j.UpdatedAt)
}

// GetByID fetches a job order regardless of owner.
func (r *JobOrderRepo) GetByID(ctx context.Context, id uint64) (*model.JobOrder, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+jobOrderColumns+" FROM job_orders WHERE id=? LIMIT 1", id))
}

// GetByIDAndAgent fetches a job order only if the agent owns it.
func (r *JobOrderRepo) GetByIDAndAgent(ctx context.Context, id, agentID uint64) (*model.JobOrder, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+jobOrderColumns+" FROM job_orders WHERE id=? AND agent_id=? LIMIT 1", id, agentID))
}

// ListByAgent returns all job orders posted by an agent, newest first.
func (r *JobOrderRepo) ListByAgent(ctx context.Context, agentID uint64) ([]model.JobOrder, error) {
	return r.list(ctx,
		"SELECT "+jobOrderColumns+" FROM job_orders WHERE agent_id=? ORDER BY created_at DESC", agentID)
}

// ListOpen returns all OPEN job orders for contractors to browse.
func (r *JobOrderRepo) ListOpen(ctx context.Context) ([]model.JobOrder, error) {
	return r.list(ctx,
		"SELECT "+jobOrderColumns+" FROM job_orders WHERE status=? ORDER BY created_at DESC", model.JobOrderOpen)
}

// Update rewrites the mutable fields of an agent's own job order.  Zero rows
// affected means the record is missing or foreign; both map to ErrNotFound.
func (r *JobOrderRepo) Update(ctx context.Context, j *model.JobOrder) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE job_orders SET title=?, description=?, category=?, status=? WHERE id=? AND agent_id=?",
		j.Title, j.Description, j.Category, j.Status, j.ID, j.AgentID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetByIDAndAgent(ctx, j.ID, j.AgentID); err != nil {
			return ErrNotFound
		}
	}
	return nil
}

// Delete removes an agent's own job order.
func (r *JobOrderRepo) Delete(ctx context.Context, id, agentID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM job_orders WHERE id=? AND agent_id=?", id, agentID)
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

func (r *JobOrderRepo) scanOne(row *sql.Row) (*model.JobOrder, error) {
	var j model.JobOrder
	err := row.Scan(&j.ID, &j.AgentID, &j.Title, &j.Description, &j.Category, &j.Status, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *JobOrderRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.JobOrder, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []model.JobOrder{}
	for rows.Next() {
		var j model.JobOrder
		if err := rows.Scan(&j.ID, &j.AgentID, &j.Title, &j.Description, &j.Category, &j.Status, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, j)
	}
	return items, rows.Err()
}

package repository

import (
	"context"
	"database/sql"

	"github.com/workodr/marketplace-api/internal/model"
)

// InvoiceRepo persists invoices billed against accepted work orders.
type InvoiceRepo struct{ DB *sql.DB }

func NewInvoiceRepo(db *sql.DB) *InvoiceRepo { return &InvoiceRepo{DB: db} }

const invoiceColumns = "id, work_order_id, contractor_id, amount, status, invoice_date, created_at"

// Create inserts a PENDING invoice.
func (r *InvoiceRepo) Create(ctx context.Context, inv *model.Invoice) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO invoices (work_order_id, contractor_id, amount, status, invoice_date) VALUES (?,?,?,?,?)",
		inv.WorkOrderID, inv.ContractorID, inv.Amount, model.InvoicePending, inv.InvoiceDate)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	inv.ID = uint64(id)
	return r.DB.QueryRowContext(ctx,
		"SELECT status, created_at FROM invoices WHERE id=?", inv.ID).Scan(&inv.Status, &inv.CreatedAt)
}

// ListByContractor returns invoices billed by a contractor, newest first.
func (r *InvoiceRepo) ListByContractor(ctx context.Context, contractorID uint64) ([]model.Invoice, error) {
	return r.list(ctx,
		"SELECT "+invoiceColumns+" FROM invoices WHERE contractor_id=? ORDER BY created_at DESC", contractorID)
}

// ListByAgent returns invoices billed against any of an agent's job orders,
// resolved through the work order and job order joins.
func (r *InvoiceRepo) ListByAgent(ctx context.Context, agentID uint64) ([]model.Invoice, error) {
	return r.list(ctx,
		`SELECT inv.id, inv.work_order_id, inv.contractor_id, inv.amount, inv.status, inv.invoice_date, inv.created_at
		 FROM invoices inv
		 JOIN work_orders wo ON wo.id = inv.work_order_id
		 JOIN job_orders jo ON jo.id = wo.job_order_id
		 WHERE jo.agent_id=? ORDER BY inv.created_at DESC`, agentID)
}

func (r *InvoiceRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.Invoice, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []model.Invoice{}
	for rows.Next() {
		var inv model.Invoice
		if err := rows.Scan(&inv.ID, &inv.WorkOrderID, &inv.ContractorID, &inv.Amount, &inv.Status, &inv.InvoiceDate, &inv.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, inv)
	}
	return items, rows.Err()
}

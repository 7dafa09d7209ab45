package model

import "time"

// Job order statuses.  Plain enum values; no transition table is enforced
// beyond validation at the handler edge.
const (
	JobOrderOpen      = "OPEN"
	JobOrderAssigned  = "ASSIGNED"
	JobOrderCompleted = "COMPLETED"
	JobOrderCancelled = "CANCELLED"
)

// Work order (application) statuses.
const (
	WorkOrderPending  = "PENDING"
	WorkOrderAccepted = "ACCEPTED"
	WorkOrderRejected = "REJECTED"
)

// Invoice statuses.
const (
	InvoicePending = "PENDING"
	InvoicePaid    = "PAID"
)

// JobOrder is a job posted by an agent.
type JobOrder struct {
	ID          uint64    `json:"id"`
	AgentID     uint64    `json:"agent_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// WorkOrder is a contractor's application against a job order.
type WorkOrder struct {
	ID            uint64    `json:"id"`
	JobOrderID    uint64    `json:"job_order_id"`
	ContractorID  uint64    `json:"contractor_id"`
	Proposal      string    `json:"proposal"`
	ProposedCost  float64   `json:"proposed_cost"`
	EstimatedDays int       `json:"estimated_days"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// JobAssignment links an accepted work order to its job order and contractor.
// Created when an agent accepts an application; at most one per job order.
type JobAssignment struct {
	ID           uint64    `json:"id"`
	JobOrderID   uint64    `json:"job_order_id"`
	WorkOrderID  uint64    `json:"work_order_id"`
	ContractorID uint64    `json:"contractor_id"`
	AssignedAt   time.Time `json:"assigned_at"`
}

// WorkPlan is the contractor's execution plan for an assignment.  One plan
// per assignment; the dates are optional.
type WorkPlan struct {
	ID              uint64     `json:"id"`
	JobAssignmentID uint64     `json:"job_assignment_id"`
	PlanDetails     string     `json:"plan_details"`
	StartDate       *time.Time `json:"start_date"`
	ExpectedEndDate *time.Time `json:"expected_end_date"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Invoice is billed by a contractor against an accepted work order.
type Invoice struct {
	ID           uint64    `json:"id"`
	WorkOrderID  uint64    `json:"work_order_id"`
	ContractorID uint64    `json:"contractor_id"`
	Amount       float64   `json:"amount"`
	Status       string    `json:"status"`
	InvoiceDate  time.Time `json:"invoice_date"`
	CreatedAt    time.Time `json:"created_at"`
}

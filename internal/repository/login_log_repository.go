package repository

import (
	"context"
	"database/sql"
)

// Login attempt outcomes as stored in login_logs.status.
const (
	LoginSuccess = "SUCCESS"
	LoginFailure = "FAILURE"
)

// LoginLogRepo writes audit rows for login attempts and password changes.
// All writes are best-effort: callers log failures and carry on, a full
// audit table must never block a login.
type LoginLogRepo struct{ DB *sql.DB }

func NewLoginLogRepo(db *sql.DB) *LoginLogRepo { return &LoginLogRepo{DB: db} }

// LogAttempt records one login attempt.  userID is nil when the identifier
// did not resolve to an account.
func (r *LoginLogRepo) LogAttempt(ctx context.Context, userID *uint64, provider, status, ip, userAgent, failureReason string) error {
	var reason interface{}
	if failureReason != "" {
		reason = failureReason
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO login_logs (user_id, provider, status, ip_address, user_agent, failure_reason) VALUES (?,?,?,?,?,?)",
		userID, provider, status, ip, userAgent, reason)
	return err
}

// LogPasswordChange records a completed password change or reset.
func (r *LoginLogRepo) LogPasswordChange(ctx context.Context, userID uint64, ip, userAgent string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO password_change_logs (user_id, ip_address, user_agent) VALUES (?,?,?)",
		userID, ip, userAgent)
	return err
}

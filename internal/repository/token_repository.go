package repository

import (
	"context"
	"database/sql"
	"time"
)

// TokenRepo is the session ledger: it persists fingerprints of issued access
// tokens ('jwt_tokens') and password-reset tokens
// ('password_reset_tokens').  The ledger is the sole source of truth for
// revocation; a token's own signature and expiry are necessary but not
// sufficient.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Record inserts a ledger row for a freshly issued access token.  The
// token_hash column carries a unique constraint; a collision is surfaced as
// an error rather than silently overwritten.
func (r *TokenRepo) Record(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO jwt_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp)
	return err
}

// IsValid reports whether a fingerprint belongs to a live session.  Miss,
// expiry and revocation all produce the same false; the single query leaves
// no race window beyond the store's read-committed isolation.
func (r *TokenRepo) IsValid(ctx context.Context, tokenHash string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM jwt_tokens WHERE token_hash=? AND revoked=FALSE AND expires_at>NOW() LIMIT 1",
		tokenHash).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Revoke marks a token as revoked.  Idempotent: revoking an already-revoked
// or unknown fingerprint affects zero rows and is a no-op success.
func (r *TokenRepo) Revoke(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE jwt_tokens SET revoked=TRUE, revoked_at=NOW() WHERE token_hash=? AND revoked=FALSE",
		tokenHash)
	return err
}

// RevokeAllForUserExcept revokes every live token of a user other than the
// one presented.  Used after a password change so the current session
// survives while all others die.
func (r *TokenRepo) RevokeAllForUserExcept(ctx context.Context, userID uint64, keepHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE jwt_tokens SET revoked=TRUE, revoked_at=NOW() WHERE user_id=? AND token_hash<>? AND revoked=FALSE",
		userID, keepHash)
	return err
}

// RecordReset inserts a password-reset token fingerprint with its expiry.
func (r *TokenRepo) RecordReset(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO password_reset_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp)
	return err
}

// ConsumeReset atomically claims a reset token and returns its owner.  The
// validity check and the used=TRUE flip are one conditional UPDATE verified
// by affected-row count, so concurrent consumers of the same token see
// exactly one success.  Returns ErrResetTokenInvalid on unknown, expired or
// already-used tokens.
func (r *TokenRepo) ConsumeReset(ctx context.Context, tokenHash string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE password_reset_tokens SET used=TRUE WHERE token_hash=? AND used=FALSE AND expires_at>NOW()",
		tokenHash)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrResetTokenInvalid
	}
	var userID uint64
	err = r.DB.QueryRowContext(ctx,
		"SELECT user_id FROM password_reset_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&userID)
	if err != nil {
		return 0, err
	}
	return userID, nil
}

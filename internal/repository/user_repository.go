package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/workodr/marketplace-api/internal/model"
)

// UserRepo persists users and their per-provider auth methods.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, name, email, phone, role, is_active, email_verified, created_at"

func scanUser(row *sql.Row) (model.User, error) {
	var (
		u     model.User
		phone sql.NullString
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &phone, &u.Role, &u.IsActive, &u.EmailVerified, &u.CreatedAt)
	u.Phone = phone.String
	return u, err
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// CreateWithPassword inserts a user together with its PASSWORD auth method
// in one transaction, so a failed method insert never leaves a half-created
// account.  Returns ErrEmailExists on a duplicate email.
func (r *UserRepo) CreateWithPassword(ctx context.Context, name, email, phone, role, passwordHash string) (uint64, error) {
	return r.createWithMethod(ctx, name, email, phone, role, model.ProviderPassword, &passwordHash, nil)
}

// CreateFederated inserts a user together with a federated auth method row
// carrying the provider's user id.  Same transactional guarantee as
// CreateWithPassword.
func (r *UserRepo) CreateFederated(ctx context.Context, name, email, role, provider, providerUserID string) (uint64, error) {
	return r.createWithMethod(ctx, name, email, "", role, provider, nil, &providerUserID)
}

func (r *UserRepo) createWithMethod(ctx context.Context, name, email, phone, role, provider string, passwordHash, providerUserID *string) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var phoneVal interface{}
	if phone != "" {
		phoneVal = phone
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO users (name, email, phone, role) VALUES (?,?,?,?)",
		name, email, phoneVal, role)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO user_auth_methods (user_id, provider, password_hash, provider_user_id) VALUES (?,?,?,?)",
		uint64(id), provider, passwordHash, providerUserID); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetAuthMethod fetches the auth method row for (user, provider).  Returns
// ErrMethodNotFound when the user never configured that provider.
func (r *UserRepo) GetAuthMethod(ctx context.Context, userID uint64, provider string) (model.AuthMethod, error) {
	var m model.AuthMethod
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, provider, password_hash, provider_user_id FROM user_auth_methods WHERE user_id=? AND provider=? LIMIT 1",
		userID, provider).Scan(&m.ID, &m.UserID, &m.Provider, &m.PasswordHash, &m.ProviderUserID)
	if err == sql.ErrNoRows {
		return m, ErrMethodNotFound
	}
	return m, err
}

// AttachMethod adds an auth method to an existing user (account linking, e.g.
// first Google login on a password account).
func (r *UserRepo) AttachMethod(ctx context.Context, userID uint64, provider string, providerUserID string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO user_auth_methods (user_id, provider, password_hash, provider_user_id) VALUES (?,?,NULL,?)",
		userID, provider, providerUserID)
	return err
}

// UpdatePasswordHash replaces the stored bcrypt hash of a user's PASSWORD
// method.
func (r *UserRepo) UpdatePasswordHash(ctx context.Context, userID uint64, hash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE user_auth_methods SET password_hash=? WHERE user_id=? AND provider=?",
		hash, userID, model.ProviderPassword)
	return err
}

// isDuplicate detects MySQL error 1062 (duplicate key).
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}

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

func newUserRepo(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewUserRepo(db), mock
}

func userRows(id uint64, email string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "email", "phone", "role", "is_active", "email_verified", "created_at"}).
		AddRow(id, "Ada", email, "555-0100", model.RoleAgent, true, false, time.Now().UTC())
}

func TestUserRepoGetByEmail(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectQuery("SELECT id, name, email, phone, role, is_active, email_verified, created_at FROM users WHERE email=").
		WithArgs("ada@example.com").
		WillReturnRows(userRows(3, "ada@example.com"))

	u, err := repo.GetByEmail(context.Background(), "  ADA@Example.COM ") // normalized before the query
	require.NoError(t, err)
	assert.Equal(t, uint64(3), u.ID)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoCreateWithPassword(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").
		WithArgs("Ada", "ada@example.com", "555-0100", model.RoleAgent).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec("INSERT INTO user_auth_methods").
		WithArgs(uint64(11), model.ProviderPassword, sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	id, err := repo.CreateWithPassword(context.Background(), "Ada", "ada@example.com", "555-0100", model.RoleAgent, "$2a$10$hash")
	require.NoError(t, err)
	assert.Equal(t, uint64(11), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoCreateDuplicateEmail(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'ada@example.com' for key 'users.email'"))
	mock.ExpectRollback()

	_, err := repo.CreateWithPassword(context.Background(), "Ada", "ada@example.com", "", model.RoleAgent, "$2a$10$hash")
	assert.ErrorIs(t, err, ErrEmailExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoCreateMethodInsertFailsRollsBack(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").
		WillReturnResult(sqlmock.NewResult(12, 1))
	mock.ExpectExec("INSERT INTO user_auth_methods").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := repo.CreateWithPassword(context.Background(), "Ada", "ada@example.com", "", model.RoleAgent, "$2a$10$hash")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoGetAuthMethod(t *testing.T) {
	repo, mock := newUserRepo(t)

	hash := "$2a$10$hash"
	mock.ExpectQuery("SELECT id, user_id, provider, password_hash, provider_user_id FROM user_auth_methods").
		WithArgs(uint64(3), model.ProviderPassword).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "provider", "password_hash", "provider_user_id"}).
			AddRow(1, 3, model.ProviderPassword, hash, nil))

	m, err := repo.GetAuthMethod(context.Background(), 3, model.ProviderPassword)
	require.NoError(t, err)
	require.NotNil(t, m.PasswordHash)
	assert.Equal(t, hash, *m.PasswordHash)

	mock.ExpectQuery("SELECT id, user_id, provider, password_hash, provider_user_id FROM user_auth_methods").
		WithArgs(uint64(3), model.ProviderGoogle).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "provider", "password_hash", "provider_user_id"}))

	_, err = repo.GetAuthMethod(context.Background(), 3, model.ProviderGoogle)
	assert.ErrorIs(t, err, ErrMethodNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

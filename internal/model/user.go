package model

import "time"

// Role names as stored in users.role and carried in token claims.
const (
	RoleAgent      = "AGENT"
	RoleContractor = "CONTRACTOR"
	RoleAdmin      = "ADMIN"
)

// Auth method providers as stored in user_auth_methods.provider.
const (
	ProviderPassword = "PASSWORD"
	ProviderGoogle   = "GOOGLE"
)

// User represents a row in the `users` table.  Users are never hard-deleted;
// deactivation flips IsActive.  JSON tags cover the subset returned by the
// API, password material never lives on this struct.
type User struct {
	ID            uint64    `json:"id"`             // users.id
	Name          string    `json:"name"`           // users.name
	Email         string    `json:"email"`          // users.email (unique)
	Phone         string    `json:"phone"`          // users.phone
	Role          string    `json:"role"`           // users.role (AGENT | CONTRACTOR | ADMIN)
	IsActive      bool      `json:"is_active"`      // users.is_active
	EmailVerified bool      `json:"email_verified"` // users.email_verified
	CreatedAt     time.Time `json:"created_at"`     // users.created_at
}

// AuthMethod represents a row in `user_auth_methods`.  A user holds at most
// one row per provider: PASSWORD rows carry the bcrypt hash, GOOGLE rows
// carry the federated identity's user id.
type AuthMethod struct {
	ID             uint64  // user_auth_methods.id
	UserID         uint64  // user_auth_methods.user_id
	Provider       string  // user_auth_methods.provider
	PasswordHash   *string // user_auth_methods.password_hash (nullable)
	ProviderUserID *string // user_auth_methods.provider_user_id (nullable)
}


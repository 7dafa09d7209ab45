// Package repository contains data access logic separated from HTTP
// handlers.  Sentinel errors defined here let handlers map failure scenarios
// to the right status code without string-matching SQL errors at the edge.
package repository

import "errors"

// ErrEmailExists is returned when registration collides with an existing
// email address.
var ErrEmailExists = errors.New("email already exists")

// ErrMethodNotFound is returned when a user has no auth method row for the
// requested provider (e.g. password login against a Google-only account).
var ErrMethodNotFound = errors.New("auth method not found")

// ErrResetTokenInvalid is returned when a password-reset token cannot be
// consumed: unknown, expired, or already used.  The three cases are
// deliberately indistinguishable to callers.
var ErrResetTokenInvalid = errors.New("invalid or expired reset token")

// ErrNotFound is the generic missing-record error for marketplace entities.
var ErrNotFound = errors.New("not found")

// ErrDuplicate signals a unique-constraint violation on insert, e.g. a
// contractor applying twice to the same job order.
var ErrDuplicate = errors.New("duplicate record")

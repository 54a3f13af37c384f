package users

import (
	"fmt"
	"time"

	"github.com/modular-admin/modular-admin/internal/platform/httpx"
)

// Collection is the docstore collection holding user accounts.
const Collection = "users"

// SystemCustomer is the namespace of system accounts; they belong to no
// customer.
const SystemCustomer = ""

var (
	// ErrNotFound indicates the user does not exist for the customer.
	ErrNotFound = fmt.Errorf("user %w", httpx.ErrNotFound)
	// ErrExists indicates the username is taken within the customer.
	ErrExists = fmt.Errorf("user already exists: %w", httpx.ErrDuplicate)
)

// User represents a stored user account.
type User struct {
	Customer     string    `json:"customer"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	Role         string    `json:"role"`
	IsSystem     bool      `json:"is_system"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Profile is the public form of a user; it never carries the password hash.
type Profile struct {
	Customer  string    `json:"customer"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Profile strips credentials from u.
func (u User) Profile() Profile {
	return Profile{Customer: u.Customer, Username: u.Username, Role: u.Role, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt}
}

// ListUsersRequest filters user listings. A non-empty Username describes one user.
type ListUsersRequest struct {
	CustomerID string `json:"customer_id" validate:"required"`
	Username   string `json:"username"`
	Limit      string `json:"limit"`
	NextToken  string `json:"next_token"`
}

// CreateUserRequest creates a user bound to an existing role.
type CreateUserRequest struct {
	CustomerID string `json:"customer_id" validate:"required"`
	Username   string `json:"username" validate:"required,max=128"`
	Password   string `json:"password" validate:"required,min=8,max=72"`
	Role       string `json:"role" validate:"required"`
}

// UpdateUserRequest changes the role of a user.
type UpdateUserRequest struct {
	CustomerID string `json:"customer_id" validate:"required"`
	Username   string `json:"username" validate:"required"`
	Role       string `json:"role" validate:"required"`
}

// DeleteUserRequest removes a user.
type DeleteUserRequest struct {
	CustomerID string `json:"customer_id" validate:"required"`
	Username   string `json:"username" validate:"required"`
}

// ResetPasswordRequest replaces a user's password.
type ResetPasswordRequest struct {
	CustomerID string `json:"customer_id" validate:"required"`
	Username   string `json:"username" validate:"required"`
	Password   string `json:"password" validate:"required,min=8,max=72"`
}

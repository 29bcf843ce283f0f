// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"errors"
)

// ErrUsernameTaken is returned when a user row would duplicate a username.
var ErrUsernameTaken = errors.New("username already exists")

// ErrUnknownUser is returned when a row references a user that does not exist.
var ErrUnknownUser = errors.New("unknown user")

// ErrNotFound is returned when an operation targets a row that does not exist.
var ErrNotFound = errors.New("not found")

// GuestUsername is the username of the shared guest account.
const GuestUsername = "guest"

// User represents an account. Passwords are stored and compared as entered.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"`
	IsGuest  bool   `json:"isGuest"`
}

// UserRepository defines the port for user persistence operations.
// Lookups return nil, nil when no row matches.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetGuest(ctx context.Context) (*User, error)
	Create(ctx context.Context, username, password string, guest bool) (int64, error)
	Update(ctx context.Context, u User) error
}

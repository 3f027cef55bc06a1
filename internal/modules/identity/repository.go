package identity

import "context"

// Repository defines data access for user accounts.
type Repository interface {
	// CreateUser persists a new account.
	CreateUser(ctx context.Context, u *User) error

	// GetUserByID retrieves an account by id, nil when absent.
	GetUserByID(ctx context.Context, id string) (*User, error)

	// GetUserByEmail retrieves an account through the unique email index,
	// nil when absent.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// UpdateUser upserts an account.
	UpdateUser(ctx context.Context, u *User) error

	// ListUsers returns every account.
	ListUsers(ctx context.Context) ([]*User, error)
}

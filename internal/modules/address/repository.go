package address

import "context"

// Repository defines data access for the address book.
type Repository interface {
	// Create persists a new address.
	Create(ctx context.Context, a *Address) error

	// GetByID retrieves an address by id, nil when absent.
	GetByID(ctx context.Context, id string) (*Address, error)

	// ListByUser returns a user's addresses through the userId index.
	ListByUser(ctx context.Context, userID string) ([]*Address, error)

	// Update upserts an address.
	Update(ctx context.Context, a *Address) error

	// Delete removes an address; deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
}

package audit

import "context"

// Repository defines data access for the audit log.
type Repository interface {
	// CreateEntry appends an entry.
	CreateEntry(ctx context.Context, e *Entry) error

	// ListEntries returns every entry in insertion order.
	ListEntries(ctx context.Context) ([]*Entry, error)

	// ListEntriesByEntity returns entries for one entity kind through the
	// entity index.
	ListEntriesByEntity(ctx context.Context, entity string) ([]*Entry, error)
}

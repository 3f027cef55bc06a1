// Package store provides the object-store gateway: a uniform CRUD and
// indexed-query surface over named collections of JSON documents, backed by
// an embedded local database with an in-memory degraded fallback.
package store

import (
	"context"
	"errors"
	"fmt"
)

// IndexSpec declares a secondary equality index over a named document field.
type IndexSpec struct {
	Name  string
	Field string
}

// CollectionSpec declares a named collection, its primary key field, and its
// secondary indexes. Declared once at startup; re-declaring is a no-op.
type CollectionSpec struct {
	Name       string
	PrimaryKey string
	Indexes    []IndexSpec
}

// Store is the gateway every domain repository talks to. Documents are
// marshalled to JSON on the way in; the primary key and indexed fields are
// extracted from the marshalled form (keyPath semantics). Absence is a
// false/empty result, never an error.
type Store interface {
	// DefineCollection registers a collection schema. Idempotent: calling it
	// for an existing collection is a no-op.
	DefineCollection(ctx context.Context, spec CollectionSpec) error

	// Add inserts a document. If the primary key field is empty a uuid is
	// assigned. Returns ErrDuplicateKey if the key already exists.
	Add(ctx context.Context, collection string, doc any) (string, error)

	// GetByID unmarshals the document with the given primary key into out.
	// Returns false when no such document exists.
	GetByID(ctx context.Context, collection, id string, out any) (bool, error)

	// GetAll unmarshals every document in the collection into out, which
	// must be a pointer to a slice. Insertion order is preserved.
	GetAll(ctx context.Context, collection string, out any) error

	// GetByIndex unmarshals every document whose indexed field equals value
	// into out (a pointer to a slice). Empty slice when none match.
	GetByIndex(ctx context.Context, collection, index string, value any, out any) error

	// Update upserts a document by its primary key, which must be set.
	Update(ctx context.Context, collection string, doc any) error

	// Delete removes a document by primary key. Deleting a missing id is
	// not an error.
	Delete(ctx context.Context, collection, id string) error

	// ClearCollection wipes every document in the collection. Gated to
	// development and explicit opt-in contexts by callers.
	ClearCollection(ctx context.Context, collection string) error

	// Flat key space, held apart from the indexed collections: sessions,
	// the guest cart, and the applied promo live here.
	GetValue(ctx context.Context, key string) ([]byte, bool, error)
	SetValue(ctx context.Context, key string, val []byte) error
	DeleteValue(ctx context.Context, key string) error
}

// ErrDuplicateKey is returned by Add when the primary key already exists.
var ErrDuplicateKey = errors.New("store: duplicate key")

// ErrUnknownCollection is returned when an operation names a collection that
// was never declared through DefineCollection.
var ErrUnknownCollection = errors.New("store: unknown collection")

// ErrMissingKey is returned by Update when the document carries no primary key.
var ErrMissingKey = errors.New("store: missing primary key")

// StorageError wraps a failure of the underlying engine, preserving the
// original cause. Domain services catch it at their boundary and either fall
// back or surface a typed failure; it never escapes raw to the UI layer.
type StorageError struct {
	Op         string
	Collection string
	Err        error
}

func (e *StorageError) Error() string {
	if e.Collection == "" {
		return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store: %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsStorageError reports whether err is (or wraps) an engine failure.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

func storageErr(op, collection string, err error) error {
	return &StorageError{Op: op, Collection: collection, Err: err}
}

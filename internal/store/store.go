// Package store defines the persistence boundary for appliance records.
// Implementations serialize every operation against one underlying store so
// callers may invoke them concurrently without coordinating, and every value
// crossing the boundary is an independent snapshot.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmacdonald/appliance-identifier/internal/appliance"
)

// ErrNotFound indicates the storage handle does not address any record,
// typically because it was already deleted or belongs to another store.
var ErrNotFound = errors.New("store: record not found")

// StorageError wraps a durable read or write failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("store: %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Store persists appliance records. All operations observe a total order per
// store instance: a save that completed before a list is guaranteed to be
// visible, and no caller ever observes a partially written record.
type Store interface {
	// ListAll returns every record ordered by capture time descending,
	// ties broken by most recent insertion first.
	ListAll(ctx context.Context) ([]appliance.Record, error)

	// Save assigns a fresh ID and storage handle, durably commits the
	// draft, and returns the persisted snapshot.
	Save(ctx context.Context, draft appliance.Draft) (appliance.Record, error)

	// Delete removes the record addressed by the handle. It returns
	// ErrNotFound if no record has that handle.
	Delete(ctx context.Context, handle appliance.Handle) error
}

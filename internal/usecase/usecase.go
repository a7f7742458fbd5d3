// Package usecase fixes the operation surface the presentation side is
// allowed to depend on. The types here are deliberately thin: they forward
// to the persistence port and propagate its results and errors unchanged.
package usecase

import (
	"context"

	"github.com/jmacdonald/appliance-identifier/internal/appliance"
	"github.com/jmacdonald/appliance-identifier/internal/store"
)

// ListAppliances retrieves all saved appliances, most recent first.
type ListAppliances struct {
	store store.Store
}

// NewListAppliances creates the list use case.
func NewListAppliances(s store.Store) *ListAppliances {
	return &ListAppliances{store: s}
}

// List returns every saved appliance record.
func (u *ListAppliances) List(ctx context.Context) ([]appliance.Record, error) {
	return u.store.ListAll(ctx)
}

// SaveAppliance persists identified appliances for historical tracking.
type SaveAppliance struct {
	store store.Store
}

// NewSaveAppliance creates the save use case.
func NewSaveAppliance(s store.Store) *SaveAppliance {
	return &SaveAppliance{store: s}
}

// Save persists the draft and returns the stored snapshot.
func (u *SaveAppliance) Save(ctx context.Context, draft appliance.Draft) (appliance.Record, error) {
	return u.store.Save(ctx, draft)
}

// DeleteAppliance removes appliances from storage.
type DeleteAppliance struct {
	store store.Store
}

// NewDeleteAppliance creates the delete use case.
func NewDeleteAppliance(s store.Store) *DeleteAppliance {
	return &DeleteAppliance{store: s}
}

// Delete removes the record addressed by the handle.
func (u *DeleteAppliance) Delete(ctx context.Context, handle appliance.Handle) error {
	return u.store.Delete(ctx, handle)
}

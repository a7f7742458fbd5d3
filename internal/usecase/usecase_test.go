package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmacdonald/appliance-identifier/internal/appliance"
	"github.com/jmacdonald/appliance-identifier/internal/store"
	"github.com/jmacdonald/appliance-identifier/internal/usecase"
)

// fakeStore records calls and returns scripted results.
type fakeStore struct {
	records []appliance.Record
	saved   []appliance.Draft
	deleted []appliance.Handle
	err     error
}

func (s *fakeStore) ListAll(ctx context.Context) ([]appliance.Record, error) {
	return s.records, s.err
}

func (s *fakeStore) Save(ctx context.Context, draft appliance.Draft) (appliance.Record, error) {
	if s.err != nil {
		return appliance.Record{}, s.err
	}
	s.saved = append(s.saved, draft)
	return appliance.Record{
		ID:         uuid.New(),
		Handle:     appliance.Handle("h-1"),
		Name:       draft.Name,
		CapturedAt: draft.CapturedAt,
	}, nil
}

func (s *fakeStore) Delete(ctx context.Context, handle appliance.Handle) error {
	if s.err != nil {
		return s.err
	}
	s.deleted = append(s.deleted, handle)
	return nil
}

func TestListForwardsToStore(t *testing.T) {
	fs := &fakeStore{records: []appliance.Record{{Name: "lamp"}, {Name: "fan"}}}
	uc := usecase.NewListAppliances(fs)

	records, err := uc.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 2 || records[0].Name != "lamp" {
		t.Errorf("Expected store records unchanged, got %+v", records)
	}
}

func TestSaveForwardsToStore(t *testing.T) {
	fs := &fakeStore{}
	uc := usecase.NewSaveAppliance(fs)

	draft := appliance.Draft{Name: "toaster", CapturedAt: time.Now()}
	record, err := uc.Save(context.Background(), draft)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if record.Name != "toaster" {
		t.Errorf("Expected record name 'toaster', got '%s'", record.Name)
	}
	if len(fs.saved) != 1 {
		t.Fatalf("Expected 1 save call, got %d", len(fs.saved))
	}
}

func TestDeleteForwardsToStore(t *testing.T) {
	fs := &fakeStore{}
	uc := usecase.NewDeleteAppliance(fs)

	if err := uc.Delete(context.Background(), appliance.Handle("h-9")); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(fs.deleted) != 1 || fs.deleted[0] != appliance.Handle("h-9") {
		t.Errorf("Expected delete of h-9, got %v", fs.deleted)
	}
}

func TestErrorsPropagateUnchanged(t *testing.T) {
	fs := &fakeStore{err: store.ErrNotFound}

	if err := usecase.NewDeleteAppliance(fs).Delete(context.Background(), "h-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound unchanged, got %v", err)
	}
	if _, err := usecase.NewListAppliances(fs).List(context.Background()); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound unchanged, got %v", err)
	}
	if _, err := usecase.NewSaveAppliance(fs).Save(context.Background(), appliance.Draft{}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound unchanged, got %v", err)
	}
}

// Package filestore implements the record store as a single-writer actor
// over a JSON file. One dedicated goroutine owns all state; callers talk to
// it through a request channel, so concurrent saves, deletes, and lists are
// serialized without locks and never observe torn state. Every mutation is
// committed by writing a temp file and renaming it over the store file, so a
// crash mid-write leaves the previous contents intact.
package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmacdonald/appliance-identifier/internal/appliance"
	"github.com/jmacdonald/appliance-identifier/internal/store"
	"go.uber.org/zap"
)

// FileStore is a durable appliance record store backed by a single JSON
// file. It satisfies store.Store.
type FileStore struct {
	ops       chan func(*state)
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	logger    *zap.Logger
}

// state is owned exclusively by the actor goroutine.
type state struct {
	path    string
	records []persistedRecord
	nextSeq uint64
}

// persistedRecord is the on-disk representation of one record. Seq is the
// insertion counter used to break capture-time ties deterministically.
type persistedRecord struct {
	ID               uuid.UUID `json:"id"`
	Handle           string    `json:"handle"`
	Seq              uint64    `json:"seq"`
	Name             string    `json:"name"`
	Category         string    `json:"category"`
	EstimatedWattage float64   `json:"estimated_wattage"`
	Confidence       float64   `json:"confidence"`
	CapturedAt       time.Time `json:"captured_at"`
	ImageData        []byte    `json:"image_data,omitempty"`
}

type storeFile struct {
	Records []persistedRecord `json:"records"`
}

// Open loads (or creates) the store file at path and starts the actor.
func Open(path string, logger *zap.Logger) (*FileStore, error) {
	st := &state{path: path, nextSeq: 1}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var f storeFile
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, &store.StorageError{Op: "open", Err: fmt.Errorf("corrupt store file %s: %w", path, err)}
		}
		st.records = f.Records
		for _, r := range f.Records {
			if r.Seq >= st.nextSeq {
				st.nextSeq = r.Seq + 1
			}
		}
	case os.IsNotExist(err):
		// Fresh store; the file is created on first save.
	default:
		return nil, &store.StorageError{Op: "open", Err: err}
	}

	fs := &FileStore{
		ops:    make(chan func(*state)),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
		logger: logger,
	}

	go fs.run(st)

	logger.Info("file store opened",
		zap.String("path", path),
		zap.Int("records", len(st.records)),
	)

	return fs, nil
}

// run is the actor loop. It is the only goroutine that touches state.
func (fs *FileStore) run(st *state) {
	defer close(fs.done)
	for {
		select {
		case <-fs.quit:
			return
		case op := <-fs.ops:
			op(st)
		}
	}
}

// Close stops the actor. In-flight operations finish first; operations
// submitted after Close fail with a StorageError.
func (fs *FileStore) Close() error {
	fs.closeOnce.Do(func() {
		close(fs.quit)
	})
	<-fs.done
	fs.logger.Info("file store closed")
	return nil
}

// submit runs op on the actor goroutine, honoring context cancellation
// while waiting for the queue.
func (fs *FileStore) submit(ctx context.Context, op func(*state)) error {
	select {
	case fs.ops <- op:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-fs.quit:
		return &store.StorageError{Op: "submit", Err: fmt.Errorf("store is closed")}
	}
}

// ListAll returns an independent snapshot of every record, capture time
// descending, most recently inserted first on ties.
func (fs *FileStore) ListAll(ctx context.Context) ([]appliance.Record, error) {
	reply := make(chan []appliance.Record, 1)

	err := fs.submit(ctx, func(st *state) {
		ordered := make([]persistedRecord, len(st.records))
		copy(ordered, st.records)
		sort.Slice(ordered, func(i, j int) bool {
			if !ordered[i].CapturedAt.Equal(ordered[j].CapturedAt) {
				return ordered[i].CapturedAt.After(ordered[j].CapturedAt)
			}
			return ordered[i].Seq > ordered[j].Seq
		})

		records := make([]appliance.Record, 0, len(ordered))
		for _, r := range ordered {
			records = append(records, r.snapshot())
		}
		reply <- records
	})
	if err != nil {
		return nil, err
	}

	select {
	case records := <-reply:
		return records, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Save assigns a fresh ID and handle, commits the record to disk, and
// returns the persisted snapshot. The in-memory state is rolled back if the
// disk commit fails, so a failed save is never observable.
func (fs *FileStore) Save(ctx context.Context, draft appliance.Draft) (appliance.Record, error) {
	type saveReply struct {
		record appliance.Record
		err    error
	}
	reply := make(chan saveReply, 1)

	err := fs.submit(ctx, func(st *state) {
		record := persistedRecord{
			ID:               uuid.New(),
			Handle:           uuid.NewString(),
			Seq:              st.nextSeq,
			Name:             draft.Name,
			Category:         draft.Category,
			EstimatedWattage: draft.EstimatedWattage,
			Confidence:       draft.Confidence,
			CapturedAt:       draft.CapturedAt,
			ImageData:        cloneBytes(draft.ImageData),
		}

		st.records = append(st.records, record)
		if err := persist(st); err != nil {
			st.records = st.records[:len(st.records)-1]
			reply <- saveReply{err: &store.StorageError{Op: "save", Err: err}}
			return
		}
		st.nextSeq++

		reply <- saveReply{record: record.snapshot()}
	})
	if err != nil {
		return appliance.Record{}, err
	}

	select {
	case r := <-reply:
		return r.record, r.err
	case <-ctx.Done():
		return appliance.Record{}, ctx.Err()
	}
}

// Delete removes the record addressed by the handle.
func (fs *FileStore) Delete(ctx context.Context, handle appliance.Handle) error {
	reply := make(chan error, 1)

	err := fs.submit(ctx, func(st *state) {
		idx := -1
		for i, r := range st.records {
			if r.Handle == string(handle) {
				idx = i
				break
			}
		}
		if idx < 0 {
			reply <- store.ErrNotFound
			return
		}

		removed := st.records[idx]
		st.records = append(st.records[:idx:idx], st.records[idx+1:]...)
		if err := persist(st); err != nil {
			rolled := make([]persistedRecord, 0, len(st.records)+1)
			rolled = append(rolled, st.records[:idx]...)
			rolled = append(rolled, removed)
			rolled = append(rolled, st.records[idx:]...)
			st.records = rolled
			reply <- &store.StorageError{Op: "delete", Err: err}
			return
		}

		reply <- nil
	})
	if err != nil {
		return err
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// persist writes the full record set to a temp file and renames it over the
// store file. Rename is atomic on POSIX filesystems, so readers of the file
// see either the old contents or the new, never a partial write.
func persist(st *state) error {
	data, err := json.Marshal(storeFile{Records: st.records})
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}

	dir := filepath.Dir(st.path)
	tmp, err := os.CreateTemp(dir, ".appliances-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, st.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to commit store file: %w", err)
	}

	return nil
}

// snapshot converts the stored form into an independent caller-facing copy.
func (r persistedRecord) snapshot() appliance.Record {
	return appliance.Record{
		ID:               r.ID,
		Handle:           appliance.Handle(r.Handle),
		Name:             r.Name,
		Category:         r.Category,
		EstimatedWattage: r.EstimatedWattage,
		Confidence:       r.Confidence,
		CapturedAt:       r.CapturedAt,
		ImageData:        cloneBytes(r.ImageData),
	}
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

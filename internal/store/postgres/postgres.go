// Package postgres implements the record store on PostgreSQL for
// deployments that share the household energy database. Single-writer
// semantics come from the database itself: every save runs in its own
// transaction and every read sees a consistent snapshot.
//
// Expected table:
//
//	CREATE TABLE appliance_records (
//	    seq               BIGSERIAL PRIMARY KEY,
//	    id                UUID NOT NULL UNIQUE,
//	    name              TEXT NOT NULL,
//	    category          TEXT NOT NULL,
//	    estimated_wattage DOUBLE PRECISION NOT NULL,
//	    confidence        DOUBLE PRECISION NOT NULL,
//	    captured_at       TIMESTAMPTZ NOT NULL,
//	    image_data        BYTEA
//	);
package postgres

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmacdonald/appliance-identifier/internal/appliance"
	"github.com/jmacdonald/appliance-identifier/internal/store"
)

// Store is a PostgreSQL-backed appliance record store. The storage handle
// exposed to callers is the row's serial key rendered as a decimal string.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a store over the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// ListAll returns every record, capture time descending, most recently
// inserted first on ties.
func (s *Store) ListAll(ctx context.Context) ([]appliance.Record, error) {
	query := `
		SELECT seq, id, name, category, estimated_wattage, confidence, captured_at, image_data
		FROM appliance_records
		ORDER BY captured_at DESC, seq DESC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, &store.StorageError{Op: "list", Err: fmt.Errorf("failed to query records: %w", err)}
	}
	defer rows.Close()

	var records []appliance.Record
	for rows.Next() {
		var (
			seq    int64
			record appliance.Record
		)
		if err := rows.Scan(
			&seq,
			&record.ID,
			&record.Name,
			&record.Category,
			&record.EstimatedWattage,
			&record.Confidence,
			&record.CapturedAt,
			&record.ImageData,
		); err != nil {
			return nil, &store.StorageError{Op: "list", Err: fmt.Errorf("failed to scan record: %w", err)}
		}
		record.Handle = handleFromSeq(seq)
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, &store.StorageError{Op: "list", Err: fmt.Errorf("rows iteration error: %w", err)}
	}

	return records, nil
}

// Save commits the draft in a transaction and returns the persisted
// snapshot with its assigned ID and handle.
func (s *Store) Save(ctx context.Context, draft appliance.Draft) (appliance.Record, error) {
	query := `
		INSERT INTO appliance_records (id, name, category, estimated_wattage, confidence, captured_at, image_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING seq
	`

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return appliance.Record{}, &store.StorageError{Op: "save", Err: fmt.Errorf("failed to begin transaction: %w", err)}
	}
	defer tx.Rollback(ctx)

	id := uuid.New()
	var seq int64
	err = tx.QueryRow(ctx, query,
		id,
		draft.Name,
		draft.Category,
		draft.EstimatedWattage,
		draft.Confidence,
		draft.CapturedAt,
		draft.ImageData,
	).Scan(&seq)
	if err != nil {
		return appliance.Record{}, &store.StorageError{Op: "save", Err: fmt.Errorf("failed to insert record: %w", err)}
	}

	if err := tx.Commit(ctx); err != nil {
		return appliance.Record{}, &store.StorageError{Op: "save", Err: fmt.Errorf("failed to commit record: %w", err)}
	}

	return appliance.Record{
		ID:               id,
		Handle:           handleFromSeq(seq),
		Name:             draft.Name,
		Category:         draft.Category,
		EstimatedWattage: draft.EstimatedWattage,
		Confidence:       draft.Confidence,
		CapturedAt:       draft.CapturedAt,
		ImageData:        cloneBytes(draft.ImageData),
	}, nil
}

// Delete removes the record addressed by the handle. Handles that do not
// parse, or that address no row, report ErrNotFound.
func (s *Store) Delete(ctx context.Context, handle appliance.Handle) error {
	seq, err := strconv.ParseInt(string(handle), 10, 64)
	if err != nil {
		return store.ErrNotFound
	}

	tag, err := s.pool.Exec(ctx, `DELETE FROM appliance_records WHERE seq = $1`, seq)
	if err != nil {
		return &store.StorageError{Op: "delete", Err: fmt.Errorf("failed to delete record: %w", err)}
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}

	return nil
}

func handleFromSeq(seq int64) appliance.Handle {
	return appliance.Handle(strconv.FormatInt(seq, 10))
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

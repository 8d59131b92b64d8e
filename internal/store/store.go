package store

import (
	"context"

	"github.com/emrgen/ingest/internal/model"
)

type Store interface {
	RecordStore
	Transaction(ctx context.Context, f func(tx Store) error) error
	Migrate() error
}

// RecordStore is an append-only, insertion-ordered collection of records.
type RecordStore interface {
	// AppendRecord adds a record to the end of the library.
	AppendRecord(ctx context.Context, record *model.Record) error
	// GetRecord retrieves a record by ID.
	GetRecord(ctx context.Context, id string) (*model.Record, error)
	// ListRecords retrieves all records in insertion order.
	ListRecords(ctx context.Context) ([]*model.Record, error)
	// ListRecordsByKind retrieves the records of one content kind in insertion order.
	ListRecordsByKind(ctx context.Context, kind model.Kind) ([]*model.Record, error)
	// ListVersions retrieves the version chain rooted at originalID, root first.
	ListVersions(ctx context.Context, originalID string) ([]*model.Record, error)
}

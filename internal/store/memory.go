package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/emrgen/ingest/internal/model"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps the library in process memory for the lifetime of the session.
type MemoryStore struct {
	mu      sync.RWMutex
	txMu    sync.Mutex
	records []*model.Record
	index   map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		index: make(map[string]int),
	}
}

func (m *MemoryStore) AppendRecord(ctx context.Context, record *model.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.appendLocked(record)
}

func (m *MemoryStore) appendLocked(record *model.Record) error {
	if _, ok := m.index[record.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateRecord, record.ID)
	}

	stored := record.Clone()
	stored.Seq = uint64(len(m.records) + 1)
	record.Seq = stored.Seq
	m.index[stored.ID] = len(m.records)
	m.records = append(m.records, stored)

	return nil
}

func (m *MemoryStore) GetRecord(ctx context.Context, id string) (*model.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}

	return m.records[i].Clone(), nil
}

func (m *MemoryStore) ListRecords(ctx context.Context) ([]*model.Record, error) {
	return m.filter(func(*model.Record) bool { return true }), nil
}

func (m *MemoryStore) ListRecordsByKind(ctx context.Context, kind model.Kind) ([]*model.Record, error) {
	return m.filter(func(r *model.Record) bool { return r.Kind == kind }), nil
}

func (m *MemoryStore) ListVersions(ctx context.Context, originalID string) ([]*model.Record, error) {
	return m.filter(func(r *model.Record) bool { return r.RootID() == originalID }), nil
}

func (m *MemoryStore) filter(keep func(*model.Record) bool) []*model.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*model.Record, 0, len(m.records))
	for _, r := range m.records {
		if keep(r) {
			out = append(out, r.Clone())
		}
	}

	return out
}

func (m *MemoryStore) Migrate() error {
	return nil
}

// Transaction stages the appends made through tx and commits them only when f succeeds.
// Transactions are serialized.
func (m *MemoryStore) Transaction(ctx context.Context, f func(tx Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	tx := &memoryTx{parent: m, staged: NewMemoryStore()}
	if err := f(tx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range tx.staged.records {
		if _, ok := m.index[r.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateRecord, r.ID)
		}
	}
	for i, r := range tx.staged.records {
		if err := m.appendLocked(r); err != nil {
			return err
		}
		tx.appended[i].Seq = r.Seq
	}

	return nil
}

// memoryTx reads through to the parent and stages appends.
type memoryTx struct {
	parent *MemoryStore
	staged *MemoryStore
	// appended holds the callers' records in staging order; they get their Seq on commit.
	appended []*model.Record
}

func (t *memoryTx) AppendRecord(ctx context.Context, record *model.Record) error {
	if _, err := t.parent.GetRecord(ctx, record.ID); err == nil {
		return fmt.Errorf("%w: %s", ErrDuplicateRecord, record.ID)
	}

	staged := record.Clone()
	if err := t.staged.AppendRecord(ctx, staged); err != nil {
		return err
	}
	t.appended = append(t.appended, record)

	return nil
}

func (t *memoryTx) GetRecord(ctx context.Context, id string) (*model.Record, error) {
	if r, err := t.staged.GetRecord(ctx, id); err == nil {
		return r, nil
	}

	return t.parent.GetRecord(ctx, id)
}

func (t *memoryTx) ListRecords(ctx context.Context) ([]*model.Record, error) {
	return t.merge(t.parent.ListRecords(ctx))
}

func (t *memoryTx) ListRecordsByKind(ctx context.Context, kind model.Kind) ([]*model.Record, error) {
	parent, err := t.parent.ListRecordsByKind(ctx, kind)
	if err != nil {
		return nil, err
	}
	staged, _ := t.staged.ListRecordsByKind(ctx, kind)

	return append(parent, staged...), nil
}

func (t *memoryTx) ListVersions(ctx context.Context, originalID string) ([]*model.Record, error) {
	parent, err := t.parent.ListVersions(ctx, originalID)
	if err != nil {
		return nil, err
	}
	staged, _ := t.staged.ListVersions(ctx, originalID)

	return append(parent, staged...), nil
}

func (t *memoryTx) merge(parent []*model.Record, err error) ([]*model.Record, error) {
	if err != nil {
		return nil, err
	}
	staged, _ := t.staged.ListRecords(context.Background())

	return append(parent, staged...), nil
}

func (t *memoryTx) Transaction(ctx context.Context, f func(tx Store) error) error {
	return f(t)
}

func (t *memoryTx) Migrate() error {
	return nil
}

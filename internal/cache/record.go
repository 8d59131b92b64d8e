package cache

import (
	"context"
	"errors"

	"github.com/emrgen/ingest/internal/model"
	"github.com/emrgen/ingest/internal/store"
	"github.com/sirupsen/logrus"
)

// RecordCache is a cache for library records.
type RecordCache interface {
	// GetRecord gets a record from the cache, ErrCacheMiss when it is not there.
	GetRecord(ctx context.Context, id string) (*model.Record, error)
	// SetRecord sets a record in the cache.
	SetRecord(ctx context.Context, record *model.Record) error
}

var _ store.Store = (*CachedStore)(nil)

// CachedStore reads single records through a RecordCache. Cache failures fall back to the store.
type CachedStore struct {
	store.Store
	cache RecordCache
}

func NewCachedStore(st store.Store, cache RecordCache) *CachedStore {
	return &CachedStore{Store: st, cache: cache}
}

func (c *CachedStore) GetRecord(ctx context.Context, id string) (*model.Record, error) {
	record, err := c.cache.GetRecord(ctx, id)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		logrus.Warnf("record cache read failed for %s: %v", id, err)
	}

	record, err = c.Store.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := c.cache.SetRecord(ctx, record); err != nil {
		logrus.Warnf("record cache write failed for %s: %v", id, err)
	}

	return record, nil
}

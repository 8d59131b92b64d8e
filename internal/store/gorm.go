package store

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/emrgen/ingest/internal/compress"
	"github.com/emrgen/ingest/internal/model"
	"gorm.io/gorm"
)

func NewGormStore(db *gorm.DB, codec compress.Compress) *GormStore {
	if codec == nil {
		codec = compress.NewNop()
	}

	return &GormStore{
		db:    db,
		codec: codec,
	}
}

var _ Store = (*GormStore)(nil)

// GormStore keeps the library in a sql database. Rows are only ever inserted.
type GormStore struct {
	db    *gorm.DB
	codec compress.Compress
}

func (g *GormStore) AppendRecord(ctx context.Context, record *model.Record) error {
	row := record.Clone()
	row.Seq = 0

	var count int64
	if err := g.db.WithContext(ctx).Model(&model.Record{}).Where("id = ?", record.ID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateRecord, record.ID)
	}

	if err := g.encode(row); err != nil {
		return err
	}

	if err := g.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	record.Seq = row.Seq

	return nil
}

func (g *GormStore) GetRecord(ctx context.Context, id string) (*model.Record, error) {
	var record model.Record
	err := g.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	if err := g.decode(&record); err != nil {
		return nil, err
	}

	return &record, nil
}

func (g *GormStore) ListRecords(ctx context.Context) ([]*model.Record, error) {
	return g.find(g.db.WithContext(ctx))
}

func (g *GormStore) ListRecordsByKind(ctx context.Context, kind model.Kind) ([]*model.Record, error) {
	return g.find(g.db.WithContext(ctx).Where("kind = ?", kind))
}

func (g *GormStore) ListVersions(ctx context.Context, originalID string) ([]*model.Record, error) {
	return g.find(g.db.WithContext(ctx).Where("id = ? OR original_id = ?", originalID, originalID))
}

func (g *GormStore) find(query *gorm.DB) ([]*model.Record, error) {
	var records []*model.Record
	if err := query.Order("seq asc").Find(&records).Error; err != nil {
		return nil, err
	}

	for _, r := range records {
		if err := g.decode(r); err != nil {
			return nil, err
		}
	}

	return records, nil
}

// encode compresses the content with the store codec. Compressed bytes are base64 encoded
// so they fit a text column on every driver.
func (g *GormStore) encode(record *model.Record) error {
	record.Compression = g.codec.Name()
	if record.Compression == compress.NopName {
		return nil
	}

	data, err := g.codec.Encode([]byte(record.Content))
	if err != nil {
		return err
	}
	record.Content = base64.StdEncoding.EncodeToString(data)

	return nil
}

// decode reverses encode using the codec recorded on the row, so rows written with an
// earlier codec stay readable.
func (g *GormStore) decode(record *model.Record) error {
	if record.Compression == "" || record.Compression == compress.NopName {
		return nil
	}

	codec, err := compress.New(record.Compression)
	if err != nil {
		return err
	}

	data, err := base64.StdEncoding.DecodeString(record.Content)
	if err != nil {
		return fmt.Errorf("record %s content is corrupted: %w", record.ID, err)
	}

	content, err := codec.Decode(data)
	if err != nil {
		return fmt.Errorf("record %s content is corrupted: %w", record.ID, err)
	}
	record.Content = string(content)

	return nil
}

func (g *GormStore) Migrate() error {
	return model.Migrate(g.db)
}

func (g *GormStore) Transaction(ctx context.Context, f func(tx Store) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return f(&GormStore{db: tx, codec: g.codec})
	})
}

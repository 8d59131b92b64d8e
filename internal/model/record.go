package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Record is a stored, versioned document plus its metadata.
// Records are never updated or deleted: saving changes always appends a new record.
type Record struct {
	Seq         uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	ID          string    `gorm:"uniqueIndex;uuid;not null" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Uploader    string    `json:"uploader"`
	Kind        Kind      `gorm:"index;not null" json:"kind"`
	Content     string    `gorm:"not null" json:"content"`
	Compression string    `json:"-"` // the codec used for Content at rest
	UploadedAt  time.Time `gorm:"not null" json:"uploadedAt"`
	Version     int64     `gorm:"not null;default:1" json:"version"`
	// PreviousID is the record this one is a new version of.
	PreviousID *string `gorm:"index" json:"previousId,omitempty"`
	// OriginalID is the first record of the version chain.
	OriginalID *string `gorm:"index" json:"originalId,omitempty"`
}

func (Record) TableName() string {
	return "records"
}

// NewRecord creates a version 1 record with a fresh id.
func NewRecord(name, uploader string, kind Kind, content string) *Record {
	return &Record{
		ID:         uuid.New().String(),
		Name:       name,
		Uploader:   uploader,
		Kind:       kind,
		Content:    content,
		UploadedAt: time.Now().UTC(),
		Version:    1,
	}
}

// IsOriginal reports whether the record starts a version chain.
func (r *Record) IsOriginal() bool {
	return r.PreviousID == nil
}

// RootID returns the id of the first record in this record's version chain.
func (r *Record) RootID() string {
	if r.OriginalID != nil {
		return *r.OriginalID
	}

	return r.ID
}

// DeriveVersion creates the next version of r with the given name and content.
func (r *Record) DeriveVersion(name, uploader, content string) *Record {
	next := NewRecord(name, uploader, r.Kind, content)
	previous := r.ID
	root := r.RootID()
	next.Version = r.Version + 1
	next.PreviousID = &previous
	next.OriginalID = &root

	return next
}

// Clone returns a copy that shares no pointers with r.
func (r *Record) Clone() *Record {
	c := *r
	if r.PreviousID != nil {
		id := *r.PreviousID
		c.PreviousID = &id
	}
	if r.OriginalID != nil {
		id := *r.OriginalID
		c.OriginalID = &id
	}

	return &c
}

func (r *Record) MarshalBinary() ([]byte, error) {
	return json.Marshal(r)
}

// UnmarshalRecord decodes a record written by MarshalBinary.
func UnmarshalRecord(data []byte) (*Record, error) {
	record := &Record{}
	if err := json.Unmarshal(data, record); err != nil {
		return nil, err
	}

	return record, nil
}

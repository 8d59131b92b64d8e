package queue

import (
	"context"
	"time"

	"github.com/emrgen/ingest/internal/model"
)

var RecordEventTopic = "ingest.records"

type EventType string

const (
	// RecordCreated is published for every new original record.
	RecordCreated EventType = "record.created"
	// RecordVersioned is published for every record saved as a new version.
	RecordVersioned EventType = "record.versioned"
)

// RecordEvent announces a record appended to the library. Content is not carried.
type RecordEvent struct {
	Type       EventType  `json:"type"`
	RecordID   string     `json:"recordId"`
	Kind       model.Kind `json:"kind"`
	Name       string     `json:"name"`
	Version    int64      `json:"version"`
	PreviousID string     `json:"previousId,omitempty"`
	OriginalID string     `json:"originalId,omitempty"`
	At         time.Time  `json:"at"`
}

// NewRecordEvent builds the event announcing record.
func NewRecordEvent(record *model.Record) RecordEvent {
	event := RecordEvent{
		Type:     RecordCreated,
		RecordID: record.ID,
		Kind:     record.Kind,
		Name:     record.Name,
		Version:  record.Version,
		At:       record.UploadedAt,
	}
	if record.PreviousID != nil {
		event.Type = RecordVersioned
		event.PreviousID = *record.PreviousID
		event.OriginalID = record.RootID()
	}

	return event
}

type RecordQueue interface {
	// Publish appends a record event to the queue.
	Publish(ctx context.Context, event RecordEvent) error
	Close() error
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/emrgen/ingest/internal/content"
	"github.com/emrgen/ingest/internal/intake"
	"github.com/emrgen/ingest/internal/metrics"
	"github.com/emrgen/ingest/internal/model"
	"github.com/emrgen/ingest/internal/queue"
	"github.com/emrgen/ingest/internal/store"
	"github.com/sirupsen/logrus"
)

// NewLibraryService creates a new LibraryService.
func NewLibraryService(store store.Store, events queue.RecordQueue) *LibraryService {
	if events == nil {
		events = queue.NewNop()
	}

	return &LibraryService{
		store:  store,
		events: events,
	}
}

// LibraryService manages the content library: uploads, validation and versions.
type LibraryService struct {
	store  store.Store
	events queue.RecordQueue
}

// UploadRequest is a manually entered document.
type UploadRequest struct {
	Name     string
	Uploader string
	Kind     model.Kind
	Content  string
}

// FileOutcome is the result of one file of a bulk upload, in upload order.
type FileOutcome struct {
	Name   string
	Record *model.Record
	Err    error
}

// Accepted reports whether the file was added to the library.
func (o FileOutcome) Accepted() bool {
	return o.Record != nil
}

// SaveRequest is a document saved from the editor.
type SaveRequest struct {
	Content  string
	Kind     model.Kind
	Uploader string
	// VersionOf names the record this save is a new version of; empty saves a new original.
	VersionOf string
}

// Validate checks content against the shape rule of kind.
func (s *LibraryService) Validate(kind model.Kind, raw string) content.Result {
	res := content.Validate([]byte(raw), kind)
	metrics.ObserveValidation(res)

	return res
}

// Append adds a record to the library, filling in id, time and version when unset.
func (s *LibraryService) Append(ctx context.Context, record *model.Record) error {
	if err := s.appendRecords(ctx, s.store, record); err != nil {
		return err
	}
	s.announce(ctx, record)

	return nil
}

// Upload adds a manually entered document to the library.
func (s *LibraryService) Upload(ctx context.Context, req UploadRequest) (*model.Record, error) {
	required := []struct{ field, value string }{
		{"name", req.Name},
		{"uploader", req.Uploader},
		{"content", req.Content},
	}
	for _, r := range required {
		if r.value == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, r.field)
		}
	}

	if res := s.Validate(req.Kind, req.Content); !res.Valid {
		metrics.UploadsTotal.WithLabelValues(req.Kind.String(), "rejected").Inc()
		return nil, res.Err
	}

	record := model.NewRecord(req.Name, req.Uploader, req.Kind, req.Content)
	if err := s.Append(ctx, record); err != nil {
		return nil, err
	}
	metrics.UploadsTotal.WithLabelValues(req.Kind.String(), "accepted").Inc()

	return record, nil
}

// UploadFiles normalizes and validates a batch of uploaded files, then adds the accepted ones
// to the library in one transaction. A batch over the size cap is rejected as a whole.
func (s *LibraryService) UploadFiles(ctx context.Context, uploader string, kind model.Kind, files []intake.File) ([]FileOutcome, error) {
	results, err := intake.Normalize(files)
	if err != nil {
		return nil, err
	}

	if uploader == "" {
		uploader = DefaultUploader
	}

	outcomes := make([]FileOutcome, len(results))
	var accepted []*model.Record
	for i, res := range results {
		outcomes[i] = FileOutcome{Name: res.Name, Err: res.Err}
		if !res.Valid {
			metrics.UploadsTotal.WithLabelValues(kind.String(), "rejected").Inc()
			continue
		}

		if v := s.Validate(kind, res.Content); !v.Valid {
			outcomes[i].Err = v.Err
			metrics.UploadsTotal.WithLabelValues(kind.String(), "rejected").Inc()
			continue
		}

		record := model.NewRecord(res.Name, uploader, kind, res.Content)
		outcomes[i].Record = record
		accepted = append(accepted, record)
	}

	if len(accepted) == 0 {
		return outcomes, nil
	}

	err = s.store.Transaction(ctx, func(tx store.Store) error {
		return s.appendRecords(ctx, tx, accepted...)
	})
	if err != nil {
		return nil, err
	}
	s.announce(ctx, accepted...)
	metrics.UploadsTotal.WithLabelValues(kind.String(), "accepted").Add(float64(len(accepted)))

	logrus.Infof("%d of %d files uploaded to the %s library", len(accepted), len(files), kind)
	return outcomes, nil
}

// SaveNewVersion appends a new version of the record originalID. An empty kind keeps the
// original's kind. Nothing is appended when the original does not exist.
func (s *LibraryService) SaveNewVersion(ctx context.Context, originalID, raw string, kind model.Kind, uploader string) (*model.Record, error) {
	var next *model.Record

	err := s.store.Transaction(ctx, func(tx store.Store) error {
		original, err := tx.GetRecord(ctx, originalID)
		if err != nil {
			return err
		}

		if kind == "" {
			kind = original.Kind
		}
		if kind != original.Kind {
			return fmt.Errorf("%w: original is %s, got %s", ErrKindMismatch, original.Kind, kind)
		}

		if res := s.Validate(kind, raw); !res.Valid {
			return res.Err
		}

		if uploader == "" {
			uploader = DefaultUploader
		}

		name := fmt.Sprintf("%s (v%d)", titleOrDefault(raw, kind), original.Version+1)
		next = original.DeriveVersion(name, uploader, raw)

		return s.appendRecords(ctx, tx, next)
	})
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			logrus.Warnf("cannot save a new version of %s: record not found", originalID)
		}
		return nil, err
	}
	s.announce(ctx, next)
	metrics.VersionsTotal.WithLabelValues(kind.String()).Inc()

	return next, nil
}

// Save stores a document from the editor, either as a new original or as a new version.
func (s *LibraryService) Save(ctx context.Context, req SaveRequest) (*model.Record, error) {
	if req.VersionOf != "" {
		return s.SaveNewVersion(ctx, req.VersionOf, req.Content, req.Kind, req.Uploader)
	}

	if res := s.Validate(req.Kind, req.Content); !res.Valid {
		return nil, res.Err
	}

	uploader := req.Uploader
	if uploader == "" {
		uploader = DefaultUploader
	}

	record := model.NewRecord(titleOrDefault(req.Content, req.Kind), uploader, req.Kind, req.Content)
	if err := s.Append(ctx, record); err != nil {
		return nil, err
	}

	return record, nil
}

// GetRecord retrieves a record by id.
func (s *LibraryService) GetRecord(ctx context.Context, id string) (*model.Record, error) {
	return s.store.GetRecord(ctx, id)
}

// ListRecords lists the library in insertion order, restricted to kind when it is set.
func (s *LibraryService) ListRecords(ctx context.Context, kind model.Kind) ([]*model.Record, error) {
	if kind == "" {
		return s.store.ListRecords(ctx)
	}

	return s.store.ListRecordsByKind(ctx, kind)
}

// ListVersions lists the whole version chain a record belongs to, root first.
func (s *LibraryService) ListVersions(ctx context.Context, id string) ([]*model.Record, error) {
	record, err := s.store.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.store.ListVersions(ctx, record.RootID())
}

// VersionOf returns the display name of the record that record is a version of.
// It returns "" for originals and "Unknown" when the predecessor cannot be found.
func (s *LibraryService) VersionOf(ctx context.Context, record *model.Record) string {
	if record.PreviousID == nil {
		return ""
	}

	previous, err := s.store.GetRecord(ctx, *record.PreviousID)
	if err != nil {
		return "Unknown"
	}

	return previous.Name
}

// appendRecords fills in defaults and appends through st.
func (s *LibraryService) appendRecords(ctx context.Context, st store.RecordStore, records ...*model.Record) error {
	for _, record := range records {
		fillDefaults(record)
		if !record.Kind.Valid() {
			return fmt.Errorf("record %s: %w", record.ID, model.ErrUnknownKind)
		}
		if err := st.AppendRecord(ctx, record); err != nil {
			return err
		}
		logrus.Infof("record %s (%s) added to the %s library as version %d", record.ID, record.Name, record.Kind, record.Version)
	}

	return nil
}

// announce publishes an event per committed record. Failures are logged only.
func (s *LibraryService) announce(ctx context.Context, records ...*model.Record) {
	for _, record := range records {
		if err := s.events.Publish(ctx, queue.NewRecordEvent(record)); err != nil {
			logrus.Errorf("error publishing record event for %s: %v", record.ID, err)
		}
	}
}

func fillDefaults(record *model.Record) {
	blank := model.NewRecord("", "", "", "")
	if record.ID == "" {
		record.ID = blank.ID
	}
	if record.UploadedAt.IsZero() {
		record.UploadedAt = blank.UploadedAt
	}
	if record.Version == 0 {
		record.Version = 1
	}
}

// titleOrDefault names a saved document after its title, or "New <kind>" without one.
func titleOrDefault(raw string, kind model.Kind) string {
	if title := content.Title([]byte(raw)); title != "" {
		return title
	}

	return "New " + kind.String()
}

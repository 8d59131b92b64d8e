package service

import (
	"context"
	"sync"

	"github.com/emrgen/ingest/internal/model"
	"github.com/sirupsen/logrus"
)

// PendingSave holds a save waiting for the user's confirmation.
// It resolves exactly once: either Confirm appends it or Cancel discards it.
type PendingSave struct {
	service  *LibraryService
	request  SaveRequest
	mu       sync.Mutex
	resolved bool
}

// Prepare stages a save for confirmation without touching the library.
func (s *LibraryService) Prepare(req SaveRequest) *PendingSave {
	return &PendingSave{service: s, request: req}
}

// Request returns the staged save.
func (p *PendingSave) Request() SaveRequest {
	return p.request
}

// Confirm commits the staged save. A save that fails stays resolved; correct the
// content and Prepare again.
func (p *PendingSave) Confirm(ctx context.Context) (*model.Record, error) {
	if err := p.resolve(); err != nil {
		return nil, err
	}

	return p.service.Save(ctx, p.request)
}

// Cancel discards the staged save with no state change.
func (p *PendingSave) Cancel() error {
	if err := p.resolve(); err != nil {
		return err
	}

	logrus.Infof("pending %s save discarded", p.request.Kind)
	return nil
}

func (p *PendingSave) resolve() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.resolved {
		return ErrSaveResolved
	}
	p.resolved = true

	return nil
}

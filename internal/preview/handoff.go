package preview

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/emrgen/ingest/internal/model"
	"github.com/google/uuid"
)

// ErrHandoffNotFound is returned for a token that was never issued, already taken or expired.
var ErrHandoffNotFound = errors.New("preview hand-off not found")

// DefaultTTL is how long an untaken hand-off stays available.
const DefaultTTL = 10 * time.Minute

// Handoff carries one document from the page that opens a preview to the page that renders it.
type Handoff struct {
	Token     string     `json:"token"`
	RecordID  string     `json:"recordId,omitempty"`
	Kind      model.Kind `json:"kind"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Channel passes hand-offs by token. Every Put issues a new token and each token can be taken once.
type Channel interface {
	Put(ctx context.Context, handoff Handoff) (string, error)
	Take(ctx context.Context, token string) (Handoff, error)
}

// Prepare fills in the token and creation time of a hand-off.
func Prepare(handoff Handoff) Handoff {
	handoff.Token = uuid.New().String()
	if handoff.CreatedAt.IsZero() {
		handoff.CreatedAt = time.Now().UTC()
	}

	return handoff
}

var _ Channel = (*MemoryChannel)(nil)

// MemoryChannel keeps hand-offs in process until they are taken or expire.
type MemoryChannel struct {
	mu       sync.Mutex
	ttl      time.Duration
	handoffs map[string]Handoff
	now      func() time.Time
}

func NewMemoryChannel(ttl time.Duration) *MemoryChannel {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &MemoryChannel{
		ttl:      ttl,
		handoffs: make(map[string]Handoff),
		now:      time.Now,
	}
}

func (m *MemoryChannel) Put(ctx context.Context, handoff Handoff) (string, error) {
	handoff = Prepare(handoff)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.handoffs[handoff.Token] = handoff

	return handoff.Token, nil
}

func (m *MemoryChannel) Take(ctx context.Context, token string) (Handoff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	handoff, ok := m.handoffs[token]
	if !ok {
		return Handoff{}, ErrHandoffNotFound
	}
	delete(m.handoffs, token)

	if m.expired(handoff, m.now()) {
		return Handoff{}, ErrHandoffNotFound
	}

	return handoff, nil
}

// Sweep drops every hand-off that expired before now and returns how many were dropped.
func (m *MemoryChannel) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for token, handoff := range m.handoffs {
		if m.expired(handoff, now) {
			delete(m.handoffs, token)
			count++
		}
	}

	return count
}

// Len returns the number of hand-offs waiting to be taken.
func (m *MemoryChannel) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.handoffs)
}

func (m *MemoryChannel) expired(handoff Handoff, now time.Time) bool {
	return now.Sub(handoff.CreatedAt) > m.ttl
}

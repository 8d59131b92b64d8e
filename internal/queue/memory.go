package queue

import (
	"context"
	"sync"
)

var _ RecordQueue = (*MemoryQueue)(nil)

// MemoryQueue fans events out to in-process subscribers.
type MemoryQueue struct {
	mu          sync.Mutex
	subscribers []chan RecordEvent
	closed      bool
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{}
}

// Subscribe returns a channel that receives every event published after the call.
// Slow subscribers miss events once their buffer is full.
func (q *MemoryQueue) Subscribe(buffer int) <-chan RecordEvent {
	q.mu.Lock()
	defer q.mu.Unlock()

	ch := make(chan RecordEvent, buffer)
	if q.closed {
		close(ch)
		return ch
	}
	q.subscribers = append(q.subscribers, ch)

	return ch
}

func (q *MemoryQueue) Publish(ctx context.Context, event RecordEvent) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	for _, ch := range q.subscribers {
		select {
		case ch <- event:
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	return nil
}

func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	for _, ch := range q.subscribers {
		close(ch)
	}

	return nil
}

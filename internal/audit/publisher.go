package audit

import (
	"context"
	"sync"
)

// Publisher emits audit events. Implementations must be safe for concurrent
// use; callers treat Emit as fire-and-forget with an awaited error for
// logging only.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// MemoryPublisher collects events in memory for tests and for deployments
// without Kafka configured.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) Emit(_ context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events returns a snapshot of everything emitted so far.
func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

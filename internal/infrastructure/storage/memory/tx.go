package memory

import (
	"context"
	"sync"

	"lotledger/internal/core/tx"
	"lotledger/internal/domain/audit"
)

var _ tx.ReadOnlyManager = TxManager{}

// TxManager runs fn directly. Memory stores commit every write immediately.
type TxManager struct{}

func (TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (TxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// AuditLog is an audit.Sink that keeps events in memory.
type AuditLog struct {
	mu     sync.Mutex
	events []audit.Event
}

func (l *AuditLog) Record(_ context.Context, event audit.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
	return nil
}

// Events returns a copy of the recorded events.
func (l *AuditLog) Events() []audit.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]audit.Event(nil), l.events...)
}

// Actions lists the actions of recorded events in order.
func (l *AuditLog) Actions() []audit.Action {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]audit.Action, len(l.events))
	for i, e := range l.events {
		out[i] = e.Action
	}
	return out
}

// History returns the newest events for an entity first.
func (l *AuditLog) History(_ context.Context, entityType, entityID string, limit int) ([]audit.Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []audit.Event
	for i := len(l.events) - 1; i >= 0; i-- {
		e := l.events[i]
		if e.EntityType != entityType || e.EntityID != entityID {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

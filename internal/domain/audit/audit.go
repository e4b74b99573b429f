// Package audit defines the fire-and-forget audit channel used by the ledger.
package audit

import (
	"context"
	"time"

	appctx "lotledger/internal/core/context"
	"lotledger/pkg/logger"
)

// Action is the kind of audited ledger event.
type Action string

const (
	ActionLotCreated     Action = "fifo_lot_created"
	ActionConsumption    Action = "fifo_consumption"
	ActionLegacyFallback Action = "fifo_legacy_fallback"
	ActionReversal       Action = "fifo_reversal"
	ActionReturnRestored Action = "fifo_return_restored"
	ActionLotExpired     Action = "fifo_lot_expired"
)

// Entity types carried by events.
const (
	EntityLot         = "inventory_lot"
	EntityConsumption = "cost_consumption"
	EntityProduct     = "product"
)

// Event is one structured audit record.
type Event struct {
	Action     Action
	EntityType string
	EntityID   string
	Details    map[string]any
	UserID     string
	OccurredAt time.Time
}

// Sink stores events. Implementations may fail; Recorder absorbs the failure.
type Sink interface {
	Record(ctx context.Context, event Event) error
}

// Reader lists stored events for one entity, newest first.
type Reader interface {
	History(ctx context.Context, entityType, entityID string, limit int) ([]Event, error)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, event Event) error

func (f SinkFunc) Record(ctx context.Context, event Event) error { return f(ctx, event) }

// Recorder enriches events with the caller's user id and forwards them to a Sink.
// Sink errors are logged and never returned.
type Recorder struct {
	sink Sink
	now  func() time.Time
}

// NewRecorder wraps sink. A nil sink discards every event.
func NewRecorder(sink Sink) *Recorder {
	return &Recorder{sink: sink, now: time.Now}
}

// Record sends the event, best effort.
func (r *Recorder) Record(ctx context.Context, event Event) {
	if r == nil || r.sink == nil {
		return
	}
	if event.UserID == "" {
		event.UserID = appctx.GetUserID(ctx)
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = r.now().UTC()
	}

	if err := r.sink.Record(ctx, event); err != nil {
		logger.Warn(ctx, "audit record failed",
			"action", event.Action,
			"entity_type", event.EntityType,
			"entity_id", event.EntityID,
			"error", err,
		)
	}
}

package panel

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Publisher fans a payload out to everyone watching a session.
type Publisher interface {
	PublishToSession(ctx context.Context, sessionID uuid.UUID, payload []byte)
}

// Event is the websocket envelope wrapping each pushed snapshot.
type Event struct {
	Event string `json:"event"`
	State *State `json:"state"`
}

// Broadcaster rebuilds the panel snapshot after a mutation and pushes it to
// subscribers. Satisfies the Notifier interfaces of the feature packages.
// Push failures are logged, never surfaced: the panel is best-effort and the
// HTTP snapshot endpoint remains the source of truth.
type Broadcaster struct {
	builder   *Builder
	publisher Publisher
	logger    *zap.Logger
}

// NewBroadcaster creates a panel broadcaster.
func NewBroadcaster(builder *Builder, publisher Publisher, logger *zap.Logger) *Broadcaster {
	return &Broadcaster{builder: builder, publisher: publisher, logger: logger}
}

// SessionChanged rebuilds and pushes the panel state for a session.
func (b *Broadcaster) SessionChanged(ctx context.Context, sessionID uuid.UUID, event string) {
	state, err := b.builder.Snapshot(ctx, sessionID)
	if err != nil {
		b.logger.Warn("panel snapshot failed",
			zap.String("session_id", sessionID.String()),
			zap.String("event", event),
			zap.Error(err))
		return
	}
	payload, err := json.Marshal(Event{Event: event, State: state})
	if err != nil {
		b.logger.Warn("panel snapshot encode failed", zap.Error(err))
		return
	}
	b.publisher.PublishToSession(ctx, sessionID, payload)
}

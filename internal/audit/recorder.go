// Package audit records who did what on the floor. Entries are enqueued from
// request handlers and persisted by the background worker, so the hot path
// never waits on the audit table.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/camaraaberta/backend/internal/models"
	"github.com/camaraaberta/backend/pkg/queue"
)

// Recorder enqueues audit entries. Satisfies the Auditor interfaces of the
// feature packages. Enqueue failures are logged and dropped: losing an audit
// row must never fail the operation it describes.
type Recorder struct {
	queue  *queue.Queue
	logger *zap.Logger
}

// NewRecorder creates an audit recorder.
func NewRecorder(q *queue.Queue, logger *zap.Logger) *Recorder {
	return &Recorder{queue: q, logger: logger}
}

// Record enqueues one audit entry, fire-and-forget.
func (r *Recorder) Record(ctx context.Context, actorID uuid.UUID, action, entityType string, entityID uuid.UUID, detail interface{}) {
	entry := models.AuditEntry{
		ID:         uuid.New(),
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		OccurredAt: time.Now().UTC(),
	}
	if detail != nil {
		if raw, err := json.Marshal(detail); err == nil {
			entry.Detail = raw
		}
	}
	if err := r.queue.EnqueueAudit(ctx, entry); err != nil {
		r.logger.Warn("audit enqueue failed",
			zap.String("action", action),
			zap.String("entity_id", entityID.String()),
			zap.Error(err))
	}
}

package audit

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/camaraaberta/backend/internal/models"
)

// Repository persists and queries audit entries.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an audit repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert writes one audit entry. Idempotent on entry ID so a retried job
// cannot duplicate a row.
func (r *Repository) Insert(ctx context.Context, e *models.AuditEntry) error {
	const q = `INSERT INTO audit_entries (id, actor_id, action, entity_type, entity_id, detail, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`
	_, err := r.pool.Exec(ctx, q, e.ID, e.ActorID, e.Action, e.EntityType, e.EntityID, e.Detail, e.OccurredAt)
	return err
}

// Filter narrows an audit listing. Zero values mean no constraint.
type Filter struct {
	EntityID uuid.UUID
	ActorID  uuid.UUID
	Action   string
	Limit    int
}

// List returns audit entries newest first.
func (r *Repository) List(ctx context.Context, f Filter) ([]models.AuditEntry, error) {
	const q = `SELECT id, actor_id, action, entity_type, entity_id, detail, occurred_at
		FROM audit_entries
		WHERE ($1::uuid IS NULL OR entity_id = $1)
		  AND ($2::uuid IS NULL OR actor_id = $2)
		  AND ($3::text IS NULL OR action = $3)
		ORDER BY occurred_at DESC
		LIMIT $4`
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var entityID, actorID interface{}
	if f.EntityID != uuid.Nil {
		entityID = f.EntityID
	}
	if f.ActorID != uuid.Nil {
		actorID = f.ActorID
	}
	var action interface{}
	if f.Action != "" {
		action = f.Action
	}
	rows, err := r.pool.Query(ctx, q, entityID, actorID, action, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.EntityType, &e.EntityID, &e.Detail, &e.OccurredAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

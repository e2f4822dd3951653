package agenda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/camaraaberta/backend/internal/domain"
	"github.com/camaraaberta/backend/internal/models"
)

const itemColumns = `id, agenda_id, section, position, title, bill_id, status, purpose, round, time_limit_seconds, time_used_seconds, result, created_at, updated_at`

// Repository handles agenda and agenda item persistence. Floor transitions
// are conditional updates so that the single-active-item invariant holds
// under concurrent requests; a partial unique index backs it up.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an agenda repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanItem(row pgx.Row) (*models.AgendaItem, error) {
	var it models.AgendaItem
	var result []byte
	err := row.Scan(&it.ID, &it.AgendaID, &it.Section, &it.Position, &it.Title, &it.BillID,
		&it.Status, &it.Purpose, &it.Round, &it.TimeLimitSeconds, &it.TimeUsedSeconds,
		&result, &it.CreatedAt, &it.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("agenda item: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if len(result) > 0 {
		var vr models.VoteResult
		if err := json.Unmarshal(result, &vr); err == nil {
			it.Result = &vr
		}
	}
	return &it, nil
}

// CreateAgenda inserts a draft agenda for a session (one per session).
func (r *Repository) CreateAgenda(ctx context.Context, a *models.Agenda) error {
	const q = `INSERT INTO agendas (id, session_id, status, estimated_minutes)
		VALUES (gen_random_uuid(), $1, 'DRAFT', $2)
		RETURNING id, status, published_at, actual_minutes, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, a.SessionID, a.EstimatedMinutes).
		Scan(&a.ID, &a.Status, &a.PublishedAt, &a.ActualMinutes, &a.CreatedAt, &a.UpdatedAt)
}

// GetAgenda returns an agenda by ID.
func (r *Repository) GetAgenda(ctx context.Context, id uuid.UUID) (*models.Agenda, error) {
	const q = `SELECT id, session_id, status, published_at, estimated_minutes, actual_minutes, created_at, updated_at
		FROM agendas WHERE id = $1`
	return r.scanAgenda(r.pool.QueryRow(ctx, q, id))
}

// GetAgendaBySession returns the agenda of a session.
func (r *Repository) GetAgendaBySession(ctx context.Context, sessionID uuid.UUID) (*models.Agenda, error) {
	const q = `SELECT id, session_id, status, published_at, estimated_minutes, actual_minutes, created_at, updated_at
		FROM agendas WHERE session_id = $1`
	return r.scanAgenda(r.pool.QueryRow(ctx, q, sessionID))
}

func (r *Repository) scanAgenda(row pgx.Row) (*models.Agenda, error) {
	var a models.Agenda
	err := row.Scan(&a.ID, &a.SessionID, &a.Status, &a.PublishedAt, &a.EstimatedMinutes,
		&a.ActualMinutes, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("agenda: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Publish moves DRAFT -> APPROVED and stamps the publication time.
func (r *Repository) Publish(ctx context.Context, id uuid.UUID) (*models.Agenda, error) {
	const q = `UPDATE agendas SET status = 'APPROVED', published_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'DRAFT'
		RETURNING id, session_id, status, published_at, estimated_minutes, actual_minutes, created_at, updated_at`
	a, err := r.scanAgenda(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, domain.ErrNotFound) {
		current, gerr := r.GetAgenda(ctx, id)
		if gerr != nil {
			return nil, gerr
		}
		return nil, fmt.Errorf("cannot publish a %s agenda: %w", current.Status, domain.ErrInvalidItemState)
	}
	return a, err
}

// RevertToDraft moves APPROVED -> DRAFT. Refused inside the 48h transparency
// window before the session; the window check rides in the same statement.
func (r *Repository) RevertToDraft(ctx context.Context, id uuid.UUID) (*models.Agenda, error) {
	const q = `UPDATE agendas a SET status = 'DRAFT', published_at = NULL, updated_at = NOW()
		FROM sessions s
		WHERE a.id = $1 AND a.session_id = s.id AND a.status = 'APPROVED'
		  AND s.scheduled_at - NOW() >= INTERVAL '48 hours'
		RETURNING a.id, a.session_id, a.status, a.published_at, a.estimated_minutes, a.actual_minutes, a.created_at, a.updated_at`
	a, err := r.scanAgenda(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, domain.ErrNotFound) {
		current, gerr := r.GetAgenda(ctx, id)
		if gerr != nil {
			return nil, gerr
		}
		if current.Status != models.AgendaApproved {
			return nil, fmt.Errorf("cannot revert a %s agenda: %w", current.Status, domain.ErrInvalidItemState)
		}
		return nil, fmt.Errorf("published agenda within 48h of session: %w", domain.ErrAgendaLocked)
	}
	return a, err
}

// AddItem appends an item at the end of its section.
func (r *Repository) AddItem(ctx context.Context, it *models.AgendaItem) error {
	const q = `INSERT INTO agenda_items (id, agenda_id, section, position, title, bill_id, status, purpose, time_limit_seconds)
		SELECT gen_random_uuid(), a.id, $2,
			COALESCE((SELECT MAX(position) + 1 FROM agenda_items WHERE agenda_id = a.id AND section = $2), 1),
			$3, $4, 'PENDING', $5, $6
		FROM agendas a WHERE a.id = $1 AND a.status <> 'CONCLUDED'
		RETURNING ` + itemColumns
	created, err := scanItem(r.pool.QueryRow(ctx, q,
		it.AgendaID, string(it.Section), it.Title, it.BillID, string(it.Purpose), it.TimeLimitSeconds))
	if errors.Is(err, domain.ErrNotFound) {
		if _, gerr := r.GetAgenda(ctx, it.AgendaID); gerr != nil {
			return gerr
		}
		return fmt.Errorf("agenda is concluded: %w", domain.ErrInvalidItemState)
	}
	if err != nil {
		return err
	}
	*it = *created
	return nil
}

// GetItem returns an agenda item by ID.
func (r *Repository) GetItem(ctx context.Context, id uuid.UUID) (*models.AgendaItem, error) {
	return scanItem(r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM agenda_items WHERE id = $1`, id))
}

// ListItems returns all items of an agenda in floor order: fixed section
// order first, explicit position within each section.
func (r *Repository) ListItems(ctx context.Context, agendaID uuid.UUID) ([]models.AgendaItem, error) {
	const q = `SELECT ` + itemColumns + ` FROM agenda_items WHERE agenda_id = $1
		ORDER BY CASE section
			WHEN 'opening' THEN 0 WHEN 'order_of_day' THEN 1 WHEN 'communications' THEN 2
			WHEN 'honors' THEN 3 ELSE 4 END, position`
	rows, err := r.pool.Query(ctx, q, agendaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.AgendaItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *it)
	}
	return list, rows.Err()
}

// ActiveItem returns the item currently holding the floor for a session, or
// ErrNotFound when no item is active.
func (r *Repository) ActiveItem(ctx context.Context, sessionID uuid.UUID) (*models.AgendaItem, error) {
	const q = `SELECT i.id, i.agenda_id, i.section, i.position, i.title, i.bill_id, i.status, i.purpose, i.round,
			i.time_limit_seconds, i.time_used_seconds, i.result, i.created_at, i.updated_at
		FROM agenda_items i JOIN agendas a ON a.id = i.agenda_id
		WHERE a.session_id = $1 AND i.status IN ('IN_DISCUSSION', 'IN_VOTE')`
	return scanItem(r.pool.QueryRow(ctx, q, sessionID))
}

// StartDiscussion moves PENDING -> IN_DISCUSSION. The session must be in
// progress and no other item on the agenda may hold the floor.
func (r *Repository) StartDiscussion(ctx context.Context, itemID uuid.UUID) (*models.AgendaItem, error) {
	const q = `UPDATE agenda_items i SET status = 'IN_DISCUSSION', updated_at = NOW()
		FROM agendas a, sessions s
		WHERE i.id = $1 AND a.id = i.agenda_id AND s.id = a.session_id
		  AND i.status = 'PENDING' AND s.status = 'IN_PROGRESS'
		  AND NOT EXISTS (SELECT 1 FROM agenda_items o
			WHERE o.agenda_id = i.agenda_id AND o.id <> i.id AND o.status IN ('IN_DISCUSSION', 'IN_VOTE'))
		RETURNING i.id, i.agenda_id, i.section, i.position, i.title, i.bill_id, i.status, i.purpose, i.round,
			i.time_limit_seconds, i.time_used_seconds, i.result, i.created_at, i.updated_at`
	it, err := scanItem(r.pool.QueryRow(ctx, q, itemID))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, r.classifyFloorFailure(ctx, itemID, models.ItemInDiscussion)
	}
	return it, err
}

// Withdraw moves PENDING or IN_DISCUSSION -> WITHDRAWN while the session is in progress.
func (r *Repository) Withdraw(ctx context.Context, itemID uuid.UUID) (*models.AgendaItem, error) {
	return r.retire(ctx, itemID, models.ItemWithdrawn)
}

// Postpone moves PENDING or IN_DISCUSSION -> POSTPONED while the session is in progress.
func (r *Repository) Postpone(ctx context.Context, itemID uuid.UUID) (*models.AgendaItem, error) {
	return r.retire(ctx, itemID, models.ItemPostponed)
}

func (r *Repository) retire(ctx context.Context, itemID uuid.UUID, target models.ItemStatus) (*models.AgendaItem, error) {
	const q = `UPDATE agenda_items i SET status = $2, updated_at = NOW()
		FROM agendas a, sessions s
		WHERE i.id = $1 AND a.id = i.agenda_id AND s.id = a.session_id
		  AND i.status IN ('PENDING', 'IN_DISCUSSION') AND s.status = 'IN_PROGRESS'
		RETURNING i.id, i.agenda_id, i.section, i.position, i.title, i.bill_id, i.status, i.purpose, i.round,
			i.time_limit_seconds, i.time_used_seconds, i.result, i.created_at, i.updated_at`
	it, err := scanItem(r.pool.QueryRow(ctx, q, itemID, string(target)))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, r.classifyFloorFailure(ctx, itemID, target)
	}
	return it, err
}

// classifyFloorFailure works out why a guarded floor transition matched zero
// rows: missing item, wrong session state, illegal item transition, or a
// different item already holding the floor.
func (r *Repository) classifyFloorFailure(ctx context.Context, itemID uuid.UUID, target models.ItemStatus) error {
	it, err := r.GetItem(ctx, itemID)
	if err != nil {
		return err
	}
	var sessionStatus models.SessionStatus
	err = r.pool.QueryRow(ctx,
		`SELECT s.status FROM sessions s JOIN agendas a ON a.session_id = s.id WHERE a.id = $1`,
		it.AgendaID).Scan(&sessionStatus)
	if err != nil {
		return err
	}
	if sessionStatus != models.SessionInProgress {
		return fmt.Errorf("session is %s: %w", sessionStatus, domain.ErrInvalidSessionState)
	}
	if verr := ValidateItemTransition(it.Status, target); verr != nil {
		return verr
	}
	var active int
	err = r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM agenda_items WHERE agenda_id = $1 AND id <> $2 AND status IN ('IN_DISCUSSION', 'IN_VOTE')`,
		it.AgendaID, itemID).Scan(&active)
	if err != nil {
		return err
	}
	if active > 0 {
		return fmt.Errorf("item %s: %w", itemID, domain.ErrItemAlreadyActive)
	}
	return fmt.Errorf("item transition raced: %w", domain.ErrConcurrencyConflict)
}

// Move swaps an item with its neighbor above (delta -1) or below (delta +1)
// within its section. Administrative: only PENDING items may be reordered.
func (r *Repository) Move(ctx context.Context, itemID uuid.UUID, delta int) error {
	if delta != -1 && delta != 1 {
		return fmt.Errorf("move delta must be -1 or +1: %w", domain.ErrInvalidItemState)
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	it, err := scanItem(tx.QueryRow(ctx, `SELECT `+itemColumns+` FROM agenda_items WHERE id = $1 FOR UPDATE`, itemID))
	if err != nil {
		return err
	}
	if it.Status != models.ItemPending {
		return fmt.Errorf("only pending items can be reordered: %w", domain.ErrInvalidItemState)
	}

	var neighborID uuid.UUID
	var neighborPos int
	cmp, order := ">", "ASC"
	if delta < 0 {
		cmp, order = "<", "DESC"
	}
	q := `SELECT id, position FROM agenda_items
		WHERE agenda_id = $1 AND section = $2 AND position ` + cmp + ` $3 AND status = 'PENDING'
		ORDER BY position ` + order + ` LIMIT 1 FOR UPDATE`
	err = tx.QueryRow(ctx, q, it.AgendaID, string(it.Section), it.Position).Scan(&neighborID, &neighborPos)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil // already at the edge of its section
	}
	if err != nil {
		return err
	}

	// Three-step swap to dodge the (agenda, section, position) unique constraint.
	if _, err := tx.Exec(ctx, `UPDATE agenda_items SET position = -1 WHERE id = $1`, it.ID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE agenda_items SET position = $2, updated_at = NOW() WHERE id = $1`, neighborID, it.Position); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE agenda_items SET position = $2, updated_at = NOW() WHERE id = $1`, it.ID, neighborPos); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

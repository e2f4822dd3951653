package sessions

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/camaraaberta/backend/internal/domain"
	"github.com/camaraaberta/backend/internal/models"
)

const sessionColumns = `id, number, type, scheduled_at, status, elapsed_seconds, started_at, concluded_at, archived_at, created_at, updated_at`

// Repository handles session persistence. All lifecycle transitions are
// conditional updates keyed on the current status, so concurrent operator
// actions race safely at the database rather than in process memory.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a sessions repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanSession(row pgx.Row) (*models.Session, error) {
	var s models.Session
	err := row.Scan(&s.ID, &s.Number, &s.Type, &s.ScheduledAt, &s.Status, &s.ElapsedSeconds,
		&s.StartedAt, &s.ConcludedAt, &s.ArchivedAt, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("session: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a scheduled session.
func (r *Repository) Create(ctx context.Context, s *models.Session) error {
	const q = `INSERT INTO sessions (id, number, type, scheduled_at, status)
		VALUES (gen_random_uuid(), $1, $2, $3, 'SCHEDULED')
		RETURNING ` + sessionColumns
	created, err := scanSession(r.pool.QueryRow(ctx, q, s.Number, string(s.Type), s.ScheduledAt))
	if err != nil {
		return err
	}
	*s = *created
	return nil
}

// GetByID returns a session by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	return scanSession(r.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
}

// List returns non-archived sessions, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Session, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE archived_at IS NULL ORDER BY scheduled_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *s)
	}
	return list, rows.Err()
}

// Start transitions SCHEDULED -> IN_PROGRESS, records the start timestamp and
// moves the agenda to IN_PROGRESS. Fails when the agenda is missing or draft.
func (r *Repository) Start(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const q = `UPDATE sessions s SET status = 'IN_PROGRESS', started_at = NOW(), updated_at = NOW()
		WHERE s.id = $1 AND s.status = 'SCHEDULED'
		  AND EXISTS (SELECT 1 FROM agendas a WHERE a.session_id = s.id AND a.status <> 'DRAFT')
		RETURNING ` + sessionColumns
	s, err := scanSession(tx.QueryRow(ctx, q, id))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, r.classifyStartFailure(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE agendas SET status = 'IN_PROGRESS', updated_at = NOW() WHERE session_id = $1`, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *Repository) classifyStartFailure(ctx context.Context, id uuid.UUID) error {
	s, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if s.Status != models.SessionScheduled {
		if s.Status == models.SessionInProgress {
			return fmt.Errorf("session already started: %w", domain.ErrConcurrencyConflict)
		}
		return fmt.Errorf("cannot start a %s session: %w", s.Status, domain.ErrInvalidSessionState)
	}
	return fmt.Errorf("session %s: %w", id, domain.ErrAgendaNotReady)
}

// Suspend transitions IN_PROGRESS -> SUSPENDED, folding the running segment
// into the accumulated elapsed seconds so the clock freezes.
func (r *Repository) Suspend(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	const q = `UPDATE sessions SET status = 'SUSPENDED',
			elapsed_seconds = elapsed_seconds + GREATEST(0, EXTRACT(EPOCH FROM (NOW() - started_at))::BIGINT),
			started_at = NULL, updated_at = NOW()
		WHERE id = $1 AND status = 'IN_PROGRESS'
		RETURNING ` + sessionColumns
	s, err := scanSession(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, r.classifyTransitionFailure(ctx, id, ActionSuspend, models.SessionSuspended)
	}
	return s, err
}

// Resume transitions SUSPENDED -> IN_PROGRESS; accumulated seconds are kept
// and the running segment restarts now.
func (r *Repository) Resume(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	const q = `UPDATE sessions SET status = 'IN_PROGRESS', started_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'SUSPENDED'
		RETURNING ` + sessionColumns
	s, err := scanSession(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, r.classifyTransitionFailure(ctx, id, ActionResume, models.SessionInProgress)
	}
	return s, err
}

// Conclude transitions IN_PROGRESS or SUSPENDED -> CONCLUDED. Forbidden while
// any agenda item is still in vote: the open ballot must be closed first, so
// an in-flight decision is never silently discarded. Also concludes the
// agenda and records its actual duration.
func (r *Repository) Conclude(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const q = `UPDATE sessions s SET status = 'CONCLUDED', concluded_at = NOW(),
			elapsed_seconds = elapsed_seconds + CASE WHEN s.status = 'IN_PROGRESS'
				THEN GREATEST(0, EXTRACT(EPOCH FROM (NOW() - s.started_at))::BIGINT) ELSE 0 END,
			started_at = NULL, updated_at = NOW()
		WHERE s.id = $1 AND s.status IN ('IN_PROGRESS', 'SUSPENDED')
		  AND NOT EXISTS (
			SELECT 1 FROM agenda_items i
			JOIN agendas a ON a.id = i.agenda_id
			WHERE a.session_id = s.id AND i.status = 'IN_VOTE')
		RETURNING ` + sessionColumns
	s, err := scanSession(tx.QueryRow(ctx, q, id))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, r.classifyConcludeFailure(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE agendas SET status = 'CONCLUDED', actual_minutes = $2 / 60, updated_at = NOW() WHERE session_id = $1`,
		id, s.ElapsedSeconds); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *Repository) classifyConcludeFailure(ctx context.Context, id uuid.UUID) error {
	s, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	var inVote bool
	err = r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM agenda_items i
			JOIN agendas a ON a.id = i.agenda_id
			WHERE a.session_id = $1 AND i.status = 'IN_VOTE')`, id).Scan(&inVote)
	if err != nil {
		return err
	}
	if cerr := ConcludeRejection(s.Status, inVote); cerr != nil {
		return cerr
	}
	return fmt.Errorf("conclude raced: %w", domain.ErrConcurrencyConflict)
}

// Cancel transitions SCHEDULED -> CANCELLED.
func (r *Repository) Cancel(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	const q = `UPDATE sessions SET status = 'CANCELLED', updated_at = NOW()
		WHERE id = $1 AND status = 'SCHEDULED'
		RETURNING ` + sessionColumns
	s, err := scanSession(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, r.classifyTransitionFailure(ctx, id, ActionCancel, models.SessionCancelled)
	}
	return s, err
}

// classifyTransitionFailure distinguishes "session gone", "already moved by a
// concurrent request" and "plainly illegal transition" after a zero-row
// conditional update.
func (r *Repository) classifyTransitionFailure(ctx context.Context, id uuid.UUID, action Action, target models.SessionStatus) error {
	s, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if s.Status == target {
		return fmt.Errorf("session already %s: %w", target, domain.ErrConcurrencyConflict)
	}
	_, verr := NextStatus(action, s.Status)
	if verr != nil {
		return verr
	}
	return fmt.Errorf("session transition raced: %w", domain.ErrConcurrencyConflict)
}

// Archive soft-archives a session. Sessions with attendance or ballots are
// never hard-deleted.
func (r *Repository) Archive(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE sessions SET archived_at = NOW(), updated_at = NOW() WHERE id = $1 AND archived_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

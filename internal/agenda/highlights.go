package agenda

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/camaraaberta/backend/internal/domain"
	"github.com/camaraaberta/backend/internal/models"
)

// Destaques: sub-votes split out of an item while it holds the floor. They
// keep their own simple tally and never block the parent item's vote.

func scanHighlight(row pgx.Row) (*models.Highlight, error) {
	var h models.Highlight
	var outcome *string
	err := row.Scan(&h.ID, &h.ItemID, &h.Title, &h.Status, &outcome,
		&h.Yes, &h.No, &h.Abstain, &h.CreatedAt, &h.ClosedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("highlight: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if outcome != nil {
		o := models.VoteOutcome(*outcome)
		h.Outcome = &o
	}
	return &h, nil
}

const highlightColumns = `id, item_id, title, status, outcome, yes_count, no_count, abstain_count, created_at, closed_at`

// CreateHighlight attaches an open destaque to an item currently on the floor.
func (r *Repository) CreateHighlight(ctx context.Context, h *models.Highlight) error {
	const q = `INSERT INTO highlights (id, item_id, title, status)
		SELECT gen_random_uuid(), i.id, $2, 'OPEN'
		FROM agenda_items i WHERE i.id = $1 AND i.status IN ('IN_DISCUSSION', 'IN_VOTE')
		RETURNING ` + highlightColumns
	created, err := scanHighlight(r.pool.QueryRow(ctx, q, h.ItemID, h.Title))
	if errors.Is(err, domain.ErrNotFound) {
		it, gerr := r.GetItem(ctx, h.ItemID)
		if gerr != nil {
			return gerr
		}
		return fmt.Errorf("item is %s, destaque requires the floor: %w", it.Status, domain.ErrInvalidItemState)
	}
	if err != nil {
		return err
	}
	*h = *created
	return nil
}

// GetHighlight returns a highlight by ID.
func (r *Repository) GetHighlight(ctx context.Context, id uuid.UUID) (*models.Highlight, error) {
	return scanHighlight(r.pool.QueryRow(ctx,
		`SELECT `+highlightColumns+` FROM highlights WHERE id = $1`, id))
}

// ListHighlights returns the destaques of an item.
func (r *Repository) ListHighlights(ctx context.Context, itemID uuid.UUID) ([]models.Highlight, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+highlightColumns+` FROM highlights WHERE item_id = $1 ORDER BY created_at`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Highlight
	for rows.Next() {
		h, err := scanHighlight(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *h)
	}
	return list, rows.Err()
}

// CastHighlightVote upserts a member's vote on an open destaque. The session
// must be in progress and the member marked present; last write wins.
func (r *Repository) CastHighlightVote(ctx context.Context, highlightID, memberID uuid.UUID, value models.VoteValue) error {
	const q = `INSERT INTO highlight_votes (highlight_id, member_id, value, cast_at)
		SELECT h.id, $2, $3, NOW()
		FROM highlights h
		JOIN agenda_items i ON i.id = h.item_id
		JOIN agendas a ON a.id = i.agenda_id
		JOIN sessions s ON s.id = a.session_id
		WHERE h.id = $1 AND h.status = 'OPEN' AND s.status = 'IN_PROGRESS'
		  AND EXISTS (SELECT 1 FROM attendance_records ar
			WHERE ar.session_id = a.session_id AND ar.member_id = $2 AND ar.present)
		ON CONFLICT (highlight_id, member_id)
		DO UPDATE SET value = EXCLUDED.value, cast_at = NOW()`
	tag, err := r.pool.Exec(ctx, q, highlightID, memberID, string(value))
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	h, err := r.GetHighlight(ctx, highlightID)
	if err != nil {
		return err
	}
	sessionStatus, err := r.sessionStatusForItem(ctx, h.ItemID)
	if err != nil {
		return err
	}
	if sessionStatus != models.SessionInProgress {
		return fmt.Errorf("session is %s: %w", sessionStatus, domain.ErrInvalidSessionState)
	}
	if h.Status != models.HighlightOpen {
		return fmt.Errorf("highlight %s: %w", highlightID, domain.ErrVoteNotOpen)
	}
	return fmt.Errorf("member %s: %w", memberID, domain.ErrIneligibleVoter)
}

func (r *Repository) sessionStatusForItem(ctx context.Context, itemID uuid.UUID) (models.SessionStatus, error) {
	var status models.SessionStatus
	err := r.pool.QueryRow(ctx,
		`SELECT s.status FROM sessions s
			JOIN agendas a ON a.session_id = s.id
			JOIN agenda_items i ON i.agenda_id = a.id
			WHERE i.id = $1`, itemID).Scan(&status)
	return status, err
}

// CloseHighlight flips OPEN -> CLOSED and settles the tally by simple
// majority in one transaction; a losing concurrent close gets VoteNotOpen.
func (r *Repository) CloseHighlight(ctx context.Context, highlightID uuid.UUID) (*models.Highlight, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	h, err := scanHighlight(tx.QueryRow(ctx,
		`SELECT `+highlightColumns+` FROM highlights WHERE id = $1 FOR UPDATE`, highlightID))
	if err != nil {
		return nil, err
	}
	if h.Status != models.HighlightOpen {
		return nil, fmt.Errorf("highlight %s: %w", highlightID, domain.ErrVoteNotOpen)
	}
	var sessionStatus models.SessionStatus
	err = tx.QueryRow(ctx,
		`SELECT s.status FROM sessions s
			JOIN agendas a ON a.session_id = s.id
			JOIN agenda_items i ON i.agenda_id = a.id
			WHERE i.id = $1`, h.ItemID).Scan(&sessionStatus)
	if err != nil {
		return nil, err
	}
	if sessionStatus != models.SessionInProgress {
		return nil, fmt.Errorf("session is %s: %w", sessionStatus, domain.ErrInvalidSessionState)
	}

	var yes, no, abstain int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FILTER (WHERE value = 'YES'),
			COUNT(*) FILTER (WHERE value = 'NO'),
			COUNT(*) FILTER (WHERE value = 'ABSTAIN')
		 FROM highlight_votes WHERE highlight_id = $1`, highlightID).Scan(&yes, &no, &abstain)
	if err != nil {
		return nil, err
	}

	outcome := models.OutcomeRejected
	switch {
	case yes > no:
		outcome = models.OutcomeApproved
	case yes == no && yes > 0:
		outcome = models.OutcomeTie
	}

	h, err = scanHighlight(tx.QueryRow(ctx,
		`UPDATE highlights SET status = 'CLOSED', outcome = $2, yes_count = $3, no_count = $4, abstain_count = $5, closed_at = NOW()
		 WHERE id = $1 RETURNING `+highlightColumns, highlightID, string(outcome), yes, no, abstain))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return h, nil
}

package voting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/camaraaberta/backend/internal/domain"
	"github.com/camaraaberta/backend/internal/models"
)

const itemColumns = `id, agenda_id, section, position, title, bill_id, status, purpose, round, time_limit_seconds, time_used_seconds, result, created_at, updated_at`

// Engine runs the floor voting lifecycle: open a round, collect ballots,
// close and decide. Opening and casting are single guarded statements;
// closing is one transaction holding a row lock on the item so that a late
// ballot and the close cannot interleave.
type Engine struct {
	pool     *pgxpool.Pool
	resolver *Resolver
	logger   *zap.Logger
}

// NewEngine creates a voting engine.
func NewEngine(pool *pgxpool.Pool, resolver *Resolver, logger *zap.Logger) *Engine {
	return &Engine{pool: pool, resolver: resolver, logger: logger}
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

// OpenVote opens a new voting round on an item from PENDING or
// IN_DISCUSSION. The quorum config for the item's purpose must exist and be
// active before the floor opens, so a misconfigured purpose fails here
// rather than at close.
func (e *Engine) OpenVote(ctx context.Context, itemID uuid.UUID) (*models.AgendaItem, error) {
	return e.openRound(ctx, itemID, []string{"PENDING", "IN_DISCUSSION"})
}

// ReopenVote opens the next round on an already decided item, e.g. the
// second reading of a bill that passed its first. The previous round's
// ballots and cached result stay untouched under the old round number.
func (e *Engine) ReopenVote(ctx context.Context, itemID uuid.UUID) (*models.AgendaItem, error) {
	return e.openRound(ctx, itemID, []string{"APPROVED", "REJECTED"})
}

func (e *Engine) openRound(ctx context.Context, itemID uuid.UUID, from []string) (*models.AgendaItem, error) {
	current, err := e.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if _, err := e.resolver.Resolve(ctx, current.Purpose); err != nil {
		return nil, err
	}

	const q = `UPDATE agenda_items i SET status = 'IN_VOTE', round = i.round + 1, updated_at = NOW()
		FROM agendas a, sessions s
		WHERE i.id = $1 AND a.id = i.agenda_id AND s.id = a.session_id
		  AND i.status = ANY($2) AND s.status = 'IN_PROGRESS'
		  AND NOT EXISTS (SELECT 1 FROM agenda_items o
			WHERE o.agenda_id = i.agenda_id AND o.id <> i.id AND o.status IN ('IN_DISCUSSION', 'IN_VOTE'))
		RETURNING i.id, i.agenda_id, i.section, i.position, i.title, i.bill_id, i.status, i.purpose, i.round,
			i.time_limit_seconds, i.time_used_seconds, i.result, i.created_at, i.updated_at`
	it, err := scanItem(e.pool.QueryRow(ctx, q, itemID, from))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, e.classifyOpenFailure(ctx, itemID, from)
	}
	return it, err
}

func (e *Engine) classifyOpenFailure(ctx context.Context, itemID uuid.UUID, from []string) error {
	it, err := e.GetItem(ctx, itemID)
	if err != nil {
		return err
	}
	sessionStatus, err := e.sessionStatus(ctx, it.AgendaID)
	if err != nil {
		return err
	}
	if sessionStatus != models.SessionInProgress {
		return fmt.Errorf("session is %s: %w", sessionStatus, domain.ErrInvalidSessionState)
	}
	allowed := false
	for _, s := range from {
		if string(it.Status) == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("cannot open a vote on a %s item: %w", it.Status, domain.ErrInvalidItemState)
	}
	var active int
	err = e.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM agenda_items WHERE agenda_id = $1 AND id <> $2 AND status IN ('IN_DISCUSSION', 'IN_VOTE')`,
		it.AgendaID, itemID).Scan(&active)
	if err != nil {
		return err
	}
	if active > 0 {
		return fmt.Errorf("item %s: %w", itemID, domain.ErrItemAlreadyActive)
	}
	return fmt.Errorf("vote open raced: %w", domain.ErrConcurrencyConflict)
}

func (e *Engine) sessionStatus(ctx context.Context, agendaID uuid.UUID) (models.SessionStatus, error) {
	var status models.SessionStatus
	err := e.pool.QueryRow(ctx,
		`SELECT s.status FROM sessions s JOIN agendas a ON a.session_id = s.id WHERE a.id = $1`,
		agendaID).Scan(&status)
	return status, err
}

// CastVote records a member's ballot in the current round. The guarded
// insert checks that the session is in progress, the vote is open and the
// member is marked present in the same statement, and takes a share lock on
// the item row so a close in flight blocks the cast rather than losing it.
// Re-casting overwrites: last write wins.
func (e *Engine) CastVote(ctx context.Context, itemID, memberID uuid.UUID, value models.VoteValue) (*models.Ballot, error) {
	if !value.Valid() {
		return nil, fmt.Errorf("vote value %q: %w", value, domain.ErrInvalidItemState)
	}
	const q = `INSERT INTO ballots (item_id, member_id, round, value, cast_at)
		SELECT i.id, $2, i.round, $3, NOW()
		FROM agenda_items i
		JOIN agendas a ON a.id = i.agenda_id
		JOIN sessions s ON s.id = a.session_id
		WHERE i.id = $1 AND i.status = 'IN_VOTE' AND s.status = 'IN_PROGRESS'
		  AND EXISTS (SELECT 1 FROM attendance_records ar
			WHERE ar.session_id = a.session_id AND ar.member_id = $2 AND ar.present)
		FOR SHARE OF i
		ON CONFLICT (item_id, member_id, round)
		DO UPDATE SET value = EXCLUDED.value, cast_at = NOW()
		RETURNING item_id, member_id, round, value, cast_at`
	var b models.Ballot
	err := e.pool.QueryRow(ctx, q, itemID, memberID, string(value)).
		Scan(&b.ItemID, &b.MemberID, &b.Round, &b.Value, &b.CastAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, e.classifyCastFailure(ctx, itemID, memberID)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return nil, fmt.Errorf("member %s: %w", memberID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (e *Engine) classifyCastFailure(ctx context.Context, itemID, memberID uuid.UUID) error {
	it, err := e.GetItem(ctx, itemID)
	if err != nil {
		return err
	}
	sessionStatus, err := e.sessionStatus(ctx, it.AgendaID)
	if err != nil {
		return err
	}
	var present bool
	err = e.pool.QueryRow(ctx,
		`SELECT ar.present FROM attendance_records ar
			JOIN agendas a ON a.session_id = ar.session_id
			WHERE a.id = $1 AND ar.member_id = $2`,
		it.AgendaID, memberID).Scan(&present)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	return castRejection(sessionStatus, it.Status, present, memberID)
}

// castRejection explains a guarded ballot insert that matched no row. A
// ballot needs the session in progress, the round open and the member
// marked present; when all three held by the time we looked, the cast
// raced with the close.
func castRejection(session models.SessionStatus, item models.ItemStatus, present bool, memberID uuid.UUID) error {
	if session != models.SessionInProgress {
		return fmt.Errorf("session is %s: %w", session, domain.ErrInvalidSessionState)
	}
	if item != models.ItemInVote {
		return fmt.Errorf("item is %s: %w", item, domain.ErrVoteNotOpen)
	}
	if !present {
		return fmt.Errorf("member %s is not marked present: %w", memberID, domain.ErrIneligibleVoter)
	}
	return fmt.Errorf("ballot raced with vote close: %w", domain.ErrVoteNotOpen)
}

// closeRejection reports why the current round cannot be closed, or nil
// when it can. A round closed twice reports the vote as not open; a
// suspended session must resume before the round settles.
func closeRejection(session models.SessionStatus, item models.ItemStatus) error {
	if item != models.ItemInVote {
		return fmt.Errorf("item is %s: %w", item, domain.ErrVoteNotOpen)
	}
	if session != models.SessionInProgress {
		return fmt.Errorf("session is %s: %w", session, domain.ErrInvalidSessionState)
	}
	return nil
}

// CloseVote ends the current round, computes the outcome under the item's
// quorum rule and stamps the result on the item. The whole close is one
// transaction: the item row is locked, so ballots cast after the lock is
// taken land in a closed round and are rejected. Closing an already closed
// round reports the vote as not open.
func (e *Engine) CloseVote(ctx context.Context, itemID uuid.UUID) (*models.AgendaItem, error) {
	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	it, err := scanItem(tx.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM agenda_items WHERE id = $1 FOR UPDATE`, itemID))
	if err != nil {
		return nil, err
	}
	var sessionStatus models.SessionStatus
	err = tx.QueryRow(ctx,
		`SELECT s.status FROM sessions s JOIN agendas a ON a.session_id = s.id WHERE a.id = $1`,
		it.AgendaID).Scan(&sessionStatus)
	if err != nil {
		return nil, err
	}
	if err := closeRejection(sessionStatus, it.Status); err != nil {
		return nil, err
	}

	cfg, err := e.resolver.Resolve(ctx, it.Purpose)
	if err != nil {
		return nil, err
	}

	var tally Counts
	err = tx.QueryRow(ctx, `SELECT
			COUNT(*) FILTER (WHERE value = 'YES'),
			COUNT(*) FILTER (WHERE value = 'NO'),
			COUNT(*) FILTER (WHERE value = 'ABSTAIN')
		FROM ballots WHERE item_id = $1 AND round = $2`, it.ID, it.Round).
		Scan(&tally.Yes, &tally.No, &tally.Abstain)
	if err != nil {
		return nil, err
	}

	population, err := e.population(ctx, tx, cfg, it.AgendaID)
	if err != nil {
		return nil, err
	}

	result, err := ComputeOutcome(cfg, tally, population, it.Round, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}

	status := ItemStatusFor(result.Outcome)
	_, err = tx.Exec(ctx,
		`UPDATE agenda_items SET status = $2, result = $3, updated_at = NOW() WHERE id = $1`,
		it.ID, string(status), payload)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	it.Status = status
	it.Result = result
	e.logger.Info("vote closed",
		zap.String("item_id", it.ID.String()),
		zap.Int("round", it.Round),
		zap.String("outcome", string(result.Outcome)),
		zap.Int("yes", result.Yes), zap.Int("no", result.No), zap.Int("abstain", result.Abstain))
	return it, nil
}

func (e *Engine) population(ctx context.Context, tx pgx.Tx, cfg *models.QuorumConfig, agendaID uuid.UUID) (int, error) {
	var n int
	var err error
	switch cfg.PopulationBase {
	case models.BaseTotalSeats:
		err = tx.QueryRow(ctx, `SELECT COUNT(*) FROM members WHERE active`).Scan(&n)
	case models.BasePresent:
		err = tx.QueryRow(ctx, `SELECT COUNT(*) FROM attendance_records ar
			JOIN agendas a ON a.session_id = ar.session_id
			WHERE a.id = $1 AND ar.present`, agendaID).Scan(&n)
	default:
		return 0, fmt.Errorf("unknown population base %q: %w", cfg.PopulationBase, domain.ErrConfigurationError)
	}
	return n, err
}

// Policy returns the quorum configuration governing a purpose.
func (e *Engine) Policy(ctx context.Context, purpose models.VotePurpose) (*models.QuorumConfig, error) {
	return e.resolver.Resolve(ctx, purpose)
}

// GetItem returns an agenda item by ID.
func (e *Engine) GetItem(ctx context.Context, id uuid.UUID) (*models.AgendaItem, error) {
	return scanItem(e.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM agenda_items WHERE id = $1`, id))
}

// SessionIDForItem returns the session an item belongs to.
func (e *Engine) SessionIDForItem(ctx context.Context, itemID uuid.UUID) (uuid.UUID, error) {
	var sessionID uuid.UUID
	err := e.pool.QueryRow(ctx,
		`SELECT a.session_id FROM agendas a JOIN agenda_items i ON i.agenda_id = a.id WHERE i.id = $1`,
		itemID).Scan(&sessionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("agenda item: %w", domain.ErrNotFound)
	}
	return sessionID, err
}

// ListBallots returns the individual ballots of a round in cast order.
func (e *Engine) ListBallots(ctx context.Context, itemID uuid.UUID, round int) ([]models.Ballot, error) {
	rows, err := e.pool.Query(ctx,
		`SELECT item_id, member_id, round, value, cast_at FROM ballots
			WHERE item_id = $1 AND round = $2 ORDER BY cast_at`, itemID, round)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ballots []models.Ballot
	for rows.Next() {
		var b models.Ballot
		if err := rows.Scan(&b.ItemID, &b.MemberID, &b.Round, &b.Value, &b.CastAt); err != nil {
			return nil, err
		}
		ballots = append(ballots, b)
	}
	return ballots, rows.Err()
}

// LiveCounts returns the running tally of the item's current round. Read
// without locking: the panel tolerates a snapshot that is an instant stale.
func (e *Engine) LiveCounts(ctx context.Context, itemID uuid.UUID) (Counts, int, error) {
	var t Counts
	var round int
	err := e.pool.QueryRow(ctx, `SELECT i.round,
			COUNT(b.*) FILTER (WHERE b.value = 'YES'),
			COUNT(b.*) FILTER (WHERE b.value = 'NO'),
			COUNT(b.*) FILTER (WHERE b.value = 'ABSTAIN')
		FROM agenda_items i
		LEFT JOIN ballots b ON b.item_id = i.id AND b.round = i.round
		WHERE i.id = $1
		GROUP BY i.round`, itemID).
		Scan(&round, &t.Yes, &t.No, &t.Abstain)
	if errors.Is(err, pgx.ErrNoRows) {
		return Counts{}, 0, fmt.Errorf("agenda item: %w", domain.ErrNotFound)
	}
	return t, round, err
}

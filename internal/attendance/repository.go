package attendance

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/camaraaberta/backend/internal/domain"
	"github.com/camaraaberta/backend/internal/models"
)

// Repository is the attendance ledger. Presence is tracked per (session,
// member) independently of per-item voting and feeds the quorum "present"
// denominator.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an attendance repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Mark upserts a presence record. Allowed only while the session is
// IN_PROGRESS or CONCLUDED (retroactive correction); the session-status check
// runs in the same statement as the upsert so a concurrent transition cannot
// slip a record into a scheduled or cancelled session.
func (r *Repository) Mark(ctx context.Context, rec *models.AttendanceRecord) error {
	const q = `INSERT INTO attendance_records (session_id, member_id, present, justification, registered_at)
		SELECT s.id, $2, $3, $4, NOW() FROM sessions s
		WHERE s.id = $1 AND s.status IN ('IN_PROGRESS', 'CONCLUDED')
		ON CONFLICT (session_id, member_id)
		DO UPDATE SET present = EXCLUDED.present, justification = EXCLUDED.justification, registered_at = NOW()
		RETURNING registered_at`
	err := r.pool.QueryRow(ctx, q, rec.SessionID, rec.MemberID, rec.Present, rec.Justification).
		Scan(&rec.RegisteredAt)
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign key: unknown member
		return fmt.Errorf("member %s: %w", rec.MemberID, domain.ErrNotFound)
	}
	// Zero rows from the guarded insert: either the session does not exist or
	// its status forbids attendance changes.
	return r.classifyMarkFailure(ctx, rec.SessionID, err)
}

func (r *Repository) classifyMarkFailure(ctx context.Context, sessionID uuid.UUID, cause error) error {
	var status models.SessionStatus
	err := r.pool.QueryRow(ctx, `SELECT status FROM sessions WHERE id = $1`, sessionID).Scan(&status)
	if err != nil {
		return fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	if status != models.SessionInProgress && status != models.SessionConcluded {
		return fmt.Errorf("attendance closed while session is %s: %w", status, domain.ErrInvalidSessionState)
	}
	return cause
}

// EntryResult is the per-entry outcome of a bulk mark. Bulk marking is not
// all-or-nothing: each entry is an independent upsert and failures are
// reported back individually.
type EntryResult struct {
	MemberID uuid.UUID `json:"member_id"`
	OK       bool      `json:"ok"`
	Error    string    `json:"error,omitempty"`
}

// BulkMark applies each entry independently and returns one result per entry.
func (r *Repository) BulkMark(ctx context.Context, sessionID uuid.UUID, entries []models.AttendanceRecord) []EntryResult {
	results := make([]EntryResult, 0, len(entries))
	for i := range entries {
		rec := entries[i]
		rec.SessionID = sessionID
		res := EntryResult{MemberID: rec.MemberID, OK: true}
		if err := r.Mark(ctx, &rec); err != nil {
			res.OK = false
			res.Error = err.Error()
		}
		results = append(results, res)
	}
	return results
}

// ListBySession returns all attendance records for a session.
func (r *Repository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.AttendanceRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT ar.session_id, ar.member_id, ar.present, ar.justification, ar.registered_at
		 FROM attendance_records ar WHERE ar.session_id = $1 ORDER BY ar.registered_at`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.AttendanceRecord
	for rows.Next() {
		var rec models.AttendanceRecord
		if err := rows.Scan(&rec.SessionID, &rec.MemberID, &rec.Present, &rec.Justification, &rec.RegisteredAt); err != nil {
			return nil, err
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

// PresentCount returns the number of members marked present for a session.
func (r *Repository) PresentCount(ctx context.Context, sessionID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM attendance_records WHERE session_id = $1 AND present`, sessionID).Scan(&n)
	return n, err
}

// IsPresent reports whether a member is marked present for a session.
func (r *Repository) IsPresent(ctx context.Context, sessionID, memberID uuid.UUID) (bool, error) {
	var present bool
	err := r.pool.QueryRow(ctx,
		`SELECT present FROM attendance_records WHERE session_id = $1 AND member_id = $2`,
		sessionID, memberID).Scan(&present)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil // no record means absent
	}
	if err != nil {
		return false, err
	}
	return present, nil
}

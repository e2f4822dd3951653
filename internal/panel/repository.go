package panel

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/camaraaberta/backend/internal/models"
)

// Repository serves the read side of the public panel: the present roster
// with member names and the most recent decided result of a session.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a panel repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// PresentMember is one row of the panel's attendance list.
type PresentMember struct {
	MemberID  uuid.UUID `json:"member_id"`
	Name      string    `json:"name"`
	Party     string    `json:"party"`
	SeatLabel string    `json:"seat_label,omitempty"`
}

// PresentRoster returns the members marked present, in name order.
func (r *Repository) PresentRoster(ctx context.Context, sessionID uuid.UUID) ([]PresentMember, error) {
	const q = `SELECT m.id, m.name, m.party, m.seat_label
		FROM attendance_records ar JOIN members m ON m.id = ar.member_id
		WHERE ar.session_id = $1 AND ar.present
		ORDER BY m.name`
	rows, err := r.pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roster []PresentMember
	for rows.Next() {
		var m PresentMember
		if err := rows.Scan(&m.MemberID, &m.Name, &m.Party, &m.SeatLabel); err != nil {
			return nil, err
		}
		roster = append(roster, m)
	}
	return roster, rows.Err()
}

// TotalSeats returns the number of active roster seats.
func (r *Repository) TotalSeats(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM members WHERE active`).Scan(&n)
	return n, err
}

// LastResult returns the most recently decided item's cached result for a
// session, or nil when nothing has been decided yet.
func (r *Repository) LastResult(ctx context.Context, sessionID uuid.UUID) (*models.VoteResult, string, error) {
	const q = `SELECT i.title, i.result
		FROM agenda_items i JOIN agendas a ON a.id = i.agenda_id
		WHERE a.session_id = $1 AND i.status IN ('APPROVED', 'REJECTED') AND i.result IS NOT NULL
		ORDER BY i.updated_at DESC LIMIT 1`
	var title string
	var payload []byte
	err := r.pool.QueryRow(ctx, q, sessionID).Scan(&title, &payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	var vr models.VoteResult
	if err := json.Unmarshal(payload, &vr); err != nil {
		return nil, "", err
	}
	return &vr, title, nil
}

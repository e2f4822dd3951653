package members

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

// Repository handles parliamentarian roster persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a members repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new member.
func (r *Repository) Create(ctx context.Context, m *models.Member) error {
	const q = `INSERT INTO members (id, name, party, seat_label, active)
		VALUES (gen_random_uuid(), $1, $2, $3, $4)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, m.Name, m.Party, m.SeatLabel, m.Active).
		Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
}

// GetByID returns a member by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	const q = `SELECT id, name, party, seat_label, active, created_at, updated_at FROM members WHERE id = $1`
	var m models.Member
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&m.ID, &m.Name, &m.Party, &m.SeatLabel, &m.Active, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("member %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns the full roster, active seats first.
func (r *Repository) List(ctx context.Context) ([]models.Member, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, party, seat_label, active, created_at, updated_at FROM members ORDER BY active DESC, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Member
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Party, &m.SeatLabel, &m.Active, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// Update modifies roster fields of a member.
func (r *Repository) Update(ctx context.Context, m *models.Member) error {
	const q = `UPDATE members SET name = $2, party = $3, seat_label = $4, active = $5, updated_at = NOW()
		WHERE id = $1 RETURNING updated_at`
	err := r.pool.QueryRow(ctx, q, m.ID, m.Name, m.Party, m.SeatLabel, m.Active).Scan(&m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("member %s: %w", m.ID, domain.ErrNotFound)
	}
	return err
}

// CountActive returns the number of active seats: the total-seats population
// used by quorum math.
func (r *Repository) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM members WHERE active`).Scan(&n)
	return n, err
}

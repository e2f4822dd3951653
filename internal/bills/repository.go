package bills

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

// Repository handles proposição metadata persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a bills repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new bill.
func (r *Repository) Create(ctx context.Context, b *models.Bill) error {
	const q = `INSERT INTO bills (id, type, number, year, summary, author_member_id)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, string(b.Type), b.Number, b.Year, b.Summary, b.AuthorMemberID).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

// GetByID returns a bill by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Bill, error) {
	const q = `SELECT id, type, number, year, summary, author_member_id, created_at, updated_at FROM bills WHERE id = $1`
	var b models.Bill
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&b.ID, &b.Type, &b.Number, &b.Year, &b.Summary, &b.AuthorMemberID, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("bill %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// List returns bills, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Bill, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, type, number, year, summary, author_member_id, created_at, updated_at FROM bills ORDER BY year DESC, number DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Bill
	for rows.Next() {
		var b models.Bill
		if err := rows.Scan(&b.ID, &b.Type, &b.Number, &b.Year, &b.Summary, &b.AuthorMemberID, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

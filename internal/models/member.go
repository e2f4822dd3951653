package models

import (
	"time"

	"github.com/google/uuid"
)

// Member is a parliamentarian (vereador) holding a seat in the chamber.
// Active members define the total-seats population for quorum math.
type Member struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Party     string    `json:"party"`
	SeatLabel string    `json:"seat_label,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

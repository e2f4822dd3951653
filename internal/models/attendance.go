package models

import (
	"time"

	"github.com/google/uuid"
)

// AttendanceRecord marks a member present or absent for a session.
// Unique per (session, member); feeds the quorum "present" denominator.
type AttendanceRecord struct {
	SessionID     uuid.UUID `json:"session_id"`
	MemberID      uuid.UUID `json:"member_id"`
	Present       bool      `json:"present"`
	Justification string    `json:"justification,omitempty"`
	RegisteredAt  time.Time `json:"registered_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the session lifecycle state.
type SessionStatus string

const (
	SessionScheduled  SessionStatus = "SCHEDULED"
	SessionInProgress SessionStatus = "IN_PROGRESS"
	SessionSuspended  SessionStatus = "SUSPENDED"
	SessionConcluded  SessionStatus = "CONCLUDED"
	SessionCancelled  SessionStatus = "CANCELLED"
)

// SessionType classifies a legislative sitting.
type SessionType string

const (
	SessionOrdinary      SessionType = "ordinary"
	SessionExtraordinary SessionType = "extraordinary"
	SessionSolemn        SessionType = "solemn"
	SessionSpecial       SessionType = "special"
)

// Session represents one legislative sitting of the chamber.
type Session struct {
	ID             uuid.UUID     `json:"id"`
	Number         int           `json:"number"`
	Type           SessionType   `json:"type"`
	ScheduledAt    time.Time     `json:"scheduled_at"`
	Status         SessionStatus `json:"status"`
	ElapsedSeconds int64         `json:"elapsed_seconds"`
	StartedAt      *time.Time    `json:"started_at,omitempty"`
	ConcludedAt    *time.Time    `json:"concluded_at,omitempty"`
	ArchivedAt     *time.Time    `json:"archived_at,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// Elapsed returns the session clock at the given instant: accumulated seconds
// plus the running segment when the session is in progress.
func (s *Session) Elapsed(now time.Time) int64 {
	total := s.ElapsedSeconds
	if s.Status == SessionInProgress && s.StartedAt != nil {
		running := int64(now.Sub(*s.StartedAt).Seconds())
		if running > 0 {
			total += running
		}
	}
	return total
}

// Terminal reports whether no further session transitions are permitted.
func (s SessionStatus) Terminal() bool {
	return s == SessionConcluded || s == SessionCancelled
}

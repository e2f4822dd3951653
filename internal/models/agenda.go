package models

import (
	"time"

	"github.com/google/uuid"
)

// AgendaStatus is the agenda lifecycle state.
type AgendaStatus string

const (
	AgendaDraft      AgendaStatus = "DRAFT"
	AgendaApproved   AgendaStatus = "APPROVED"
	AgendaInProgress AgendaStatus = "IN_PROGRESS"
	AgendaConcluded  AgendaStatus = "CONCLUDED"
)

// AgendaSection is one of the fixed sections of a pauta, in floor order.
type AgendaSection string

const (
	SectionOpening        AgendaSection = "opening"
	SectionOrderOfDay     AgendaSection = "order_of_day"
	SectionCommunications AgendaSection = "communications"
	SectionHonors         AgendaSection = "honors"
	SectionOther          AgendaSection = "other"
)

// SectionOrder maps each section to its fixed position on the floor.
var SectionOrder = map[AgendaSection]int{
	SectionOpening:        0,
	SectionOrderOfDay:     1,
	SectionCommunications: 2,
	SectionHonors:         3,
	SectionOther:          4,
}

// Agenda is the pauta of one session: an ordered list of items grouped into sections.
type Agenda struct {
	ID               uuid.UUID    `json:"id"`
	SessionID        uuid.UUID    `json:"session_id"`
	Status           AgendaStatus `json:"status"`
	PublishedAt      *time.Time   `json:"published_at,omitempty"`
	EstimatedMinutes int          `json:"estimated_minutes"`
	ActualMinutes    int          `json:"actual_minutes"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// ItemStatus is the agenda item lifecycle state.
type ItemStatus string

const (
	ItemPending      ItemStatus = "PENDING"
	ItemInDiscussion ItemStatus = "IN_DISCUSSION"
	ItemInVote       ItemStatus = "IN_VOTE"
	ItemApproved     ItemStatus = "APPROVED"
	ItemRejected     ItemStatus = "REJECTED"
	ItemWithdrawn    ItemStatus = "WITHDRAWN"
	ItemPostponed    ItemStatus = "POSTPONED"
)

// Active reports whether the item holds the floor (in discussion or in vote).
func (s ItemStatus) Active() bool {
	return s == ItemInDiscussion || s == ItemInVote
}

// Terminal reports whether the item has been decided or removed from the floor.
func (s ItemStatus) Terminal() bool {
	switch s {
	case ItemApproved, ItemRejected, ItemWithdrawn, ItemPostponed:
		return true
	}
	return false
}

// AgendaItem is one row on the agenda. Result fields are populated when a
// vote round closes and cached here for display and audit.
type AgendaItem struct {
	ID               uuid.UUID     `json:"id"`
	AgendaID         uuid.UUID     `json:"agenda_id"`
	Section          AgendaSection `json:"section"`
	Position         int           `json:"position"`
	Title            string        `json:"title"`
	BillID           *uuid.UUID    `json:"bill_id,omitempty"`
	Status           ItemStatus    `json:"status"`
	Purpose          VotePurpose   `json:"purpose"`
	Round            int           `json:"round"`
	TimeLimitSeconds int           `json:"time_limit_seconds"`
	TimeUsedSeconds  int           `json:"time_used_seconds"`
	Result           *VoteResult   `json:"result,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// HighlightStatus is the lifecycle of a destaque sub-vote.
type HighlightStatus string

const (
	HighlightOpen   HighlightStatus = "OPEN"
	HighlightClosed HighlightStatus = "CLOSED"
)

// Highlight is a destaque: a sub-item split out for separate voting while the
// parent item is on the floor. Highlights carry their own simple tally and do
// not block the parent item's vote.
type Highlight struct {
	ID        uuid.UUID       `json:"id"`
	ItemID    uuid.UUID       `json:"item_id"`
	Title     string          `json:"title"`
	Status    HighlightStatus `json:"status"`
	Outcome   *VoteOutcome    `json:"outcome,omitempty"`
	Yes       int             `json:"yes"`
	No        int             `json:"no"`
	Abstain   int             `json:"abstain"`
	CreatedAt time.Time       `json:"created_at"`
	ClosedAt  *time.Time      `json:"closed_at,omitempty"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// VoteValue is a member's cast ballot value.
type VoteValue string

const (
	VoteYes     VoteValue = "YES"
	VoteNo      VoteValue = "NO"
	VoteAbstain VoteValue = "ABSTAIN"
)

// Valid reports whether the value is one of YES/NO/ABSTAIN.
func (v VoteValue) Valid() bool {
	switch v {
	case VoteYes, VoteNo, VoteAbstain:
		return true
	}
	return false
}

// Ballot is one member's vote on an agenda item in one round.
// Unique per (item, member, round); re-casting overwrites.
type Ballot struct {
	ItemID   uuid.UUID `json:"item_id"`
	MemberID uuid.UUID `json:"member_id"`
	Round    int       `json:"round"`
	Value    VoteValue `json:"value"`
	CastAt   time.Time `json:"cast_at"`
}

// VoteOutcome is the decision computed at close time.
type VoteOutcome string

const (
	OutcomeApproved VoteOutcome = "APPROVED"
	OutcomeRejected VoteOutcome = "REJECTED"
	OutcomeTie      VoteOutcome = "TIE"
)

// VoteResult is the aggregate computed when a round closes. Derived, never
// authored: cached on the agenda item for display and audit.
type VoteResult struct {
	Outcome        VoteOutcome    `json:"outcome"`
	Yes            int            `json:"yes"`
	No             int            `json:"no"`
	Abstain        int            `json:"abstain"`
	NonVoters      int            `json:"non_voters"`
	QuorumBasis    QuorumType     `json:"quorum_basis"`
	PopulationBase PopulationBase `json:"population_base"`
	PopulationUsed int            `json:"population_used"`
	Round          int            `json:"round"`
	Message        string         `json:"message,omitempty"`
	ClosedAt       time.Time      `json:"closed_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// VotePurpose is the declared voting purpose of an agenda item. Each active
// purpose maps to exactly one quorum configuration.
type VotePurpose string

const (
	PurposeInstallation     VotePurpose = "installation"
	PurposeSimple           VotePurpose = "simple"
	PurposeAbsoluteMajority VotePurpose = "absolute_majority"
	PurposeTwoThirds        VotePurpose = "two_thirds"
	PurposeUrgency          VotePurpose = "urgency"
	PurposeCommittee        VotePurpose = "committee"
	PurposeVetoOverride     VotePurpose = "veto_override"
)

// QuorumType is the affirmative threshold rule.
type QuorumType string

const (
	QuorumSimpleMajority   QuorumType = "simple_majority"
	QuorumAbsoluteMajority QuorumType = "absolute_majority"
	QuorumTwoThirds        QuorumType = "two_thirds"
)

// PopulationBase is the denominator used by threshold math.
type PopulationBase string

const (
	BaseTotalSeats PopulationBase = "total_seats"
	BasePresent    PopulationBase = "present"
)

// QuorumConfig is a named quorum rule, resolved by purpose at vote time.
// Read-only during voting; configured by administrators out-of-band.
type QuorumConfig struct {
	ID                      uuid.UUID      `json:"id"`
	Purpose                 VotePurpose    `json:"purpose"`
	QuorumType              QuorumType     `json:"quorum_type"`
	PopulationBase          PopulationBase `json:"population_base"`
	AllowAbstention         bool           `json:"allow_abstention"`
	AbstentionCountsAgainst bool           `json:"abstention_counts_against"`
	RequiresRollCall        bool           `json:"requires_roll_call"`
	ApproveMessage          string         `json:"approve_message"`
	RejectMessage           string         `json:"reject_message"`
	Active                  bool           `json:"active"`
	CreatedAt               time.Time      `json:"created_at"`
	UpdatedAt               time.Time      `json:"updated_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// BillType classifies a proposição.
type BillType string

const (
	BillOrdinaryLaw   BillType = "ordinary_law"
	BillResolution    BillType = "resolution"
	BillDecree        BillType = "decree"
	BillAmendment     BillType = "amendment"
	BillMotion        BillType = "motion"
	BillRequirement   BillType = "requirement"
	BillVetoMessage   BillType = "veto_message"
	BillMiscellaneous BillType = "miscellaneous"
)

// Bill is proposição metadata referenced by agenda items. The full routing
// (tramitação) workflow lives elsewhere; this store only supplies identity,
// numbering and the summary shown on the floor.
type Bill struct {
	ID             uuid.UUID  `json:"id"`
	Type           BillType   `json:"type"`
	Number         int        `json:"number"`
	Year           int        `json:"year"`
	Summary        string     `json:"summary"`
	AuthorMemberID *uuid.UUID `json:"author_member_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

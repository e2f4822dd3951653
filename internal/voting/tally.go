package voting

import (
	"fmt"
	"time"

	"github.com/camaraaberta/backend/internal/domain"
	"github.com/camaraaberta/backend/internal/models"
)

// Counts is the raw ballot tally for one round.
type Counts struct {
	Yes     int
	No      int
	Abstain int
}

// Total returns the number of ballots cast, including abstentions.
func (t Counts) Total() int {
	return t.Yes + t.No + t.Abstain
}

// Count tallies a slate of ballots. Invalid values are never stored, so the
// default branch is unreachable on persisted data.
func Count(ballots []models.Ballot) Counts {
	var t Counts
	for _, b := range ballots {
		switch b.Value {
		case models.VoteYes:
			t.Yes++
		case models.VoteNo:
			t.No++
		case models.VoteAbstain:
			t.Abstain++
		}
	}
	return t
}

// ComputeOutcome applies a quorum rule to a tally and produces the round
// result. Integer arithmetic only, no float thresholds.
//
// Abstentions cast under a rule that disallows them stay in the recorded
// count but are excluded from the threshold math. When the rule counts
// abstentions against, they are folded into NO before comparing. A tie is
// possible only under simple majority; the caller maps it to REJECTED for
// the item's status while keeping TIE in the result.
func ComputeOutcome(cfg *models.QuorumConfig, tally Counts, population int, round int, now time.Time) (*models.VoteResult, error) {
	if population <= 0 {
		return nil, fmt.Errorf("quorum population for %s is %d: %w", cfg.Purpose, population, domain.ErrConfigurationError)
	}

	yes, no := tally.Yes, tally.No
	if cfg.AllowAbstention && cfg.AbstentionCountsAgainst {
		no += tally.Abstain
	}

	res := &models.VoteResult{
		Yes:            tally.Yes,
		No:             tally.No,
		Abstain:        tally.Abstain,
		NonVoters:      max(population-tally.Total(), 0),
		QuorumBasis:    cfg.QuorumType,
		PopulationBase: cfg.PopulationBase,
		PopulationUsed: population,
		Round:          round,
		ClosedAt:       now,
	}

	switch cfg.QuorumType {
	case models.QuorumSimpleMajority:
		switch {
		case yes > no:
			res.Outcome = models.OutcomeApproved
		case yes == no && yes > 0:
			res.Outcome = models.OutcomeTie
		default:
			res.Outcome = models.OutcomeRejected
		}
	case models.QuorumAbsoluteMajority:
		if 2*yes > population {
			res.Outcome = models.OutcomeApproved
		} else {
			res.Outcome = models.OutcomeRejected
		}
	case models.QuorumTwoThirds:
		if 3*yes >= 2*population {
			res.Outcome = models.OutcomeApproved
		} else {
			res.Outcome = models.OutcomeRejected
		}
	default:
		return nil, fmt.Errorf("unknown quorum type %q: %w", cfg.QuorumType, domain.ErrConfigurationError)
	}

	switch res.Outcome {
	case models.OutcomeApproved:
		res.Message = cfg.ApproveMessage
	default:
		res.Message = cfg.RejectMessage
	}
	return res, nil
}

// ItemStatusFor maps a round outcome to the item's terminal status. A tie
// does not carry the motion.
func ItemStatusFor(outcome models.VoteOutcome) models.ItemStatus {
	if outcome == models.OutcomeApproved {
		return models.ItemApproved
	}
	return models.ItemRejected
}

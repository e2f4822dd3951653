package voting

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camaraaberta/backend/internal/domain"
	"github.com/camaraaberta/backend/internal/models"
)

func simpleCfg() *models.QuorumConfig {
	return &models.QuorumConfig{
		Purpose:         models.PurposeSimple,
		QuorumType:      models.QuorumSimpleMajority,
		PopulationBase:  models.BasePresent,
		AllowAbstention: true,
		ApproveMessage:  "aprovado",
		RejectMessage:   "rejeitado",
		Active:          true,
	}
}

func absoluteCfg() *models.QuorumConfig {
	return &models.QuorumConfig{
		Purpose:         models.PurposeAbsoluteMajority,
		QuorumType:      models.QuorumAbsoluteMajority,
		PopulationBase:  models.BaseTotalSeats,
		AllowAbstention: true,
		Active:          true,
	}
}

func twoThirdsCfg() *models.QuorumConfig {
	return &models.QuorumConfig{
		Purpose:        models.PurposeTwoThirds,
		QuorumType:     models.QuorumTwoThirds,
		PopulationBase: models.BaseTotalSeats,
		Active:         true,
	}
}

func TestCount(t *testing.T) {
	ballots := []models.Ballot{
		{MemberID: uuid.New(), Value: models.VoteYes},
		{MemberID: uuid.New(), Value: models.VoteYes},
		{MemberID: uuid.New(), Value: models.VoteNo},
		{MemberID: uuid.New(), Value: models.VoteAbstain},
	}
	tally := Count(ballots)
	assert.Equal(t, 2, tally.Yes)
	assert.Equal(t, 1, tally.No)
	assert.Equal(t, 1, tally.Abstain)
	assert.Equal(t, 4, tally.Total())
}

func TestAbsoluteMajorityNineSeats(t *testing.T) {
	now := time.Now()

	// 6 of 9: 2*6 > 9, carries.
	res, err := ComputeOutcome(absoluteCfg(), Counts{Yes: 6, No: 2, Abstain: 1}, 9, 1, now)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeApproved, res.Outcome)
	assert.Equal(t, 9, res.PopulationUsed)
	assert.Equal(t, 0, res.NonVoters)

	// 4 of 9 falls short even with only 2 against.
	res, err = ComputeOutcome(absoluteCfg(), Counts{Yes: 4, No: 2}, 9, 1, now)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeRejected, res.Outcome)
	assert.Equal(t, 3, res.NonVoters)

	// 5 of 9 is the exact majority: 2*5 > 9.
	res, err = ComputeOutcome(absoluteCfg(), Counts{Yes: 5, No: 4}, 9, 1, now)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeApproved, res.Outcome)
}

func TestTwoThirdsNineSeats(t *testing.T) {
	now := time.Now()

	// 6 of 9 is exactly two thirds: 3*6 >= 2*9.
	res, err := ComputeOutcome(twoThirdsCfg(), Counts{Yes: 6, No: 3}, 9, 1, now)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeApproved, res.Outcome)

	res, err = ComputeOutcome(twoThirdsCfg(), Counts{Yes: 5, No: 4}, 9, 1, now)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeRejected, res.Outcome)
}

func TestTwoThirdsOddPopulationRoundsUp(t *testing.T) {
	// Two thirds of 7 is 4.67, so 5 are needed.
	res, err := ComputeOutcome(twoThirdsCfg(), Counts{Yes: 4, No: 3}, 7, 1, time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeRejected, res.Outcome)

	res, err = ComputeOutcome(twoThirdsCfg(), Counts{Yes: 5, No: 2}, 7, 1, time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeApproved, res.Outcome)
}

func TestSimpleMajorityTie(t *testing.T) {
	res, err := ComputeOutcome(simpleCfg(), Counts{Yes: 3, No: 3, Abstain: 1}, 7, 1, time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeTie, res.Outcome)
	assert.Equal(t, models.ItemRejected, ItemStatusFor(res.Outcome))
	assert.Equal(t, "rejeitado", res.Message)
}

func TestSimpleMajorityZeroVotesRejects(t *testing.T) {
	res, err := ComputeOutcome(simpleCfg(), Counts{}, 5, 1, time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeRejected, res.Outcome)
	assert.Equal(t, 5, res.NonVoters)
}

func TestAbstentionCountsAgainst(t *testing.T) {
	cfg := simpleCfg()
	cfg.AbstentionCountsAgainst = true

	// 3 yes vs 2 no would carry, but 2 abstentions fold into no.
	res, err := ComputeOutcome(cfg, Counts{Yes: 3, No: 2, Abstain: 2}, 7, 1, time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeRejected, res.Outcome)
	// Recorded counts keep the abstentions visible.
	assert.Equal(t, 2, res.Abstain)
	assert.Equal(t, 2, res.No)
}

func TestAbstentionIgnoredWhenDisallowed(t *testing.T) {
	cfg := twoThirdsCfg() // AllowAbstention false
	cfg.AbstentionCountsAgainst = true

	// Abstentions cast despite the rule stay recorded but never fold into no.
	res, err := ComputeOutcome(cfg, Counts{Yes: 6, No: 2, Abstain: 1}, 9, 1, time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeApproved, res.Outcome)
	assert.Equal(t, 1, res.Abstain)
}

func TestZeroPopulationIsConfigurationError(t *testing.T) {
	_, err := ComputeOutcome(absoluteCfg(), Counts{Yes: 1}, 0, 1, time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfigurationError)
}

func TestResultCarriesRoundAndBasis(t *testing.T) {
	res, err := ComputeOutcome(absoluteCfg(), Counts{Yes: 7, No: 1}, 9, 2, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Round)
	assert.Equal(t, models.QuorumAbsoluteMajority, res.QuorumBasis)
	assert.Equal(t, models.BaseTotalSeats, res.PopulationBase)
}

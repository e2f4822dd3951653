package voting

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camaraaberta/backend/internal/domain"
	"github.com/camaraaberta/backend/internal/models"
)

func TestCastRejectionSuspendedSession(t *testing.T) {
	err := castRejection(models.SessionSuspended, models.ItemInVote, true, uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidSessionState,
		"a suspended session accepts no ballots even while the item row is still IN_VOTE")
}

func TestCastRejectionConcludedSession(t *testing.T) {
	err := castRejection(models.SessionConcluded, models.ItemInVote, true, uuid.New())
	assert.ErrorIs(t, err, domain.ErrInvalidSessionState)
}

func TestCastRejectionClosedRound(t *testing.T) {
	err := castRejection(models.SessionInProgress, models.ItemApproved, true, uuid.New())
	assert.ErrorIs(t, err, domain.ErrVoteNotOpen)
}

func TestCastRejectionAbsentMember(t *testing.T) {
	memberID := uuid.New()
	err := castRejection(models.SessionInProgress, models.ItemInVote, false, memberID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIneligibleVoter)
	assert.Contains(t, err.Error(), memberID.String())
}

func TestCastRejectionRaceReportsVoteNotOpen(t *testing.T) {
	// Everything held by the time we re-read, so the guarded insert lost a
	// race with the close. The caller sees the round as no longer open.
	err := castRejection(models.SessionInProgress, models.ItemInVote, true, uuid.New())
	assert.ErrorIs(t, err, domain.ErrVoteNotOpen)
}

func TestCloseRejectionDoubleClose(t *testing.T) {
	for _, st := range []models.ItemStatus{models.ItemApproved, models.ItemRejected} {
		err := closeRejection(models.SessionInProgress, st)
		assert.ErrorIs(t, err, domain.ErrVoteNotOpen, "closing a %s item again", st)
	}
}

func TestCloseRejectionSuspendedSession(t *testing.T) {
	err := closeRejection(models.SessionSuspended, models.ItemInVote)
	assert.ErrorIs(t, err, domain.ErrInvalidSessionState,
		"the session must resume before the round settles")
}

func TestCloseRejectionOpenRoundInProgress(t *testing.T) {
	assert.NoError(t, closeRejection(models.SessionInProgress, models.ItemInVote))
}

package sessions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camaraaberta/backend/internal/domain"
	"github.com/camaraaberta/backend/internal/models"
)

func TestNextStatusAllowed(t *testing.T) {
	cases := []struct {
		action Action
		from   models.SessionStatus
		to     models.SessionStatus
	}{
		{ActionStart, models.SessionScheduled, models.SessionInProgress},
		{ActionSuspend, models.SessionInProgress, models.SessionSuspended},
		{ActionResume, models.SessionSuspended, models.SessionInProgress},
		{ActionConclude, models.SessionInProgress, models.SessionConcluded},
		{ActionConclude, models.SessionSuspended, models.SessionConcluded},
		{ActionCancel, models.SessionScheduled, models.SessionCancelled},
	}
	for _, tc := range cases {
		got, err := NextStatus(tc.action, tc.from)
		require.NoError(t, err, "%s from %s", tc.action, tc.from)
		assert.Equal(t, tc.to, got)
	}
}

func TestNextStatusRejected(t *testing.T) {
	cases := []struct {
		action Action
		from   models.SessionStatus
	}{
		{ActionStart, models.SessionInProgress},
		{ActionStart, models.SessionConcluded},
		{ActionSuspend, models.SessionScheduled},
		{ActionSuspend, models.SessionSuspended},
		{ActionResume, models.SessionInProgress},
		{ActionConclude, models.SessionScheduled},
		{ActionCancel, models.SessionInProgress},
		{ActionCancel, models.SessionConcluded},
		{ActionCancel, models.SessionCancelled},
	}
	for _, tc := range cases {
		_, err := NextStatus(tc.action, tc.from)
		require.Error(t, err, "%s from %s", tc.action, tc.from)
		assert.ErrorIs(t, err, domain.ErrInvalidSessionState)
	}
}

func TestNextStatusUnknownAction(t *testing.T) {
	_, err := NextStatus(Action("archive"), models.SessionScheduled)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidSessionState)
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	for _, terminal := range []models.SessionStatus{models.SessionConcluded, models.SessionCancelled} {
		for _, action := range []Action{ActionStart, ActionSuspend, ActionResume, ActionConclude, ActionCancel} {
			_, err := NextStatus(action, terminal)
			assert.Error(t, err, "%s from %s must be rejected", action, terminal)
		}
	}
}

func TestSourceStatuses(t *testing.T) {
	from := SourceStatuses(ActionConclude)
	assert.ElementsMatch(t, []models.SessionStatus{models.SessionInProgress, models.SessionSuspended}, from)
}

func TestConcludeRejectionItemStillInVote(t *testing.T) {
	for _, st := range []models.SessionStatus{models.SessionInProgress, models.SessionSuspended} {
		err := ConcludeRejection(st, true)
		require.Error(t, err, "conclude with an open vote from %s", st)
		assert.ErrorIs(t, err, domain.ErrInvalidSessionState)
	}
}

func TestConcludeRejectionAllowsCleanConclude(t *testing.T) {
	assert.NoError(t, ConcludeRejection(models.SessionInProgress, false))
	assert.NoError(t, ConcludeRejection(models.SessionSuspended, false))
}

func TestConcludeRejectionAlreadyConcluded(t *testing.T) {
	err := ConcludeRejection(models.SessionConcluded, false)
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
}

func TestConcludeRejectionScheduledSession(t *testing.T) {
	err := ConcludeRejection(models.SessionScheduled, false)
	assert.ErrorIs(t, err, domain.ErrInvalidSessionState)
}

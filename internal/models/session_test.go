package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionElapsed(t *testing.T) {
	now := time.Now()
	started := now.Add(-90 * time.Second)

	s := &Session{Status: SessionInProgress, ElapsedSeconds: 120, StartedAt: &started}
	assert.Equal(t, int64(210), s.Elapsed(now))

	// Suspended: the running segment was already folded in.
	s = &Session{Status: SessionSuspended, ElapsedSeconds: 120}
	assert.Equal(t, int64(120), s.Elapsed(now))

	// Scheduled: nothing on the clock yet.
	s = &Session{Status: SessionScheduled}
	assert.Equal(t, int64(0), s.Elapsed(now))

	// A clock skew putting started_at in the future never subtracts time.
	future := now.Add(time.Minute)
	s = &Session{Status: SessionInProgress, ElapsedSeconds: 60, StartedAt: &future}
	assert.Equal(t, int64(60), s.Elapsed(now))
}

func TestSessionStatusTerminal(t *testing.T) {
	assert.True(t, SessionConcluded.Terminal())
	assert.True(t, SessionCancelled.Terminal())
	assert.False(t, SessionScheduled.Terminal())
	assert.False(t, SessionInProgress.Terminal())
	assert.False(t, SessionSuspended.Terminal())
}

func TestItemStatusActiveAndTerminal(t *testing.T) {
	assert.True(t, ItemInDiscussion.Active())
	assert.True(t, ItemInVote.Active())
	assert.False(t, ItemPending.Active())

	for _, terminal := range []ItemStatus{ItemApproved, ItemRejected, ItemWithdrawn, ItemPostponed} {
		assert.True(t, terminal.Terminal(), string(terminal))
		assert.False(t, terminal.Active(), string(terminal))
	}
	assert.False(t, ItemPending.Terminal())
	assert.False(t, ItemInVote.Terminal())
}

func TestVoteValueValid(t *testing.T) {
	assert.True(t, VoteYes.Valid())
	assert.True(t, VoteNo.Valid())
	assert.True(t, VoteAbstain.Valid())
	assert.False(t, VoteValue("MAYBE").Valid())
	assert.False(t, VoteValue("").Valid())
}

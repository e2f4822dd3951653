package panel

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camaraaberta/backend/internal/models"
	"github.com/camaraaberta/backend/internal/voting"
)

func testSession(status models.SessionStatus) *models.Session {
	return &models.Session{
		ID:          uuid.New(),
		Number:      42,
		Type:        models.SessionOrdinary,
		Status:      status,
		ScheduledAt: time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
	}
}

func TestBuildWaitingView(t *testing.T) {
	s := testSession(models.SessionInProgress)
	now := time.Now()

	st := Build(s, nil, voting.Counts{}, 0, false, nil, 9, nil, now)

	require.NotNil(t, st)
	assert.Equal(t, s.ID, st.SessionID)
	assert.Equal(t, 42, st.SessionNumber)
	assert.Nil(t, st.CurrentItem)
	assert.Nil(t, st.LiveVote)
	assert.Nil(t, st.LastResult)
	assert.NotNil(t, st.Present, "present list marshals as [] not null")
	assert.Equal(t, 0, st.PresentCount)
	assert.Equal(t, 9, st.TotalSeats)
}

func TestBuildDiscussionHasNoLiveVote(t *testing.T) {
	s := testSession(models.SessionInProgress)
	item := &models.AgendaItem{
		ID:      uuid.New(),
		Title:   "Projeto de Lei 12/2026",
		Section: models.SectionOrderOfDay,
		Status:  models.ItemInDiscussion,
		Purpose: models.PurposeSimple,
	}

	st := Build(s, item, voting.Counts{}, 0, false, nil, 9, nil, time.Now())

	require.NotNil(t, st.CurrentItem)
	assert.Equal(t, item.Title, st.CurrentItem.Title)
	assert.Nil(t, st.LiveVote, "tally only shows while a round is open")
}

func TestBuildLiveVote(t *testing.T) {
	s := testSession(models.SessionInProgress)
	item := &models.AgendaItem{
		ID:      uuid.New(),
		Title:   "Projeto de Lei 12/2026",
		Section: models.SectionOrderOfDay,
		Status:  models.ItemInVote,
		Purpose: models.PurposeAbsoluteMajority,
		Round:   1,
	}
	roster := []PresentMember{
		{MemberID: uuid.New(), Name: "Ana", Party: "A"},
		{MemberID: uuid.New(), Name: "Bruno", Party: "B"},
	}

	st := Build(s, item, voting.Counts{Yes: 4, No: 2, Abstain: 1}, 1, true, roster, 9, nil, time.Now())

	require.NotNil(t, st.LiveVote)
	assert.Equal(t, 1, st.LiveVote.Round)
	assert.Equal(t, 4, st.LiveVote.Yes)
	assert.Equal(t, 2, st.LiveVote.No)
	assert.Equal(t, 1, st.LiveVote.Abstain)
	assert.Equal(t, 7, st.LiveVote.Cast)
	assert.True(t, st.LiveVote.RollCall)
	assert.Equal(t, 2, st.PresentCount)
}

func TestBuildElapsedClock(t *testing.T) {
	now := time.Now()
	started := now.Add(-10 * time.Minute)
	s := testSession(models.SessionInProgress)
	s.ElapsedSeconds = 300
	s.StartedAt = &started

	st := Build(s, nil, voting.Counts{}, 0, false, nil, 9, nil, now)
	assert.Equal(t, int64(300+600), st.ElapsedSeconds)

	// A suspended session keeps only the accumulated time.
	s.Status = models.SessionSuspended
	s.StartedAt = nil
	st = Build(s, nil, voting.Counts{}, 0, false, nil, 9, nil, now)
	assert.Equal(t, int64(300), st.ElapsedSeconds)
}

func TestBuildLastResult(t *testing.T) {
	s := testSession(models.SessionInProgress)
	last := &LastResult{
		Title: "Requerimento 7/2026",
		Result: models.VoteResult{
			Outcome: models.OutcomeApproved,
			Yes:     6, No: 2, Abstain: 1,
			Round: 1,
		},
	}

	st := Build(s, nil, voting.Counts{}, 0, false, nil, 9, last, time.Now())
	require.NotNil(t, st.LastResult)
	assert.Equal(t, models.OutcomeApproved, st.LastResult.Result.Outcome)
	assert.Equal(t, "Requerimento 7/2026", st.LastResult.Title)
}

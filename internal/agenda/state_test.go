package agenda

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camaraaberta/backend/internal/domain"
	"github.com/camaraaberta/backend/internal/models"
)

func TestValidateItemTransitionAllowed(t *testing.T) {
	cases := []struct {
		from, to models.ItemStatus
	}{
		{models.ItemPending, models.ItemInDiscussion},
		{models.ItemPending, models.ItemInVote},
		{models.ItemPending, models.ItemWithdrawn},
		{models.ItemPending, models.ItemPostponed},
		{models.ItemInDiscussion, models.ItemInVote},
		{models.ItemInDiscussion, models.ItemWithdrawn},
		{models.ItemInDiscussion, models.ItemPostponed},
		{models.ItemInVote, models.ItemApproved},
		{models.ItemInVote, models.ItemRejected},
	}
	for _, tc := range cases {
		assert.NoError(t, ValidateItemTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestValidateItemTransitionRejected(t *testing.T) {
	cases := []struct {
		from, to models.ItemStatus
	}{
		{models.ItemPending, models.ItemApproved},
		{models.ItemInDiscussion, models.ItemPending},
		{models.ItemInVote, models.ItemWithdrawn},
		{models.ItemInVote, models.ItemPostponed},
		{models.ItemApproved, models.ItemInVote},
		{models.ItemRejected, models.ItemInDiscussion},
		{models.ItemWithdrawn, models.ItemPending},
	}
	for _, tc := range cases {
		err := ValidateItemTransition(tc.from, tc.to)
		require.Error(t, err, "%s -> %s", tc.from, tc.to)
		assert.ErrorIs(t, err, domain.ErrInvalidItemState)
	}
}

func TestRevertLocked(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.False(t, RevertLocked(now.Add(72*time.Hour), now))
	assert.False(t, RevertLocked(now.Add(48*time.Hour), now))
	assert.True(t, RevertLocked(now.Add(47*time.Hour), now))
	assert.True(t, RevertLocked(now.Add(time.Hour), now))
	// A session already past its scheduled time is locked too.
	assert.True(t, RevertLocked(now.Add(-time.Hour), now))
}

func TestValidSection(t *testing.T) {
	for _, s := range []models.AgendaSection{
		models.SectionOpening, models.SectionOrderOfDay, models.SectionCommunications,
		models.SectionHonors, models.SectionOther,
	} {
		assert.True(t, ValidSection(s), string(s))
	}
	assert.False(t, ValidSection(models.AgendaSection("closing")))
	assert.False(t, ValidSection(models.AgendaSection("")))
}

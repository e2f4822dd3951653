package agenda

import (
	"fmt"
	"time"

	"github.com/camaraaberta/backend/internal/domain"
	"github.com/camaraaberta/backend/internal/models"
)

// PublishLockWindow is how close to the session a published agenda becomes
// immutable: inside this window it cannot revert to draft.
const PublishLockWindow = 48 * time.Hour

// itemTransitions is the agenda item state machine. APPROVED, REJECTED,
// WITHDRAWN and POSTPONED are terminal here; the voting engine separately
// reopens a decided item for an operator-initiated next round.
var itemTransitions = map[models.ItemStatus][]models.ItemStatus{
	models.ItemPending:      {models.ItemInDiscussion, models.ItemInVote, models.ItemWithdrawn, models.ItemPostponed},
	models.ItemInDiscussion: {models.ItemInVote, models.ItemWithdrawn, models.ItemPostponed},
	models.ItemInVote:       {models.ItemApproved, models.ItemRejected},
}

// ValidateItemTransition returns ErrInvalidItemState when from -> to is not a
// legal item transition.
func ValidateItemTransition(from, to models.ItemStatus) error {
	for _, allowed := range itemTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("agenda item cannot go from %s to %s: %w", from, to, domain.ErrInvalidItemState)
}

// RevertLocked reports whether a published agenda is inside the transparency
// lock window and may no longer revert to draft.
func RevertLocked(sessionScheduledAt, now time.Time) bool {
	return sessionScheduledAt.Sub(now) < PublishLockWindow
}

// ValidSection reports whether s is one of the fixed agenda sections.
func ValidSection(s models.AgendaSection) bool {
	_, ok := models.SectionOrder[s]
	return ok
}

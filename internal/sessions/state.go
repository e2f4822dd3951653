package sessions

import (
	"fmt"

	"github.com/camaraaberta/backend/internal/domain"
	"github.com/camaraaberta/backend/internal/models"
)

// Action is a session-control operation.
type Action string

const (
	ActionStart    Action = "start"
	ActionSuspend  Action = "suspend"
	ActionResume   Action = "resume"
	ActionConclude Action = "conclude"
	ActionCancel   Action = "cancel"
)

// transitions is the session state machine: action -> allowed source states -> target.
// CONCLUDED and CANCELLED are terminal; nothing leaves them.
var transitions = map[Action]map[models.SessionStatus]models.SessionStatus{
	ActionStart: {
		models.SessionScheduled: models.SessionInProgress,
	},
	ActionSuspend: {
		models.SessionInProgress: models.SessionSuspended,
	},
	ActionResume: {
		models.SessionSuspended: models.SessionInProgress,
	},
	ActionConclude: {
		models.SessionInProgress: models.SessionConcluded,
		models.SessionSuspended:  models.SessionConcluded,
	},
	ActionCancel: {
		models.SessionScheduled: models.SessionCancelled,
	},
}

// NextStatus returns the target status for applying action to a session in
// the given state, or ErrInvalidSessionState when the transition is illegal.
func NextStatus(action Action, from models.SessionStatus) (models.SessionStatus, error) {
	targets, ok := transitions[action]
	if !ok {
		return "", fmt.Errorf("unknown session action %q: %w", action, domain.ErrInvalidSessionState)
	}
	to, ok := targets[from]
	if !ok {
		return "", fmt.Errorf("cannot %s a %s session: %w", action, from, domain.ErrInvalidSessionState)
	}
	return to, nil
}

// ConcludeRejection reports why a conclude is refused given the session's
// status and whether any agenda item still holds an open vote, or nil when
// the conclude may proceed. An in-flight ballot must be closed first so the
// decision is never silently discarded.
func ConcludeRejection(status models.SessionStatus, itemInVote bool) error {
	if _, err := NextStatus(ActionConclude, status); err != nil {
		if status == models.SessionConcluded {
			return fmt.Errorf("session already concluded: %w", domain.ErrConcurrencyConflict)
		}
		return err
	}
	if itemInVote {
		return fmt.Errorf("an agenda item is still in vote: %w", domain.ErrInvalidSessionState)
	}
	return nil
}

// SourceStatuses returns the states an action may be applied from.
func SourceStatuses(action Action) []models.SessionStatus {
	var out []models.SessionStatus
	for from := range transitions[action] {
		out = append(out, from)
	}
	return out
}

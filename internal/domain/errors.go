// Package domain holds the error taxonomy shared across feature packages.
package domain

import "errors"

var (
	// ErrNotFound means the requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidSessionState means the session is not in the required state.
	ErrInvalidSessionState = errors.New("invalid session state")
	// ErrInvalidItemState means the agenda item does not allow the operation.
	ErrInvalidItemState = errors.New("invalid agenda item state")
	// ErrItemAlreadyActive means another item on the agenda is already in discussion or in vote.
	ErrItemAlreadyActive = errors.New("another agenda item is already active")
	// ErrVoteNotOpen means a ballot operation hit an item whose vote is not open for that round.
	ErrVoteNotOpen = errors.New("vote is not open")
	// ErrIneligibleVoter means a member not marked present attempted to vote.
	ErrIneligibleVoter = errors.New("member is not marked present")
	// ErrConfigurationError means the quorum purpose is unresolvable or the population base is zero.
	ErrConfigurationError = errors.New("quorum configuration error")
	// ErrConcurrencyConflict means an atomic state-transition guard lost a race.
	// The caller must re-read, not retry.
	ErrConcurrencyConflict = errors.New("concurrent state transition detected")
	// ErrAgendaLocked means a published agenda within 48h of the session cannot revert to draft.
	ErrAgendaLocked = errors.New("agenda is locked for changes")
	// ErrAgendaNotReady means the session cannot start with a missing or draft agenda.
	ErrAgendaNotReady = errors.New("agenda is missing or still a draft")
)

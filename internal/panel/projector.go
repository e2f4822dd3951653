package panel

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/camaraaberta/backend/internal/agenda"
	"github.com/camaraaberta/backend/internal/domain"
	"github.com/camaraaberta/backend/internal/models"
	"github.com/camaraaberta/backend/internal/sessions"
	"github.com/camaraaberta/backend/internal/voting"
)

// State is the full panel snapshot pushed to the chamber display and to
// websocket subscribers. Plain data, safe to marshal as-is.
type State struct {
	SessionID      uuid.UUID            `json:"session_id"`
	SessionNumber  int                  `json:"session_number"`
	SessionType    models.SessionType   `json:"session_type"`
	SessionStatus  models.SessionStatus `json:"session_status"`
	ScheduledAt    time.Time            `json:"scheduled_at"`
	ElapsedSeconds int64                `json:"elapsed_seconds"`
	CurrentItem    *ItemSummary         `json:"current_item,omitempty"`
	LiveVote       *LiveVote            `json:"live_vote,omitempty"`
	Present        []PresentMember      `json:"present"`
	PresentCount   int                  `json:"present_count"`
	TotalSeats     int                  `json:"total_seats"`
	LastResult     *LastResult          `json:"last_result,omitempty"`
	GeneratedAt    time.Time            `json:"generated_at"`
}

// ItemSummary is the item currently holding the floor.
type ItemSummary struct {
	ItemID           uuid.UUID            `json:"item_id"`
	Title            string               `json:"title"`
	Section          models.AgendaSection `json:"section"`
	Status           models.ItemStatus    `json:"status"`
	Purpose          models.VotePurpose   `json:"purpose"`
	Round            int                  `json:"round"`
	TimeLimitSeconds int                  `json:"time_limit_seconds,omitempty"`
}

// LiveVote is the running tally while a round is open. RollCall tells the
// display to show per-member votes instead of bare counts.
type LiveVote struct {
	Round    int  `json:"round"`
	Yes      int  `json:"yes"`
	No       int  `json:"no"`
	Abstain  int  `json:"abstain"`
	Cast     int  `json:"cast"`
	RollCall bool `json:"roll_call"`
}

// LastResult is the previous decision shown below the live area.
type LastResult struct {
	Title  string            `json:"title"`
	Result models.VoteResult `json:"result"`
}

// Build assembles a snapshot from already-fetched parts. Pure, so the
// composition rules are testable without a database.
func Build(s *models.Session, item *models.AgendaItem, counts voting.Counts, round int,
	rollCall bool, roster []PresentMember, totalSeats int, last *LastResult, now time.Time) *State {
	st := &State{
		SessionID:      s.ID,
		SessionNumber:  s.Number,
		SessionType:    s.Type,
		SessionStatus:  s.Status,
		ScheduledAt:    s.ScheduledAt,
		ElapsedSeconds: s.Elapsed(now),
		Present:        roster,
		PresentCount:   len(roster),
		TotalSeats:     totalSeats,
		LastResult:     last,
		GeneratedAt:    now,
	}
	if st.Present == nil {
		st.Present = []PresentMember{}
	}
	if item != nil {
		st.CurrentItem = &ItemSummary{
			ItemID:           item.ID,
			Title:            item.Title,
			Section:          item.Section,
			Status:           item.Status,
			Purpose:          item.Purpose,
			Round:            item.Round,
			TimeLimitSeconds: item.TimeLimitSeconds,
		}
		if item.Status == models.ItemInVote {
			st.LiveVote = &LiveVote{
				Round:    round,
				Yes:      counts.Yes,
				No:       counts.No,
				Abstain:  counts.Abstain,
				Cast:     counts.Total(),
				RollCall: rollCall,
			}
		}
	}
	return st
}

// Builder produces panel snapshots from live data.
type Builder struct {
	sessions *sessions.Repository
	agenda   *agenda.Repository
	votes    *voting.Engine
	repo     *Repository
}

// NewBuilder creates a panel builder.
func NewBuilder(s *sessions.Repository, a *agenda.Repository, v *voting.Engine, r *Repository) *Builder {
	return &Builder{sessions: s, agenda: a, votes: v, repo: r}
}

// Snapshot builds the current panel state for a session. A session with no
// active item yields a waiting view with the item and tally absent.
func (b *Builder) Snapshot(ctx context.Context, sessionID uuid.UUID) (*State, error) {
	s, err := b.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var item *models.AgendaItem
	var counts voting.Counts
	var round int
	var rollCall bool
	item, err = b.agenda.ActiveItem(ctx, sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		item = nil
	} else if err != nil {
		return nil, err
	}
	if item != nil && item.Status == models.ItemInVote {
		counts, round, err = b.votes.LiveCounts(ctx, item.ID)
		if err != nil {
			return nil, err
		}
		// A config deactivated mid-round must not blank the panel.
		if cfg, err := b.votes.Policy(ctx, item.Purpose); err == nil {
			rollCall = cfg.RequiresRollCall
		}
	}

	roster, err := b.repo.PresentRoster(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	totalSeats, err := b.repo.TotalSeats(ctx)
	if err != nil {
		return nil, err
	}

	var last *LastResult
	if vr, title, err := b.repo.LastResult(ctx, sessionID); err != nil {
		return nil, err
	} else if vr != nil {
		last = &LastResult{Title: title, Result: *vr}
	}

	return Build(s, item, counts, round, rollCall, roster, totalSeats, last, time.Now().UTC()), nil
}

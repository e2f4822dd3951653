package voting

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/camaraaberta/backend/internal/middleware"
	"github.com/camaraaberta/backend/internal/models"
	"github.com/camaraaberta/backend/pkg/response"
)

// Notifier pushes a fresh panel snapshot after a voting event.
type Notifier interface {
	SessionChanged(ctx context.Context, sessionID uuid.UUID, event string)
}

// Auditor records an audit entry, fire-and-forget.
type Auditor interface {
	Record(ctx context.Context, actorID uuid.UUID, action, entityType string, entityID uuid.UUID, detail interface{})
}

// CastRequest is the body for POST /items/:id/vote.
type CastRequest struct {
	MemberID string `json:"member_id"`
	Value    string `json:"value" binding:"required,oneof=YES NO ABSTAIN"`
}

// ConfigRequest is the body for PUT /quorum-configs/:purpose (admin).
type ConfigRequest struct {
	QuorumType              string `json:"quorum_type" binding:"required,oneof=simple_majority absolute_majority two_thirds"`
	PopulationBase          string `json:"population_base" binding:"required,oneof=total_seats present"`
	AllowAbstention         bool   `json:"allow_abstention"`
	AbstentionCountsAgainst bool   `json:"abstention_counts_against"`
	RequiresRollCall        bool   `json:"requires_roll_call"`
	ApproveMessage          string `json:"approve_message"`
	RejectMessage           string `json:"reject_message"`
	Active                  *bool  `json:"active"`
}

// Handler handles voting and quorum config HTTP endpoints.
type Handler struct {
	engine   *Engine
	configs  *ConfigRepository
	resolver *Resolver
	panel    Notifier
	audit    Auditor
}

// NewHandler creates a voting handler.
func NewHandler(engine *Engine, configs *ConfigRepository, resolver *Resolver, panel Notifier, audit Auditor) *Handler {
	return &Handler{engine: engine, configs: configs, resolver: resolver, panel: panel, audit: audit}
}

// Open handles POST /items/:id/vote/open (operator).
func (h *Handler) Open(c *gin.Context) {
	h.roundTransition(c, "vote.open", h.engine.OpenVote)
}

// Reopen handles POST /items/:id/vote/reopen (operator). Starts the next
// round on a decided item.
func (h *Handler) Reopen(c *gin.Context) {
	h.roundTransition(c, "vote.reopen", h.engine.ReopenVote)
}

// Close handles POST /items/:id/vote/close (operator).
func (h *Handler) Close(c *gin.Context) {
	h.roundTransition(c, "vote.close", h.engine.CloseVote)
}

func (h *Handler) roundTransition(c *gin.Context, action string, fn func(context.Context, uuid.UUID) (*models.AgendaItem, error)) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid item id")
		return
	}
	it, err := fn(c.Request.Context(), itemID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	h.recordAudit(c, action, it.ID, it.Result)
	h.notify(c, it.ID, action)
	response.OK(c, it)
}

// Cast handles POST /items/:id/vote/cast. Member accounts vote for their own
// seat; operators may record a seat's vote on its behalf.
func (h *Handler) Cast(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid item id")
		return
	}
	var req CastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	memberID, ok := middleware.VoterSeat(c, req.MemberID)
	if !ok {
		return
	}
	ballot, err := h.engine.CastVote(c.Request.Context(), itemID, memberID, models.VoteValue(req.Value))
	if err != nil {
		response.FromError(c, err)
		return
	}
	h.recordAudit(c, "vote.cast", itemID, gin.H{"member_id": memberID, "round": ballot.Round})
	h.notify(c, itemID, "vote.cast")
	response.OK(c, ballot)
}

// Ballots handles GET /items/:id/ballots?round=N. Defaults to the item's
// current round.
func (h *Handler) Ballots(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid item id")
		return
	}
	it, err := h.engine.GetItem(c.Request.Context(), itemID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	round := it.Round
	if raw := c.Query("round"); raw != "" {
		round, err = strconv.Atoi(raw)
		if err != nil || round < 1 {
			response.BadRequest(c, "invalid round")
			return
		}
	}
	ballots, err := h.engine.ListBallots(c.Request.Context(), itemID, round)
	if err != nil {
		response.Internal(c, "failed to list ballots")
		return
	}
	response.OK(c, gin.H{"item_id": itemID, "round": round, "ballots": ballots})
}

// ListConfigs handles GET /quorum-configs (admin).
func (h *Handler) ListConfigs(c *gin.Context) {
	configs, err := h.configs.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list quorum configs")
		return
	}
	response.OK(c, configs)
}

// UpsertConfig handles PUT /quorum-configs/:purpose (admin). Invalidates
// the resolver cache so the change applies to the next vote.
func (h *Handler) UpsertConfig(c *gin.Context) {
	purpose := models.VotePurpose(c.Param("purpose"))
	var req ConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	cfg := &models.QuorumConfig{
		Purpose:                 purpose,
		QuorumType:              models.QuorumType(req.QuorumType),
		PopulationBase:          models.PopulationBase(req.PopulationBase),
		AllowAbstention:         req.AllowAbstention,
		AbstentionCountsAgainst: req.AbstentionCountsAgainst,
		RequiresRollCall:        req.RequiresRollCall,
		ApproveMessage:          req.ApproveMessage,
		RejectMessage:           req.RejectMessage,
		Active:                  true,
	}
	if req.Active != nil {
		cfg.Active = *req.Active
	}
	if err := h.configs.Upsert(c.Request.Context(), cfg); err != nil {
		response.Internal(c, "failed to save quorum config")
		return
	}
	h.resolver.Invalidate(c.Request.Context(), purpose)
	h.recordAudit(c, "quorum_config.upsert", cfg.ID, cfg)
	response.OK(c, cfg)
}

// SetConfigActive handles PATCH /quorum-configs/:purpose/active (admin).
func (h *Handler) SetConfigActive(c *gin.Context) {
	purpose := models.VotePurpose(c.Param("purpose"))
	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := h.configs.SetActive(c.Request.Context(), purpose, *req.Active); err != nil {
		response.FromError(c, err)
		return
	}
	h.resolver.Invalidate(c.Request.Context(), purpose)
	h.recordAudit(c, "quorum_config.set_active", uuid.Nil, gin.H{"purpose": purpose, "active": *req.Active})
	response.OK(c, gin.H{"purpose": purpose, "active": *req.Active})
}

func (h *Handler) notify(c *gin.Context, itemID uuid.UUID, event string) {
	if h.panel == nil {
		return
	}
	sessionID, err := h.engine.SessionIDForItem(c.Request.Context(), itemID)
	if err != nil {
		return
	}
	h.panel.SessionChanged(c.Request.Context(), sessionID, event)
}

func (h *Handler) recordAudit(c *gin.Context, action string, entityID uuid.UUID, detail interface{}) {
	if h.audit == nil {
		return
	}
	actorID, _ := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	h.audit.Record(c.Request.Context(), actorID, action, "vote", entityID, detail)
}

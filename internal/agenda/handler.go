package agenda

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/camaraaberta/backend/internal/middleware"
	"github.com/camaraaberta/backend/internal/models"
	"github.com/camaraaberta/backend/pkg/response"
)

// Notifier pushes a fresh panel snapshot after an agenda mutation.
type Notifier interface {
	SessionChanged(ctx context.Context, sessionID uuid.UUID, event string)
}

// Auditor records an audit entry, fire-and-forget.
type Auditor interface {
	Record(ctx context.Context, actorID uuid.UUID, action, entityType string, entityID uuid.UUID, detail interface{})
}

// CreateAgendaRequest is the body for POST /sessions/:id/agenda.
type CreateAgendaRequest struct {
	EstimatedMinutes int `json:"estimated_minutes"`
}

// AddItemRequest is the body for POST /agendas/:id/items.
type AddItemRequest struct {
	Section          string `json:"section" binding:"required"`
	Title            string `json:"title" binding:"required"`
	BillID           string `json:"bill_id"`
	Purpose          string `json:"purpose"`
	TimeLimitSeconds int    `json:"time_limit_seconds"`
}

// MoveRequest is the body for POST /items/:id/move.
type MoveRequest struct {
	Direction string `json:"direction" binding:"required,oneof=up down"`
}

// HighlightRequest is the body for POST /items/:id/highlights.
type HighlightRequest struct {
	Title string `json:"title" binding:"required"`
}

// HighlightVoteRequest is the body for POST /highlights/:id/vote.
type HighlightVoteRequest struct {
	MemberID string `json:"member_id"`
	Value    string `json:"value" binding:"required,oneof=YES NO ABSTAIN"`
}

// AgendaView is an agenda with its items in floor order.
type AgendaView struct {
	models.Agenda
	Items []models.AgendaItem `json:"items"`
}

// Handler handles agenda HTTP endpoints.
type Handler struct {
	repo  *Repository
	panel Notifier
	audit Auditor
}

// NewHandler creates an agenda handler.
func NewHandler(repo *Repository, panel Notifier, audit Auditor) *Handler {
	return &Handler{repo: repo, panel: panel, audit: audit}
}

// CreateAgenda handles POST /sessions/:id/agenda (operator).
func (h *Handler) CreateAgenda(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	var req CreateAgendaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	a := &models.Agenda{SessionID: sessionID, EstimatedMinutes: req.EstimatedMinutes}
	if err := h.repo.CreateAgenda(c.Request.Context(), a); err != nil {
		response.Internal(c, "failed to create agenda")
		return
	}
	h.recordAudit(c, "agenda.create", a.ID)
	response.Created(c, a)
}

// GetBySession handles GET /sessions/:id/agenda.
func (h *Handler) GetBySession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	a, err := h.repo.GetAgendaBySession(c.Request.Context(), sessionID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	items, err := h.repo.ListItems(c.Request.Context(), a.ID)
	if err != nil {
		response.Internal(c, "failed to list agenda items")
		return
	}
	response.OK(c, AgendaView{Agenda: *a, Items: items})
}

// Publish handles POST /agendas/:id/publish (operator).
func (h *Handler) Publish(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid agenda id")
		return
	}
	a, err := h.repo.Publish(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	h.recordAudit(c, "agenda.publish", a.ID)
	response.OK(c, a)
}

// RevertToDraft handles POST /agendas/:id/unpublish (operator). Refused
// inside the 48h transparency window.
func (h *Handler) RevertToDraft(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid agenda id")
		return
	}
	a, err := h.repo.RevertToDraft(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	h.recordAudit(c, "agenda.unpublish", a.ID)
	response.OK(c, a)
}

// AddItem handles POST /agendas/:id/items (operator).
func (h *Handler) AddItem(c *gin.Context) {
	agendaID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid agenda id")
		return
	}
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	section := models.AgendaSection(req.Section)
	if !ValidSection(section) {
		response.BadRequest(c, "unknown agenda section")
		return
	}
	purpose := models.PurposeSimple
	if req.Purpose != "" {
		purpose = models.VotePurpose(req.Purpose)
	}
	it := &models.AgendaItem{
		AgendaID:         agendaID,
		Section:          section,
		Title:            req.Title,
		Purpose:          purpose,
		TimeLimitSeconds: req.TimeLimitSeconds,
	}
	if req.BillID != "" {
		billID, err := uuid.Parse(req.BillID)
		if err != nil {
			response.BadRequest(c, "invalid bill id")
			return
		}
		it.BillID = &billID
	}
	if err := h.repo.AddItem(c.Request.Context(), it); err != nil {
		response.FromError(c, err)
		return
	}
	h.recordAudit(c, "agenda.add_item", it.ID)
	response.Created(c, it)
}

// StartDiscussion handles POST /items/:id/discussion (operator).
func (h *Handler) StartDiscussion(c *gin.Context) {
	h.itemTransition(c, "item.start_discussion", h.repo.StartDiscussion)
}

// Withdraw handles POST /items/:id/withdraw (operator).
func (h *Handler) Withdraw(c *gin.Context) {
	h.itemTransition(c, "item.withdraw", h.repo.Withdraw)
}

// Postpone handles POST /items/:id/postpone (operator).
func (h *Handler) Postpone(c *gin.Context) {
	h.itemTransition(c, "item.postpone", h.repo.Postpone)
}

func (h *Handler) itemTransition(c *gin.Context, action string, fn func(context.Context, uuid.UUID) (*models.AgendaItem, error)) {
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
	h.recordAudit(c, action, it.ID)
	h.notifyItem(c, it)
	response.OK(c, it)
}

// Move handles POST /items/:id/move (operator). Pending items only.
func (h *Handler) Move(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid item id")
		return
	}
	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	delta := 1
	if req.Direction == "up" {
		delta = -1
	}
	if err := h.repo.Move(c.Request.Context(), itemID, delta); err != nil {
		response.FromError(c, err)
		return
	}
	h.recordAudit(c, "item.move", itemID)
	response.OK(c, gin.H{"id": itemID, "moved": req.Direction})
}

// CreateHighlight handles POST /items/:id/highlights (operator).
func (h *Handler) CreateHighlight(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid item id")
		return
	}
	var req HighlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	hl := &models.Highlight{ItemID: itemID, Title: req.Title}
	if err := h.repo.CreateHighlight(c.Request.Context(), hl); err != nil {
		response.FromError(c, err)
		return
	}
	h.recordAudit(c, "highlight.create", hl.ID)
	response.Created(c, hl)
}

// ListHighlights handles GET /items/:id/highlights.
func (h *Handler) ListHighlights(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid item id")
		return
	}
	list, err := h.repo.ListHighlights(c.Request.Context(), itemID)
	if err != nil {
		response.Internal(c, "failed to list highlights")
		return
	}
	response.OK(c, list)
}

// VoteHighlight handles POST /highlights/:id/vote. Member accounts vote for
// their own seat; operators may record a seat's vote on its behalf.
func (h *Handler) VoteHighlight(c *gin.Context) {
	highlightID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid highlight id")
		return
	}
	var req HighlightVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	memberID, ok := middleware.VoterSeat(c, req.MemberID)
	if !ok {
		return
	}
	if err := h.repo.CastHighlightVote(c.Request.Context(), highlightID, memberID, models.VoteValue(req.Value)); err != nil {
		response.FromError(c, err)
		return
	}
	h.recordAudit(c, "highlight.vote", highlightID)
	response.OK(c, gin.H{"highlight_id": highlightID, "member_id": memberID, "value": req.Value})
}

// CloseHighlight handles POST /highlights/:id/close (operator).
func (h *Handler) CloseHighlight(c *gin.Context) {
	highlightID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid highlight id")
		return
	}
	hl, err := h.repo.CloseHighlight(c.Request.Context(), highlightID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	h.recordAudit(c, "highlight.close", hl.ID)
	response.OK(c, hl)
}

func (h *Handler) notifyItem(c *gin.Context, it *models.AgendaItem) {
	if h.panel == nil {
		return
	}
	a, err := h.repo.GetAgenda(c.Request.Context(), it.AgendaID)
	if err != nil {
		return
	}
	h.panel.SessionChanged(c.Request.Context(), a.SessionID, "agenda.item_changed")
}

func (h *Handler) recordAudit(c *gin.Context, action string, entityID uuid.UUID) {
	if h.audit == nil {
		return
	}
	actorID, _ := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	h.audit.Record(c.Request.Context(), actorID, action, "agenda", entityID, nil)
}

package sessions

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/camaraaberta/backend/internal/middleware"
	"github.com/camaraaberta/backend/internal/models"
	"github.com/camaraaberta/backend/pkg/response"
)

// Notifier pushes a fresh panel snapshot after a session mutation.
type Notifier interface {
	SessionChanged(ctx context.Context, sessionID uuid.UUID, event string)
}

// Auditor records an audit entry, fire-and-forget.
type Auditor interface {
	Record(ctx context.Context, actorID uuid.UUID, action, entityType string, entityID uuid.UUID, detail interface{})
}

// CreateRequest is the body for POST /sessions.
type CreateRequest struct {
	Number      int       `json:"number" binding:"required"`
	Type        string    `json:"type" binding:"required,oneof=ordinary extraordinary solemn special"`
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
}

// Handler handles session HTTP endpoints.
type Handler struct {
	repo    *Repository
	panel   Notifier
	audit   Auditor
	logger  *zap.Logger
}

// NewHandler creates a sessions handler.
func NewHandler(repo *Repository, panel Notifier, audit Auditor, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, panel: panel, audit: audit, logger: logger}
}

// Create handles POST /sessions (operator/admin).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	s := &models.Session{
		Number:      req.Number,
		Type:        models.SessionType(req.Type),
		ScheduledAt: req.ScheduledAt,
	}
	if err := h.repo.Create(c.Request.Context(), s); err != nil {
		h.logger.Error("create session", zap.Error(err))
		response.Internal(c, "failed to create session")
		return
	}
	h.recordAudit(c, "session.create", s.ID)
	response.Created(c, s)
}

// List handles GET /sessions.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list sessions")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /sessions/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	s, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, s)
}

// Start handles POST /sessions/:id/start (operator).
func (h *Handler) Start(c *gin.Context) {
	h.transition(c, "session.start", h.repo.Start)
}

// Suspend handles POST /sessions/:id/suspend (operator).
func (h *Handler) Suspend(c *gin.Context) {
	h.transition(c, "session.suspend", h.repo.Suspend)
}

// Resume handles POST /sessions/:id/resume (operator).
func (h *Handler) Resume(c *gin.Context) {
	h.transition(c, "session.resume", h.repo.Resume)
}

// Conclude handles POST /sessions/:id/conclude (operator).
func (h *Handler) Conclude(c *gin.Context) {
	h.transition(c, "session.conclude", h.repo.Conclude)
}

// Cancel handles POST /sessions/:id/cancel (operator).
func (h *Handler) Cancel(c *gin.Context) {
	h.transition(c, "session.cancel", h.repo.Cancel)
}

// Archive handles DELETE /sessions/:id (admin). Soft-archive only: sessions
// that saw attendance or votes are part of the public record.
func (h *Handler) Archive(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.repo.Archive(c.Request.Context(), id); err != nil {
		response.FromError(c, err)
		return
	}
	h.recordAudit(c, "session.archive", id)
	response.NoContent(c)
}

type transitionFunc func(ctx context.Context, id uuid.UUID) (*models.Session, error)

func (h *Handler) transition(c *gin.Context, action string, fn transitionFunc) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	s, err := fn(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	h.recordAudit(c, action, s.ID)
	if h.panel != nil {
		h.panel.SessionChanged(c.Request.Context(), s.ID, action)
	}
	response.OK(c, s)
}

func (h *Handler) recordAudit(c *gin.Context, action string, sessionID uuid.UUID) {
	if h.audit == nil {
		return
	}
	actorID, _ := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	h.audit.Record(c.Request.Context(), actorID, action, "session", sessionID, nil)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return uuid.Nil, false
	}
	return id, true
}

package attendance

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/camaraaberta/backend/internal/middleware"
	"github.com/camaraaberta/backend/internal/models"
	"github.com/camaraaberta/backend/pkg/response"
)

// Notifier pushes a fresh panel snapshot after an attendance mutation.
type Notifier interface {
	SessionChanged(ctx context.Context, sessionID uuid.UUID, event string)
}

// Auditor records an audit entry, fire-and-forget.
type Auditor interface {
	Record(ctx context.Context, actorID uuid.UUID, action, entityType string, entityID uuid.UUID, detail interface{})
}

// MarkRequest is the body for POST /sessions/:id/attendance.
type MarkRequest struct {
	MemberID      string `json:"member_id" binding:"required"`
	Present       *bool  `json:"present" binding:"required"`
	Justification string `json:"justification"`
}

// BulkRequest is the body for POST /sessions/:id/attendance/bulk.
type BulkRequest struct {
	Entries []MarkRequest `json:"entries" binding:"required,min=1,dive"`
}

// Handler handles attendance HTTP endpoints.
type Handler struct {
	repo  *Repository
	panel Notifier
	audit Auditor
}

// NewHandler creates an attendance handler.
func NewHandler(repo *Repository, panel Notifier, audit Auditor) *Handler {
	return &Handler{repo: repo, panel: panel, audit: audit}
}

// Mark handles POST /sessions/:id/attendance (operator).
func (h *Handler) Mark(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	var req MarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	memberID, err := uuid.Parse(req.MemberID)
	if err != nil {
		response.BadRequest(c, "invalid member id")
		return
	}

	rec := models.AttendanceRecord{
		SessionID:     sessionID,
		MemberID:      memberID,
		Present:       *req.Present,
		Justification: req.Justification,
	}
	if err := h.repo.Mark(c.Request.Context(), &rec); err != nil {
		response.FromError(c, err)
		return
	}
	h.recordAudit(c, "attendance.mark", sessionID)
	if h.panel != nil {
		h.panel.SessionChanged(c.Request.Context(), sessionID, "attendance.mark")
	}
	response.OK(c, rec)
}

// Bulk handles POST /sessions/:id/attendance/bulk (operator). Entries are
// applied independently; the response lists one outcome per entry.
func (h *Handler) Bulk(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	var req BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	entries := make([]models.AttendanceRecord, 0, len(req.Entries))
	for _, e := range req.Entries {
		memberID, err := uuid.Parse(e.MemberID)
		if err != nil {
			response.BadRequest(c, "invalid member id: "+e.MemberID)
			return
		}
		entries = append(entries, models.AttendanceRecord{
			MemberID:      memberID,
			Present:       *e.Present,
			Justification: e.Justification,
		})
	}

	results := h.repo.BulkMark(c.Request.Context(), sessionID, entries)
	h.recordAudit(c, "attendance.bulk_mark", sessionID)
	if h.panel != nil {
		h.panel.SessionChanged(c.Request.Context(), sessionID, "attendance.bulk_mark")
	}
	response.OK(c, results)
}

// List handles GET /sessions/:id/attendance.
func (h *Handler) List(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	list, err := h.repo.ListBySession(c.Request.Context(), sessionID)
	if err != nil {
		response.Internal(c, "failed to list attendance")
		return
	}
	response.OK(c, list)
}

func (h *Handler) recordAudit(c *gin.Context, action string, sessionID uuid.UUID) {
	if h.audit == nil {
		return
	}
	actorID, _ := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	h.audit.Record(c.Request.Context(), actorID, action, "session", sessionID, nil)
}

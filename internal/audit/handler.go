package audit

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/camaraaberta/backend/pkg/response"
)

// Handler serves the audit trail to administrators.
type Handler struct {
	repo *Repository
}

// NewHandler creates an audit handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// List handles GET /audit?entity_id=&actor_id=&action=&limit= (admin).
func (h *Handler) List(c *gin.Context) {
	var f Filter
	if raw := c.Query("entity_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid entity_id")
			return
		}
		f.EntityID = id
	}
	if raw := c.Query("actor_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid actor_id")
			return
		}
		f.ActorID = id
	}
	f.Action = c.Query("action")
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.BadRequest(c, "invalid limit")
			return
		}
		f.Limit = n
	}
	entries, err := h.repo.List(c.Request.Context(), f)
	if err != nil {
		response.Internal(c, "failed to list audit entries")
		return
	}
	response.OK(c, entries)
}

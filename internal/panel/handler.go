package panel

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/camaraaberta/backend/pkg/response"
)

// Handler serves the public panel snapshot over HTTP. The same snapshot is
// pushed over websockets; this endpoint covers initial page load and polling
// fallbacks.
type Handler struct {
	builder *Builder
}

// NewHandler creates a panel handler.
func NewHandler(builder *Builder) *Handler {
	return &Handler{builder: builder}
}

// Get handles GET /sessions/:id/panel. Public, no auth.
func (h *Handler) Get(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	state, err := h.builder.Snapshot(c.Request.Context(), sessionID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, state)
}

package bills

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/camaraaberta/backend/internal/domain"
	"github.com/camaraaberta/backend/internal/models"
	"github.com/camaraaberta/backend/pkg/response"
)

// CreateRequest is the body for POST /bills.
type CreateRequest struct {
	Type           string `json:"type" binding:"required"`
	Number         int    `json:"number" binding:"required"`
	Year           int    `json:"year" binding:"required"`
	Summary        string `json:"summary" binding:"required"`
	AuthorMemberID string `json:"author_member_id"`
}

// Handler handles bill HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a bills handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// Create handles POST /bills (admin).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	b := &models.Bill{
		Type:    models.BillType(req.Type),
		Number:  req.Number,
		Year:    req.Year,
		Summary: req.Summary,
	}
	if req.AuthorMemberID != "" {
		id, err := uuid.Parse(req.AuthorMemberID)
		if err != nil {
			response.BadRequest(c, "invalid author_member_id")
			return
		}
		b.AuthorMemberID = &id
	}
	if err := h.repo.Create(c.Request.Context(), b); err != nil {
		response.Internal(c, "failed to create bill")
		return
	}
	response.Created(c, b)
}

// List handles GET /bills.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list bills")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /bills/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid bill id")
		return
	}
	b, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.NotFound(c, "bill not found")
			return
		}
		response.Internal(c, "failed to load bill")
		return
	}
	response.OK(c, b)
}

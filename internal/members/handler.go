package members

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/camaraaberta/backend/internal/domain"
	"github.com/camaraaberta/backend/internal/models"
	"github.com/camaraaberta/backend/pkg/response"
)

// CreateRequest is the body for POST /members.
type CreateRequest struct {
	Name      string `json:"name" binding:"required"`
	Party     string `json:"party"`
	SeatLabel string `json:"seat_label"`
}

// UpdateRequest is the body for PATCH /members/:id.
type UpdateRequest struct {
	Name      *string `json:"name"`
	Party     *string `json:"party"`
	SeatLabel *string `json:"seat_label"`
	Active    *bool   `json:"active"`
}

// Handler handles roster HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a members handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// Create handles POST /members (admin).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	m := &models.Member{Name: req.Name, Party: req.Party, SeatLabel: req.SeatLabel, Active: true}
	if err := h.repo.Create(c.Request.Context(), m); err != nil {
		response.Internal(c, "failed to create member")
		return
	}
	response.Created(c, m)
}

// List handles GET /members.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list members")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /members/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid member id")
		return
	}
	m, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.NotFound(c, "member not found")
			return
		}
		response.Internal(c, "failed to load member")
		return
	}
	response.OK(c, m)
}

// Update handles PATCH /members/:id (admin). Deactivating a seat shrinks the
// total-seats quorum population from the next vote onward.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid member id")
		return
	}
	m, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.NotFound(c, "member not found")
			return
		}
		response.Internal(c, "failed to load member")
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Name != nil {
		m.Name = *req.Name
	}
	if req.Party != nil {
		m.Party = *req.Party
	}
	if req.SeatLabel != nil {
		m.SeatLabel = *req.SeatLabel
	}
	if req.Active != nil {
		m.Active = *req.Active
	}
	if err := h.repo.Update(c.Request.Context(), m); err != nil {
		response.Internal(c, "failed to update member")
		return
	}
	response.OK(c, m)
}

package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/camaraaberta/backend/internal/domain"
)

// Body is the standard API response envelope.
type Body struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

// NoContent sends 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest sends 400 with error message.
func BadRequest(c *gin.Context, err string) {
	c.JSON(http.StatusBadRequest, Body{Success: false, Error: err})
}

// Unauthorized sends 401.
func Unauthorized(c *gin.Context, err string) {
	c.JSON(http.StatusUnauthorized, Body{Success: false, Error: err})
}

// Forbidden sends 403.
func Forbidden(c *gin.Context, err string) {
	c.JSON(http.StatusForbidden, Body{Success: false, Error: err})
}

// NotFound sends 404.
func NotFound(c *gin.Context, err string) {
	c.JSON(http.StatusNotFound, Body{Success: false, Error: err})
}

// Conflict sends 409 with error message and machine-readable code.
func Conflict(c *gin.Context, code, err string) {
	c.JSON(http.StatusConflict, Body{Success: false, Error: err, Code: code})
}

// Internal sends 500.
func Internal(c *gin.Context, err string) {
	c.JSON(http.StatusInternalServerError, Body{Success: false, Error: err})
}

// FromError maps a domain error to its HTTP response. Lifecycle violations
// are 409 so callers can distinguish them from malformed requests; every
// mapped error carries a stable machine-readable code.
func FromError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, domain.ErrInvalidSessionState):
		Conflict(c, "INVALID_SESSION_STATE", err.Error())
	case errors.Is(err, domain.ErrInvalidItemState):
		Conflict(c, "INVALID_ITEM_STATE", err.Error())
	case errors.Is(err, domain.ErrItemAlreadyActive):
		Conflict(c, "ITEM_ALREADY_ACTIVE", err.Error())
	case errors.Is(err, domain.ErrVoteNotOpen):
		Conflict(c, "VOTE_NOT_OPEN", err.Error())
	case errors.Is(err, domain.ErrAgendaLocked):
		Conflict(c, "AGENDA_LOCKED", err.Error())
	case errors.Is(err, domain.ErrAgendaNotReady):
		Conflict(c, "AGENDA_NOT_READY", err.Error())
	case errors.Is(err, domain.ErrConcurrencyConflict):
		Conflict(c, "CONCURRENCY_CONFLICT", err.Error())
	case errors.Is(err, domain.ErrIneligibleVoter):
		Forbidden(c, err.Error())
	case errors.Is(err, domain.ErrConfigurationError):
		Internal(c, err.Error())
	default:
		Internal(c, "internal error")
	}
}

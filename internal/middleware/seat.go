package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/camaraaberta/backend/internal/models"
	"github.com/camaraaberta/backend/pkg/response"
)

// VoterSeat determines which roster seat a vote is cast for. Member accounts
// are pinned to their own seat; operator/admin must name one in the request.
// On failure the response is already written and ok is false.
func VoterSeat(c *gin.Context, requested string) (uuid.UUID, bool) {
	role, _ := c.MustGet(ContextUserRole).(string)
	if role == string(models.RoleMember) {
		seat, ok := c.Get(ContextMemberID)
		if !ok {
			response.Forbidden(c, "member account has no roster seat")
			return uuid.Nil, false
		}
		return seat.(uuid.UUID), true
	}
	if requested == "" {
		response.BadRequest(c, "member_id is required")
		return uuid.Nil, false
	}
	memberID, err := uuid.Parse(requested)
	if err != nil {
		response.BadRequest(c, "invalid member id")
		return uuid.Nil, false
	}
	return memberID, true
}

package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"schoolhub/onboard/internal/model"
	"schoolhub/onboard/internal/service"
	"schoolhub/onboard/pkg/response"
)

type RedeemHandler struct {
	redeemService service.RedeemService
}

func NewRedeemHandler(redeemService service.RedeemService) *RedeemHandler {
	return &RedeemHandler{redeemService: redeemService}
}

type RedeemRequest struct {
	Code          string `json:"code" binding:"required"`
	RedeemerID    string `json:"redeemer_id" binding:"required"`
	RedeemerEmail string `json:"redeemer_email,omitempty"`
	ClaimedRole   string `json:"claimed_role,omitempty"`
	TargetID      string `json:"target_id" binding:"required"`
}

// Redeem consumes one use of an access code and returns the resulting grant.
// Every precondition failure maps to its own status so the client can show
// the redeemer exactly why the code did not work.
func (h *RedeemHandler) Redeem(c *gin.Context) {
	var req RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	redeemerID, err := uuid.Parse(req.RedeemerID)
	if err != nil {
		response.BadRequest(c, "invalid redeemer_id")
		return
	}
	targetID, err := uuid.Parse(req.TargetID)
	if err != nil {
		response.BadRequest(c, "invalid target_id")
		return
	}

	grant, err := h.redeemService.Redeem(c.Request.Context(), req.Code, service.RedemptionContext{
		RedeemerID:    redeemerID,
		RedeemerEmail: req.RedeemerEmail,
		ClaimedRole:   model.Role(req.ClaimedRole),
		TargetID:      targetID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCodeNotFound):
			response.NotFound(c, err.Error())
		case errors.Is(err, service.ErrCodeExpired),
			errors.Is(err, service.ErrCodeExhausted),
			errors.Is(err, service.ErrCodeCancelled),
			errors.Is(err, service.ErrCodeDisabled):
			response.Gone(c, err.Error())
		case errors.Is(err, service.ErrRoleMismatch),
			errors.Is(err, service.ErrEmailMismatch),
			errors.Is(err, service.ErrScopeMismatch):
			response.Forbidden(c, err.Error())
		case errors.Is(err, service.ErrStoreUnavailable):
			response.ServiceUnavailable(c, err.Error())
		default:
			response.InternalError(c, "redemption failed")
		}
		return
	}

	response.Success(c, grant)
}

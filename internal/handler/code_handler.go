package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"schoolhub/onboard/internal/model"
	"schoolhub/onboard/internal/service"
	"schoolhub/onboard/pkg/response"
)

type CodeHandler struct {
	codeService service.CodeService
	mailer      *service.CodeMailer
}

func NewCodeHandler(codeService service.CodeService, mailer *service.CodeMailer) *CodeHandler {
	return &CodeHandler{
		codeService: codeService,
		mailer:      mailer,
	}
}

type IssueCodeRequest struct {
	Kind          string  `json:"kind" binding:"required"`
	TargetID      string  `json:"target_id" binding:"required"`
	RequiredRole  *string `json:"required_role,omitempty"`
	RequiredEmail *string `json:"required_email,omitempty"`
	// LeadDuration is a Go duration string ("168h"); empty means the
	// configured default, "0" means the code never expires.
	LeadDuration string `json:"lead_duration,omitempty"`
	MaxUses      *int   `json:"max_uses,omitempty"`
	Message      string `json:"message,omitempty"`
	Notify       bool   `json:"notify,omitempty"`
}

type IssueCodeResponse struct {
	ID        uuid.UUID       `json:"id"`
	Code      string          `json:"code"`
	Kind      model.ScopeKind `json:"kind"`
	TargetID  uuid.UUID       `json:"target_id"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
	MaxUses   *int            `json:"max_uses,omitempty"`
}

// Issue creates a new access code scoped to a school, course, or teaching role.
func (h *CodeHandler) Issue(c *gin.Context) {
	issuerID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	var req IssueCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	targetID, err := uuid.Parse(req.TargetID)
	if err != nil {
		response.BadRequest(c, "invalid target_id")
		return
	}

	issueReq := service.IssueRequest{
		IssuerID:      issuerID,
		Kind:          model.ScopeKind(req.Kind),
		TargetID:      targetID,
		RequiredEmail: req.RequiredEmail,
		MaxUses:       req.MaxUses,
		Message:       req.Message,
	}
	if req.RequiredRole != nil {
		role := model.Role(*req.RequiredRole)
		issueReq.RequiredRole = &role
	}
	if req.LeadDuration != "" {
		lead, err := time.ParseDuration(req.LeadDuration)
		if err != nil || lead < 0 {
			response.BadRequest(c, "invalid lead_duration")
			return
		}
		issueReq.LeadDuration = &lead
	}

	code, err := h.codeService.Issue(c.Request.Context(), issueReq)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidScope):
			response.BadRequest(c, err.Error())
		case errors.Is(err, service.ErrGenerationExhausted):
			response.Conflict(c, err.Error())
		case errors.Is(err, service.ErrStoreUnavailable):
			response.ServiceUnavailable(c, err.Error())
		default:
			response.InternalError(c, "failed to issue code")
		}
		return
	}

	if req.Notify && h.mailer != nil {
		h.mailer.SendIssued(c.Request.Context(), code)
	}

	response.Success(c, IssueCodeResponse{
		ID:        code.ID,
		Code:      code.Code,
		Kind:      code.Kind,
		TargetID:  code.TargetID,
		ExpiresAt: code.ExpiresAt,
		MaxUses:   code.MaxUses,
	})
}

// Preview returns the read-only state of a code without consuming it.
func (h *CodeHandler) Preview(c *gin.Context) {
	preview, err := h.codeService.Preview(c.Request.Context(), c.Param("code"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCodeNotFound):
			response.NotFound(c, err.Error())
		case errors.Is(err, service.ErrStoreUnavailable):
			response.ServiceUnavailable(c, err.Error())
		default:
			response.InternalError(c, "failed to look up code")
		}
		return
	}
	response.Success(c, preview)
}

// List returns the codes issued by the authenticated caller.
func (h *CodeHandler) List(c *gin.Context) {
	issuerID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}
	codes, err := h.codeService.ListByIssuer(c.Request.Context(), issuerID)
	if err != nil {
		response.InternalError(c, "failed to list codes")
		return
	}
	response.Success(c, codes)
}

// Cancel revokes a pending code issued by the caller.
func (h *CodeHandler) Cancel(c *gin.Context) {
	h.ownedCodeAction(c, func(id, issuerID uuid.UUID) error {
		return h.codeService.Cancel(c.Request.Context(), id, issuerID)
	})
}

// Disable makes a code temporarily unredeemable without cancelling it.
func (h *CodeHandler) Disable(c *gin.Context) {
	h.ownedCodeAction(c, func(id, issuerID uuid.UUID) error {
		return h.codeService.SetDisabled(c.Request.Context(), id, issuerID, true)
	})
}

// Enable re-activates a disabled code.
func (h *CodeHandler) Enable(c *gin.Context) {
	h.ownedCodeAction(c, func(id, issuerID uuid.UUID) error {
		return h.codeService.SetDisabled(c.Request.Context(), id, issuerID, false)
	})
}

func (h *CodeHandler) ownedCodeAction(c *gin.Context, action func(id, issuerID uuid.UUID) error) {
	issuerID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid code id")
		return
	}

	if err := action(id, issuerID); err != nil {
		switch {
		case errors.Is(err, service.ErrCodeNotFound):
			response.NotFound(c, err.Error())
		case errors.Is(err, service.ErrNotIssuer):
			response.Forbidden(c, err.Error())
		case errors.Is(err, service.ErrCodeTerminal):
			response.Conflict(c, err.Error())
		case errors.Is(err, service.ErrStoreUnavailable):
			response.ServiceUnavailable(c, err.Error())
		default:
			response.InternalError(c, "failed to update code")
		}
		return
	}
	response.Success(c, nil)
}

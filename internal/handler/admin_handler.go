package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"schoolhub/onboard/internal/service"
	"schoolhub/onboard/pkg/response"
)

type AdminHandler struct {
	codeService service.CodeService
}

func NewAdminHandler(codeService service.CodeService) *AdminHandler {
	return &AdminHandler{codeService: codeService}
}

// ListCodes returns every access code in the system.
func (h *AdminHandler) ListCodes(c *gin.Context) {
	codes, err := h.codeService.ListAll(c.Request.Context())
	if err != nil {
		response.InternalError(c, "failed to list codes")
		return
	}
	response.Success(c, codes)
}

// DeleteCode hard-deletes a code. This bypasses the lifecycle state machine
// and is reserved for administrators.
func (h *AdminHandler) DeleteCode(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid code id")
		return
	}

	if err := h.codeService.Delete(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, service.ErrCodeNotFound):
			response.NotFound(c, err.Error())
		case errors.Is(err, service.ErrStoreUnavailable):
			response.ServiceUnavailable(c, err.Error())
		default:
			response.InternalError(c, "failed to delete code")
		}
		return
	}
	response.Success(c, nil)
}

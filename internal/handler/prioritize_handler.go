package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pomofocus/backend/internal/prioritize"
	"pomofocus/backend/internal/service"
)

type PrioritizeHandler struct {
	service *service.PrioritizeService
}

func NewPrioritizeHandler(service *service.PrioritizeService) *PrioritizeHandler {
	return &PrioritizeHandler{service: service}
}

// Prioritize ranks the posted tasks. Task validation happens in the
// prioritize package so the CLI shares the same rules.
func (h *PrioritizeHandler) Prioritize(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req prioritize.Request
	if !bindJSON(c, &req) {
		return
	}

	result, apiErr := h.service.Prioritize(c.Request.Context(), userID, req)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, result)
}

package handler

import (
	"net/http"

	"fortuna/internal/middleware"
	"fortuna/internal/service"

	"github.com/gin-gonic/gin"
)

type FortuneHandler struct {
	fortuneSvc *service.FortuneService
}

func NewFortuneHandler(fortuneSvc *service.FortuneService) *FortuneHandler {
	return &FortuneHandler{fortuneSvc: fortuneSvc}
}

// Daily handles GET /fortune/daily. One report per user per day.
func (h *FortuneHandler) Daily(c *gin.Context) {
	report, err := h.fortuneSvc.Daily(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

package handler

import (
	"net/http"

	"fortuna/internal/service"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	limitSvc *service.LimitService
	pointSvc *service.PointService
}

func NewAdminHandler(limitSvc *service.LimitService, pointSvc *service.PointService) *AdminHandler {
	return &AdminHandler{limitSvc: limitSvc, pointSvc: pointSvc}
}

// ResetLimit handles POST /admin/limits/reset. Clears today's counter for a pair.
func (h *AdminHandler) ResetLimit(c *gin.Context) {
	var req struct {
		UserID         string `json:"user_id" binding:"required"`
		CounterpartyID string `json:"counterparty_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "user_id and counterparty_id required")
		return
	}
	if err := h.limitSvc.ResetLimit(c.Request.Context(), req.UserID, req.CounterpartyID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// AdjustPoints handles POST /admin/points/adjust. Applies a signed operator correction.
func (h *AdminHandler) AdjustPoints(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id" binding:"required"`
		Amount int64  `json:"amount" binding:"required"`
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "user_id and non-zero amount required")
		return
	}
	bal, err := h.pointSvc.Adjust(c.Request.Context(), req.UserID, req.Amount, req.Reason, c.GetString("operator"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": req.UserID, "balance": bal})
}

package handler

import (
	"net/http"

	"fortuna/internal/middleware"
	"fortuna/internal/service"

	"github.com/gin-gonic/gin"
)

type MeHandler struct {
	profileSvc *service.ProfileService
	pointSvc   *service.PointService
}

func NewMeHandler(profileSvc *service.ProfileService, pointSvc *service.PointService) *MeHandler {
	return &MeHandler{profileSvc: profileSvc, pointSvc: pointSvc}
}

// GetProfile handles GET /me/profile.
func (h *MeHandler) GetProfile(c *gin.Context) {
	p, err := h.profileSvc.Get(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// UpdateProfile handles PUT /me/profile. The body replaces the whole profile.
func (h *MeHandler) UpdateProfile(c *gin.Context) {
	var in service.ProfileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid body")
		return
	}
	p, err := h.profileSvc.Update(c.Request.Context(), middleware.GetUserID(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GetPoints handles GET /me/points.
func (h *MeHandler) GetPoints(c *gin.Context) {
	bal, err := h.pointSvc.Balance(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": bal})
}

// GetTransactions handles GET /me/points/transactions.
func (h *MeHandler) GetTransactions(c *gin.Context) {
	limit, offset := paging(c, 20, 100)
	txs, total, err := h.pointSvc.Transactions(c.Request.Context(), middleware.GetUserID(c), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs, "total": total})
}

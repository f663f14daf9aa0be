package handler

import (
	"net/http"

	"fortuna/internal/middleware"
	"fortuna/internal/service"

	"github.com/gin-gonic/gin"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type PointsHandler struct {
	purchaseSvc *service.PurchaseService
}

func NewPointsHandler(purchaseSvc *service.PurchaseService) *PointsHandler {
	return &PointsHandler{purchaseSvc: purchaseSvc}
}

// Packages handles GET /points/packages.
func (h *PointsHandler) Packages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"packages": h.purchaseSvc.Packages()})
}

// Checkout handles POST /points/checkout.
func (h *PointsHandler) Checkout(c *gin.Context) {
	var req struct {
		PackageID      string `json:"package_id" binding:"required"`
		IdempotencyKey string `json:"idempotency_key"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "package_id required")
		return
	}
	key := req.IdempotencyKey
	if key == "" {
		key = c.GetHeader(IdempotencyKeyHeader)
	}
	p, err := h.purchaseSvc.Checkout(c.Request.Context(), middleware.GetUserID(c), req.PackageID, key)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"payment_id":   p.ID,
		"checkout_url": p.CheckoutURL,
		"reference":    p.ProviderRef,
		"status":       p.Status,
	})
}

package handler

import (
	"errors"
	"io"
	"net/http"

	"fortuna/internal/service"
	"fortuna/pkg/payment"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 1 << 16

type PaymentWebhookHandler struct {
	purchaseSvc *service.PurchaseService
}

func NewPaymentWebhookHandler(purchaseSvc *service.PurchaseService) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{purchaseSvc: purchaseSvc}
}

// Handle verifies the provider signature and applies the event. Replays are
// acknowledged with 200 so the provider stops retrying.
func (h *PaymentWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		badRequest(c, "invalid body")
		return
	}
	err = h.purchaseSvc.HandleWebhook(c.Request.Context(), body, c.Request.Header)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"received": true})
	case errors.Is(err, payment.ErrInvalidSignature):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature", "code": "invalid_signature"})
	case errors.Is(err, payment.ErrInvalidPayload):
		badRequest(c, "invalid payload")
	default:
		respondError(c, err)
	}
}

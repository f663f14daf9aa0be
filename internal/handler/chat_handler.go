package handler

import (
	"net/http"
	"strconv"

	"fortuna/internal/middleware"
	"fortuna/internal/service"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	chatSvc *service.ChatService
}

func NewChatHandler(chatSvc *service.ChatService) *ChatHandler {
	return &ChatHandler{chatSvc: chatSvc}
}

// ListCounterparties handles GET /counterparties.
func (h *ChatHandler) ListCounterparties(c *gin.Context) {
	list, err := h.chatSvc.Counterparties(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"counterparties": list})
}

// GetLimit handles GET /counterparties/:id/limit.
func (h *ChatHandler) GetLimit(c *gin.Context) {
	status, err := h.chatSvc.Limit(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// GetMessages handles GET /counterparties/:id/messages?after_id=&limit=.
func (h *ChatHandler) GetMessages(c *gin.Context) {
	afterID, _ := strconv.ParseUint(c.DefaultQuery("after_id", "0"), 10, 64)
	limit, _ := paging(c, 50, 200)
	msgs, err := h.chatSvc.History(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), uint(afterID), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// SendMessage handles POST /counterparties/:id/messages.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "content required")
		return
	}
	res, err := h.chatSvc.SendMessage(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

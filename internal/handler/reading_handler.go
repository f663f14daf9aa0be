package handler

import (
	"errors"
	"io"
	"net/http"

	"fortuna/internal/middleware"
	"fortuna/internal/service"

	"github.com/gin-gonic/gin"
)

type ReadingHandler struct {
	readingSvc *service.ReadingService
	unlockSvc  *service.UnlockService
}

func NewReadingHandler(readingSvc *service.ReadingService, unlockSvc *service.UnlockService) *ReadingHandler {
	return &ReadingHandler{readingSvc: readingSvc, unlockSvc: unlockSvc}
}

// Create handles POST /counterparties/:id/readings. The reading starts locked.
func (h *ReadingHandler) Create(c *gin.Context) {
	var req struct {
		Topic string `json:"topic"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "invalid body")
		return
	}
	view, err := h.readingSvc.CreateReading(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), req.Topic)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// List handles GET /results.
func (h *ReadingHandler) List(c *gin.Context) {
	limit, offset := paging(c, 20, 100)
	views, total, err := h.readingSvc.ListResults(c.Request.Context(), middleware.GetUserID(c), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": views, "total": total})
}

// Get handles GET /results/:id. Full text is only present once unlocked.
func (h *ReadingHandler) Get(c *gin.Context) {
	view, err := h.readingSvc.GetResult(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Unlock handles POST /results/:id/unlock.
func (h *ReadingHandler) Unlock(c *gin.Context) {
	out, err := h.unlockSvc.Unlock(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

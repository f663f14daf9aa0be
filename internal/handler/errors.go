package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"fortuna/internal/domain"
	"fortuna/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps domain errors to the client error body.
func respondError(c *gin.Context, err error) {
	var limitErr *domain.RateLimitError
	switch {
	case errors.As(err, &limitErr):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": limitErr.Status.Message, "code": domain.CodeRateLimited, "limit": limitErr.Status})
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": strings.TrimPrefix(err.Error(), domain.ErrValidation.Error()+": "), "code": domain.CodeValidationFailed})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found", "code": domain.CodeNotFound})
	case errors.Is(err, domain.ErrInsufficientPoints):
		c.JSON(http.StatusBadRequest, gin.H{"error": "not enough points", "code": domain.CodeInsufficientPoints})
	case errors.Is(err, domain.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required", "code": domain.CodeAuthenticationRequired})
	case errors.Is(err, domain.ErrUpstream):
		logger.FromContext(c.Request.Context()).Warn("upstream failure", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "the fortune teller is unavailable, please try again", "code": domain.CodeUpstreamFailure})
	default:
		logger.FromContext(c.Request.Context()).Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": domain.CodeInternal})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": domain.CodeValidationFailed})
}

// paging reads limit/offset with a default and an upper bound on limit.
func paging(c *gin.Context, def, max int) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(def)))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

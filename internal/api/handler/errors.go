package handler

import (
	"errors"
	"net/http"

	"github.com/feastly/feastly/internal/domain"
	"github.com/feastly/feastly/internal/logger"
	"github.com/gin-gonic/gin"
)

// respondError translates a domain error kind into an HTTP response. Store
// failures are logged and returned opaque; everything else carries its
// message through.
func respondError(c *gin.Context, err error) {
	kind := domain.KindOf(err)

	status := http.StatusInternalServerError
	switch kind {
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindUnauthorized:
		status = http.StatusUnauthorized
	case domain.KindForbidden:
		status = http.StatusForbidden
	case domain.KindConflict:
		status = http.StatusConflict
	case domain.KindValidation:
		status = http.StatusBadRequest
	case domain.KindEmbeddingUnavailable:
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		logger.CtxError(c.Request.Context(), "Internal error: %v", err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}

	message := err.Error()
	var e *domain.Error
	if errors.As(err, &e) {
		message = e.Message
	}
	c.JSON(status, gin.H{"error": message})
}

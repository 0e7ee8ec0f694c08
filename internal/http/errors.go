package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"panel-admin/internal/service"
)

// writeServiceError traduce errores del servicio a respuestas HTTP.
// NotFound es un resultado esperado y no se registra como error.
func writeServiceError(c *gin.Context, logger *zap.Logger, err error, action string) {
	var storageErr *service.StorageError
	switch {
	case errors.Is(err, service.ErrConversationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
	case errors.Is(err, service.ErrInfoUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "info user not found"})
	case errors.Is(err, service.ErrConversationInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
	case errors.As(err, &storageErr):
		logger.Error(action+" failed", zap.String("op", storageErr.Op), zap.Error(storageErr.Err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not " + action})
	default:
		logger.Error(action+" failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not " + action})
	}
}

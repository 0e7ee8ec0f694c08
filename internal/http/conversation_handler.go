package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"panel-admin/internal/metrics"
	"panel-admin/internal/service"
)

// ConversationHandler expone las transcripciones al panel.
type ConversationHandler struct {
	logger        *zap.Logger
	conversations *service.ConversationService
	metrics       *metrics.Metrics
	timeout       time.Duration
}

func NewConversationHandler(
	logger *zap.Logger,
	conversations *service.ConversationService,
	m *metrics.Metrics,
	timeout time.Duration,
) *ConversationHandler {
	if m == nil {
		m = metrics.Nop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ConversationHandler{
		logger:        logger,
		conversations: conversations,
		metrics:       m,
		timeout:       timeout,
	}
}

// ListConversations maneja GET /api/conversations. Con ?phone= busca por telefono.
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	if raw, ok := c.GetQuery("phone"); ok {
		h.metrics.PhoneLookups.Inc()
		convs, err := h.conversations.FindByPhone(ctx, raw)
		if err != nil {
			writeServiceError(c, h.logger, err, "find conversations")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"phone":         h.conversations.NormalizePhone(raw),
			"conversations": convs,
		})
		return
	}

	opts := service.ListOptions{
		Limit:  queryInt(c, "limit"),
		Offset: queryInt(c, "offset"),
	}
	convs, err := h.conversations.List(ctx, opts)
	if err != nil {
		writeServiceError(c, h.logger, err, "list conversations")
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

// GetConversation maneja GET /api/conversations/:id.
func (h *ConversationHandler) GetConversation(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	conv, err := h.conversations.GetByID(ctx, c.Param("id"))
	if err != nil {
		writeServiceError(c, h.logger, err, "get conversation")
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation": conv})
}

// DeleteConversation maneja DELETE /api/conversations/:id.
func (h *ConversationHandler) DeleteConversation(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	id := c.Param("id")
	if err := h.conversations.Delete(ctx, id); err != nil {
		writeServiceError(c, h.logger, err, "delete conversation")
		return
	}
	h.metrics.ConversationsDeleted.Inc()

	fields := []zap.Field{zap.String("conversation_id", id)}
	if claims, ok := GetAuthClaims(c); ok {
		fields = append(fields, zap.String("user_id", claims.UserID))
	}
	h.logger.Info("conversation deleted", fields...)
	c.JSON(http.StatusOK, gin.H{"deleted": true, "id": id})
}

// queryInt devuelve 0 cuando el parametro falta o no es numerico; el servicio
// aplica los valores por defecto.
func queryInt(c *gin.Context, key string) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return v
}

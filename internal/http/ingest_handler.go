package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"panel-admin/internal/domain"
	"panel-admin/internal/metrics"
	"panel-admin/internal/phone"
	"panel-admin/internal/service"
)

// IngestHandler recibe mensajes de la integracion de mensajeria.
type IngestHandler struct {
	logger        *zap.Logger
	conversations *service.ConversationService
	limiter       service.IngestRateLimiter
	metrics       *metrics.Metrics
	timeout       time.Duration
}

func NewIngestHandler(
	logger *zap.Logger,
	conversations *service.ConversationService,
	limiter service.IngestRateLimiter,
	m *metrics.Metrics,
	timeout time.Duration,
) *IngestHandler {
	if m == nil {
		m = metrics.Nop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &IngestHandler{
		logger:        logger,
		conversations: conversations,
		limiter:       limiter,
		metrics:       m,
		timeout:       timeout,
	}
}

// PostConversation maneja POST /ingest/conversations.
func (h *IngestHandler) PostConversation(c *gin.Context) {
	var req struct {
		SessionID string                 `json:"session_id"`
		Phone     any                    `json:"phone"`
		Messages  []domain.MessageRecord `json:"messages" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid ingest request", zap.Error(err))
		h.metrics.IngestRejected.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	rawPhone := phone.Coerce(req.Phone)
	if h.limiter != nil && !h.limiter.Allow(c.Request.Context(), h.rateKey(rawPhone, req.SessionID)) {
		h.metrics.IngestRejected.WithLabelValues("rate_limited").Inc()
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	conv, created, err := h.conversations.Ingest(ctx, service.IngestInput{
		SessionID: req.SessionID,
		Phone:     rawPhone,
		Messages:  req.Messages,
	})
	if err != nil {
		writeServiceError(c, h.logger, err, "store conversation")
		return
	}

	status, outcome := http.StatusOK, "appended"
	if created {
		status, outcome = http.StatusCreated, "created"
	}
	h.metrics.ConversationsIngested.WithLabelValues(outcome).Inc()
	c.JSON(status, gin.H{"conversation": conv})
}

// rateKey usa el telefono canonico; sin telefono cae a la sesion.
func (h *IngestHandler) rateKey(rawPhone, sessionID string) string {
	if canonical := h.conversations.NormalizePhone(rawPhone); canonical != "" {
		return "phone:" + canonical
	}
	if sessionID != "" {
		return "session:" + sessionID
	}
	return "anonymous"
}

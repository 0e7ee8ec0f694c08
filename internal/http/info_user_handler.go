package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"panel-admin/internal/service"
)

// InfoUserHandler expone los contactos correlacionados con conversaciones.
type InfoUserHandler struct {
	logger   *zap.Logger
	contacts *service.ContactService
	timeout  time.Duration
}

func NewInfoUserHandler(logger *zap.Logger, contacts *service.ContactService, timeout time.Duration) *InfoUserHandler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &InfoUserHandler{logger: logger, contacts: contacts, timeout: timeout}
}

// ListInfoUsers maneja GET /api/info-users.
func (h *InfoUserHandler) ListInfoUsers(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	users, err := h.contacts.ListWithConversations(ctx, service.ListOptions{
		Limit:  queryInt(c, "limit"),
		Offset: queryInt(c, "offset"),
	})
	if err != nil {
		writeServiceError(c, h.logger, err, "list info users")
		return
	}
	c.JSON(http.StatusOK, gin.H{"info_users": users})
}

// GetInfoUserConversations maneja GET /api/info-users/:id/conversations.
func (h *InfoUserHandler) GetInfoUserConversations(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	user, convs, err := h.contacts.ConversationsFor(ctx, c.Param("id"))
	if err != nil {
		writeServiceError(c, h.logger, err, "list info user conversations")
		return
	}
	c.JSON(http.StatusOK, gin.H{"info_user": user, "conversations": convs})
}

package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"panel-admin/internal/metrics"
	"panel-admin/internal/service"
)

// RouterDeps agrupa lo que necesita el router.
type RouterDeps struct {
	Logger        *zap.Logger
	Conversations *ConversationHandler
	Ingest        *IngestHandler
	InfoUsers     *InfoUserHandler
	JWT           *service.JWTVerifier
	IngestKey     *service.IngestKeyVerifier
	Metrics       *metrics.Metrics
	Gatherer      prometheus.Gatherer
	Ping          func(ctx context.Context) error
}

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(deps RouterDeps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	r := gin.New()

	r.Use(zapLoggerMiddleware(logger), gin.Recovery())

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	r.GET("/healthz", jsonContentTypeMiddleware(), func(c *gin.Context) {
		if deps.Ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := deps.Ping(ctx); err != nil {
				logger.Warn("health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if deps.Ingest != nil {
		var onReject func()
		if deps.Metrics != nil {
			onReject = func() { deps.Metrics.IngestRejected.WithLabelValues("unauthorized").Inc() }
		}
		ingest := r.Group("/ingest", jsonContentTypeMiddleware(), IngestKeyMiddleware(deps.IngestKey, onReject))
		ingest.POST("/conversations", deps.Ingest.PostConversation)
	}

	api := r.Group("/api", jsonContentTypeMiddleware(), JWTAuthMiddleware(deps.JWT))
	if deps.Conversations != nil {
		api.GET("/conversations", deps.Conversations.ListConversations)
		api.GET("/conversations/:id", deps.Conversations.GetConversation)
		api.DELETE("/conversations/:id", deps.Conversations.DeleteConversation)
	}
	if deps.InfoUsers != nil {
		api.GET("/info-users", deps.InfoUsers.ListInfoUsers)
		api.GET("/info-users/:id/conversations", deps.InfoUsers.GetInfoUserConversations)
	}

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}

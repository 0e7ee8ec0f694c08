package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"panel-admin/internal/config"
	"panel-admin/internal/db"
	apihttp "panel-admin/internal/http"
	"panel-admin/internal/metrics"
	"panel-admin/internal/phone"
	"panel-admin/internal/repository"
	"panel-admin/internal/service"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal("db schema", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(reg)

	normalizer := phone.NewNormalizer(cfg.PhoneSuffixes...)
	logger.Info("phone normalizer ready", zap.Strings("suffixes", normalizer.Suffixes()))

	conversationRepo := repository.NewPgConversationRepository(pool)
	infoUserRepo := repository.NewPgInfoUserRepository(pool)
	conversationSvc := service.NewConversationService(conversationRepo, normalizer)
	contactSvc := service.NewContactService(logger, infoUserRepo, conversationSvc)

	limiter := service.NewMemoryIngestRateLimiter(cfg.IngestRateWindow(), cfg.IngestRateMax)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using local rate limiter", zap.Error(err))
		} else {
			limiter = service.NewRedisIngestRateLimiter(redisClient, cfg.IngestRateWindow(), cfg.IngestRateMax)
		}
		cancel()
	}

	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}
	ingestKey := service.NewIngestKeyVerifier(cfg.IngestKeyHash)
	if !ingestKey.Enabled() {
		logger.Warn("ingest key not configured, inbound endpoint is open")
	}

	router := apihttp.NewRouter(apihttp.RouterDeps{
		Logger:        logger,
		Conversations: apihttp.NewConversationHandler(logger, conversationSvc, appMetrics, cfg.DBTimeout()),
		Ingest:        apihttp.NewIngestHandler(logger, conversationSvc, limiter, appMetrics, cfg.DBTimeout()),
		InfoUsers:     apihttp.NewInfoUserHandler(logger, contactSvc, cfg.DBTimeout()),
		JWT:           service.NewJWTVerifier(cfg.JWTSecret, ""),
		IngestKey:     ingestKey,
		Metrics:       appMetrics,
		Gatherer:      reg,
		Ping:          func(ctx context.Context) error { return db.Ping(ctx, pool) },
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
}

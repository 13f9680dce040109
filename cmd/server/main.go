package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/adsops/adsops/application/port/outbound"
	"github.com/adsops/adsops/application/usecase"
	"github.com/adsops/adsops/application/usecase/operation"
	"github.com/adsops/adsops/domain/safety"
	"github.com/adsops/adsops/infrastructure/adapter/postgres"
	"github.com/adsops/adsops/infrastructure/config"
	"github.com/adsops/adsops/infrastructure/http/handler"
	"github.com/adsops/adsops/infrastructure/http/middleware"
	"github.com/adsops/adsops/infrastructure/http/router"
	"github.com/adsops/adsops/infrastructure/service/audit"
	"github.com/adsops/adsops/infrastructure/service/jwt"
	"github.com/adsops/adsops/infrastructure/service/logger"
	"github.com/adsops/adsops/infrastructure/service/ratelimit"
	"github.com/adsops/adsops/infrastructure/service/vendor"
	"github.com/adsops/adsops/infrastructure/store/memory"
	"github.com/adsops/adsops/infrastructure/store/redisstore"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logConfig := logger.LoggerConfig{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: "adsops",
	}
	structuredLogger := logger.NewStructuredLogger(logConfig)
	logrusLogger := logger.NewLogrus(logConfig)

	structuredLogger.Info(ctx, "Application starting", map[string]interface{}{
		"env":         cfg.Environment,
		"token_store": cfg.TokenStore,
		"ttl":         cfg.ConfirmationTTL.String(),
	})

	// Redis is shared by the token store and the rate limiter
	var redisClient *redis.Client
	if cfg.TokenStore == config.TokenStoreRedis || cfg.RateLimitEnabled {
		redisClient, err = redisstore.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			structuredLogger.Error(ctx, "Failed to connect to Redis", err, nil)
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		structuredLogger.Info(ctx, "Redis connection established", nil)
	}

	var store outbound.ConfirmationStore
	switch cfg.TokenStore {
	case config.TokenStoreRedis:
		store = redisstore.NewConfirmationStore(redisClient, redisstore.Config{
			Salt:      cfg.TokenHashSalt,
			Retention: cfg.ConfirmationRetention,
		}, logrusLogger)
	default:
		memStore := memory.NewConfirmationStore(cfg.ConfirmationRetention, structuredLogger)
		memStore.StartJanitor(ctx, cfg.JanitorInterval)
		store = memStore
	}

	// Audit sinks: structured log always, Postgres when configured, metrics when enabled
	sinks := []outbound.AuditLog{audit.NewLoggerAuditLog(logrusLogger)}

	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = db.PingContext(pingCtx)
		cancel()
		if err != nil {
			structuredLogger.Error(ctx, "Failed to ping database", err, nil)
			log.Fatalf("Failed to ping database: %v", err)
		}
		sinks = append(sinks, postgres.NewAuditLogRepository(db))
		structuredLogger.Info(ctx, "Database connection established", nil)
	}

	var gatherer prometheus.Gatherer
	if cfg.MetricsEnabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metricsSink, err := audit.NewMetricsAuditLog(registry)
		if err != nil {
			log.Fatalf("Failed to initialize metrics: %v", err)
		}
		sinks = append(sinks, metricsSink)
		gatherer = registry
	}

	tokenService, err := jwt.NewJWTService(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize JWT service: %v", err)
	}

	rateLimitService := ratelimit.NewRateLimitService(redisClient, ratelimit.RateLimitConfig{
		Enabled: cfg.RateLimitEnabled,
	}, logrusLogger)

	enforcer, err := usecase.NewApprovalEnforcer(
		store,
		audit.NewMultiAuditLog(sinks...),
		safety.NewValidator(cfg.SafetyConfig()),
		structuredLogger,
		cfg.ConfirmationTTL,
	)
	if err != nil {
		log.Fatalf("Failed to initialize approval enforcer: %v", err)
	}
	gateway := vendor.NewMockGateway(cfg.VendorMockLatency)

	h := router.New(router.Options{
		Approval: handler.NewApprovalHandler(enforcer, operation.NewExecutor(gateway), structuredLogger),
		Auth:     middleware.NewAuthMiddleware(tokenService),
		RateLimit: middleware.NewRateLimitMiddleware(rateLimitService, middleware.RateLimitPolicy{
			Attempts:      cfg.RateLimitConfirmAttempts,
			Window:        cfg.RateLimitConfirmWindow,
			BlockDuration: cfg.RateLimitBlockDuration,
		}, structuredLogger),
		Logger:            structuredLogger,
		Gatherer:          gatherer,
		RequestLog:        cfg.LogEnableRequestLog,
		CORSOrigins:       corsOrigins(cfg),
		CORSCreds:         cfg.CORSAllowCredentials,
		CorrelationHeader: cfg.LogCorrelationIDHeader,
	})

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		structuredLogger.Info(ctx, "Starting server", map[string]interface{}{
			"addr":       cfg.Addr(),
			"operations": operation.Names(),
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			structuredLogger.Error(ctx, "Server failed to start", err, nil)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	structuredLogger.Info(context.Background(), "Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		structuredLogger.Error(shutdownCtx, "Server forced to shutdown", err, nil)
	}
	structuredLogger.Info(shutdownCtx, "Server exited", nil)
}

func corsOrigins(cfg *config.Config) []string {
	if !cfg.CORSEnabled {
		return nil
	}
	return cfg.CORSAllowedOrigins
}

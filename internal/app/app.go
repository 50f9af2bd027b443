package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"bolsafeucn/database"
	"bolsafeucn/internal/auth"
	"bolsafeucn/internal/config"
	"bolsafeucn/internal/email"
	"bolsafeucn/internal/handlers"
	"bolsafeucn/internal/logger"
	"bolsafeucn/internal/metrics"
	"bolsafeucn/internal/middleware"
	"bolsafeucn/internal/routes"
	"bolsafeucn/internal/services"
	"bolsafeucn/internal/validator"
	"bolsafeucn/internal/workers"
	"bolsafeucn/pkg/apperrors"
	"bolsafeucn/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	shutdownTimeout          = 15 * time.Second
	rateLimitCleanupInterval = time.Minute
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	apperrors.Debug = cfg.Server.Env == "development"

	logger.Info("Connecting to database...", "driver", cfg.Database.Driver)
	gormDB, err := database.Open(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	logger.Info("Database connected")

	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(gormDB); err != nil {
			logger.Fatal("Failed to migrate database", "error", err)
		}
	}

	auth.Configure(cfg.JWT.Secret, time.Duration(cfg.JWT.TTL)*time.Minute)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// 1. WebSocket
	wsManager := ws.NewWebSocketManager()
	go wsManager.Run(ctx)
	wsHandler := ws.NewWebSocketHandler(wsManager, cfg.CORS.AllowedOrigins)

	// 2. Сервисы
	emailProvider, err := NewEmailProvider(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize email provider", "error", err)
	}
	serviceContainer := services.NewServiceContainer(services.PolicyFromConfig(cfg), emailProvider, wsManager, m)

	if err := SeedFirstAdmin(ctx, gormDB, cfg, serviceContainer.AuthService); err != nil {
		// Без админа модерация невозможна
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	// 3. Воркеры
	var worker *workers.PublicationWorker
	if cfg.Workers.Enabled {
		worker = NewPublicationWorker(gormDB, cfg, serviceContainer, m)
		if err := worker.Start(ctx); err != nil {
			logger.Fatal("Failed to start publication worker", "error", err)
		}
	}

	// 4. HTTP
	ginRouter := SetupRouter(ctx, cfg, gormDB, serviceContainer, m, wsHandler)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              address,
		Handler:           ginRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info(fmt.Sprintf("🚀 Server starting on %s", address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server startup error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	if worker != nil {
		worker.Stop()
	}
	serviceContainer.NotificationService.Wait()
	if err := emailProvider.Close(); err != nil {
		logger.Warn("Email provider close failed", "error", err)
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("Server stopped")
}

// SetupRouter собирает gin.Engine со всеми middleware и маршрутами.
// wsHandler и m могут быть nil. ctx ограничивает фоновую очистку rate limiter.
func SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	gormDB *gorm.DB,
	serviceContainer *services.ServiceContainer,
	m *metrics.Metrics,
	wsHandler *ws.WebSocketHandler,
) *gin.Engine {
	appHandlers := handlers.NewAppHandlers(validator.New(), serviceContainer)
	var connections handlers.ConnectionCounter
	if wsHandler != nil {
		connections = wsHandler.Manager
	}
	healthHandler := handlers.NewHealthHandler(gormDB, connections)

	ginRouter := initializeGinRouter(ctx, cfg, gormDB, m)
	routes.RegisterRoutes(ginRouter, appHandlers, healthHandler, wsHandler, m)
	return ginRouter
}

func initializeGinRouter(ctx context.Context, cfg *config.Config, db *gorm.DB, m *metrics.Metrics) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	if m != nil {
		router.Use(middleware.MetricsMiddleware(m))
	}
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewIPRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		limiter.StartCleanup(ctx, rateLimitCleanupInterval)
		router.Use(middleware.RateLimitMiddleware(limiter))
	}
	router.Use(middleware.DBMiddleware(db))
	return router
}

// NewEmailProvider - SMTP при заданном хосте, иначе письма пишутся в лог
func NewEmailProvider(cfg *config.Config) (email.Provider, error) {
	templates, err := email.NewDefaultTemplateManager(cfg.Email.TemplatesDir)
	if err != nil {
		return nil, err
	}
	return email.NewProvider(email.ConfigFrom(cfg), templates), nil
}

func NewPublicationWorker(db *gorm.DB, cfg *config.Config, sc *services.ServiceContainer, m *metrics.Metrics) *workers.PublicationWorker {
	return workers.NewPublicationWorker(db, sc.ModerationService, sc.NotificationService, m, workers.Config{
		ExpirySchedule:  cfg.Workers.ExpirySchedule,
		CleanupSchedule: cfg.Workers.CleanupSchedule,
		RetentionDays:   cfg.Workers.NotificationRetentionDays,
	})
}

// SeedFirstAdmin создает администратора из FIRST_ADMIN_EMAIL / FIRST_ADMIN_PASSWORD.
// Используется и сервером, и bolsactl seed-admin.
func SeedFirstAdmin(ctx context.Context, db *gorm.DB, cfg *config.Config, authService services.AuthService) error {
	if cfg.FirstAdminEmail == "" || cfg.FirstAdminPassword == "" {
		logger.Warn("FIRST_ADMIN_EMAIL or FIRST_ADMIN_PASSWORD is not set. Skipping admin seeding.")
		return nil
	}

	created, err := authService.EnsureAdmin(ctx, db.WithContext(ctx), cfg.FirstAdminEmail, cfg.FirstAdminPassword)
	if err != nil {
		return err
	}
	if created {
		logger.Info("✅ Successfully created first admin user", "email", cfg.FirstAdminEmail)
	} else {
		logger.Info("Admin user already exists. Skipping creation.", "email", cfg.FirstAdminEmail)
	}
	return nil
}

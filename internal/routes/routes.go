package routes

import (
	"bolsafeucn/internal/handlers"
	"bolsafeucn/internal/logger"
	"bolsafeucn/internal/metrics"
	"bolsafeucn/internal/middleware"
	"bolsafeucn/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RegisterRoutes регистрирует HTTP API, websocket и служебные маршруты.
// wsHandler и m могут быть nil (тесты).
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	healthHandler *handlers.HealthHandler,
	wsHandler *ws.WebSocketHandler,
	m *metrics.Metrics,
) {
	api := ginRouter.Group("/api")
	{
		appHandlers.AuthHandler.RegisterRoutes(api)
		appHandlers.PublicationHandler.RegisterRoutes(api)
		appHandlers.ApplicationHandler.RegisterRoutes(api)
		appHandlers.ReviewHandler.RegisterRoutes(api)
		appHandlers.AdminHandler.RegisterRoutes(api)
		appHandlers.NotificationHandler.RegisterRoutes(api)
	}

	if healthHandler != nil {
		ginRouter.GET("/health", healthHandler.Health)
	}

	if m != nil {
		ginRouter.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}

	ginRouter.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if wsHandler != nil {
		wsGroup := ginRouter.Group("/ws")
		wsGroup.Use(middleware.WebSocketAuthMiddleware())
		{
			wsGroup.GET("", wsHandler.ServeWS)
		}
		logger.Info("WebSocket route /ws registered")
	}
}

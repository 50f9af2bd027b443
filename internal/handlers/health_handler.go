package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ConnectionCounter - число открытых websocket-соединений
type ConnectionCounter interface {
	GetClientCount() int
}

type HealthHandler struct {
	db          *gorm.DB
	connections ConnectionCounter
	startedAt   time.Time
}

// NewHealthHandler - connections может быть nil, если websocket не поднят
func NewHealthHandler(db *gorm.DB, connections ConnectionCounter) *HealthHandler {
	return &HealthHandler{db: db, connections: connections, startedAt: time.Now()}
}

// Health - жив ли процесс и отвечает ли БД
func (h *HealthHandler) Health(c *gin.Context) {
	status := http.StatusOK
	dbStatus := "ok"

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		status = http.StatusServiceUnavailable
		dbStatus = "unavailable"
	}

	body := gin.H{
		"status":   http.StatusText(status),
		"database": dbStatus,
		"uptime":   time.Since(h.startedAt).Round(time.Second).String(),
	}
	if h.connections != nil {
		body["websocket_connections"] = h.connections.GetClientCount()
	}
	c.JSON(status, body)
}

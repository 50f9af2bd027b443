package ws

import (
	"net/http"

	"bolsafeucn/internal/config"
	"bolsafeucn/internal/logger"
	"bolsafeucn/pkg/apperrors"
	"bolsafeucn/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	Manager  *WebSocketManager
	upgrader websocket.Upgrader
}

// NewWebSocketHandler - origins проверяются по тем же правилам, что и CORS
func NewWebSocketHandler(manager *WebSocketManager, allowedOrigins []string) *WebSocketHandler {
	allowAll := config.AllowAllOrigins(allowedOrigins)
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}

	return &WebSocketHandler{
		Manager: manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || allowAll {
					return true
				}
				_, ok := origins[origin]
				return ok
			},
		},
	}
}

// ServeWS godoc
// @Summary Websocket канал уведомлений
// @Description Токен: заголовок Authorization или query-параметр access_token
// @Tags notifications
// @Param access_token query string false "JWT"
// @Security BearerAuth
// @Router /ws [get]
func (h *WebSocketHandler) ServeWS(c *gin.Context) {
	userID := c.GetUint(contextkeys.UserIDKey)
	if userID == 0 {
		apperrors.HandleError(c, apperrors.NewUnauthorizedError("User not authenticated"))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.CtxWarn(c.Request.Context(), "WebSocket upgrade error", "error", err)
		return
	}

	client := NewClient(h.Manager, userID, conn)
	h.Manager.Register(client)

	go client.readPump()
	go client.writePump()
}

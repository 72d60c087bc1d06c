package realtime

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/mentorhub/mentorhub-api/pkg/jwt"
	"github.com/mentorhub/mentorhub-api/pkg/logger"
	"go.uber.org/zap"
)

// Handler upgrades authenticated HTTP requests to websocket connections and
// attaches them to the hub
type Handler struct {
	hub            *Hub
	tokenManager   *jwt.TokenManager
	sendBufferSize int
	upgrader       websocket.Upgrader
}

// NewHandler creates a websocket handler. allowedOrigins bounds the Origin
// check during the upgrade handshake; "*" allows any origin.
func NewHandler(hub *Hub, tokenManager *jwt.TokenManager, sendBufferSize int, allowedOrigins []string) *Handler {
	h := &Handler{
		hub:            hub,
		tokenManager:   tokenManager,
		sendBufferSize: sendBufferSize,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range allowedOrigins {
				if allowed == "*" || strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
	return h
}

// Serve handles GET /ws. Browsers cannot set headers on websocket requests,
// so the token is also accepted as a query parameter.
func (h *Handler) Serve(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		header := c.GetHeader("Authorization")
		token = strings.TrimPrefix(header, "Bearer ")
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	claims, err := h.tokenManager.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade writes its own error response
		logger.Warn("websocket upgrade failed",
			zap.String("user_id", claims.UserID), zap.Error(err))
		return
	}

	client := NewClient(h.hub, conn, claims.UserID, h.sendBufferSize)
	client.Run()
}

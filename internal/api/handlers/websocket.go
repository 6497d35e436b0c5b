package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/paperoll/backend/internal/config"
	"github.com/paperoll/backend/internal/ws"
)

// HandleSessionWebSocket handles real-time simulation streaming
func HandleSessionWebSocket(cfg *config.Config) gin.HandlerFunc {
	return ws.HandleWebSocket(cfg)
}

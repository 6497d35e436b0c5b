package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/paperoll/backend/internal/api/handlers"
	"github.com/paperoll/backend/internal/config"
	"github.com/paperoll/backend/internal/middleware"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, db *sqlx.DB, rdb *redis.Client, cfg *config.Config) {
	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.WebSocketCORSCheck(cfg))

	// No-cache middleware in development
	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Println("[DEV MODE] No-cache headers enabled for all routes")
	}

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)
		v1.GET("/config", handlers.GetConfig(cfg))

		// Simulation sessions
		session := v1.Group("/session")
		{
			session.POST("", handlers.CreateSession(db, cfg))
			session.GET("/:token", handlers.GetSessionState(cfg))
			session.GET("/:token/ws", handlers.HandleSessionWebSocket(cfg))
		}

		// Configuration presets
		presets := v1.Group("/presets")
		{
			presets.GET("", handlers.ListPresets(db))
			presets.GET("/:name", handlers.GetPreset(db))
			presets.POST("", handlers.SavePreset(db))
		}

		// Admin endpoints (bcrypt passphrase)
		admin := v1.Group("/admin")
		admin.Use(handlers.RequireAdmin(cfg))
		{
			admin.GET("/sessions", handlers.AdminListSessions(db))
			admin.DELETE("/sessions/:id", handlers.AdminCloseSession())
			admin.DELETE("/presets/:name", handlers.AdminDeletePreset(db))
		}
	}
}

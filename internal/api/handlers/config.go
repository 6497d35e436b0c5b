package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/paperoll/backend/internal/config"
	"github.com/paperoll/backend/internal/sim"
)

// GetConfig returns the defaults and limits the frontend needs to set up
// its renderer and controls
func GetConfig(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"tick_rate":     cfg.TickRate,
			"default_roll":  sim.DefaultRollConfig(),
			"default_cloth": sim.DefaultClothConfig(),
		})
	}
}

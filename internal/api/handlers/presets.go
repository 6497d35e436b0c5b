package handlers

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/paperoll/backend/internal/models"
)

// ListPresets returns all stored presets
func ListPresets(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var presets []models.Preset
		if err := db.Select(&presets, `SELECT name, config, created_at, updated_at FROM presets ORDER BY name`); err != nil {
			log.Printf("[DB] Failed to list presets: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"presets": presets})
	}
}

// GetPreset returns one preset by name
func GetPreset(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		var preset models.Preset
		err := db.Get(&preset, `SELECT name, config, created_at, updated_at FROM presets WHERE name=$1`, name)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "preset not found"})
			return
		}
		if err != nil {
			log.Printf("[DB] Failed to get preset %q: %v", name, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"preset": preset})
	}
}

// SavePreset creates or updates a preset. The config payload must decode
// into roll/cloth configs before it is accepted.
func SavePreset(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name   string          `json:"name" binding:"required"`
			Config json.RawMessage `json:"config" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name and config required"})
			return
		}
		if !validPresetName(req.Name) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid preset name"})
			return
		}
		if _, _, err := decodePresetConfig(req.Config); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		_, err := db.Exec(`
			INSERT INTO presets (name, config, created_at, updated_at)
			VALUES ($1, $2::jsonb, NOW(), NOW())
			ON CONFLICT (name) DO UPDATE SET
				config = EXCLUDED.config,
				updated_at = NOW()
		`, req.Name, string(req.Config))
		if err != nil {
			log.Printf("[DB] Failed to save preset %q: %v", req.Name, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"saved": req.Name})
	}
}

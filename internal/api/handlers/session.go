package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/jmoiron/sqlx"

	"github.com/paperoll/backend/internal/config"
	"github.com/paperoll/backend/internal/models"
	"github.com/paperoll/backend/internal/sim"
	"github.com/paperoll/backend/internal/ws"
)

// CreateSession creates a new simulation session and returns a signed
// session token. The session can start from a stored preset, from inline
// config overrides, or from the defaults.
func CreateSession(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Preset string          `json:"preset,omitempty"`
			Config json.RawMessage `json:"config,omitempty"`
		}
		// Empty body is fine: defaults all the way
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
				return
			}
		}

		rollCfg := sim.DefaultRollConfig()
		clothCfg := sim.DefaultClothConfig()

		if req.Preset != "" {
			var preset models.Preset
			err := db.Get(&preset, `SELECT name, config, created_at, updated_at FROM presets WHERE name=$1`, req.Preset)
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "preset not found"})
				return
			}
			rollCfg, clothCfg, err = decodePresetConfig(preset.Config)
			if err != nil {
				log.Printf("[DB] Corrupt preset config for %q: %v", req.Preset, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "preset config unreadable"})
				return
			}
		}

		if len(req.Config) > 0 {
			overrideRoll, overrideCloth, err := decodePresetConfig(req.Config)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			// Inline config wins over the preset wholesale per half
			var pc presetConfig
			json.Unmarshal(req.Config, &pc)
			if pc.Roll != nil {
				rollCfg = overrideRoll
			}
			if pc.Cloth != nil {
				clothCfg = overrideCloth
			}
		}

		s := sim.Manager.CreateSession(req.Preset, rollCfg, clothCfg)

		// Issue session token
		exp := time.Now().Add(time.Duration(cfg.SessionTimeoutMin) * time.Minute)
		claims := jwt.MapClaims{"sid": s.ID, "exp": exp.Unix()}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, err := token.SignedString([]byte(cfg.JWTSecret))
		if err != nil {
			log.Printf("Failed to sign session token: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token":   signed,
			"session": s.Snapshot(),
		})
	}
}

// GetSessionState returns a snapshot of the session over REST - the same
// data the websocket streams, for clients that only need a one-off look.
func GetSessionState(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Param("token")
		sessionID, err := ws.ParseSessionToken(cfg, token)
		if err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid session token"})
			return
		}

		s, err := sim.Manager.GetSession(sessionID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"session": s.Snapshot()})
	}
}

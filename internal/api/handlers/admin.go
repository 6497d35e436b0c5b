package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/paperoll/backend/internal/config"
	"github.com/paperoll/backend/internal/models"
	"github.com/paperoll/backend/internal/sim"
)

// RequireAdmin validates the admin passphrase against the bcrypt hash from
// config. With no hash configured, admin endpoints are disabled entirely.
func RequireAdmin(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.AdminPasswordHash == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access not configured"})
			return
		}

		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing admin passphrase"})
			return
		}
		passphrase := strings.TrimPrefix(auth, "Bearer ")

		if err := bcrypt.CompareHashAndPassword([]byte(cfg.AdminPasswordHash), []byte(passphrase)); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid admin passphrase"})
			return
		}

		c.Next()
	}
}

// AdminListSessions returns every live session plus the most recent closed
// ones from the session log.
func AdminListSessions(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		live := sim.Manager.ActiveSessions()

		var recent []models.SessionLog
		if err := db.Select(&recent, `
			SELECT id, session_token, preset, created_at, last_length, closed_at
			FROM session_log
			ORDER BY closed_at DESC NULLS LAST
			LIMIT 50
		`); err != nil {
			log.Printf("[DB] Failed to load session log: %v", err)
			// live view is still useful without history
			recent = nil
		}

		c.JSON(http.StatusOK, gin.H{
			"live":   live,
			"recent": recent,
		})
	}
}

// AdminCloseSession force-closes a session: it is dropped from memory and
// Redis and recorded in the session log, so the client cannot rehydrate it.
func AdminCloseSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if _, err := sim.Manager.GetSession(id); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		sim.Manager.CloseSession(id)
		c.JSON(http.StatusOK, gin.H{"closed": id})
	}
}

// AdminDeletePreset removes a stored preset
func AdminDeletePreset(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		res, err := db.Exec(`DELETE FROM presets WHERE name=$1`, name)
		if err != nil {
			log.Printf("[DB] Failed to delete preset %q: %v", name, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "preset not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": name})
	}
}

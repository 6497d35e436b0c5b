package ws

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/websocket"

	"github.com/paperoll/backend/internal/config"
	"github.com/paperoll/backend/internal/sim"
)

// Simulation message data types
type DragData struct {
	DeltaY float64 `json:"delta_y"` // pointer delta in pixels, positive = pull down
	Dt     float64 `json:"dt"`      // seconds covered by this sample
}

type SetLengthData struct {
	Length float64 `json:"length"`
}

type SetConfigData struct {
	Roll  *sim.RollConfig  `json:"roll"`
	Cloth *sim.ClothConfig `json:"cloth"`
}

// SimHub is the single hub for all simulation sessions.
var SimHub *Hub

func init() {
	SimHub = NewHub()
	go runHub(SimHub)
}

// HandleWebSocket upgrades a connection and attaches it to its simulation
// session. The session is identified by the signed token issued at session
// creation; an unknown or expired token is rejected before the upgrade.
func HandleWebSocket(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
			return
		}

		sessionID, err := ParseSessionToken(cfg, token)
		if err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid session token"})
			return
		}

		s, err := sim.Manager.GetSession(sessionID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[WS] Upgrade error: %v", err)
			return
		}

		client := &Client{
			conn:      conn,
			sessionID: sessionID,
			send:      make(chan []byte, 256),
			done:      make(chan struct{}),
		}

		SimHub.register <- client

		go client.writePump()
		go client.frameLoop(s, cfg.TickRate)
		go client.readPump()
	}
}

// ParseSessionToken validates a signed session token and returns the session ID.
func ParseSessionToken(cfg *config.Config, token string) (string, error) {
	parsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid claims")
	}
	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", fmt.Errorf("missing session id claim")
	}
	return sid, nil
}

// frameLoop drives the simulation while this client is attached: one Step
// per tick, frame payload down the send channel. Frames are dropped rather
// than queued when the client can't keep up; the next frame supersedes them
// anyway. The session snapshot is persisted roughly every two seconds.
func (c *Client) frameLoop(s *sim.Session, tickRate int) {
	if tickRate <= 0 {
		tickRate = 30
	}
	interval := time.Second / time.Duration(tickRate)
	saveEvery := 2 * tickRate

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	ticks := 0

	for {
		select {
		case <-c.done:
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now

			frame := s.Step(dt)
			data, err := json.Marshal(map[string]interface{}{
				"type": "frame",
				"data": frame,
			})
			if err != nil {
				log.Printf("[WS] Failed to marshal frame for session %s: %v", c.sessionID, err)
				continue
			}

			select {
			case c.send <- data:
			case <-c.done:
				return
			default:
				// client is behind; drop this frame
			}

			ticks++
			if ticks%saveEvery == 0 {
				sim.Manager.SaveSession(s)
			}
		}
	}
}

// readPump reads simulation input messages.
func (c *Client) readPump() {
	defer func() {
		SimHub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(65536)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error (unexpected) for session %s: %v", c.sessionID, err)
			} else {
				log.Printf("WebSocket read error for session %s: %v", c.sessionID, err)
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		c.handleMessage(msg)
	}
}

// handleMessage processes incoming simulation messages.
func (c *Client) handleMessage(msg WSMessage) {
	s, err := sim.Manager.GetSession(c.sessionID)
	if err != nil {
		c.sendError("Session not found")
		return
	}

	switch msg.Type {
	case "drag_start":
		s.StartDrag()

	case "drag":
		var data DragData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("Invalid drag data")
			return
		}
		s.ApplyDrag(data.DeltaY, data.Dt)

	case "drag_end":
		s.EndDrag()

	case "set_length":
		var data SetLengthData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("Invalid length data")
			return
		}
		s.SetLength(data.Length)

	case "set_config":
		var data SetConfigData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("Invalid config data")
			return
		}
		rollCfg := s.Snapshot().RollConfig
		clothCfg := s.Snapshot().ClothConfig
		if data.Roll != nil {
			rollCfg = *data.Roll
		}
		if data.Cloth != nil {
			clothCfg = *data.Cloth
		}
		s.Reconfigure(rollCfg, clothCfg)
		sim.Manager.SaveSession(s)

	case "get_state":
		snap := s.Snapshot()
		d, _ := json.Marshal(map[string]interface{}{
			"type": "state",
			"data": snap,
		})
		select {
		case c.send <- d:
		default:
		}

	default:
		c.sendError("Unknown message type")
	}
}

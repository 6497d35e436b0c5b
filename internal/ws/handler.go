package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/paperoll/backend/internal/sim"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // Origin is checked by the WebSocketCORSCheck middleware
	},
}

// Client represents a connected WebSocket client driving one simulation session
type Client struct {
	conn      *websocket.Conn
	sessionID string
	send      chan []byte   // never closed; frame loop and input handlers both send on it
	done      chan struct{} // closed exactly once by the hub; stops all pumps
}

// Hub maintains the set of active clients, one per session
type Hub struct {
	clients    map[string]*Client // sessionID -> Client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// SendToSession sends a message to the client attached to a session
func (h *Hub) SendToSession(sessionID string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if client, exists := h.clients[sessionID]; exists {
		select {
		case client.send <- data:
			// sent
		default:
			log.Printf("[WS] SendToSession dropped message for session %s (buffer full)", sessionID)
		}
	}
}

// Message types
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// runHub processes client registration and teardown. A new connection for a
// session a client is already attached to replaces the old connection, so a
// reloading browser tab takes over its own simulation instead of forking it.
//
// Teardown is signaled only through done. The send channel is never closed:
// the frame loop and input handlers send on it concurrently from outside the
// hub lock, so closing it would race them.
func runHub(h *Hub) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if oldClient, exists := h.clients[client.sessionID]; exists {
				log.Printf("[WS] Session %s reconnecting - closing old connection", client.sessionID)
				if err := oldClient.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "replaced by new connection"), time.Now().Add(5*time.Second)); err != nil {
					log.Printf("Error writing close control to old client %s: %v", oldClient.sessionID, err)
				}
				oldClient.conn.Close()
				close(oldClient.done)
			}
			h.clients[client.sessionID] = client
			h.mu.Unlock()

			log.Printf("[WS] Client connected to session %s", client.sessionID)

		case client := <-h.unregister:
			h.mu.Lock()
			if cur, ok := h.clients[client.sessionID]; ok && cur == client {
				delete(h.clients, client.sessionID)

				log.Printf("[WS] Client disconnected from session %s", client.sessionID)

				close(client.done)

				// Persist the latest state so a reconnect resumes here
				if s, err := sim.Manager.GetSession(client.sessionID); err == nil {
					sim.Manager.SaveSession(s)
				}
			}
			h.mu.Unlock()
		}
	}
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			// Connection is being replaced or cleaned up. Best-effort close
			// frame; ignore errors (conn may already be closed).
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("WebSocket write error for session %s: %v", c.sessionID, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("WebSocket ping error for session %s: %v", c.sessionID, err)
				return
			}
		}
	}
}

// sendError sends an error message to the client
func (c *Client) sendError(message string) {
	data, _ := json.Marshal(map[string]interface{}{
		"type":    "error",
		"message": message,
	})
	select {
	case c.send <- data:
	default:
	}
}

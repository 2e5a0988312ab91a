// Package websocket pushes live leaderboard updates to connected spectators.
package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"hackbutton/internal/leaderboard"
	"hackbutton/internal/metrics"
	"hackbutton/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Hub maintains the set of active clients and broadcasts leaderboard
// updates to them.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Outbound messages for all clients
	broadcast chan []byte

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Leaderboard service for on-demand snapshots
	service *leaderboard.Service

	// Metrics, may be nil
	metrics *metrics.Manager

	// Mutex for thread safety
	mutex sync.RWMutex
}

// Client represents a connected spectator
type Client struct {
	// The websocket connection
	conn *websocket.Conn

	// Buffered channel of outbound messages
	send chan []byte

	// Connection ID for logging
	id string

	// Hub reference
	hub *Hub
}

// WebSocket upgrader. The feed is public and read-mostly, so any origin
// may connect.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Ensure the hub can be wired as the service's notifier
var _ leaderboard.Notifier = (*Hub)(nil)

// NewHub creates a new WebSocket hub
func NewHub(service *leaderboard.Service, metricsManager *metrics.Manager) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		service:    service,
		metrics:    metricsManager,
	}
}

// Run starts the hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			if h.metrics != nil {
				h.metrics.SpectatorConnected(1)
			}
			log.Printf("Spectator connected: %s", client.id)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				if h.metrics != nil {
					h.metrics.SpectatorConnected(-1)
				}
				log.Printf("Spectator disconnected: %s", client.id)
			}
			h.mutex.Unlock()

		case message := <-h.broadcast:
			h.mutex.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mutex.RUnlock()
		}
	}
}

// NotifyLeaderboard pushes a refreshed top list to every connected client.
func (h *Hub) NotifyLeaderboard(hardMode bool, entries []models.LeaderboardEntry) {
	message := models.WebSocketMessage{
		Type: "leaderboard_update",
		Data: models.LeaderboardUpdate{
			Mode:    models.ModeName(hardMode),
			Entries: entries,
		},
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling leaderboard update: %v", err)
		return
	}

	select {
	case h.broadcast <- data:
	default:
		log.Println("Broadcast queue full, dropping leaderboard update")
	}
}

// HandleWebSocket handles WebSocket connections
func (h *Hub) HandleWebSocket(c *gin.Context) {
	// Upgrade HTTP connection to WebSocket
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}

	// Create new client
	client := &Client{
		conn: conn,
		send: make(chan []byte, 256),
		id:   uuid.NewString(),
		hub:  h,
	}

	// Register client
	h.register <- client

	// Start goroutines for reading and writing
	go client.writePump()
	go client.readPump()
}

// sendMessage sends a message to the client
func (c *Client) sendMessage(message models.WebSocketMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return
	}

	select {
	case c.send <- data:
	default:
		close(c.send)
		c.hub.mutex.Lock()
		delete(c.hub.clients, c)
		c.hub.mutex.Unlock()
	}
}

// readPump pumps messages from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	// Set read deadline and pong handler
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		// Parse message
		var message models.WebSocketMessage
		if err := json.Unmarshal(messageBytes, &message); err != nil {
			log.Printf("Error parsing message: %v", err)
			c.sendError("Invalid message format")
			continue
		}

		// Handle message
		c.handleMessage(message)
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage handles incoming WebSocket messages
func (c *Client) handleMessage(message models.WebSocketMessage) {
	switch message.Type {
	case "get_leaderboard":
		c.handleGetLeaderboard(message.Data)
	default:
		c.sendError("Unknown message type")
	}
}

// handleGetLeaderboard sends a snapshot of one board to the requesting
// client only.
func (c *Client) handleGetLeaderboard(data interface{}) {
	var req models.LeaderboardRequest
	if raw, err := json.Marshal(data); err == nil {
		// Tolerate a missing or malformed payload; it selects normal mode.
		json.Unmarshal(raw, &req)
	}

	hardMode := models.IsHardModeParam(req.Mode)
	entries, err := c.hub.service.TopScores(hardMode)
	if err != nil {
		log.Printf("Error fetching leaderboard for spectator %s: %v", c.id, err)
		c.sendError("Failed to fetch leaderboard")
		return
	}
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}

	c.sendMessage(models.WebSocketMessage{
		Type: "leaderboard_update",
		Data: models.LeaderboardUpdate{
			Mode:    models.ModeName(hardMode),
			Entries: entries,
		},
	})
}

// sendError sends an error message to the client
func (c *Client) sendError(errorMessage string) {
	c.sendMessage(models.WebSocketMessage{
		Type: "error",
		Data: models.ErrorResponse{Message: errorMessage},
	})
}

package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Write deadline for outbound frames.
	writeWait = 10 * time.Second

	// A peer that has not answered a ping within this window is dead.
	pongWait = 60 * time.Second

	// Ping interval, kept under pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Inbound frames are keepalives only, so the limit is tight.
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict origins once the dashboard host is settled
		return true
	},
}

// Message is the JSON frame pushed to bay subscribers.
type Message struct {
	BayID      string      `json:"bay_id"`
	Event      string      `json:"event,omitempty"`
	Lines      []string    `json:"lines,omitempty"`
	EngineType string      `json:"engine_type,omitempty"`
	Data       interface{} `json:"data,omitempty"`
}

// Client is one WebSocket subscriber bound to a single bay.
type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	bayID string
}

// Hub tracks subscribers per bay and fans bay events out to them.
type Hub struct {
	// Registered clients by bay ID, guarded by mu so broadcasts from
	// request handlers stay safe alongside the Run loop
	mu   sync.RWMutex
	bays map[string]map[*Client]bool

	// Inbound messages from clients
	broadcast chan *Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		bays:       make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// ServeWS upgrades the request and attaches the subscriber to a bay.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, bayID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:   h,
		conn:  conn,
		send:  make(chan []byte, 256),
		bayID: bayID,
	}

	// Greet the subscriber before the pumps start
	if welcome, err := json.Marshal(&Message{BayID: bayID, Event: "connected"}); err == nil {
		client.send <- welcome
	}

	client.hub.register <- client

	// Start client goroutines
	go client.writePump()
	go client.readPump()
}

// BroadcastToBay sends a car event to all clients watching a bay
func (h *Hub) BroadcastToBay(bayID, event string, lines []string, engineType string) {
	message := &Message{
		BayID:      bayID,
		Event:      event,
		Lines:      lines,
		EngineType: engineType,
	}

	h.broadcastMessage(message)
}

// BroadcastEvent sends a custom event to all clients watching a bay. The
// message flows through the hub's event loop, so Run must be started.
func (h *Hub) BroadcastEvent(bayID string, event string, data interface{}) {
	message := &Message{
		BayID: bayID,
		Event: event,
		Data:  data,
	}

	h.broadcast <- message
}

// ClientCount returns the number of clients watching a bay
func (h *Hub) ClientCount(bayID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.bays[bayID])
}

// registerClient adds a client to a bay
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	if h.bays[client.bayID] == nil {
		h.bays[client.bayID] = make(map[*Client]bool)
	}
	h.bays[client.bayID][client] = true
	total := len(h.bays[client.bayID])
	h.mu.Unlock()

	log.Printf("Client registered for bay %s (total clients: %d)", client.bayID, total)
}

// unregisterClient removes a client from a bay
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	clients, ok := h.bays[client.bayID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := clients[client]; !ok {
		h.mu.Unlock()
		return
	}

	delete(clients, client)
	close(client.send)

	// Clean up empty bays
	if len(clients) == 0 {
		delete(h.bays, client.bayID)
	}
	remaining := len(clients)
	h.mu.Unlock()

	log.Printf("Client unregistered from bay %s (remaining clients: %d)", client.bayID, remaining)
}

// broadcastMessage sends a message to all clients watching a bay
func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Failed to marshal WebSocket message: %v", err)
		return
	}

	// Collect clients that cannot keep up and drop them after the lock is
	// released; unregisterClient takes the write lock
	var dead []*Client

	h.mu.RLock()
	for client := range h.bays[message.BayID] {
		select {
		case client.send <- data:
		default:
			dead = append(dead, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range dead {
		h.unregisterClient(client)
	}
}

// readPump drains the connection until the peer goes away. Subscribers never
// send meaningful frames; reading only services pongs and close detection.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
	}
}

// writePump flushes the send queue to the connection and keeps the peer
// alive with periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel, tell the peer goodbye
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Fold anything already queued into the same frame
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

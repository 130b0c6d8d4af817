package services

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/Astrobubu/StageTimer/internal/config"
	"github.com/Astrobubu/StageTimer/internal/models"
)

// Dispatcher consumes frames and disconnects surfaced by the hub. The
// coordinator implements it; the indirection keeps the hub purely a fan-out
// layer with no knowledge of command semantics.
type Dispatcher interface {
	Dispatch(connID, roomID string, data []byte)
	Disconnect(connID string)
}

// Hub tracks every live WebSocket client grouped by room and fans outbound
// messages out to them. All bookkeeping runs on the single Run goroutine fed
// by channels; the per-room maps are additionally mutex-guarded so broadcasts
// can read them without queueing behind registrations.
type Hub struct {
	// Room connections: roomId -> set of clients
	rooms map[string]map[*Client]bool

	// Connection id -> client, for directed sends
	clients map[string]*Client

	broadcast     chan *BroadcastMessage
	register      chan *Client
	unregister    chan *Client
	handleMessage chan *ClientMessage

	dispatcher Dispatcher
	metrics    *Metrics

	mu sync.RWMutex
}

// BroadcastMessage pairs an outbound message with its destination room.
type BroadcastMessage struct {
	RoomID  string
	Message *models.OutboundMessage
}

func NewHub(metrics *Metrics) *Hub {
	return &Hub{
		rooms:         make(map[string]map[*Client]bool),
		clients:       make(map[string]*Client),
		broadcast:     make(chan *BroadcastMessage, config.HubBroadcastBufferSize),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		handleMessage: make(chan *ClientMessage, config.HubMessageBufferSize),
		metrics:       metrics,
	}
}

// SetDispatcher wires the command consumer. Must be called before Run.
func (h *Hub) SetDispatcher(d Dispatcher) {
	h.dispatcher = d
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.broadcastToRoom(msg)

		case cm := <-h.handleMessage:
			if h.dispatcher != nil {
				h.dispatcher.Dispatch(cm.Client.connID, cm.Client.roomID, cm.Message)
			}
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()

	if h.rooms[client.roomID] != nil && len(h.rooms[client.roomID]) >= config.MaxConnectionsPerRoom {
		h.mu.Unlock()
		log.Printf("⚠️  Room %s at connection capacity, rejecting %s", client.roomID, client.connID)
		client.Close()
		return
	}

	if h.rooms[client.roomID] == nil {
		h.rooms[client.roomID] = make(map[*Client]bool)
	}
	h.rooms[client.roomID][client] = true
	h.clients[client.connID] = client
	total := len(h.rooms[client.roomID])
	h.mu.Unlock()

	h.metrics.IncrementConnections()
	log.Printf("✓ WebSocket registered: room=%s conn=%s (total connections in room: %d)",
		client.roomID, client.connID, total)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	removed := false
	if clients, ok := h.rooms[client.roomID]; ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)
			removed = true
			if len(clients) == 0 {
				delete(h.rooms, client.roomID)
			}
		}
	}
	if h.clients[client.connID] == client {
		delete(h.clients, client.connID)
	}
	h.mu.Unlock()

	if !removed {
		return
	}

	client.Close()
	h.metrics.DecrementConnections()

	// Membership cleanup runs after transport cleanup so the leave broadcast
	// never reaches the closing connection.
	if h.dispatcher != nil {
		h.dispatcher.Disconnect(client.connID)
	}
	log.Printf("✓ WebSocket unregistered: room=%s conn=%s", client.roomID, client.connID)
}

func (h *Hub) broadcastToRoom(msg *BroadcastMessage) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rooms[msg.RoomID]))
	for client := range h.rooms[msg.RoomID] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	data, err := json.Marshal(msg.Message)
	if err != nil {
		log.Printf("❌ Error marshaling message: %v", err)
		return
	}

	for _, client := range clients {
		client.Send(data)
	}
}

// BroadcastToRoom queues a message for every connection in a room. A slow
// recipient is dropped by its own client, never stalling the others.
func (h *Hub) BroadcastToRoom(roomID string, message *models.OutboundMessage) {
	h.broadcast <- &BroadcastMessage{
		RoomID:  roomID,
		Message: message,
	}
}

// SendToConn delivers a message to one connection. Returns false when the
// connection is unknown or its send buffer is full.
func (h *Hub) SendToConn(connID string, message *models.OutboundMessage) bool {
	h.mu.RLock()
	client := h.clients[connID]
	h.mu.RUnlock()

	if client == nil {
		return false
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("❌ Error marshaling message: %v", err)
		return false
	}
	return client.Send(data)
}

// Register hands a freshly accepted connection to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a connection from the hub; safe to call more than once.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// GetMetrics exposes the metrics snapshot for the HTTP handlers.
func (h *Hub) GetMetrics() MetricsSnapshot {
	return h.metrics.Snapshot()
}

// CloseConn closes one connection by id, if it is still registered.
func (h *Hub) CloseConn(connID string) {
	h.mu.RLock()
	client := h.clients[connID]
	h.mu.RUnlock()

	if client != nil {
		client.Close()
	}
}

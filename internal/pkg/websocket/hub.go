package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Message types pushed to students
const (
	// MessageTypePublished carries a notification that is (now) visible
	MessageTypePublished = "notification.published"
	// MessageTypeRemoved tells clients to drop a notification from their feed
	MessageTypeRemoved = "notification.removed"
)

// Message represents a message sent over WebSocket
type Message struct {
	Type           string      `json:"type"`
	NotificationID int64       `json:"notificationId"`
	Notification   interface{} `json:"notification,omitempty"`
	Timestamp      time.Time   `json:"timestamp"`
}

// Hub maintains the set of connected students and fans out feed updates
type Hub struct {
	clients map[*Client]bool

	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client

	// closed when Run returns
	done chan struct{}

	// guards clients for ClientCount; Run is the only writer
	mu sync.RWMutex

	logger zerolog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run handles registrations and broadcasts until ctx is cancelled, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug().Int64("userID", client.userID).Msg("Client registered")

		case client := <-h.unregister:
			h.remove(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// Broadcast queues message for every connected client. It never blocks: when
// the queue is full the message is dropped and clients catch up on their
// next feed request.
func (h *Hub) Broadcast(message *Message) {
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now()
	}

	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn().
			Str("type", message.Type).
			Int64("notificationID", message.NotificationID).
			Msg("Broadcast queue full, dropping message")
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error().Err(err).Str("type", message.Type).Msg("Failed to marshal message for broadcast")
		return
	}

	var slow []*Client
	h.mu.RLock()
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			slow = append(slow, client)
		}
	}
	count := len(h.clients)
	h.mu.RUnlock()

	for _, client := range slow {
		h.logger.Warn().Int64("userID", client.userID).Msg("Dropping slow client")
		h.remove(client)
	}

	h.logger.Debug().
		Str("type", message.Type).
		Int64("notificationID", message.NotificationID).
		Int("clientCount", count).
		Msg("Message broadcasted")
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		h.logger.Debug().Int64("userID", client.userID).Msg("Client unregistered")
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
}

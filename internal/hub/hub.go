package hub

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"lounge/backend/internal/metrics"

	"github.com/google/uuid"
)

// ErrClientClosed is returned when joining with a client that already disconnected.
var ErrClientClosed = errors.New("hub: client is disconnected")

// Event represents a real-time event to be sent to clients.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// State is where a client is in its lifecycle.
type State int

const (
	Connected State = iota
	Joined
	Disconnected
)

func (s State) String() string {
	switch s {
	case Connected:
		return "connected"
	case Joined:
		return "joined"
	default:
		return "disconnected"
	}
}

// Client represents a single connection. The transport drains Send until the
// hub closes it on Disconnect.
type Client struct {
	ID   string
	Send chan []byte

	// Guarded by the hub's mutex.
	state  State
	userID uint
}

// NewClient creates a client in the Connected state.
func NewClient(buffer int) *Client {
	return &Client{
		ID:   uuid.NewString(),
		Send: make(chan []byte, buffer),
	}
}

// Hub manages one room per user id. A user may hold several connections;
// every one of them receives what is broadcast to the user.
type Hub struct {
	rooms   map[uint]map[*Client]bool
	clients map[*Client]bool
	mu      sync.RWMutex
}

// New creates a new Hub.
func New() *Hub {
	return &Hub{
		rooms:   make(map[uint]map[*Client]bool),
		clients: make(map[*Client]bool),
	}
}

// Connect registers a new client that is not yet addressable by user id.
func (h *Hub) Connect(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.state = Connected
	h.clients[client] = true
	metrics.WSConnections.Inc()
}

// Join adds the client to userID's room, leaving any room it was in before.
func (h *Hub) Join(userID uint, client *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[client] {
		return ErrClientClosed
	}
	if client.state == Joined {
		if client.userID == userID {
			return nil
		}
		h.leaveLocked(client)
	}

	if _, ok := h.rooms[userID]; !ok {
		h.rooms[userID] = make(map[*Client]bool)
	}
	h.rooms[userID][client] = true
	client.userID = userID
	client.state = Joined
	return nil
}

// Disconnect removes the client from its room and closes its Send channel.
// Calling it more than once is harmless.
func (h *Hub) Disconnect(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[client] {
		return
	}
	if client.state == Joined {
		h.leaveLocked(client)
	}
	delete(h.clients, client)
	client.state = Disconnected
	close(client.Send) // Close the channel to signal the writer to stop.
	metrics.WSConnections.Dec()
}

func (h *Hub) leaveLocked(client *Client) {
	if clients, ok := h.rooms[client.userID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.rooms, client.userID)
		}
	}
	client.userID = 0
	client.state = Connected
}

// StateOf returns the client's lifecycle state and, when joined, its user id.
func (h *Hub) StateOf(client *Client) (State, uint) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return client.state, client.userID
}

// Connections returns how many live connections userID has.
func (h *Hub) Connections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID])
}

// Broadcast sends an event to every connection in userID's room and returns
// how many accepted it. A user without connections is not an error.
func (h *Hub) Broadcast(userID uint, event Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.rooms[userID]
	if !ok {
		metrics.LiveEvents.WithLabelValues("offline").Inc()
		return 0
	}

	messageBytes, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to encode hub event", "type", event.Type, "error", err)
		return 0
	}

	delivered := 0
	for client := range clients {
		// Use a non-blocking send to prevent a slow client from blocking the hub.
		if trySend(client, messageBytes) {
			delivered++
			metrics.LiveEvents.WithLabelValues("delivered").Inc()
		} else {
			metrics.LiveEvents.WithLabelValues("dropped").Inc()
			slog.Warn("dropping live event for slow client", "client", client.ID, "user", userID, "type", event.Type)
		}
	}
	return delivered
}

// SendTo delivers an event to one client, e.g. an ack for its own request.
func (h *Hub) SendTo(client *Client, event Event) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.clients[client] {
		return false
	}
	messageBytes, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to encode hub event", "type", event.Type, "error", err)
		return false
	}
	return trySend(client, messageBytes)
}

func trySend(client *Client, b []byte) bool {
	select {
	case client.Send <- b:
		return true
	default:
		return false
	}
}

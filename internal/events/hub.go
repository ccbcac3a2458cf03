package events

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	MessageTypeSubscribe     MessageType = "subscribe"
	MessageTypeUnsubscribe   MessageType = "unsubscribe"
	MessageTypeEmailsChanged MessageType = "emails_changed"
	MessageTypeStatsUpdated  MessageType = "stats_updated"
	MessageTypeError         MessageType = "error"
)

// WSMessage represents a WebSocket message. Connected clients use the
// thread-scoped variants to keep their per-thread caches fresh; every client
// receives stats_updated and unscoped emails_changed events.
type WSMessage struct {
	Type     MessageType `json:"type"`
	ThreadID string      `json:"thread_id,omitempty"`
	Stats    interface{} `json:"stats,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// Hub maintains the set of active clients and broadcasts invalidation
// events triggered by mutations.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Thread subscriptions: threadID -> set of clients
	subscriptions map[string]map[*Client]bool

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Thread subscription changes
	subscribe         chan *subscriptionRequest
	unsubscribeThread chan *subscriptionRequest

	// Broadcast requests
	broadcast chan *broadcastMessage

	mu sync.RWMutex

	logger *slog.Logger
}

type subscriptionRequest struct {
	client   *Client
	threadID string
}

type broadcastMessage struct {
	// threadID scopes delivery to subscribers of that thread; empty means
	// every registered client.
	threadID string
	message  []byte
}

// NewHub creates a new Hub instance
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:           make(map[*Client]bool),
		subscriptions:     make(map[string]map[*Client]bool),
		register:          make(chan *Client),
		unregister:        make(chan *Client),
		subscribe:         make(chan *subscriptionRequest),
		unsubscribeThread: make(chan *subscriptionRequest),
		broadcast:         make(chan *broadcastMessage, 256),
		logger:            logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("client registered")
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				for threadID, subscribers := range h.subscriptions {
					delete(subscribers, client)
					if len(subscribers) == 0 {
						delete(h.subscriptions, threadID)
					}
				}
			}
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("client unregistered")
			}

		case req := <-h.subscribe:
			h.mu.Lock()
			if h.subscriptions[req.threadID] == nil {
				h.subscriptions[req.threadID] = make(map[*Client]bool)
			}
			h.subscriptions[req.threadID][req.client] = true
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("client subscribed to thread", slog.String("thread_id", req.threadID))
			}

		case req := <-h.unsubscribeThread:
			h.mu.Lock()
			if subscribers, ok := h.subscriptions[req.threadID]; ok {
				delete(subscribers, req.client)
				if len(subscribers) == 0 {
					delete(h.subscriptions, req.threadID)
				}
			}
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("client unsubscribed from thread", slog.String("thread_id", req.threadID))
			}

		case msg := <-h.broadcast:
			h.mu.RLock()
			targets := h.clients
			if msg.threadID != "" {
				targets = h.subscriptions[msg.threadID]
			}
			for client := range targets {
				select {
				case client.send <- msg.message:
				default:
					// Client buffer full, skip
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Subscribe subscribes a client to a thread
func (h *Hub) Subscribe(client *Client, threadID string) {
	h.subscribe <- &subscriptionRequest{client: client, threadID: threadID}
}

// Unsubscribe unsubscribes a client from a thread
func (h *Hub) Unsubscribe(client *Client, threadID string) {
	h.unsubscribeThread <- &subscriptionRequest{client: client, threadID: threadID}
}

// BroadcastEmailsChanged notifies clients that records changed. A non-empty
// threadID narrows delivery to that thread's subscribers; empty reaches
// every connected client.
func (h *Hub) BroadcastEmailsChanged(threadID string) {
	h.send(&WSMessage{Type: MessageTypeEmailsChanged, ThreadID: threadID}, threadID)
}

// BroadcastStatsUpdated pushes a fresh stats snapshot to every client.
func (h *Hub) BroadcastStatsUpdated(stats interface{}) {
	h.send(&WSMessage{Type: MessageTypeStatsUpdated, Stats: stats}, "")
}

func (h *Hub) send(msg *WSMessage, threadID string) {
	data, err := json.Marshal(msg)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("failed to marshal broadcast message", slog.Any("error", err))
		}
		return
	}

	h.broadcast <- &broadcastMessage{
		threadID: threadID,
		message:  data,
	}
}

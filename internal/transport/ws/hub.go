package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Server message types
const (
	MsgState        MessageType = "state"
	MsgAchievements MessageType = "achievements"
	MsgError        MessageType = "error"
)

// Client intent types
const (
	IntentSubmit  MessageType = "submit"
	IntentSkip    MessageType = "skip"
	IntentNext    MessageType = "next"
	IntentPause   MessageType = "pause"
	IntentResume  MessageType = "resume"
	IntentRestart MessageType = "restart"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Hub fans session snapshots out to every connection watching a session
type Hub struct {
	sessions map[string]map[*Connection]struct{}

	mu sync.RWMutex

	// Channels for coordination
	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
	disconnect chan string
	done       chan struct{}
	closeOnce  sync.Once

	logger *zap.Logger
}

// Connection represents a WebSocket connection
type Connection struct {
	SessionID string
	Send      chan []byte
	Hub       *Hub
}

// BroadcastMessage is a message to broadcast
type BroadcastMessage struct {
	SessionID string
	Message   *Message
}

// NewHub creates a new WebSocket hub
func NewHub(logger *zap.Logger) *Hub {
	h := &Hub{
		sessions:   make(map[string]map[*Connection]struct{}),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
		disconnect: make(chan string),
		done:       make(chan struct{}),
		logger:     logger.Named("ws"),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for id := range h.sessions {
				h.dropSessionLocked(id)
			}
			h.mu.Unlock()
			return

		case conn := <-h.register:
			h.mu.Lock()
			if h.sessions[conn.SessionID] == nil {
				h.sessions[conn.SessionID] = make(map[*Connection]struct{})
			}
			h.sessions[conn.SessionID][conn] = struct{}{}
			h.mu.Unlock()
			h.logger.Debug("client connected", zap.String("session", conn.SessionID))

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.sessions[conn.SessionID]; ok {
				if _, ok := conns[conn]; ok {
					delete(conns, conn)
					close(conn.Send)
					if len(conns) == 0 {
						delete(h.sessions, conn.SessionID)
					}
					h.logger.Debug("client disconnected", zap.String("session", conn.SessionID))
				}
			}
			h.mu.Unlock()

		case id := <-h.disconnect:
			h.mu.Lock()
			h.dropSessionLocked(id)
			h.mu.Unlock()

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.Message)
			if err != nil {
				h.logger.Error("failed to encode message", zap.Error(err))
				continue
			}
			h.mu.RLock()
			for conn := range h.sessions[msg.SessionID] {
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) dropSessionLocked(id string) {
	for conn := range h.sessions[id] {
		close(conn.Send)
	}
	delete(h.sessions, id)
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// BroadcastToSession sends a message to every watcher of a session (implements service.Broadcaster)
func (h *Hub) BroadcastToSession(sessionID string, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to encode payload", zap.String("type", msgType), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- &BroadcastMessage{
		SessionID: sessionID,
		Message:   &Message{Type: MessageType(msgType), Payload: data},
	}:
	case <-h.done:
	}
}

// DisconnectSession closes every connection of a session (implements service.Broadcaster)
func (h *Hub) DisconnectSession(sessionID string) {
	select {
	case h.disconnect <- sessionID:
	case <-h.done:
	}
}

// Watchers returns the number of connections on a session
func (h *Hub) Watchers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

// Close stops the hub and closes every connection
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

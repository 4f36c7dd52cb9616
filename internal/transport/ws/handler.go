package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"neuralflux/internal/model"
	"neuralflux/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
)

// Sessions is the intent surface a socket client can drive
type Sessions interface {
	State(ctx context.Context, id string) (model.SessionState, error)
	Restart(id string) (model.SessionState, error)
	Submit(id, requestID, answer string) error
	Skip(id, requestID string) error
	ShowNextCard(id string) error
	Pause(id string) error
	Resume(id string) error
}

// ClientMessage is an intent sent by the browser
type ClientMessage struct {
	Type      MessageType `json:"type"`
	RequestID string      `json:"requestId,omitempty"`
	Answer    string      `json:"answer,omitempty"`
}

// Handler handles WebSocket connections
type Handler struct {
	hub      *Hub
	sessions Sessions
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHandler creates a new WebSocket handler. checkOrigin may be nil to
// allow every origin.
func NewHandler(hub *Hub, sessions Sessions, checkOrigin func(r *http.Request) bool, logger *zap.Logger) *Handler {
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &Handler{
		hub:      hub,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		logger: logger.Named("ws"),
	}
}

// SessionWS handles GET /v1/ws/sessions/{id}
func (h *Handler) SessionWS(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	state, err := h.sessions.State(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}

	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := &Connection{
		SessionID: id,
		Send:      make(chan []byte, 256),
		Hub:       h.hub,
	}
	// The current snapshot goes first so the client can render at once
	conn.Send <- encode(MsgState, state)
	h.hub.Register(conn)

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		h.hub.Unregister(conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket read error", zap.String("session", conn.SessionID), zap.Error(err))
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.reply(conn, encode(MsgError, errorPayload("invalid message")))
			continue
		}
		if err := h.dispatch(conn.SessionID, msg); err != nil {
			h.reply(conn, encode(MsgError, errorPayload(err.Error())))
		}
	}
}

// dispatch applies one intent. New state reaches the client through the
// hub broadcast, so only failures are answered directly.
func (h *Handler) dispatch(sessionID string, msg ClientMessage) error {
	switch msg.Type {
	case IntentSubmit:
		return h.sessions.Submit(sessionID, msg.RequestID, msg.Answer)
	case IntentSkip:
		return h.sessions.Skip(sessionID, msg.RequestID)
	case IntentNext:
		return h.sessions.ShowNextCard(sessionID)
	case IntentPause:
		return h.sessions.Pause(sessionID)
	case IntentResume:
		return h.sessions.Resume(sessionID)
	case IntentRestart:
		_, err := h.sessions.Restart(sessionID)
		return err
	default:
		return fmt.Errorf("unknown intent %q", msg.Type)
	}
}

// reply queues data for one connection. It must not race the hub closing
// Send, so it goes through the hub lock.
func (h *Handler) reply(conn *Connection, data []byte) {
	h.hub.mu.RLock()
	defer h.hub.mu.RUnlock()
	if _, ok := h.hub.sessions[conn.SessionID][conn]; !ok {
		return
	}
	select {
	case conn.Send <- data:
	default:
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := wsConn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func encode(t MessageType, payload interface{}) []byte {
	raw, _ := json.Marshal(payload)
	data, _ := json.Marshal(&Message{Type: t, Payload: raw})
	return data
}

func errorPayload(msg string) map[string]string {
	return map[string]string{"error": msg}
}

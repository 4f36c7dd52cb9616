package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"neuralflux/internal/model"
)

// Sessions is the session surface the REST API drives
type Sessions interface {
	Start(playerID string) (model.SessionState, error)
	Restart(id string) (model.SessionState, error)
	State(ctx context.Context, id string) (model.SessionState, error)
	Submit(id, requestID, answer string) error
	Skip(id, requestID string) error
	ShowNextCard(id string) error
	Pause(id string) error
	Resume(id string) error
	End(id string) error
}

// SessionHandler handles game session endpoints
type SessionHandler struct {
	sessions Sessions
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions Sessions) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// StartSessionRequest is the optional body for starting a session
type StartSessionRequest struct {
	PlayerID string `json:"playerId"`
}

// StartSessionResponse carries the new session's id and opening state
type StartSessionResponse struct {
	SessionID string             `json:"sessionId"`
	State     model.SessionState `json:"state"`
}

// SubmitAnswerRequest is the request body for answering the active request
type SubmitAnswerRequest struct {
	RequestID string `json:"requestId"`
	Answer    string `json:"answer"`
}

// Start handles POST /v1/sessions
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartSessionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	state, err := h.sessions.Start(req.PlayerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, StartSessionResponse{SessionID: state.SessionID, State: state})
}

// Get handles GET /v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	state, err := h.sessions.State(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// Submit handles POST /v1/sessions/{id}/answers
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RequestID == "" {
		writeError(w, http.StatusBadRequest, "requestId is required")
		return
	}
	h.apply(w, r, func(id string) error { return h.sessions.Submit(id, req.RequestID, req.Answer) })
}

// Skip handles POST /v1/sessions/{id}/requests/{requestId}/skip
func (h *SessionHandler) Skip(w http.ResponseWriter, r *http.Request) {
	requestID := mux.Vars(r)["requestId"]
	h.apply(w, r, func(id string) error { return h.sessions.Skip(id, requestID) })
}

// Next handles POST /v1/sessions/{id}/next
func (h *SessionHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, h.sessions.ShowNextCard)
}

// Pause handles POST /v1/sessions/{id}/pause
func (h *SessionHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, h.sessions.Pause)
}

// Resume handles POST /v1/sessions/{id}/resume
func (h *SessionHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, h.sessions.Resume)
}

// Restart handles POST /v1/sessions/{id}/restart
func (h *SessionHandler) Restart(w http.ResponseWriter, r *http.Request) {
	state, err := h.sessions.Restart(mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// End handles DELETE /v1/sessions/{id}
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.End(mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// apply runs an intent and answers with the resulting snapshot
func (h *SessionHandler) apply(w http.ResponseWriter, r *http.Request, intent func(id string) error) {
	id := mux.Vars(r)["id"]
	if err := intent(id); err != nil {
		writeServiceError(w, err)
		return
	}
	state, err := h.sessions.State(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

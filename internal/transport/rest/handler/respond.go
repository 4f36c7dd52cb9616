package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"neuralflux/internal/game"
	"neuralflux/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeServiceError maps domain errors onto HTTP statuses
func writeServiceError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrPlayerNotFound),
		errors.Is(err, game.ErrNoSuchRequest):
		return http.StatusNotFound
	case errors.Is(err, game.ErrEmptyAnswer):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrNotRunning),
		errors.Is(err, game.ErrRequestExpired),
		errors.Is(err, game.ErrShowingResult),
		errors.Is(err, game.ErrNotShowingResult),
		errors.Is(err, game.ErrResultPending):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"neuralflux/internal/cache"
	"neuralflux/internal/model"
)

// Stats is the statistics surface the REST API reads
type Stats interface {
	Stats(ctx context.Context, playerID string) (*model.PlayerStats, error)
	Achievements(ctx context.Context, playerID string) ([]model.Achievement, error)
	History(ctx context.Context, playerID string, limit int) ([]*model.GameRecord, error)
	Leaderboard(ctx context.Context, top int) ([]cache.LeaderboardEntry, error)
	Rank(ctx context.Context, playerID string) (int64, error)
}

// StatsHandler handles leaderboard and player statistics endpoints
type StatsHandler struct {
	stats Stats
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(stats Stats) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// PlayerStatsResponse is the lifetime stats of a player plus their rank
type PlayerStatsResponse struct {
	*model.PlayerStats
	Rank int64 `json:"rank"`
}

// Leaderboard handles GET /v1/leaderboard?top=N
func (h *StatsHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	top := queryInt(r, "top", 10)
	entries, err := h.stats.Leaderboard(r.Context(), top)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if entries == nil {
		entries = []cache.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

// PlayerStats handles GET /v1/players/{player}/stats
func (h *StatsHandler) PlayerStats(w http.ResponseWriter, r *http.Request) {
	player := mux.Vars(r)["player"]
	stats, err := h.stats.Stats(r.Context(), player)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rank, err := h.stats.Rank(r.Context(), player)
	if err != nil {
		rank = -1
	}
	writeJSON(w, http.StatusOK, PlayerStatsResponse{PlayerStats: stats, Rank: rank})
}

// Achievements handles GET /v1/players/{player}/achievements
func (h *StatsHandler) Achievements(w http.ResponseWriter, r *http.Request) {
	list, err := h.stats.Achievements(r.Context(), mux.Vars(r)["player"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"achievements": list})
}

// History handles GET /v1/players/{player}/games?limit=N
func (h *StatsHandler) History(w http.ResponseWriter, r *http.Request) {
	records, err := h.stats.History(r.Context(), mux.Vars(r)["player"], queryInt(r, "limit", 20))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if records == nil {
		records = []*model.GameRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"games": records})
}

func queryInt(r *http.Request, key string, def int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(key)); err == nil {
		return v
	}
	return def
}

package rest

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"neuralflux/internal/transport/rest/handler"
	"neuralflux/internal/transport/rest/middleware"
	"neuralflux/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	Sessions       handler.Sessions
	Stats          handler.Stats
	WSHub          *ws.Hub
	Metrics        http.Handler
	AllowedOrigins string
	Logger         *zap.Logger
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	sessionHandler := handler.NewSessionHandler(c.Sessions)
	statsHandler := handler.NewStatsHandler(c.Stats)
	wsHandler := ws.NewHandler(c.WSHub, c.Sessions, originChecker(c.AllowedOrigins), c.Logger)

	r.Use(middleware.Recover(c.Logger))
	r.Use(middleware.Logging(c.Logger))
	r.Use(corsMiddleware(c.AllowedOrigins))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")
	if c.Metrics != nil {
		r.Handle("/metrics", c.Metrics).Methods("GET")
	}

	v1 := r.PathPrefix("/v1").Subrouter()

	// Sessions
	v1.HandleFunc("/sessions", sessionHandler.Start).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{id}", sessionHandler.Get).Methods("GET", "OPTIONS")
	v1.HandleFunc("/sessions/{id}", sessionHandler.End).Methods("DELETE", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/answers", sessionHandler.Submit).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/requests/{requestId}/skip", sessionHandler.Skip).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/next", sessionHandler.Next).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/pause", sessionHandler.Pause).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/resume", sessionHandler.Resume).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/restart", sessionHandler.Restart).Methods("POST", "OPTIONS")

	// Statistics
	v1.HandleFunc("/leaderboard", statsHandler.Leaderboard).Methods("GET", "OPTIONS")
	v1.HandleFunc("/players/{player}/stats", statsHandler.PlayerStats).Methods("GET", "OPTIONS")
	v1.HandleFunc("/players/{player}/achievements", statsHandler.Achievements).Methods("GET", "OPTIONS")
	v1.HandleFunc("/players/{player}/games", statsHandler.History).Methods("GET", "OPTIONS")

	// WebSocket
	v1.HandleFunc("/ws/sessions/{id}", wsHandler.SessionWS).Methods("GET")

	return r
}

func corsMiddleware(allowedOrigins string) mux.MiddlewareFunc {
	allowed := parseOrigins(allowedOrigins)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowed == nil {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else if origin := r.Header.Get("Origin"); allowed[origin] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// originChecker admits websocket origins from a comma separated list
func originChecker(allowedOrigins string) func(r *http.Request) bool {
	allowed := parseOrigins(allowedOrigins)
	if allowed == nil {
		return nil
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed[origin]
	}
}

// parseOrigins returns nil when every origin is allowed
func parseOrigins(allowedOrigins string) map[string]bool {
	if allowedOrigins == "" || allowedOrigins == "*" {
		return nil
	}
	allowed := make(map[string]bool)
	for _, o := range strings.Split(allowedOrigins, ",") {
		allowed[strings.TrimSpace(o)] = true
	}
	return allowed
}

// apps/go-server/internal/httpserver/routes_stats.go
//
// HTTP routes for the game counters.
// Exposes two endpoints under /stats:
//   - GET  /stats                  → counters plus live queue/session numbers
//   - POST /stats/{name}/increment → bump a collaborator counter (leaderboard, achievements)
//
// The two game counters are owned by the server and cannot be bumped here.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/crossduel/apps/go-server/internal/stats"
)

// statsResponse is the GET /stats payload.
type statsResponse struct {
	stats.Snapshot
	QueueSize    int `json:"queueSize"`
	OnlineCount  int `json:"onlineCount"`
	LiveSessions int `json:"liveSessions"`
}

// mountStats registers all /stats routes.
func (s *Server) mountStats(r chi.Router) {
	r.Route("/stats", func(r chi.Router) {
		r.Get("/", s.handleStats)
		r.Post("/{name}/increment", s.handleIncrement)
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap, err := s.counters.Read(r.Context())
	if err != nil {
		warn(r).Err(err).Msg("read counters")
		http.Error(w, `{"error":"stats_unavailable"}`, http.StatusServiceUnavailable)
		return
	}
	q := s.queue.Snapshot()
	_ = json.NewEncoder(w).Encode(statsResponse{
		Snapshot:     snap,
		QueueSize:    q.QueueSize,
		OnlineCount:  q.OnlineCount,
		LiveSessions: s.sessions.Len(),
	})
}

func (s *Server) handleIncrement(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == stats.ActiveGames || name == stats.TotalGames {
		http.Error(w, `{"error":"reserved_counter"}`, http.StatusForbidden)
		return
	}
	if err := s.counters.Increment(r.Context(), name); err != nil {
		if errors.Is(err, stats.ErrBadName) {
			http.Error(w, `{"error":"invalid_name"}`, http.StatusBadRequest)
			return
		}
		warn(r).Err(err).Str("counter", name).Msg("increment")
		http.Error(w, `{"error":"increment_failed"}`, http.StatusInternalServerError)
		return
	}
	snap, err := s.counters.Read(r.Context())
	if err != nil {
		warn(r).Err(err).Msg("read counters")
		http.Error(w, `{"error":"stats_unavailable"}`, http.StatusServiceUnavailable)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"name": name, "value": snap.Counters[name]})
}

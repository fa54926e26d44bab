// apps/go-server/internal/httpserver/server.go
//
// HTTP server wiring for the Crossduel backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health".
//   - Websocket endpoints: /queue/ws (matchmaking), /session/{id}/ws (a match).
//   - Side channel: GET /sessions/{id}, GET /stats, POST /stats/{name}/increment.
//   - Graceful shutdown when the serving context ends.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled.
//   - The request timeout only wraps plain HTTP routes; upgraded sockets live
//     as long as the client stays.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossduel/apps/go-server/internal/match"
	"github.com/robalobadob/crossduel/apps/go-server/internal/stats"
	"github.com/robalobadob/crossduel/apps/go-server/internal/store"
	"github.com/robalobadob/crossduel/apps/go-server/internal/ticket"
	"github.com/robalobadob/crossduel/apps/go-server/internal/words"
)

const defaultOrigin = "http://localhost:5173"

// Deps are the collaborators the server routes to.
type Deps struct {
	Queue        *match.Queue
	Sessions     *store.Registry
	Counters     stats.Counters
	Tickets      *ticket.Issuer
	ClientOrigin string
}

// Server bundles the router and its collaborators.
type Server struct {
	r        *chi.Mux
	queue    *match.Queue
	sessions *store.Registry
	counters stats.Counters
	tickets  *ticket.Issuer
	origin   string
	upgrader *websocket.Upgrader
}

// New constructs a Server, installs middleware, and registers routes.
func New(d Deps) *Server {
	origin := d.ClientOrigin
	if origin == "" {
		origin = defaultOrigin
	}
	s := &Server{
		r:        chi.NewRouter(),
		queue:    d.Queue,
		sessions: d.Sessions,
		counters: d.Counters,
		tickets:  d.Tickets,
		origin:   origin,
		upgrader: newUpgrader(origin),
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	s.r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer) // recover from panics
	s.r.Use(jsonContentType) // default JSON responses
	s.r.Use(s.cors)          // credentials-friendly CORS

	// --- websockets ---
	s.r.Get("/queue/ws", s.handleQueueWS)
	s.r.With(s.withTicket).Get("/session/{id}/ws", s.handleSessionWS)

	// --- plain HTTP ---
	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second))

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"service":"crossduel-go","endpoints":["/health","/queue/ws","/session/{id}/ws","/sessions/{id}","/stats"]}`))
		})
		r.Get("/health", s.handleHealth)
		r.Get("/sessions/{id}", s.handleSession)
		s.mountStats(r)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start serves on addr until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", s.origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------ diagnostics --------------------------------

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	q := s.queue.Snapshot()
	_ = json.NewEncoder(w).Encode(map[string]any{
		"ok":          true,
		"sessions":    s.sessions.Len(),
		"queueSize":   q.QueueSize,
		"onlineCount": q.OnlineCount,
		"words":       words.Stats(),
	})
}

// handleSession exposes a live session's phase and player count.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Lookup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	_ = json.NewEncoder(w).Encode(sess.Snapshot())
}

// warn starts a warning tagged with the request id and path.
func warn(r *http.Request) *zerolog.Event {
	return log.Warn().Str("request_id", chimw.GetReqID(r.Context())).Str("path", r.URL.Path)
}

// apps/go-server/internal/httpserver/routes_ws.go
//
// Websocket endpoints.
//   - GET /queue/ws          → lobby socket; identity assigned here.
//   - GET /session/{id}/ws   → match socket; identity from the ticket when present.
//
// Each handler upgrades, starts the write pump, and runs the read pump on the
// request goroutine; when the read pump returns the actor is told the client left.

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossduel/apps/go-server/internal/game"
	"github.com/robalobadob/crossduel/apps/go-server/internal/names"
	"github.com/robalobadob/crossduel/apps/go-server/internal/protocol"
	"github.com/robalobadob/crossduel/apps/go-server/internal/stats"
	"github.com/robalobadob/crossduel/apps/go-server/internal/ticket"
)

var sessionIDRe = regexp.MustCompile(`^[A-Za-z0-9-]{1,64}$`)

// handleQueueWS serves the matchmaking lobby.
func (s *Server) handleQueueWS(w http.ResponseWriter, r *http.Request) {
	// read before registering so the welcome carries current numbers
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	current, err := s.counters.Read(ctx)
	cancel()
	if err != nil {
		warn(r).Err(err).Msg("read counters")
		current = stats.Snapshot{}
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		warn(r).Err(err).Msg("upgrade")
		return
	}
	c := newWSConn(conn)
	go c.writePump()

	id, name := uuid.NewString(), names.Random()
	log.Debug().Str("player_id", id).Str("remote", r.RemoteAddr).Msg("lobby socket open")
	s.queue.Connect(id, name, c, current)
	c.readPump(func(data []byte) { s.queue.Deliver(id, data) })
	s.queue.Disconnect(id)
}

// withTicket verifies an optional session ticket. A ticket that is present
// but invalid, expired or bound to another session is rejected with 401.
func (s *Server) withTicket(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := ticket.FromRequest(r)
		if tok == "" {
			next.ServeHTTP(w, r)
			return
		}
		claims, err := s.tickets.Verify(tok, chi.URLParam(r, "id"))
		if err != nil {
			code := `{"error":"invalid_ticket"}`
			if errors.Is(err, ticket.ErrWrongSession) {
				code = `{"error":"wrong_session"}`
			}
			http.Error(w, code, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(ticket.WithClaims(r.Context(), claims)))
	})
}

// handleSessionWS attaches a client to a match, creating the session for
// direct-link play when it does not exist yet.
func (s *Server) handleSessionWS(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !sessionIDRe.MatchString(id) {
		http.Error(w, `{"error":"bad_session_id"}`, http.StatusBadRequest)
		return
	}
	p := &game.Player{ID: uuid.NewString(), Name: names.Random()}
	if c, ok := ticket.FromContext(r.Context()); ok {
		p.ID, p.Name = c.PlayerID, c.Name
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		warn(r).Err(err).Str("session_id", id).Msg("upgrade")
		return
	}
	c := newWSConn(conn)
	p.Conn = c
	go c.writePump()

	sess := s.join(id, p)
	if sess == nil {
		_ = c.Send(protocol.ErrorMsg(protocol.Errorf(protocol.CodeSessionClosed, "this match is over")))
		_ = c.Close()
		return
	}
	log.Debug().Str("session_id", id).Str("player_id", p.ID).Msg("session socket open")
	c.readPump(func(data []byte) { sess.Deliver(p, data) })
	sess.Leave(p)
}

// join posts p to the live session for id. A session that stopped between
// lookup and join is replaced by the registry on the next attempt.
func (s *Server) join(id string, p *game.Player) *game.Session {
	for range 2 {
		if sess := s.sessions.Attach(id); sess.Join(p) {
			return sess
		}
	}
	return nil
}

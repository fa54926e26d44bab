// apps/go-server/internal/match/queue.go
//
// Matchmaking queue actor.
// Responsibilities:
//   - Track every connected lobby socket and the FIFO of players waiting.
//   - Pair the two oldest waiting players into a fresh session.
//   - Hand each paired player a signed ticket for the session endpoint.
//   - Keep lobby sockets up to date with queue size, online count and counters.
//
// The queue knows nothing about gameplay. Opening the session and bumping the
// counters are fire-and-forget.

package match

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossduel/apps/go-server/internal/protocol"
	"github.com/robalobadob/crossduel/apps/go-server/internal/stats"
)

const inboxSize = 256

// Opener starts a session. It must not block.
type Opener interface {
	Open(sessionID string)
}

// Issuer signs session tickets.
type Issuer interface {
	Issue(sessionID, playerID, name string) (string, error)
}

// Config wires the queue to its collaborators.
type Config struct {
	Opener   Opener
	Tickets  Issuer
	Counters stats.Counters
	NewID    func() string
	Now      func() time.Time
}

// Entry is a lobby connection, queued or not.
type Entry struct {
	ID       string
	Name     string
	Conn     protocol.Conn
	JoinedAt time.Time // zero unless queued
}

// Snapshot is the externally visible queue state.
type Snapshot struct {
	QueueSize   int `json:"queueSize"`
	OnlineCount int `json:"onlineCount"`
}

type (
	connectEvent struct {
		e     *Entry
		stats stats.Snapshot
	}
	disconnectEvent struct{ id string }
	messageEvent    struct {
		id   string
		data []byte
	}
	statsEvent struct{ stats stats.Snapshot }
)

// Queue pairs waiting players. All state is owned by the Run goroutine.
type Queue struct {
	cfg   Config
	inbox chan any
	done  chan struct{}

	clients map[string]*Entry
	waiting []*Entry
	stats   stats.Snapshot

	mu   sync.RWMutex
	snap Snapshot
}

// New returns an idle queue. Call Run to start it.
func New(cfg Config) *Queue {
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Queue{
		cfg:     cfg,
		inbox:   make(chan any, inboxSize),
		done:    make(chan struct{}),
		clients: map[string]*Entry{},
	}
}

// Run processes events until ctx is cancelled.
func (q *Queue) Run(ctx context.Context) {
	defer close(q.done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-q.inbox:
			q.handle(ev)
		}
	}
}

// Connect registers a lobby socket. current is sent in the welcome.
func (q *Queue) Connect(id, name string, conn protocol.Conn, current stats.Snapshot) {
	q.post(connectEvent{e: &Entry{ID: id, Name: name, Conn: conn}, stats: current})
}

// Disconnect forgets a lobby socket and drops it from the queue.
func (q *Queue) Disconnect(id string) { q.post(disconnectEvent{id: id}) }

// Deliver hands a raw client message to the queue.
func (q *Queue) Deliver(id string, data []byte) { q.post(messageEvent{id: id, data: data}) }

func (q *Queue) post(ev any) {
	select {
	case q.inbox <- ev:
	case <-q.done:
	}
}

// Refresh re-reads the counters and pushes them to every lobby socket.
func (q *Queue) Refresh() {
	go q.readStats()
}

// Snapshot returns the last published queue state. Safe from any goroutine.
func (q *Queue) Snapshot() Snapshot {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.snap
}

func (q *Queue) handle(ev any) {
	switch e := ev.(type) {
	case connectEvent:
		q.onConnect(e.e, e.stats)
	case disconnectEvent:
		q.onDisconnect(e.id)
	case messageEvent:
		q.onMessage(e.id, e.data)
	case statsEvent:
		q.stats = e.stats
		q.broadcastStats()
	}
	q.publish()
}

func (q *Queue) publish() {
	q.mu.Lock()
	q.snap = Snapshot{QueueSize: len(q.waiting), OnlineCount: len(q.clients)}
	q.mu.Unlock()
}

func (q *Queue) onConnect(e *Entry, current stats.Snapshot) {
	q.clients[e.ID] = e
	q.stats = current
	q.send(e, welcomeMsg{
		Type:        "welcome",
		PlayerID:    e.ID,
		PlayerName:  e.Name,
		QueueSize:   len(q.waiting),
		OnlineCount: len(q.clients),
		Stats:       current,
	})
	log.Debug().Str("player_id", e.ID).Int("online", len(q.clients)).Msg("lobby connect")
	q.broadcastStats()
}

func (q *Queue) onDisconnect(id string) {
	if _, ok := q.clients[id]; !ok {
		return
	}
	delete(q.clients, id)
	q.remove(id)
	log.Debug().Str("player_id", id).Int("online", len(q.clients)).Msg("lobby disconnect")
	q.broadcastStats()
}

func (q *Queue) onMessage(id string, data []byte) {
	e, ok := q.clients[id]
	if !ok {
		return
	}
	typ, err := protocol.PeekType(data)
	if err != nil {
		q.send(e, protocol.ErrorMsg(err))
		return
	}
	switch typ {
	case "join-queue":
		q.enqueue(e)
	case "leave-queue":
		q.dequeue(e)
	default:
		q.send(e, protocol.ErrorMsg(protocol.Errorf(protocol.CodeUnknownType, "unknown message type %q", typ)))
	}
}

func (q *Queue) position(id string) int {
	for i, w := range q.waiting {
		if w.ID == id {
			return i + 1
		}
	}
	return 0
}

func (q *Queue) enqueue(e *Entry) {
	if q.position(e.ID) > 0 {
		return
	}
	e.JoinedAt = q.cfg.Now()
	q.waiting = append(q.waiting, e)
	q.send(e, queueJoinedMsg{Type: "queue-joined", Position: len(q.waiting)})
	log.Info().Str("player_id", e.ID).Int("queue_size", len(q.waiting)).Msg("queued")
	q.broadcastStats()
	q.tryPair()
}

func (q *Queue) dequeue(e *Entry) {
	if !q.remove(e.ID) {
		return
	}
	q.send(e, queueLeftMsg{Type: "queue-left"})
	q.broadcastStats()
}

func (q *Queue) remove(id string) bool {
	for i, w := range q.waiting {
		if w.ID == id {
			q.waiting = append(q.waiting[:i], q.waiting[i+1:]...)
			w.JoinedAt = time.Time{}
			return true
		}
	}
	return false
}

// tryPair pairs the two oldest waiting players until fewer than two remain.
func (q *Queue) tryPair() {
	paired := false
	for len(q.waiting) >= 2 {
		a, b := q.waiting[0], q.waiting[1]
		q.waiting = q.waiting[2:]
		a.JoinedAt, b.JoinedAt = time.Time{}, time.Time{}

		sid := q.cfg.NewID()
		q.cfg.Opener.Open(sid)
		q.send(a, q.matchFound(sid, a, b))
		q.send(b, q.matchFound(sid, b, a))
		log.Info().Str("session_id", sid).Str("player_a", a.ID).Str("player_b", b.ID).Msg("paired")

		go q.countMatch()
		paired = true
	}
	if paired {
		q.broadcastStats()
	}
}

func (q *Queue) matchFound(sid string, to, opp *Entry) matchFoundMsg {
	msg := matchFoundMsg{
		Type:      "match-found",
		SessionID: sid,
		Opponent:  opponent{ID: opp.ID, Name: opp.Name},
	}
	if q.cfg.Tickets != nil {
		t, err := q.cfg.Tickets.Issue(sid, to.ID, to.Name)
		if err != nil {
			log.Error().Err(err).Str("session_id", sid).Msg("issue ticket")
		}
		msg.Ticket = t
	}
	return msg
}

// countMatch bumps the match counters and publishes the new values.
func (q *Queue) countMatch() {
	if q.cfg.Counters == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, name := range []string{stats.ActiveGames, stats.TotalGames} {
		if err := q.cfg.Counters.Increment(ctx, name); err != nil {
			log.Warn().Err(err).Str("counter", name).Msg("increment failed")
		}
	}
	q.readStats()
}

func (q *Queue) readStats() {
	if q.cfg.Counters == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	snap, err := q.cfg.Counters.Read(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("read counters")
		return
	}
	q.post(statsEvent{stats: snap})
}

func (q *Queue) broadcastStats() {
	msg := statsUpdateMsg{
		Type:        "stats-update",
		QueueSize:   len(q.waiting),
		OnlineCount: len(q.clients),
		Stats:       q.stats,
	}
	for _, e := range q.clients {
		q.send(e, msg)
	}
}

func (q *Queue) send(e *Entry, msg any) {
	if err := e.Conn.Send(msg); err != nil {
		log.Debug().Err(err).Str("player_id", e.ID).Msg("send dropped")
	}
}

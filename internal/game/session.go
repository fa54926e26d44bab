// apps/go-server/internal/game/session.go
//
// Session actor: one goroutine per match owns every piece of match state.
// Responsibilities:
//   - Serialize joins, leaves, client messages and deadline wake-ups through one inbox.
//   - Arm a single deadline per phase, tagged with a generation number.
//   - Settle completions only after the already-queued messages are drained.
//   - Publish a read-only Snapshot for the HTTP side channel and the reaper.
//
// The state machine itself lives in engine.go.

package game

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossduel/apps/go-server/internal/grid"
	"github.com/robalobadob/crossduel/apps/go-server/internal/protocol"
)

const (
	DefaultSubmitTimeout = 120 * time.Second
	DefaultSolveTimeout  = 5 * time.Minute
	DefaultRevealPenalty = 10 * time.Second
	DefaultTieEpsilon    = 10 * time.Millisecond

	inboxSize = 64
)

// Timer is the handle returned by Config.AfterFunc.
type Timer interface{ Stop() bool }

// Config wires a session to its collaborators. Zero values fall back to defaults.
type Config struct {
	SubmitTimeout time.Duration
	SolveTimeout  time.Duration
	RevealPenalty time.Duration
	TieEpsilon    time.Duration

	Generator   grid.Generator
	IsValidWord func(word string) bool
	// Clue returns the hint shown for a word. It must not block.
	Clue func(word string) string
	// WordsAccepted is told about every accepted submission (clue cache warm-up).
	WordsAccepted func(words []string)
	// Finished is called once with the outcome. It must not block.
	Finished func(sessionID string, r Result)

	Now       func() time.Time
	AfterFunc func(d time.Duration, f func()) Timer
}

func (c *Config) defaults() {
	if c.SubmitTimeout <= 0 {
		c.SubmitTimeout = DefaultSubmitTimeout
	}
	if c.SolveTimeout <= 0 {
		c.SolveTimeout = DefaultSolveTimeout
	}
	if c.RevealPenalty < 0 {
		c.RevealPenalty = 0
	}
	if c.TieEpsilon <= 0 {
		c.TieEpsilon = DefaultTieEpsilon
	}
	if c.Generator == nil {
		c.Generator = grid.NewLayout(grid.DefaultAttempts)
	}
	if c.Clue == nil {
		c.Clue = func(string) string { return "" }
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.AfterFunc == nil {
		c.AfterFunc = func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
	}
}

// Snapshot is the externally visible state of a session.
type Snapshot struct {
	ID          string    `json:"id"`
	Phase       Phase     `json:"phase"`
	PlayerCount int       `json:"playerCount"`
	CreatedAt   time.Time `json:"-"`
	FinishedAt  time.Time `json:"-"`
}

type (
	joinEvent    struct{ p *Player }
	leaveEvent   struct{ p *Player }
	messageEvent struct {
		p    *Player
		data []byte
	}
	deadlineEvent struct{ gen uint64 }
	abandonEvent  struct{}
)

// Session is a single match between two players.
type Session struct {
	ID  string
	cfg Config

	inbox  chan any
	done   chan struct{}
	postMu sync.RWMutex // held by posters; shutdown takes it once done is closed

	// Owned by the actor goroutine.
	phase          Phase
	players        []*Player
	words          map[string][]string
	grids          map[string]*grid.Grid // keyed by author
	progress       map[string]*Progress  // keyed by solver
	roster         []Info                // both participants, fixed once the match starts
	phaseStartedAt time.Time
	solveStartedAt time.Time
	createdAt      time.Time
	timer          Timer
	gen            uint64
	result         *Result
	settlePending  bool

	mu   sync.RWMutex
	snap Snapshot
}

// New creates a session in the waiting phase. Call Run to start it.
func New(id string, cfg Config) *Session {
	cfg.defaults()
	now := cfg.Now()
	s := &Session{
		ID:             id,
		cfg:            cfg,
		inbox:          make(chan any, inboxSize),
		done:           make(chan struct{}),
		phase:          PhaseWaiting,
		words:          map[string][]string{},
		grids:          map[string]*grid.Grid{},
		progress:       map[string]*Progress{},
		phaseStartedAt: now,
		createdAt:      now,
	}
	s.publish()
	return s
}

// Run processes events until the match is over and every player is gone.
func (s *Session) Run() {
	defer s.shutdown()
	log.Debug().Str("session_id", s.ID).Msg("session started")
	for {
		s.step(<-s.inbox)
		if s.phase == PhaseFinished && len(s.players) == 0 {
			s.stopTimer()
			log.Debug().Str("session_id", s.ID).Msg("session closed")
			return
		}
	}
}

// step handles one event, then settles any completion once the events that
// were already queued at that moment have been handled too.
func (s *Session) step(ev any) {
	s.handle(ev)
	if s.settlePending {
		for n := len(s.inbox); n > 0; n-- {
			s.handle(<-s.inbox)
		}
		s.settle()
	}
	s.publish()
}

// shutdown closes done, waits out posts already in flight, then turns away
// joins that reached the inbox after the last event was handled.
func (s *Session) shutdown() {
	close(s.done)
	s.postMu.Lock()
	s.postMu.Unlock()
	for {
		select {
		case ev := <-s.inbox:
			if j, ok := ev.(joinEvent); ok {
				s.sendError(j.p, protocol.Errorf(protocol.CodeSessionClosed, "this match is over"))
				_ = j.p.Conn.Close()
			}
		default:
			return
		}
	}
}

// Done is closed when Run returns.
func (s *Session) Done() <-chan struct{} { return s.done }

// Join adds a player. Rejected players are told why and disconnected.
// It returns false when the session has already stopped.
func (s *Session) Join(p *Player) bool { return s.post(joinEvent{p: p}) }

// Leave reports that p's connection is gone.
func (s *Session) Leave(p *Player) { s.post(leaveEvent{p: p}) }

// Deliver hands a raw client message from p to the session. Messages from a
// connection that was not admitted are dropped.
func (s *Session) Deliver(p *Player, data []byte) {
	s.post(messageEvent{p: p, data: data})
}

// Abandon ends an idle session, disconnecting anyone still attached.
func (s *Session) Abandon() { s.post(abandonEvent{}) }

func (s *Session) post(ev any) bool {
	s.postMu.RLock()
	defer s.postMu.RUnlock()
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.inbox <- ev:
		return true
	case <-s.done:
		return false
	}
}

// Snapshot returns the last published state. Safe from any goroutine.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *Session) publish() {
	snap := Snapshot{
		ID:          s.ID,
		Phase:       s.phase,
		PlayerCount: len(s.players),
		CreatedAt:   s.createdAt,
	}
	if s.result != nil {
		snap.FinishedAt = s.result.FinishedAt
	}
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}

// arm replaces the phase deadline. Wake-ups from older generations are ignored.
func (s *Session) arm(d time.Duration) {
	s.stopTimer()
	s.gen++
	gen := s.gen
	s.timer = s.cfg.AfterFunc(d, func() { s.post(deadlineEvent{gen: gen}) })
}

func (s *Session) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) send(p *Player, msg any) {
	if err := p.Conn.Send(msg); err != nil {
		log.Debug().Err(err).Str("session_id", s.ID).Str("player_id", p.ID).Msg("send dropped")
	}
}

func (s *Session) sendError(p *Player, err error) {
	s.send(p, protocol.ErrorMsg(err))
}

func (s *Session) broadcast(msg any) {
	for _, p := range s.players {
		s.send(p, msg)
	}
}

func (s *Session) player(id string) *Player {
	for _, p := range s.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// admitted reports whether p is one of the connected players.
func (s *Session) admitted(p *Player) bool {
	for _, q := range s.players {
		if q == p {
			return true
		}
	}
	return false
}

func (s *Session) opponent(id string) *Player {
	for _, p := range s.players {
		if p.ID != id {
			return p
		}
	}
	return nil
}

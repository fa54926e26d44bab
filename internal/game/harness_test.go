package game

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/robalobadob/crossduel/apps/go-server/internal/grid"
)

// fakeConn records every message as decoded JSON.
type fakeConn struct {
	mu     sync.Mutex
	msgs   []map[string]any
	closed bool
}

func (c *fakeConn) Send(msg any) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	c.mu.Lock()
	c.msgs = append(c.msgs, m)
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) ofType(typ string) []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []map[string]any
	for _, m := range c.msgs {
		if m["type"] == typ {
			out = append(out, m)
		}
	}
	return out
}

func (c *fakeConn) last(t *testing.T, typ string) map[string]any {
	t.Helper()
	ms := c.ofType(typ)
	if len(ms) == 0 {
		t.Fatalf("no %q message; got %v", typ, c.types())
	}
	return ms[len(ms)-1]
}

func (c *fakeConn) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.msgs))
	for i, m := range c.msgs {
		out[i] = fmt.Sprint(m["type"])
	}
	return out
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	c.msgs = nil
	c.mu.Unlock()
}

// lastError returns the code of the most recent error message, or "".
func (c *fakeConn) lastError() string {
	ms := c.ofType("error")
	if len(ms) == 0 {
		return ""
	}
	return fmt.Sprint(ms[len(ms)-1]["code"])
}

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

// failingGenerator fails for any submission containing one of the listed words.
type failingGenerator struct {
	inner grid.Generator
	fail  map[string]bool
	calls map[string]int
}

func (g *failingGenerator) Generate(ws []string) (*grid.Grid, error) {
	g.calls[strings.Join(ws, ",")]++
	for _, w := range ws {
		if g.fail[w] {
			return nil, grid.ErrNoLayout
		}
	}
	return g.inner.Generate(ws)
}

type harness struct {
	t        *testing.T
	s        *Session
	now      time.Time
	timers   []*fakeTimer
	conns    map[string]*fakeConn
	players  map[string]*Player
	finished []Result
}

func newHarness(t *testing.T, mod func(*Config)) *harness {
	h := &harness{
		t:       t,
		now:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		conns:   map[string]*fakeConn{},
		players: map[string]*Player{},
	}
	cfg := Config{
		Generator: grid.NewLayout(grid.DefaultAttempts),
		Clue:      func(string) string { return "animal" },
		Finished:  func(_ string, r Result) { h.finished = append(h.finished, r) },
		Now:       func() time.Time { return h.now },
		AfterFunc: func(d time.Duration, f func()) Timer {
			ft := &fakeTimer{d: d, f: f}
			h.timers = append(h.timers, ft)
			return ft
		},
	}
	if mod != nil {
		mod(&cfg)
	}
	h.s = New("s1", cfg)
	return h
}

// join connects a new player. A rejected connection does not replace the
// recorded player with the same id.
func (h *harness) join(id string) *fakeConn {
	c := &fakeConn{}
	p := &Player{ID: id, Name: "Name " + id, Conn: c}
	if _, ok := h.players[id]; !ok || !h.s.admitted(h.players[id]) {
		h.players[id] = p
		h.conns[id] = c
	}
	h.s.step(joinEvent{p: p})
	return c
}

func (h *harness) leave(id string) { h.s.step(leaveEvent{p: h.players[id]}) }

func (h *harness) deliver(id string, v any) {
	h.s.step(h.message(id, v))
}

func (h *harness) message(id string, v any) messageEvent {
	return messageEvent{p: h.players[id], data: mustJSON(h.t, v)}
}

func (h *harness) submit(id string, ws ...string) {
	h.deliver(id, map[string]any{"type": "submit-words", "words": ws})
}

func (h *harness) cell(id string, row, col int, letter string) {
	h.deliver(id, cellMsg(row, col, letter))
}

func (h *harness) reveal(id string, row, col int) {
	h.deliver(id, revealMsg(row, col))
}

// fire runs the most recently armed timer and handles the resulting wake-up.
func (h *harness) fire() {
	h.t.Helper()
	if len(h.timers) == 0 {
		h.t.Fatal("no timer armed")
	}
	h.fireTimer(h.timers[len(h.timers)-1])
}

func (h *harness) fireTimer(ft *fakeTimer) {
	ft.f()
	h.s.step(<-h.s.inbox)
}

// start brings two players into solving with the usual word sets.
func (h *harness) start() {
	h.join("p1")
	h.join("p2")
	h.submit("p1", "CAT", "DOG", "FISH", "BIRD")
	h.submit("p2", "LION", "BEAR", "WOLF", "DEER")
	if h.s.phase != PhaseSolving {
		h.t.Fatalf("phase = %s, want solving; p1 saw %v", h.s.phase, h.conns["p1"].types())
	}
}

// cells lists the fillable cells of the grid solverID works on, with letters.
func (h *harness) cells(solverID string) []cellAt {
	g := h.s.puzzle(solverID)
	var out []cellAt
	for r, row := range g.Cells {
		for c, cell := range row {
			if cell != nil {
				out = append(out, cellAt{r, c, string(cell.Letter)})
			}
		}
	}
	return out
}

type cellAt struct {
	row, col int
	letter   string
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func cellMsg(row, col int, letter string) map[string]any {
	return map[string]any{"type": "cell-update", "row": row, "col": col, "letter": letter}
}

func revealMsg(row, col int) map[string]any {
	return map[string]any{"type": "hint-request", "hint": map[string]any{"type": "reveal-letter", "row": row, "col": col}}
}

// wrongLetter returns a letter different from l.
func wrongLetter(l string) string {
	if l == "Q" {
		return "Z"
	}
	return "Q"
}

// generatorFunc adapts a function to grid.Generator.
type generatorFunc func(ws []string) (*grid.Grid, error)

func (f generatorFunc) Generate(ws []string) (*grid.Grid, error) { return f(ws) }

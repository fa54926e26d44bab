// apps/go-server/internal/game/types.go
//
// Core type definitions for a Crossduel match.
// Defines:
//   - Phase: the session state machine's states.
//   - Player: a connected participant and its send/close capability.
//   - Progress: one solver's fill state on the opponent's grid.
//   - WinReason / Result: the terminal outcome, written once.

package game

import (
	"time"

	"github.com/robalobadob/crossduel/apps/go-server/internal/grid"
	"github.com/robalobadob/crossduel/apps/go-server/internal/protocol"
)

// Phase of a session. Phases only move forward, except generating → submitting
// when a player's words cannot be laid out.
type Phase string

const (
	PhaseWaiting    Phase = "waiting"
	PhaseSubmitting Phase = "submitting"
	PhaseGenerating Phase = "generating"
	PhaseSolving    Phase = "solving"
	PhaseFinished   Phase = "finished"
)

// Active reports whether a match is under way (disconnects are terminal).
func (p Phase) Active() bool {
	return p == PhaseSubmitting || p == PhaseGenerating || p == PhaseSolving
}

// Player is one participant. Identity is per connection.
type Player struct {
	ID   string
	Name string
	Conn protocol.Conn
}

// Info is the public view of a player.
type Info struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (p *Player) info() Info { return Info{ID: p.ID, Name: p.Name} }

// Progress tracks a solver on the grid built from the opponent's words.
type Progress struct {
	fills       map[grid.Pos]byte
	correct     map[grid.Pos]bool
	revealed    map[grid.Pos]bool
	HintsUsed   int
	Penalty     time.Duration
	CompletedAt time.Time // zero until every fillable cell is correct
}

func newProgress() *Progress {
	return &Progress{
		fills:    map[grid.Pos]byte{},
		correct:  map[grid.Pos]bool{},
		revealed: map[grid.Pos]bool{},
	}
}

// FilledCells is the number of cells holding a letter.
func (p *Progress) FilledCells() int { return len(p.fills) }

// CorrectCells is the number of cells holding the right letter.
func (p *Progress) CorrectCells() int { return len(p.correct) }

// Completed reports whether the solver has finished the grid.
func (p *Progress) Completed() bool { return !p.CompletedAt.IsZero() }

// set records letter at pos; 0 clears the cell.
func (p *Progress) set(pos grid.Pos, letter, want byte) bool {
	if letter == 0 {
		delete(p.fills, pos)
		delete(p.correct, pos)
		return false
	}
	p.fills[pos] = letter
	if letter == want {
		p.correct[pos] = true
		return true
	}
	delete(p.correct, pos)
	return false
}

func (p *Progress) reveal(pos grid.Pos, letter byte, penalty time.Duration) {
	p.fills[pos] = letter
	p.correct[pos] = true
	p.revealed[pos] = true
	p.HintsUsed++
	p.Penalty += penalty
}

// percent returns floor(correct*100/fillable).
func percent(correct, fillable int) int {
	if fillable <= 0 {
		return 0
	}
	return correct * 100 / fillable
}

// WinReason explains how a match ended.
type WinReason string

const (
	ReasonCompleted    WinReason = "completed"
	ReasonTimeout      WinReason = "timeout"
	ReasonOpponentLeft WinReason = "opponent-left"
	ReasonTie          WinReason = "tie"
	// ReasonAbandoned is recorded when nobody is left to tell. Never sent.
	ReasonAbandoned WinReason = "abandoned"
)

// Standing is one player's final numbers.
type Standing struct {
	TimeMs    int64 `json:"timeMs"`
	Percent   int   `json:"percent"`
	HintsUsed int   `json:"hintsUsed"`
}

// Result is the authoritative outcome of a session.
type Result struct {
	WinnerID   string // empty on a tie or abandonment
	Reason     WinReason
	FinishedAt time.Time
	Standings  map[string]Standing
}

// PlayerResult is the private `game-over` payload for one player.
type PlayerResult struct {
	WinnerID        *string        `json:"winnerId"`
	WinReason       WinReason      `json:"winReason"`
	YourTimeMs      int64          `json:"yourTimeMs"`
	YourPercent     int            `json:"yourPercent"`
	OpponentTimeMs  int64          `json:"opponentTimeMs"`
	OpponentPercent int            `json:"opponentPercent"`
	HintsUsed       int            `json:"hintsUsed"`
	Solution        *grid.Solution `json:"solution,omitempty"`
}

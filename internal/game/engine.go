// apps/go-server/internal/game/engine.go
//
// Session state machine. Every function here runs on the session goroutine.
// Responsibilities:
//   - Admit up to two players and start the submission phase.
//   - Validate submissions, build one grid per author, hand each to the opponent.
//   - Apply cell updates and hints against the opponent's grid.
//   - End the match on completion, deadline, forfeit or disconnect.
//
// Notes:
//   - Handlers return *protocol.Error for anything the sender did wrong; the
//     error goes back to the sender only and nothing is mutated.
//   - Once the phase is finished no handler mutates match state.

package game

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossduel/apps/go-server/internal/grid"
	"github.com/robalobadob/crossduel/apps/go-server/internal/protocol"
)

func (s *Session) handle(ev any) {
	switch e := ev.(type) {
	case joinEvent:
		s.onJoin(e.p)
	case leaveEvent:
		s.onLeave(e.p)
	case messageEvent:
		s.onMessage(e.p, e.data)
	case deadlineEvent:
		s.onDeadline(e.gen)
	case abandonEvent:
		s.onAbandon()
	}
}

func (s *Session) setPhase(p Phase) {
	s.phase = p
	s.phaseStartedAt = s.cfg.Now()
}

func (s *Session) onJoin(p *Player) {
	var reject error
	switch {
	case s.phase == PhaseFinished:
		reject = protocol.Errorf(protocol.CodeSessionClosed, "this match is over")
	case s.phase != PhaseWaiting, len(s.players) >= 2:
		reject = protocol.Errorf(protocol.CodeSessionFull, "this match already has two players")
	case s.player(p.ID) != nil:
		reject = protocol.Errorf(protocol.CodeSessionFull, "player %s is already connected", p.ID)
	}
	if reject != nil {
		s.sendError(p, reject)
		_ = p.Conn.Close()
		return
	}

	peers := s.players
	s.players = append(s.players, p)
	s.send(p, welcomeMsg{Type: "welcome", PlayerID: p.ID, PlayerName: p.Name, PlayerCount: len(s.players)})
	for _, o := range peers {
		s.send(o, playerJoinedMsg{Type: "player-joined", Player: p.info()})
		s.send(p, playerJoinedMsg{Type: "player-joined", Player: o.info()})
	}
	log.Info().Str("session_id", s.ID).Str("player_id", p.ID).Int("players", len(s.players)).Msg("player joined")

	if len(s.players) == 2 {
		s.roster = []Info{s.players[0].info(), s.players[1].info()}
		s.setPhase(PhaseSubmitting)
		s.arm(s.cfg.SubmitTimeout)
		s.broadcast(gameStartMsg{Type: "game-start", Phase: PhaseSubmitting, TimeoutMs: s.cfg.SubmitTimeout.Milliseconds()})
	}
}

func (s *Session) onLeave(gone *Player) {
	if !s.admitted(gone) {
		return
	}
	// a completion made before this leave was queued decides the match
	if s.settlePending {
		s.settle()
	}
	id := gone.ID
	kept := s.players[:0]
	for _, p := range s.players {
		if p != gone {
			kept = append(kept, p)
		}
	}
	s.players = kept
	log.Info().Str("session_id", s.ID).Str("player_id", id).Str("phase", string(s.phase)).Msg("player left")

	switch {
	case s.phase == PhaseWaiting:
		s.broadcast(playerLeftMsg{Type: "player-left", PlayerID: id})
	case s.phase.Active():
		if len(s.players) > 0 {
			s.finish(s.players[0].ID, ReasonOpponentLeft)
		} else {
			s.finish("", ReasonAbandoned)
		}
	}
}

func (s *Session) onAbandon() {
	switch s.phase {
	case PhaseWaiting:
		for _, p := range s.players {
			s.sendError(p, protocol.Errorf(protocol.CodeSessionClosed, "no opponent joined in time"))
		}
		s.finish("", ReasonAbandoned)
	case PhaseFinished:
	default:
		return
	}
	for _, p := range s.players {
		_ = p.Conn.Close()
	}
	s.players = nil
}

func (s *Session) onMessage(p *Player, data []byte) {
	if !s.admitted(p) {
		return
	}
	msg, err := Decode(data)
	if err == nil {
		switch m := msg.(type) {
		case SubmitWords:
			err = s.onSubmit(p, m)
		case CellUpdate:
			err = s.onCellUpdate(p, m)
		case HintRequest:
			err = s.onHint(p, m.Hint)
		case Forfeit:
			err = s.onForfeit(p)
		}
	}
	if err != nil {
		s.sendError(p, err)
	}
}

func (s *Session) wrongPhase(op string) error {
	return protocol.Errorf(protocol.CodeWrongPhase, "%s is not allowed while %s", op, s.phase)
}

func (s *Session) onSubmit(p *Player, m SubmitWords) error {
	if s.phase != PhaseSubmitting {
		return s.wrongPhase("submit-words")
	}
	if _, ok := s.words[p.ID]; ok {
		return protocol.Errorf(protocol.CodeAlreadySubmitted, "your words are already in")
	}
	ws, err := ValidateWords(m.Words, s.cfg.IsValidWord)
	if err != nil {
		return err
	}
	s.words[p.ID] = ws
	s.send(p, wordsAcceptedMsg{Type: "words-accepted", WordCount: len(ws)})
	if o := s.opponent(p.ID); o != nil {
		s.send(o, opponentSubmittedMsg{Type: "opponent-submitted"})
	}
	if s.cfg.WordsAccepted != nil {
		s.cfg.WordsAccepted(ws)
	}
	log.Debug().Str("session_id", s.ID).Str("player_id", p.ID).Msg("words accepted")

	if len(s.words) == len(s.roster) {
		s.generate()
	}
	return nil
}

// generate builds the missing grids. A failure sends only the affected
// authors back to submitting; grids that were built are kept.
func (s *Session) generate() {
	s.setPhase(PhaseGenerating)
	var failed []*Player
	for _, p := range s.players {
		if _, ok := s.grids[p.ID]; ok {
			continue
		}
		g, err := s.cfg.Generator.Generate(s.words[p.ID])
		switch {
		case err != nil:
		case g == nil:
			err = grid.ErrNoLayout
		default:
			err = g.Validate()
		}
		if err != nil {
			log.Warn().Err(err).Str("session_id", s.ID).Str("player_id", p.ID).Strs("words", s.words[p.ID]).Msg("grid generation failed")
			delete(s.words, p.ID)
			failed = append(failed, p)
			continue
		}
		g.SetClues(s.cfg.Clue)
		s.grids[p.ID] = g
	}

	if len(failed) > 0 {
		s.setPhase(PhaseSubmitting)
		s.arm(s.cfg.SubmitTimeout)
		for _, p := range failed {
			s.sendError(p, protocol.Errorf(protocol.CodeGridFailed, "your words could not be built into a grid, try different words"))
			s.send(p, gameStartMsg{Type: "game-start", Phase: PhaseSubmitting, TimeoutMs: s.cfg.SubmitTimeout.Milliseconds()})
		}
		return
	}

	s.setPhase(PhaseSolving)
	s.solveStartedAt = s.phaseStartedAt
	s.arm(s.cfg.SolveTimeout)
	for _, p := range s.players {
		s.progress[p.ID] = newProgress()
		s.send(p, gridReadyMsg{Type: "grid-ready", Grid: s.puzzle(p.ID).Client(), TimeoutMs: s.cfg.SolveTimeout.Milliseconds()})
	}
	log.Info().Str("session_id", s.ID).Msg("grids exchanged")
}

// puzzle returns the grid solverID works on: the one built from the other player's words.
func (s *Session) puzzle(solverID string) *grid.Grid {
	if id := s.rival(solverID); id != "" {
		return s.grids[id]
	}
	return nil
}

func (s *Session) rival(id string) string {
	for _, r := range s.roster {
		if r.ID != id {
			return r.ID
		}
	}
	return ""
}

func (s *Session) onCellUpdate(p *Player, m CellUpdate) error {
	if s.phase != PhaseSolving {
		return s.wrongPhase("cell-update")
	}
	prog := s.progress[p.ID]
	if prog.Completed() {
		return protocol.Errorf(protocol.CodeWrongPhase, "your grid is already complete")
	}
	g := s.puzzle(p.ID)
	pos := grid.Pos{Row: *m.Row, Col: *m.Col}
	cell := g.At(pos.Row, pos.Col)
	if cell == nil {
		return protocol.Errorf(protocol.CodeInvalidCell, "no cell at row %d col %d", pos.Row, pos.Col)
	}
	letter, ok := parseLetter(m.Letter)
	if !ok {
		return protocol.Errorf(protocol.CodeInvalidCell, "letter must be a single A-Z character")
	}
	if prog.revealed[pos] {
		return protocol.Errorf(protocol.CodeCellLocked, "row %d col %d was revealed", pos.Row, pos.Col)
	}
	correct := prog.set(pos, letter, cell.Letter)
	s.send(p, cellAcceptedMsg{Type: "cell-accepted", Row: pos.Row, Col: pos.Col, Correct: correct})
	s.progressed(p, prog, g)
	return nil
}

// parseLetter accepts one letter in either case, or "" to clear the cell.
func parseLetter(in string) (byte, bool) {
	l := strings.ToUpper(strings.TrimSpace(in))
	switch {
	case l == "":
		return 0, true
	case len(l) == 1 && l[0] >= 'A' && l[0] <= 'Z':
		return l[0], true
	}
	return 0, false
}

// progressed tells the opponent and records completion for settling.
func (s *Session) progressed(p *Player, prog *Progress, g *grid.Grid) {
	if o := s.opponent(p.ID); o != nil {
		s.send(o, opponentProgressMsg{Type: "opponent-progress", CompletionPercent: percent(prog.CorrectCells(), g.Fillable())})
	}
	if prog.CorrectCells() == g.Fillable() && !prog.Completed() {
		prog.CompletedAt = s.cfg.Now()
		s.settlePending = true
		log.Info().Str("session_id", s.ID).Str("player_id", p.ID).Msg("grid completed")
	}
}

func (s *Session) onHint(p *Player, h Hint) error {
	if s.phase != PhaseSolving {
		return s.wrongPhase("hint-request")
	}
	prog := s.progress[p.ID]
	if prog.Completed() {
		return protocol.Errorf(protocol.CodeWrongPhase, "your grid is already complete")
	}
	g := s.puzzle(p.ID)

	switch h.Type {
	case HintWordLength:
		if h.WordIndex == nil {
			return protocol.Errorf(protocol.CodeInvalidHint, "wordIndex is required")
		}
		pl, ok := g.Placement(*h.WordIndex)
		if !ok {
			return protocol.Errorf(protocol.CodeInvalidHint, "there is no word %d", *h.WordIndex)
		}
		s.send(p, hintResponseMsg{Type: "hint-response", Hint: Hint{
			Type:      HintWordLength,
			WordIndex: h.WordIndex,
			Length:    len(pl.Word),
			HintsUsed: prog.HintsUsed,
			PenaltyMs: prog.Penalty.Milliseconds(),
		}})

	case HintRevealLetter:
		if h.Row == nil || h.Col == nil {
			return protocol.Errorf(protocol.CodeInvalidHint, "row and col are required")
		}
		pos := grid.Pos{Row: *h.Row, Col: *h.Col}
		cell := g.At(pos.Row, pos.Col)
		if cell == nil {
			return protocol.Errorf(protocol.CodeInvalidHint, "no cell at row %d col %d", pos.Row, pos.Col)
		}
		fresh := !prog.correct[pos]
		if fresh {
			prog.reveal(pos, cell.Letter, s.cfg.RevealPenalty)
		}
		s.send(p, hintResponseMsg{Type: "hint-response", Hint: Hint{
			Type:      HintRevealLetter,
			Row:       h.Row,
			Col:       h.Col,
			Letter:    string(cell.Letter),
			HintsUsed: prog.HintsUsed,
			PenaltyMs: prog.Penalty.Milliseconds(),
		}})
		if fresh {
			s.progressed(p, prog, g)
		}

	default:
		return protocol.Errorf(protocol.CodeInvalidHint, "unknown hint type %q", h.Type)
	}
	return nil
}

func (s *Session) onForfeit(p *Player) error {
	if s.settlePending {
		s.settle()
		return nil
	}
	if !s.phase.Active() {
		return s.wrongPhase("forfeit")
	}
	log.Info().Str("session_id", s.ID).Str("player_id", p.ID).Msg("player forfeited")
	s.finish(s.rival(p.ID), ReasonOpponentLeft)
	return nil
}

func (s *Session) onDeadline(gen uint64) {
	if gen != s.gen {
		return
	}
	s.timer = nil
	switch s.phase {
	case PhaseSubmitting:
		var submitted []string
		for _, r := range s.roster {
			if _, ok := s.words[r.ID]; ok {
				submitted = append(submitted, r.ID)
			}
		}
		if len(submitted) == 1 {
			s.finish(submitted[0], ReasonTimeout)
		} else {
			s.finish("", ReasonTie)
		}

	case PhaseSolving:
		for _, r := range s.roster {
			if s.progress[r.ID].Completed() {
				s.settle()
				return
			}
		}
		a, b := s.roster[0].ID, s.roster[1].ID
		ca, ta := s.progress[a].CorrectCells(), s.puzzle(a).Fillable()
		cb, tb := s.progress[b].CorrectCells(), s.puzzle(b).Fillable()
		// ca/ta vs cb/tb without rounding
		switch l, r := ca*tb, cb*ta; {
		case l > r:
			s.finish(a, ReasonTimeout)
		case l < r:
			s.finish(b, ReasonTimeout)
		default:
			s.finish("", ReasonTie)
		}
	}
}

// settle ranks whoever has completed. Effective times closer than the tie
// epsilon are a tie.
func (s *Session) settle() {
	s.settlePending = false
	if s.phase != PhaseSolving {
		return
	}
	var done []string
	for _, r := range s.roster {
		if s.progress[r.ID].Completed() {
			done = append(done, r.ID)
		}
	}
	switch len(done) {
	case 1:
		s.finish(done[0], ReasonCompleted)
	case 2:
		ea, eb := s.effective(done[0]), s.effective(done[1])
		d := ea - eb
		if d < 0 {
			d = -d
		}
		switch {
		case d < s.cfg.TieEpsilon:
			s.finish("", ReasonTie)
		case ea < eb:
			s.finish(done[0], ReasonCompleted)
		default:
			s.finish(done[1], ReasonCompleted)
		}
	}
}

// effective is elapsed solving time plus hint penalties, up to completion or now.
func (s *Session) effective(id string) time.Duration {
	prog := s.progress[id]
	end := prog.CompletedAt
	if end.IsZero() {
		end = s.cfg.Now()
	}
	return end.Sub(s.solveStartedAt) + prog.Penalty
}

// finish writes the result once and tells every connected player.
func (s *Session) finish(winnerID string, reason WinReason) {
	if s.phase == PhaseFinished {
		return
	}
	s.stopTimer()
	r := Result{
		WinnerID:   winnerID,
		Reason:     reason,
		FinishedAt: s.cfg.Now(),
		Standings:  make(map[string]Standing, len(s.roster)),
	}
	for _, info := range s.roster {
		r.Standings[info.ID] = s.standing(info.ID)
	}
	s.result = &r
	s.setPhase(PhaseFinished)

	if reason != ReasonAbandoned {
		for _, p := range s.players {
			s.send(p, gameOverMsg{Type: "game-over", Result: s.resultFor(p.ID)})
		}
	}
	log.Info().Str("session_id", s.ID).Str("winner_id", winnerID).Str("reason", string(reason)).Msg("match finished")
	if s.cfg.Finished != nil {
		s.cfg.Finished(s.ID, r)
	}
}

func (s *Session) standing(id string) Standing {
	prog := s.progress[id]
	if prog == nil {
		return Standing{}
	}
	return Standing{
		TimeMs:    s.effective(id).Milliseconds(),
		Percent:   percent(prog.CorrectCells(), s.puzzle(id).Fillable()),
		HintsUsed: prog.HintsUsed,
	}
}

// resultFor builds the private game-over payload for one player.
func (s *Session) resultFor(id string) PlayerResult {
	r := s.result
	mine, theirs := r.Standings[id], r.Standings[s.rival(id)]
	out := PlayerResult{
		WinReason:       r.Reason,
		YourTimeMs:      mine.TimeMs,
		YourPercent:     mine.Percent,
		OpponentTimeMs:  theirs.TimeMs,
		OpponentPercent: theirs.Percent,
		HintsUsed:       mine.HintsUsed,
	}
	if r.WinnerID != "" {
		w := r.WinnerID
		out.WinnerID = &w
	}
	if r.WinnerID != id && s.progress[id] != nil {
		sol := s.puzzle(id).Solution()
		out.Solution = &sol
	}
	return out
}

// Result returns the outcome once finished. Only safe on the session
// goroutine or after Done is closed.
func (s *Session) Result() (Result, bool) {
	if s.result == nil {
		return Result{}, false
	}
	return *s.result, true
}

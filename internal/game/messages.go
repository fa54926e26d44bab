// apps/go-server/internal/game/messages.go
//
// Session websocket protocol.
//   - Inbound: a closed union decoded from the `type` discriminant.
//   - Outbound: one struct per envelope, built by the session only.

package game

import (
	"encoding/json"

	"github.com/robalobadob/crossduel/apps/go-server/internal/grid"
	"github.com/robalobadob/crossduel/apps/go-server/internal/protocol"
)

// Inbound is a decoded client → session message.
type Inbound interface{ inbound() }

// SubmitWords carries a player's four words.
type SubmitWords struct {
	Words []string `json:"words"`
}

// CellUpdate writes (or with an empty letter, clears) one cell.
type CellUpdate struct {
	Row    *int   `json:"row"`
	Col    *int   `json:"col"`
	Letter string `json:"letter"`
}

// HintRequest asks for a word length or a revealed letter.
type HintRequest struct {
	Hint Hint `json:"hint"`
}

// Hint types.
const (
	HintWordLength   = "word-length"
	HintRevealLetter = "reveal-letter"
)

// Hint is both the request body and the `hint-response` payload.
type Hint struct {
	Type      string `json:"type"`
	WordIndex *int   `json:"wordIndex,omitempty"`
	Row       *int   `json:"row,omitempty"`
	Col       *int   `json:"col,omitempty"`
	Length    int    `json:"length,omitempty"`
	Letter    string `json:"letter,omitempty"`
	HintsUsed int    `json:"hintsUsed"`
	PenaltyMs int64  `json:"penaltyMs"`
}

// Forfeit concedes the match.
type Forfeit struct{}

func (SubmitWords) inbound() {}
func (CellUpdate) inbound()  {}
func (HintRequest) inbound() {}
func (Forfeit) inbound()     {}

// Decode parses one inbound envelope.
func Decode(data []byte) (Inbound, error) {
	typ, err := protocol.PeekType(data)
	if err != nil {
		return nil, err
	}
	var msg Inbound
	switch typ {
	case "submit-words":
		var m SubmitWords
		err = json.Unmarshal(data, &m)
		if err == nil && m.Words == nil {
			return nil, protocol.Errorf(protocol.CodeInvalidMessage, "words required")
		}
		msg = m
	case "cell-update":
		var m CellUpdate
		err = json.Unmarshal(data, &m)
		if err == nil && (m.Row == nil || m.Col == nil) {
			return nil, protocol.Errorf(protocol.CodeInvalidMessage, "row and col required")
		}
		msg = m
	case "hint-request":
		var m HintRequest
		err = json.Unmarshal(data, &m)
		msg = m
	case "forfeit":
		msg = Forfeit{}
	default:
		return nil, protocol.Errorf(protocol.CodeUnknownType, "unknown message type %q", typ)
	}
	if err != nil {
		return nil, protocol.Errorf(protocol.CodeInvalidMessage, "malformed %s", typ)
	}
	return msg, nil
}

// Outbound envelopes.

type welcomeMsg struct {
	Type        string `json:"type"`
	PlayerID    string `json:"playerId"`
	PlayerName  string `json:"playerName"`
	PlayerCount int    `json:"playerCount"`
}

type playerJoinedMsg struct {
	Type   string `json:"type"`
	Player Info   `json:"player"`
}

type playerLeftMsg struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
}

type gameStartMsg struct {
	Type      string `json:"type"`
	Phase     Phase  `json:"phase"`
	TimeoutMs int64  `json:"timeoutMs"`
}

type wordsAcceptedMsg struct {
	Type      string `json:"type"`
	WordCount int    `json:"wordCount"`
}

type opponentSubmittedMsg struct {
	Type string `json:"type"`
}

type gridReadyMsg struct {
	Type      string          `json:"type"`
	Grid      grid.ClientGrid `json:"grid"`
	TimeoutMs int64           `json:"timeoutMs"`
}

type cellAcceptedMsg struct {
	Type    string `json:"type"`
	Row     int    `json:"row"`
	Col     int    `json:"col"`
	Correct bool   `json:"correct"`
}

type hintResponseMsg struct {
	Type string `json:"type"`
	Hint Hint   `json:"hint"`
}

type opponentProgressMsg struct {
	Type              string `json:"type"`
	CompletionPercent int    `json:"completionPercent"`
}

type gameOverMsg struct {
	Type   string       `json:"type"`
	Result PlayerResult `json:"result"`
}

// apps/go-server/internal/protocol/protocol.go
//
// Pieces shared by the queue and session websocket protocols:
//   - Conn: the send/close capability an actor holds for each client.
//   - Error: typed protocol error carrying a machine-readable code.
//   - PeekType: reads the `type` discriminant of an inbound JSON envelope.

package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Conn is a live client connection. Send must not block; delivery is best effort.
type Conn interface {
	Send(msg any) error
	Close() error
}

// Error codes sent in `error` envelopes.
const (
	CodeInvalidMessage   = "INVALID_MESSAGE"
	CodeUnknownType      = "UNKNOWN_TYPE"
	CodeWrongPhase       = "WRONG_PHASE"
	CodeInvalidCell      = "INVALID_CELL"
	CodeCellLocked       = "CELL_LOCKED"
	CodeInvalidHint      = "INVALID_HINT"
	CodeWordCount        = "WORD_COUNT"
	CodeWordLength       = "WORD_LENGTH"
	CodeWordChars        = "WORD_CHARS"
	CodeWordDuplicate    = "WORD_DUPLICATE"
	CodeWordUnknown      = "WORD_UNKNOWN"
	CodeAlreadySubmitted = "ALREADY_SUBMITTED"
	CodeGridFailed       = "GRID_FAILED"
	CodeSessionFull      = "SESSION_FULL"
	CodeSessionClosed    = "SESSION_CLOSED"
	CodeInternal         = "INTERNAL"
)

// Error is a protocol-level failure reported to the sender only.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Code + ": " + e.Message }

// Errorf builds an *Error with a formatted message.
func Errorf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ErrorMessage is the outbound `error` envelope.
type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorMsg converts err into an `error` envelope. Errors that are not
// protocol errors are reported as INTERNAL without their text.
func ErrorMsg(err error) ErrorMessage {
	var pe *Error
	if errors.As(err, &pe) {
		return ErrorMessage{Type: "error", Code: pe.Code, Message: pe.Message}
	}
	return ErrorMessage{Type: "error", Code: CodeInternal, Message: "internal error"}
}

// PeekType returns the discriminant of a JSON envelope.
func PeekType(data []byte) (string, error) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return "", Errorf(CodeInvalidMessage, "malformed JSON")
	}
	if env.Type == "" {
		return "", Errorf(CodeInvalidMessage, "missing type")
	}
	return env.Type, nil
}

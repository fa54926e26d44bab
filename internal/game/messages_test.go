package game

import (
	"errors"
	"testing"

	"github.com/robalobadob/crossduel/apps/go-server/internal/protocol"
)

func TestDecode(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"hint-request","hint":{"type":"reveal-letter","row":2,"col":0}}`))
	if err != nil {
		t.Fatal(err)
	}
	hr, ok := msg.(HintRequest)
	if !ok || hr.Hint.Type != HintRevealLetter || *hr.Hint.Row != 2 || *hr.Hint.Col != 0 {
		t.Fatalf("decoded %#v", msg)
	}
	if _, ok := mustDecode(t, `{"type":"forfeit"}`).(Forfeit); !ok {
		t.Fatal("forfeit not decoded")
	}
	if sw := mustDecode(t, `{"type":"submit-words","words":["a","b"]}`).(SubmitWords); len(sw.Words) != 2 {
		t.Fatalf("words %v", sw.Words)
	}

	for in, code := range map[string]string{
		`{"type":"submit-words"}`:                  protocol.CodeInvalidMessage,
		`{"type":"submit-words","words":"CAT"}`:    protocol.CodeInvalidMessage,
		`{"type":"cell-update","row":1}`:           protocol.CodeInvalidMessage,
		`{"type":"cell-update","row":"1","col":2}`: protocol.CodeInvalidMessage,
		`{"type":"join-queue"}`:                    protocol.CodeUnknownType,
		`{"words":[]}`:                             protocol.CodeInvalidMessage,
	} {
		_, err := Decode([]byte(in))
		var pe *protocol.Error
		if !errors.As(err, &pe) || pe.Code != code {
			t.Errorf("%s: got %v want %s", in, err, code)
		}
	}
}

func mustDecode(t *testing.T, in string) Inbound {
	t.Helper()
	msg, err := Decode([]byte(in))
	if err != nil {
		t.Fatalf("%s: %v", in, err)
	}
	return msg
}

func TestParseLetter(t *testing.T) {
	for in, want := range map[string]byte{"a": 'A', " Z ": 'Z', "": 0} {
		got, ok := parseLetter(in)
		if !ok || got != want {
			t.Errorf("%q: got %q %v", in, got, ok)
		}
	}
	for _, in := range []string{"AB", "1", "é", "-"} {
		if _, ok := parseLetter(in); ok {
			t.Errorf("%q accepted", in)
		}
	}
}

package protocol

import (
	"errors"
	"testing"
)

func TestPeekType(t *testing.T) {
	if typ, err := PeekType([]byte(`{"type":"forfeit"}`)); err != nil || typ != "forfeit" {
		t.Fatalf("got %q, %v", typ, err)
	}
	for _, in := range []string{`not json`, `{}`, `{"type":""}`, `[]`} {
		_, err := PeekType([]byte(in))
		var pe *Error
		if !errors.As(err, &pe) || pe.Code != CodeInvalidMessage {
			t.Fatalf("%s: expected INVALID_MESSAGE, got %v", in, err)
		}
	}
}

func TestErrorMsg(t *testing.T) {
	m := ErrorMsg(Errorf(CodeWrongPhase, "not now (%s)", "waiting"))
	if m.Type != "error" || m.Code != CodeWrongPhase || m.Message != "not now (waiting)" {
		t.Fatalf("unexpected %+v", m)
	}
	if m := ErrorMsg(errors.New("disk on fire")); m.Code != CodeInternal || m.Message == "disk on fire" {
		t.Fatalf("internal errors must not leak: %+v", m)
	}
}

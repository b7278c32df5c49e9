package protocol

import (
	"strings"
	"testing"
)

func TestEncodeDecode(t *testing.T) {
	in := Envelope{
		Kind:    KindMessage,
		Payload: "hi",
		Channel: "dm:alice:bob",
		Meta:    Meta{Sender: "alice", Timestamp: 1700000000},
	}

	s, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !strings.Contains(s, `"type":"MSG"`) {
		t.Errorf("encoded frame missing type key: %s", s)
	}

	out, err := Decode(s)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if out != in {
		t.Errorf("roundtrip mismatch: %+v != %+v", out, in)
	}
}

func TestDecode_MissingChannelDefaultsToGlobal(t *testing.T) {
	raw := `{"type":"MSG","payload":"hi","meta":{"sender":"alice","timestamp":1700000000}}`

	e, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if e.Channel != GlobalChannel {
		t.Errorf("expected channel %q, got %q", GlobalChannel, e.Channel)
	}
	if e.Payload != "hi" || e.Meta.Sender != "alice" {
		t.Errorf("unexpected envelope: %+v", e)
	}
}

func TestDecode_UnknownTypeIsError(t *testing.T) {
	raw := `{"type":"NOPE","payload":"hi","meta":{"sender":"alice","timestamp":1}}`
	if _, err := Decode(raw); err == nil {
		t.Error("expected error for unknown type")
	}
}

func TestDecode_Malformed(t *testing.T) {
	if _, err := Decode("{not json"); err == nil {
		t.Error("expected error for malformed frame")
	}
}

func TestEncode_UnknownKind(t *testing.T) {
	if _, err := Encode(Envelope{Kind: "PING"}); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestDMChannelID_Symmetry(t *testing.T) {
	a := DMChannelID("alice", "bob")
	b := DMChannelID("bob", "alice")
	if a != b {
		t.Errorf("DM ids differ: %q vs %q", a, b)
	}
	if a != "dm:alice:bob" {
		t.Errorf("unexpected DM id %q", a)
	}
}

func TestDMPeer(t *testing.T) {
	id := DMChannelID("alice", "bob")

	peer, ok := DMPeer(id, "alice")
	if !ok || peer != "bob" {
		t.Errorf("expected bob, got %q (ok=%v)", peer, ok)
	}

	peer, ok = DMPeer(id, "bob")
	if !ok || peer != "alice" {
		t.Errorf("expected alice, got %q (ok=%v)", peer, ok)
	}

	if _, ok := DMPeer(id, "mallory"); ok {
		t.Error("mallory should not resolve a peer")
	}
	if _, ok := DMPeer(GlobalChannel, "alice"); ok {
		t.Error("global is not a DM channel")
	}
}

func TestIsDMChannel(t *testing.T) {
	if !IsDMChannel("dm:alice:bob") {
		t.Error("dm:alice:bob should be a DM channel")
	}
	if IsDMChannel("global") || IsDMChannel("dm:") || IsDMChannel("dm:alice") {
		t.Error("non-DM ids misclassified")
	}
}

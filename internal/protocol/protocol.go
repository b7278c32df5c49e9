package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

// GlobalChannel is the channel every client starts in. Envelopes
// without a channel field belong here for wire compatibility with
// older clients.
const GlobalChannel = "global"

const dmPrefix = "dm:"

type Kind string

const (
	KindMessage Kind = "MSG"
	KindAuth    Kind = "AUTH"
	KindSystem  Kind = "SYS"
)

// Meta carries the sender identity and the sender-side send time.
type Meta struct {
	Sender    string `json:"sender"`
	Timestamp int64  `json:"timestamp"` // Unix timestamp (seconds)
}

// Envelope is the JSON frame exchanged over the socket. The relay
// never decodes it; only clients do.
type Envelope struct {
	Kind    Kind   `json:"type"`
	Payload string `json:"payload"`
	Channel string `json:"channel,omitempty"`
	Meta    Meta   `json:"meta"`
}

// Encode serializes an envelope to a compact JSON string.
func Encode(e Envelope) (string, error) {
	if err := validKind(e.Kind); err != nil {
		return "", err
	}
	if e.Channel == "" {
		e.Channel = GlobalChannel
	}
	data, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Decode parses a wire frame. A missing channel field defaults to the
// global channel; an unrecognized type is a hard error and the frame
// must be dropped.
func Decode(s string) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal([]byte(s), &e); err != nil {
		return Envelope{}, fmt.Errorf("malformed envelope: %w", err)
	}
	if err := validKind(e.Kind); err != nil {
		return Envelope{}, err
	}
	if e.Channel == "" {
		e.Channel = GlobalChannel
	}
	return e, nil
}

func validKind(k Kind) error {
	switch k {
	case KindMessage, KindAuth, KindSystem:
		return nil
	}
	return fmt.Errorf("unknown envelope type %q", k)
}

// DMChannelID returns the canonical id of the direct-message channel
// between two users. Usernames are sorted so both participants derive
// the same id.
//
// The "dm:a:b" format cannot represent usernames containing ':'. Such
// a username produces an id that IsDMChannel rejects, and the
// conversation lands in a plain named channel instead.
func DMChannelID(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return dmPrefix + a + ":" + b
}

// IsDMChannel reports whether id names a direct-message channel.
func IsDMChannel(id string) bool {
	return strings.HasPrefix(id, dmPrefix) && strings.Count(id, ":") == 2
}

// DMPeer extracts the other participant from a DM channel id. Returns
// false if id is not a DM channel or self is not a participant.
func DMPeer(id, self string) (string, bool) {
	if !IsDMChannel(id) {
		return "", false
	}
	parts := strings.SplitN(id[len(dmPrefix):], ":", 2)
	switch self {
	case parts[0]:
		return parts[1], true
	case parts[1]:
		return parts[0], true
	}
	return "", false
}

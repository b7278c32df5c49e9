package client

import (
	"time"
)

// ChatMessage is one line in a channel's history.
type ChatMessage struct {
	Sender    string
	Content   string
	Timestamp time.Time
	Own       bool
	System    bool
}

func systemMessage(content string) ChatMessage {
	return ChatMessage{
		Sender:    "SYSTEM",
		Content:   content,
		Timestamp: time.Now(),
		System:    true,
	}
}

type ChannelKind int

const (
	ChannelGlobal ChannelKind = iota
	ChannelDirectMessage
	ChannelNamed
)

// Channel is a client-side conversation scope. History is a bounded
// ring: once MaxRecords is reached the oldest message is overwritten.
type Channel struct {
	ID           string
	Kind         ChannelKind
	Peer         string // DM peer username, empty otherwise
	Unread       int
	LastActivity time.Time

	messages   []ChatMessage
	maxRecords int
	lastIndex  int
}

func newChannel(id string, kind ChannelKind, peer string, maxRecords int) *Channel {
	if maxRecords <= 0 {
		maxRecords = DefaultHistoryLimit
	}
	return &Channel{
		ID:         id,
		Kind:       kind,
		Peer:       peer,
		maxRecords: maxRecords,
		lastIndex:  -1,
	}
}

func (c *Channel) append(m ChatMessage) {
	switch {
	case len(c.messages) < c.maxRecords:
		c.messages = append(c.messages, m)
		c.lastIndex++
	default:
		i := (c.lastIndex + 1) % c.maxRecords
		c.messages[i] = m
		c.lastIndex = i
	}

	if m.Timestamp.After(c.LastActivity) {
		c.LastActivity = m.Timestamp
	}
}

// Messages returns the history oldest-first.
func (c *Channel) Messages() []ChatMessage {
	if len(c.messages) < c.maxRecords {
		out := make([]ChatMessage, len(c.messages))
		copy(out, c.messages)
		return out
	}

	head := (c.lastIndex + 1) % c.maxRecords
	out := make([]ChatMessage, 0, len(c.messages))
	out = append(out, c.messages[head:]...)
	out = append(out, c.messages[:head]...)
	return out
}

func (c *Channel) Len() int {
	return len(c.messages)
}

func (c *Channel) DisplayName() string {
	switch c.Kind {
	case ChannelDirectMessage:
		return "@ " + c.Peer
	default:
		return "# " + c.ID
	}
}

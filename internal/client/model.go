package client

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"ghostwire/internal/protocol"

	"github.com/microcosm-cc/bluemonday"
)

// DefaultHistoryLimit caps each channel's in-memory history.
const DefaultHistoryLimit = 1000

// Model reconstructs per-conversation views from the flat broadcast
// stream. The relay filters nothing, so every channel decision happens
// here: routing, lazy creation, unread accounting, roster updates.
//
// The model is not safe for concurrent use; all mutations happen on
// the rendering loop, fed by the session's event queue.
type Model struct {
	self         string
	channels     map[string]*Channel
	active       string
	roster       *Roster
	historyLimit int
	sanitizer    *bluemonday.Policy
	connected    bool
}

type Config struct {
	Self         string
	Roster       *Roster
	HistoryLimit int
}

func New(cfg Config) *Model {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}

	m := &Model{
		self:         cfg.Self,
		channels:     make(map[string]*Channel),
		active:       protocol.GlobalChannel,
		roster:       cfg.Roster,
		historyLimit: cfg.HistoryLimit,
		sanitizer:    bluemonday.StrictPolicy(),
	}

	global := newChannel(protocol.GlobalChannel, ChannelGlobal, "", cfg.HistoryLimit)
	global.append(systemMessage(fmt.Sprintf("Welcome to GhostWire, %s!", cfg.Self)))
	m.channels[protocol.GlobalChannel] = global

	return m
}

func (m *Model) Self() string     { return m.self }
func (m *Model) ActiveID() string { return m.active }
func (m *Model) Roster() *Roster  { return m.roster }
func (m *Model) Connected() bool  { return m.connected }
func (m *Model) Active() *Channel { return m.channels[m.active] }

func (m *Model) Channel(id string) (*Channel, bool) {
	c, ok := m.channels[id]
	return c, ok
}

// ChannelIDs returns all channel ids, global first, the rest sorted.
func (m *Model) ChannelIDs() []string {
	ids := make([]string, 0, len(m.channels))
	for id := range m.channels {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if ids[i] == protocol.GlobalChannel {
			return true
		}
		if ids[j] == protocol.GlobalChannel {
			return false
		}
		return ids[i] < ids[j]
	})
	return ids
}

// Ingest applies one decoded envelope to the model.
func (m *Model) Ingest(env protocol.Envelope) {
	switch env.Kind {
	case protocol.KindAuth:
		m.observeSender(env.Meta.Sender)
	case protocol.KindSystem:
		m.AppendSystem(m.cleanPayload(env.Payload))
	case protocol.KindMessage:
		m.ingestMessage(env)
	}
}

func (m *Model) ingestMessage(env protocol.Envelope) {
	own := env.Meta.Sender == m.self
	if !own {
		// User discovery happens before the message lands so the join
		// notice reads in order.
		m.observeSender(env.Meta.Sender)
	}

	ch := m.resolveChannel(env.Channel, env.Meta.Sender)
	ch.append(ChatMessage{
		Sender:    env.Meta.Sender,
		Content:   m.cleanPayload(env.Payload),
		Timestamp: time.Unix(env.Meta.Timestamp, 0),
		Own:       own,
	})

	if ch.ID != m.active {
		ch.Unread++
	}
}

// cleanPayload strips markup from a payload but keeps the text as
// typed: sanitizing alone would leave entity escapes behind, which a
// terminal renders literally.
func (m *Model) cleanPayload(s string) string {
	return html.UnescapeString(m.sanitizer.Sanitize(s))
}

// resolveChannel finds the target channel, creating it lazily. Unknown
// ids never error: a DM-shaped id becomes a DM channel, anything else
// a named channel.
func (m *Model) resolveChannel(id, sender string) *Channel {
	if id == "" {
		id = protocol.GlobalChannel
	}
	if ch, ok := m.channels[id]; ok {
		return ch
	}

	if protocol.IsDMChannel(id) {
		peer, ok := protocol.DMPeer(id, m.self)
		if !ok {
			// A DM between two other users; the relay broadcasts it
			// anyway. Track it under the first participant.
			if peer, ok = protocol.DMPeer(id, sender); !ok {
				peer = strings.SplitN(id, ":", 3)[1]
			}
		}
		ch := newChannel(id, ChannelDirectMessage, peer, m.historyLimit)
		m.channels[id] = ch
		return ch
	}

	ch := newChannel(id, ChannelNamed, "", m.historyLimit)
	m.channels[id] = ch
	return ch
}

func (m *Model) observeSender(sender string) {
	if sender == "" || sender == m.self || m.roster == nil {
		return
	}
	if first := m.roster.Observe(sender); first {
		m.AppendSystem(fmt.Sprintf("%s joined the chat", sender))
	}
}

// RemoveUser handles a "left" notice: the user goes offline but stays
// in the roster with their last-seen time.
func (m *Model) RemoveUser(username string) {
	if m.roster == nil || !m.roster.Known(username) {
		return
	}
	_ = m.roster.presence.Del(username)
	m.AppendSystem(fmt.Sprintf("%s left the chat", username))
}

// OpenDM creates (or finds) the DM channel with peer and makes it
// active. Creating from either side resolves to the same channel.
func (m *Model) OpenDM(peer string) *Channel {
	id := protocol.DMChannelID(m.self, peer)
	ch, ok := m.channels[id]
	if !ok {
		ch = newChannel(id, ChannelDirectMessage, peer, m.historyLimit)
		m.channels[id] = ch
	}
	m.SwitchActive(id)
	return ch
}

// SwitchActive focuses a channel and clears its unread counter. A
// no-op for unknown ids.
func (m *Model) SwitchActive(id string) {
	ch, ok := m.channels[id]
	if !ok {
		return
	}
	m.active = id
	ch.Unread = 0
}

// LocalEcho appends the user's own outgoing message to the active
// channel. The relay never echoes back to the sender, so this is the
// only way a sent message appears locally.
func (m *Model) LocalEcho(content string) ChatMessage {
	msg := ChatMessage{
		Sender:    m.self,
		Content:   m.cleanPayload(content),
		Timestamp: time.Now(),
		Own:       true,
	}
	if ch := m.channels[m.active]; ch != nil {
		ch.append(msg)
	}
	return msg
}

// AppendSystem adds a system notice to the active channel.
func (m *Model) AppendSystem(content string) {
	if ch := m.channels[m.active]; ch != nil {
		ch.append(systemMessage(content))
	}
}

// SetConnected records connection state transitions as system notices.
func (m *Model) SetConnected(connected bool) {
	if connected == m.connected {
		return
	}
	m.connected = connected
	if connected {
		m.AppendSystem("Connected")
	} else {
		m.AppendSystem("Disconnected")
	}
}

package client

import "ghostwire/internal/protocol"

// Commands flow from the rendering loop to the network session.
type Command interface{ command() }

type SendCommand struct {
	Content string
	Channel string
}

type AuthenticateCommand struct {
	Username string
}

type DisconnectCommand struct{}

func (SendCommand) command()         {}
func (AuthenticateCommand) command() {}
func (DisconnectCommand) command()   {}

// Events flow from the network session to the rendering loop. The
// rendering side applies them to the Model; the session never touches
// rendering state directly.
type Event interface{ event() }

type ConnectedEvent struct{}

type DisconnectedEvent struct{}

type MessageEvent struct {
	Envelope protocol.Envelope
}

type UserJoinedEvent struct {
	Username string
}

type UserLeftEvent struct {
	Username string
}

type SystemEvent struct {
	Content string
}

type ErrorEvent struct {
	Message string
}

func (ConnectedEvent) event()    {}
func (DisconnectedEvent) event() {}
func (MessageEvent) event()      {}
func (UserJoinedEvent) event()   {}
func (UserLeftEvent) event()     {}
func (SystemEvent) event()       {}
func (ErrorEvent) event()        {}

// Apply routes an event into the model.
func Apply(m *Model, ev Event) {
	switch e := ev.(type) {
	case ConnectedEvent:
		m.SetConnected(true)
	case DisconnectedEvent:
		m.SetConnected(false)
	case MessageEvent:
		m.Ingest(e.Envelope)
	case UserJoinedEvent:
		m.Ingest(protocol.Envelope{
			Kind: protocol.KindAuth,
			Meta: protocol.Meta{Sender: e.Username},
		})
	case UserLeftEvent:
		m.RemoveUser(e.Username)
	case SystemEvent:
		m.AppendSystem(e.Content)
	case ErrorEvent:
		m.AppendSystem("Error: " + e.Message)
	}
}

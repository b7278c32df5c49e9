package client

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"ghostwire/internal/protocol"

	"github.com/gorilla/websocket"
)

type clientConn interface {
	Close() error
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
}

// Session is the client's network half: it owns the websocket and
// translates between wire frames and typed commands/events. The
// rendering loop only ever sees the two queues.
type Session struct {
	url      string
	username string
	events   chan Event
	commands chan Command
	inbound  chan string
	errCh    chan error

	// test seam; nil means dial s.url
	dial func(ctx context.Context) (clientConn, error)
}

func NewSession(url, username string) *Session {
	s := &Session{
		url:      url,
		username: username,
		events:   make(chan Event, 256),
		commands: make(chan Command, 64),
		inbound:  make(chan string, 64),
		errCh:    make(chan error, 2),
	}
	s.dial = func(ctx context.Context) (clientConn, error) {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
		return conn, err
	}
	return s
}

func (s *Session) Events() <-chan Event     { return s.events }
func (s *Session) Commands() chan<- Command { return s.commands }

// Run connects, authenticates, and pumps frames until the context is
// cancelled, a Disconnect command arrives, or the transport fails. A
// DisconnectedEvent is always emitted before Run returns.
func (s *Session) Run(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	conn, err := s.dial(ctx)
	if err != nil {
		s.emit(ctx, ErrorEvent{Message: "Failed to connect: " + err.Error()})
		s.emit(ctx, DisconnectedEvent{})
		return err
	}
	defer func() {
		conn.Close()
		s.emit(parent, DisconnectedEvent{})
	}()

	s.emit(ctx, ConnectedEvent{})

	if err := s.writeEnvelope(conn, protocol.KindAuth, s.username, protocol.GlobalChannel); err != nil {
		s.emit(ctx, ErrorEvent{Message: "Failed to authenticate: " + err.Error()})
		return err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.errCh <- s.readPump(ctx, conn)
		cancel()
	}()

	err = s.mainLoop(ctx, conn)
	cancel()
	conn.Close()
	wg.Wait()

	clean := errors.Is(err, errClientClosed)
	if clean {
		err = nil
	}

	// A read-pump failure surfaces here unless the caller asked for
	// the shutdown anyway.
	if !clean && err == nil && parent.Err() == nil {
		select {
		case e := <-s.errCh:
			if e != nil && !errors.Is(e, context.Canceled) {
				err = e
				s.emit(parent, ErrorEvent{Message: "Connection lost: " + e.Error()})
			}
		default:
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (s *Session) readPump(ctx context.Context, conn clientConn) error {
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if messageType != websocket.TextMessage {
			continue
		}
		select {
		case s.inbound <- string(data):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// errClientClosed marks a disconnect the user asked for.
var errClientClosed = errors.New("client requested disconnect")

func (s *Session) mainLoop(ctx context.Context, conn clientConn) error {
	for {
		select {
		case raw := <-s.inbound:
			s.handleFrame(ctx, raw)
		case cmd := <-s.commands:
			if err := s.handleCommand(conn, cmd); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// handleFrame decodes one wire frame into an event. A bad frame is
// dropped with an error notice; it never tears the session down.
func (s *Session) handleFrame(ctx context.Context, raw string) {
	env, err := protocol.Decode(raw)
	if err != nil {
		s.emit(ctx, ErrorEvent{Message: err.Error()})
		return
	}

	switch env.Kind {
	case protocol.KindMessage:
		s.emit(ctx, MessageEvent{Envelope: env})
	case protocol.KindAuth:
		s.emit(ctx, UserJoinedEvent{Username: env.Meta.Sender})
	case protocol.KindSystem:
		// Peers announce joins and leaves as SYS payloads.
		switch {
		case strings.Contains(env.Payload, "joined"):
			s.emit(ctx, UserJoinedEvent{Username: env.Meta.Sender})
		case strings.Contains(env.Payload, "left"):
			s.emit(ctx, UserLeftEvent{Username: env.Meta.Sender})
		default:
			s.emit(ctx, SystemEvent{Content: env.Payload})
		}
	}
}

func (s *Session) handleCommand(conn clientConn, cmd Command) error {
	switch c := cmd.(type) {
	case SendCommand:
		return s.writeEnvelope(conn, protocol.KindMessage, c.Content, c.Channel)
	case AuthenticateCommand:
		return s.writeEnvelope(conn, protocol.KindAuth, c.Username, protocol.GlobalChannel)
	case DisconnectCommand:
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		return errClientClosed
	}
	return nil
}

func (s *Session) writeEnvelope(conn clientConn, kind protocol.Kind, payload, channel string) error {
	frame, err := protocol.Encode(protocol.Envelope{
		Kind:    kind,
		Payload: payload,
		Channel: channel,
		Meta: protocol.Meta{
			Sender:    s.username,
			Timestamp: time.Now().Unix(),
		},
	})
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, []byte(frame))
}

func (s *Session) emit(ctx context.Context, ev Event) {
	select {
	case s.events <- ev:
	case <-ctx.Done():
	}
}

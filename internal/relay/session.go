package relay

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const DefaultPingInterval = 30 * time.Second

type wsConn interface {
	Close() error
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
}

// Session is the per-socket duplex pump. The read pump feeds inbound
// text frames to the broadcaster; the write pump drains this
// connection's outbound queue onto the socket. Both terminate together
// on the first failure of either.
type Session struct {
	ws           wsConn
	broadcaster  *Broadcaster
	registry     *Registry
	id           ClientID
	outbound     <-chan string
	pingInterval time.Duration
	errCh        chan error
}

func NewSession(registry *Registry, broadcaster *Broadcaster, ws wsConn, pingInterval time.Duration) *Session {
	if pingInterval <= 0 {
		pingInterval = DefaultPingInterval
	}
	id, outbound := registry.Register()
	return &Session{
		ws:           ws,
		broadcaster:  broadcaster,
		registry:     registry,
		id:           id,
		outbound:     outbound,
		pingInterval: pingInterval,
		errCh:        make(chan error, 2),
	}
}

func (s *Session) ID() ClientID {
	return s.id
}

// Run drives both pumps until the context is cancelled or either
// direction fails. The registry entry is removed exactly once, before
// Run returns; afterwards the session is dead.
func (s *Session) Run(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	defer func() {
		cancel()
		close(s.errCh)
		s.registry.Unregister(s.id)
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.errCh <- s.readPump()
		cancel()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.errCh <- s.writePump(ctx)
		cancel()
	}()

	var err error
	select {
	case err = <-s.errCh:
	case <-ctx.Done():
	}
	s.ws.Close()
	wg.Wait()

	// Prefer the pump failure that started the teardown over the
	// cancellation noise of the other half.
	for {
		var e error
		select {
		case e = <-s.errCh:
		default:
			e = nil
		}
		if e == nil {
			break
		}
		if err == nil || errors.Is(err, context.Canceled) {
			err = e
		}
	}

	if parent.Err() != nil || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// readPump blocks in ReadMessage, so cancellation reaches it through
// the socket close in Run.
func (s *Session) readPump() error {
	for {
		messageType, data, err := s.ws.ReadMessage()
		if err != nil {
			return err
		}

		switch messageType {
		case websocket.TextMessage:
			s.broadcaster.Broadcast(Event{From: s.id, Payload: string(data)})
		case websocket.BinaryMessage:
			slog.Warn("ignoring binary frame", "client_id", s.id)
		}
	}
}

func (s *Session) writePump(ctx context.Context) error {
	heartbeat := time.NewTicker(s.pingInterval)
	defer heartbeat.Stop()

	for {
		select {
		case payload := <-s.outbound:
			if err := s.ws.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
				return err
			}
		case <-heartbeat.C:
			if err := s.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

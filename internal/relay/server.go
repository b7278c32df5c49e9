package relay

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Server upgrades HTTP requests to websocket sessions. Everything
// after the upgrade is the dumb relay: no auth, no content inspection.
type Server struct {
	registry     *Registry
	broadcaster  *Broadcaster
	upgrader     *websocket.Upgrader
	pingInterval time.Duration
}

func NewServer(registry *Registry, broadcaster *Broadcaster, pingInterval time.Duration) *Server {
	return &Server{
		registry:     registry,
		broadcaster:  broadcaster,
		pingInterval: pingInterval,
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // clients are terminals, not browsers
			},
		},
	}
}

func (s *Server) Registry() *Registry {
	return s.registry
}

// HandleConnections is the websocket upgrade endpoint. The session
// runs on the request goroutine until the connection dies.
func (s *Server) HandleConnections(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	session := NewSession(s.registry, s.broadcaster, ws, s.pingInterval)
	slog.Info("client connected", "client_id", session.ID(), "clients", s.registry.Count())

	if err := session.Run(r.Context()); err != nil {
		slog.Info("session ended", "client_id", session.ID(), "error", err)
	}
	slog.Info("client disconnected", "client_id", session.ID(), "clients", s.registry.Count())
}

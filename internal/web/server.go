package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"ghostwire/internal/relay"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server hosts the relay upgrade endpoint plus the read-only status
// surface (status page, health check, metrics). Everything except /ws
// is informational.
type Server struct {
	server *http.Server
	wg     sync.WaitGroup
}

func NewServer(relayServer *relay.Server, addr string) *Server {
	router := mux.NewRouter()
	router.HandleFunc("/", statusPageHandler(relayServer.Registry())).Methods("GET")
	router.HandleFunc("/health", healthHandler).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	router.HandleFunc("/ws", relayServer.HandleConnections)

	if addr == "" {
		addr = ":8080"
	}

	return &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: router,
		},
	}
}

func (s *Server) Start() error {
	slog.Info("relay server started", "addr", s.server.Addr)
	s.wg.Add(1)
	defer s.wg.Done()

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	defer s.wg.Wait()
	return s.server.Shutdown(ctx)
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "GhostWire Relay - Status: ONLINE")
}

func statusPageHandler(registry *relay.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, statusPage, registry.Count())
	}
}

const statusPage = `<!DOCTYPE html>
<html>
<head>
    <title>GhostWire Relay</title>
    <style>
        body {
            background: #000;
            color: #0f0;
            font-family: 'Courier New', monospace;
            padding: 2rem;
            max-width: 800px;
            margin: 0 auto;
        }
        h1 { color: #0f0; text-shadow: 0 0 10px #0f0; }
        .status { color: #0f0; }
        .info { color: #0a0; margin: 1rem 0; }
        pre { background: #111; padding: 1rem; border: 1px solid #0f0; }
        a { color: #0ff; }
    </style>
</head>
<body>
    <h1>&#128123; GhostWire Relay</h1>
    <div class="status">STATUS: ONLINE</div>
    <div class="info">
        <p>Connected Clients: %d</p>
        <p>WebSocket Endpoint: <code>ws://[this-host]/ws</code></p>
    </div>
    <h2>Protocol</h2>
    <pre>{
  "type": "MSG" | "AUTH" | "SYS",
  "payload": "...",
  "channel": "global",
  "meta": {
    "sender": "...",
    "timestamp": 1234567890
  }
}</pre>
    <h2>Philosophy</h2>
    <p>This server is intentionally "dumb" - it relays messages without reading them.</p>
    <p>All channel semantics live client-side. The server knows nothing.</p>
    <hr>
    <p><a href="/health">Health Check</a> | <a href="/metrics">Metrics</a></p>
</body>
</html>
`

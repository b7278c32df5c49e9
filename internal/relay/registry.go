package relay

import (
	"sort"
	"sync"

	"ghostwire/internal/metrics"
)

// ClientID identifies one connection for the lifetime of the process.
// IDs are never reused and never exposed to other clients.
type ClientID uint64

// Target is one fan-out destination: a connection id and the producer
// side of its outbound queue.
type Target struct {
	ID    ClientID
	Queue chan<- string
}

// Registry holds the live set of connections and their outbound
// queues. It is shared by every session and guarded by a read-write
// lock: fan-out enumeration takes the read side, membership changes
// take the write side.
//
// Queues are never closed. Unregister only removes the map entry; a
// queue that is no longer drained is abandoned to the garbage
// collector, so a concurrent broadcast can never panic on a closed
// channel.
type Registry struct {
	mu        sync.RWMutex
	nextID    ClientID
	clients   map[ClientID]chan string
	queueSize int
}

func NewRegistry(queueSize int) *Registry {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Registry{
		clients:   make(map[ClientID]chan string),
		queueSize: queueSize,
	}
}

// Register allocates a fresh id and outbound queue, stores the
// producer side, and returns the id with the consumer side.
func (r *Registry) Register() (ClientID, <-chan string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++

	ch := make(chan string, r.queueSize)
	r.clients[id] = ch
	metrics.ConnectedClients.Set(float64(len(r.clients)))

	return id, ch
}

// Unregister removes the record for id. Unregistering an unknown or
// already-removed id is a no-op.
func (r *Registry) Unregister(id ClientID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[id]; !ok {
		return
	}
	delete(r.clients, id)
	metrics.ConnectedClients.Set(float64(len(r.clients)))
}

// Snapshot returns every registered connection except the excluded
// one, ordered by id. The view is point-in-time: registrations racing
// with a broadcast may or may not be included.
func (r *Registry) Snapshot(excluding ClientID) []Target {
	r.mu.RLock()
	defer r.mu.RUnlock()

	targets := make([]Target, 0, len(r.clients))
	for id, ch := range r.clients {
		if id == excluding {
			continue
		}
		targets = append(targets, Target{ID: id, Queue: ch})
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].ID < targets[j].ID })

	return targets
}

// Count returns the current live connection count.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

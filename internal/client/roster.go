package client

import (
	"context"
	"sort"
	"time"

	"github.com/c-pro/geche"
)

// DefaultIdleTimeout is how long a user stays online after their last
// observed frame. There is no authoritative offline signal from the
// server, so presence decays by silence.
const DefaultIdleTimeout = 5 * time.Minute

// UserRecord is one roster entry.
type UserRecord struct {
	Username string
	Online   bool
	LastSeen time.Time
}

// Roster tracks every username ever observed on the wire. Presence is
// a TTL cache entry refreshed on each observation; when it expires the
// user renders as offline with their last-seen time.
type Roster struct {
	lastSeen map[string]time.Time
	presence geche.Geche[string, struct{}]
}

func NewRoster(ctx context.Context, idleTimeout time.Duration) *Roster {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}

	cleanup := idleTimeout / 4
	if cleanup > time.Minute {
		cleanup = time.Minute
	}

	return &Roster{
		lastSeen: make(map[string]time.Time),
		presence: geche.NewMapTTLCache[string, struct{}](ctx, idleTimeout, cleanup),
	}
}

// Observe records activity from username and reports whether this is
// the first time the user has been seen.
func (r *Roster) Observe(username string) bool {
	_, known := r.lastSeen[username]
	r.lastSeen[username] = time.Now()
	r.presence.Set(username, struct{}{})
	return !known
}

// Seed adds a user known from a previous run without marking them
// online. An existing, newer last-seen wins.
func (r *Roster) Seed(username string, lastSeen time.Time) {
	if current, ok := r.lastSeen[username]; ok && current.After(lastSeen) {
		return
	}
	r.lastSeen[username] = lastSeen
}

func (r *Roster) Known(username string) bool {
	_, ok := r.lastSeen[username]
	return ok
}

func (r *Roster) Online(username string) bool {
	_, err := r.presence.Get(username)
	return err == nil
}

// Snapshot returns the roster sorted by username.
func (r *Roster) Snapshot() []UserRecord {
	users := make([]UserRecord, 0, len(r.lastSeen))
	for username, seen := range r.lastSeen {
		users = append(users, UserRecord{
			Username: username,
			Online:   r.Online(username),
			LastSeen: seen,
		})
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users
}

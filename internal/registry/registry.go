// Package registry maps logical client roles to live connections and fans
// messages out to them. Each connection is represented by a buffered outbox
// channel drained by its own writer goroutine, so one slow or broken client
// never blocks delivery to the others.
package registry

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
)

// Roles the installation knows about. At most one live connection per role;
// a reconnect replaces the previous mapping.
var KnownRoles = []string{"player1", "player2", "spectator1", "spectator2", "control"}

func ValidRole(role string) bool {
	for _, r := range KnownRoles {
		if r == role {
			return true
		}
	}
	return false
}

const outboxSize = 32

type client struct {
	role   string
	outbox chan []byte
}

type Registry struct {
	mu      sync.Mutex
	clients map[string]*client
}

func New() *Registry {
	return &Registry{clients: make(map[string]*client)}
}

// Register attaches a connection for role and returns its outbox. The caller
// drains the channel into the transport; the channel is closed when the
// registry drops the client. Any previous connection for the role is
// replaced and its outbox closed.
func (r *Registry) Register(role string) <-chan []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old := r.clients[role]; old != nil {
		close(old.outbox)
	}
	c := &client{role: role, outbox: make(chan []byte, outboxSize)}
	r.clients[role] = c
	log.Info().Str("role", role).Int("total", len(r.clients)).Msg("connected")
	return c.outbox
}

// Unregister drops the connection for role, if it still owns the given
// outbox. The identity check keeps a reader loop that dies after being
// replaced by a reconnect from tearing down the replacement.
func (r *Registry) Unregister(role string, outbox <-chan []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c := r.clients[role]; c != nil && (<-chan []byte)(c.outbox) == outbox {
		r.dropLocked(role)
	}
}

func (r *Registry) dropLocked(role string) {
	if c := r.clients[role]; c != nil {
		close(c.outbox)
		delete(r.clients, role)
		log.Info().Str("role", role).Int("total", len(r.clients)).Msg("disconnected")
	}
}

// Broadcast sends msg to every registered connection, best effort. Clients
// whose outbox is full are collected during iteration and dropped after it.
func (r *Registry) Broadcast(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Msg("broadcast marshal failed")
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var dead []string
	for role, c := range r.clients {
		select {
		case c.outbox <- data:
		default:
			dead = append(dead, role)
		}
	}
	for _, role := range dead {
		r.dropLocked(role)
	}
}

// SendTo delivers msg to one role. Absent roles are a no-op; a full outbox
// drops the client.
func (r *Registry) SendTo(role string, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("role", role).Msg("send marshal failed")
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.clients[role]
	if c == nil {
		return
	}
	select {
	case c.outbox <- data:
	default:
		r.dropLocked(role)
	}
}

func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

package relay

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Registry tracks live connections and their channel membership. A channel
// is nothing but the set of connections registered under one session id:
// it appears on first register and vanishes when its last member leaves.
//
// Each channel carries its own lock so registration, unregistration and
// broadcast enumeration are mutually exclusive per channel without
// serializing unrelated sessions; the registry lock covers only the maps.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]*channel
	conns    map[string]*Conn
}

type channel struct {
	mu      sync.RWMutex
	members map[string]*Conn
	// dead marks a channel emptied out and removed from the registry;
	// a racing register must not resurrect it.
	dead bool
}

func NewRegistry() *Registry {
	return &Registry{
		channels: make(map[string]*channel),
		conns:    make(map[string]*Conn),
	}
}

// Register adds the connection to its session's channel, creating the
// channel if this is the first member.
func (r *Registry) Register(c *Conn) {
	for {
		r.mu.Lock()
		ch, ok := r.channels[c.SessionID]
		if !ok {
			ch = &channel{members: make(map[string]*Conn)}
			r.channels[c.SessionID] = ch
		}
		r.mu.Unlock()

		ch.mu.Lock()
		if ch.dead {
			// Lost a race with the last member leaving; the channel is
			// gone from the map, take it from the top.
			ch.mu.Unlock()
			continue
		}
		ch.members[c.ID] = c
		memberCount := len(ch.members)
		ch.mu.Unlock()

		r.mu.Lock()
		r.conns[c.ID] = c
		r.mu.Unlock()

		log.Info().
			Str("connId", c.ID).
			Str("sessionId", c.SessionID).
			Str("role", string(c.Role)).
			Int("memberCount", memberCount).
			Msg("connection registered")
		return
	}
}

// Unregister removes the connection and reports whether it was present.
// Removing an unknown connection is a no-op, so duplicate disconnect
// notifications from the transport are harmless.
func (r *Registry) Unregister(connID string) bool {
	r.mu.Lock()
	c, ok := r.conns[connID]
	if !ok {
		r.mu.Unlock()
		return false
	}
	delete(r.conns, connID)
	ch := r.channels[c.SessionID]
	r.mu.Unlock()

	if ch == nil {
		return false
	}

	ch.mu.Lock()
	delete(ch.members, connID)
	empty := len(ch.members) == 0
	if empty {
		ch.dead = true
	}
	memberCount := len(ch.members)
	ch.mu.Unlock()

	if empty {
		r.mu.Lock()
		if r.channels[c.SessionID] == ch {
			delete(r.channels, c.SessionID)
		}
		r.mu.Unlock()
	}

	log.Info().
		Str("connId", connID).
		Str("sessionId", c.SessionID).
		Int("memberCount", memberCount).
		Msg("connection unregistered")
	return true
}

// MembersOf returns the channel members excluding one connection, for
// broadcast-to-others semantics.
func (r *Registry) MembersOf(sessionID, excludeConnID string) []*Conn {
	r.mu.RLock()
	ch := r.channels[sessionID]
	r.mu.RUnlock()

	if ch == nil {
		return nil
	}

	ch.mu.RLock()
	defer ch.mu.RUnlock()

	members := make([]*Conn, 0, len(ch.members))
	for id, c := range ch.members {
		if id != excludeConnID {
			members = append(members, c)
		}
	}
	return members
}

// MemberCount reports how many connections a channel currently holds.
func (r *Registry) MemberCount(sessionID string) int {
	r.mu.RLock()
	ch := r.channels[sessionID]
	r.mu.RUnlock()

	if ch == nil {
		return 0
	}

	ch.mu.RLock()
	defer ch.mu.RUnlock()
	return len(ch.members)
}

// TotalConnections reports the number of live connections across all
// channels.
func (r *Registry) TotalConnections() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Connections returns a snapshot of every live connection.
func (r *Registry) Connections() []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*Conn, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	return conns
}

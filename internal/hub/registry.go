package hub

import (
	"sync"

	"github.com/JoseMiracle/MIMI/pkg/log"
)

// Registry maps group keys to the sessions currently subscribed to them.
// The outer lock guards only the groups map; every group carries its own
// lock, so broadcasts to unrelated groups never contend with each other.
// Construct one per server (or per test) and inject it — there is no
// package-level instance.
type Registry struct {
	mu     sync.RWMutex
	groups map[string]*group
}

type group struct {
	mu      sync.RWMutex
	members map[string]*Client // client ID -> client
}

func NewRegistry() *Registry {
	return &Registry{groups: make(map[string]*group)}
}

// Subscribe adds the client to the group, creating the group lazily.
// Idempotent. Reports whether the client was the group's first member.
func (r *Registry) Subscribe(key string, c *Client) bool {
	r.mu.Lock()
	g, ok := r.groups[key]
	if !ok {
		g = &group{members: make(map[string]*Client)}
		r.groups[key] = g
	}
	g.mu.Lock()
	first := len(g.members) == 0
	g.members[c.ID] = c
	g.mu.Unlock()
	r.mu.Unlock()

	c.Session.AddGroup(key)

	l := log.L()
	l.Debug().Str(log.FieldClientID, c.ID).Str(log.FieldGroupKey, key).Msg("client subscribed")
	return first
}

// Unsubscribe removes the client from the group. Idempotent; removing an
// absent member is not an error. Empty groups are deleted so derived keys
// never leak. Reports whether the group is now empty.
func (r *Registry) Unsubscribe(key string, c *Client) bool {
	empty := false

	r.mu.Lock()
	if g, ok := r.groups[key]; ok {
		g.mu.Lock()
		delete(g.members, c.ID)
		empty = len(g.members) == 0
		if empty {
			delete(r.groups, key)
		}
		g.mu.Unlock()
	}
	r.mu.Unlock()

	c.Session.RemoveGroup(key)

	l := log.L()
	l.Debug().Str(log.FieldClientID, c.ID).Str(log.FieldGroupKey, key).Msg("client unsubscribed")
	return empty
}

// Members returns a point-in-time snapshot of the group's subscribers.
// Callers must tolerate membership changing after the snapshot is taken.
func (r *Registry) Members(key string) []*Client {
	r.mu.RLock()
	g, ok := r.groups[key]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	members := make([]*Client, 0, len(g.members))
	for _, c := range g.members {
		members = append(members, c)
	}
	return members
}

// MemberCount returns the current size of a group.
func (r *Registry) MemberCount(key string) int {
	r.mu.RLock()
	g, ok := r.groups[key]
	r.mu.RUnlock()
	if !ok {
		return 0
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.members)
}

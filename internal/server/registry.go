// Package server coordinates session membership, message broadcast, and
// connection cleanup for the chat relay via the Registry type.
package server

import (
	"log"
	"sync"

	"github.com/samber/lo"
)

// Registry is the set of currently authenticated sessions: the single
// source of truth for who receives broadcasts. It is an owned instance
// passed to the listener and each session, never package state, so
// independent server instances can coexist in one process.
//
// Registry is safe for concurrent use by multiple goroutines.
type Registry struct {
	mu      sync.RWMutex
	members map[*Session]struct{}
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{members: make(map[*Session]struct{})}
}

// Join adds a session; it becomes a broadcast target immediately after
// return.
func (r *Registry) Join(s *Session) {
	r.mu.Lock()
	r.members[s] = struct{}{}
	count := len(r.members)
	r.mu.Unlock()

	log.Printf("Session %s registered as %q. Total sessions: %d", s.id, s.Username(), count)
}

// Leave removes a session. Removing an absent session is a no-op, not
// an error: a handler may attempt cleanup more than once.
func (r *Registry) Leave(s *Session) {
	r.mu.Lock()
	_, present := r.members[s]
	if present {
		delete(r.members, s)
	}
	count := len(r.members)
	r.mu.Unlock()

	if present {
		log.Printf("Session %s unregistered. Total sessions: %d", s.id, count)
	}
}

// Len reports the current membership count.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// Broadcast queues text for every joined session, the sender included;
// the write loops append the line terminator on the wire. Delivery is
// best effort per recipient: a session whose outbound buffer is full
// is evicted here, and its own handler finishes the cleanup when its
// connection dies. Membership is snapshotted under the lock so no
// broadcast observes a half-added or half-removed session, while the
// per-recipient handoff happens outside it.
func (r *Registry) Broadcast(text string) {
	r.mu.RLock()
	members := lo.Keys(r.members)
	r.mu.RUnlock()

	var stalled []*Session
	for _, s := range members {
		if !s.enqueue(text) {
			stalled = append(stalled, s)
		}
	}

	for _, s := range stalled {
		log.Printf("Session %s (%q) evicted: outbound buffer full or closed", s.id, s.Username())
		r.Leave(s)
		s.close()
	}
}

package realtime

import (
	"sync"

	"github.com/jayant810/chatSphere/internal/infrastructure/metrics"
)

// CloseSessionReplaced is the close code sent to a connection displaced by a
// newer login of the same user.
const CloseSessionReplaced = 4001

// Session is the registry's view of one live connection.
type Session interface {
	Send(payload []byte) error
	Close(code int, reason string)
}

// Registry tracks the live session per user for this instance. Delivery is
// local-only and best-effort; cross-instance fanout goes through the broker.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]Session // userID -> session
}

// NewRegistry constructs an initialized Registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]Session)}
}

// Register tracks s as the live session for userID. If a previous session
// exists it is swapped out first and force-closed after the lock is released,
// so its listener and subscriptions are torn down rather than orphaned.
func (r *Registry) Register(userID string, s Session) {
	r.mu.Lock()
	previous := r.sessions[userID]
	r.sessions[userID] = s
	r.mu.Unlock()

	metrics.ActiveConnections.Inc()

	if previous != nil {
		metrics.ActiveConnections.Dec()
		previous.Close(CloseSessionReplaced, "session replaced")
	}
}

// Unregister removes s if it is still the current session for userID. A stale
// session that has already been replaced leaves the replacement untouched.
func (r *Registry) Unregister(userID string, s Session) {
	r.mu.Lock()
	current, ok := r.sessions[userID]
	if ok && current == s {
		delete(r.sessions, userID)
	}
	r.mu.Unlock()

	if ok && current == s {
		metrics.ActiveConnections.Dec()
	}
}

// DeliverLocal sends payload to userID's session on this instance. It returns
// false, without error, when the user has no local session; remote delivery
// is the subscription bridge's job, not the registry's.
func (r *Registry) DeliverLocal(userID string, payload []byte) bool {
	r.mu.RLock()
	s, ok := r.sessions[userID]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	return s.Send(payload) == nil
}

// Close terminates every tracked session and clears the registry.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := make([]Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[string]Session)
	r.mu.Unlock()

	for _, s := range sessions {
		metrics.ActiveConnections.Dec()
		s.Close(1001, "server shutdown")
	}
}

package auth

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/fintrack/fintrack/internal/identity"
)

// SessionSlot returns the key-value slot backing API session sid.
func SessionSlot(sid string) string {
	return identity.DefaultSessionSlot + "." + sid
}

// Registry keeps the live API sessions. Sessions unknown to this process are
// restored from their slot on first use, so tokens survive a restart.
type Registry struct {
	mu       sync.Mutex
	ids      *identity.Service
	sessions map[string]*identity.Session
}

// NewRegistry creates an empty registry over ids.
func NewRegistry(ids *identity.Service) *Registry {
	return &Registry{ids: ids, sessions: make(map[string]*identity.Session)}
}

// Open starts a fresh signed-out session.
func (r *Registry) Open() (string, *identity.Session) {
	sid := uuid.NewString()
	sess := r.ids.NewSession(SessionSlot(sid))

	r.mu.Lock()
	r.sessions[sid] = sess
	r.mu.Unlock()
	return sid, sess
}

// Lookup returns the session for sid, restoring it from storage when needed.
func (r *Registry) Lookup(ctx context.Context, sid string) (*identity.Session, error) {
	r.mu.Lock()
	sess, ok := r.sessions[sid]
	r.mu.Unlock()
	if ok {
		return sess, nil
	}

	sess, err := r.ids.OpenSession(ctx, SessionSlot(sid)).Await(ctx)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sessions[sid]; ok {
		return existing, nil
	}
	r.sessions[sid] = sess
	return sess, nil
}

// Forget drops sid from memory. Its slot is left as is.
func (r *Registry) Forget(sid string) {
	r.mu.Lock()
	delete(r.sessions, sid)
	r.mu.Unlock()
}

// Len reports how many sessions are held in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

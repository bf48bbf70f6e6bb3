package identity

import (
	"context"
	"sync"

	"github.com/fintrack/fintrack/internal/kvstore"
)

// DefaultSessionSlot is the slot used by single-user deployments such as the CLI.
const DefaultSessionSlot = "fintrack.session"

// Session is an explicit handle on "who is signed in". Each handle persists its
// current identity (or null) in its own slot, so independent sessions can coexist.
type Session struct {
	mu      sync.RWMutex
	slot    string
	store   *kvstore.Store
	current *Identity
}

// Current returns the signed-in identity, if any.
func (s *Session) Current() (Identity, bool) {
	if s == nil {
		return Identity{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Identity{}, false
	}
	return *s.current, true
}

// Slot returns the key-value slot backing the session.
func (s *Session) Slot() string {
	return s.slot
}

func (s *Session) set(ctx context.Context, id *Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := kvstore.Write(ctx, s.store, s.slot, id); err != nil {
		return err
	}
	if id == nil {
		s.current = nil
		return nil
	}
	cp := *id
	s.current = &cp
	return nil
}

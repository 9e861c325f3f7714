// Package session holds the state bound to one browser client: who is signed
// in, how other components learn about it, and when it expires for lack of
// activity.
//
// A Session is owned explicitly by whoever created it and passed to the
// components that need it. There is no process-wide current user.
package session

import (
	"sync"

	"github.com/bob-jr-kab/eventcal"
)

// Observer is called with the session's identity, or nil when nobody is
// signed in.
type Observer func(id *eventcal.Identity)

// Session is an authenticated identity bound to a client until logout or
// expiry. The identity is changed only through Set, and every change is
// published to the registered observers.
type Session struct {
	// ID is the opaque id handed to the client, usually in a cookie.
	ID string

	// deliver serializes Set and the first call made by Observe, so
	// observers see identity changes in the order they happened.
	deliver sync.Mutex

	mu        sync.Mutex
	identity  *eventcal.Identity
	observers map[int]Observer
	order     []int
	nextID    int
}

// New creates a Session with nobody signed in.
func New(id string) *Session {
	return &Session{
		ID:        id,
		observers: make(map[int]Observer),
	}
}

// Identity returns a copy of the signed-in identity, or nil.
func (s *Session) Identity() *eventcal.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyIdentity(s.identity)
}

// UserID returns the signed-in user's id, or "" when nobody is signed in.
func (s *Session) UserID() eventcal.UserID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return ""
	}
	return s.identity.ID
}

// Set replaces the session identity and notifies every observer. Setting nil
// on an empty session is a no-op.
//
// Concurrent Sets are delivered one at a time, in the order they changed the
// identity. Observers must not call Set or Observe on the same session.
func (s *Session) Set(id *eventcal.Identity) {
	s.deliver.Lock()
	defer s.deliver.Unlock()

	s.mu.Lock()
	if id == nil && s.identity == nil {
		s.mu.Unlock()
		return
	}
	s.identity = copyIdentity(id)
	observers := s.snapshot()
	s.mu.Unlock()

	for _, fn := range observers {
		fn(copyIdentity(id))
	}
}

// Observe registers fn. It's called once right away with the current
// identity and again on every change until the returned func is called.
// Unsubscribing more than once is harmless.
func (s *Session) Observe(fn Observer) (unsubscribe func()) {
	s.deliver.Lock()
	defer s.deliver.Unlock()

	s.mu.Lock()
	key := s.nextID
	s.nextID++
	s.observers[key] = fn
	s.order = append(s.order, key)
	current := copyIdentity(s.identity)
	s.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.observers, key)
			for i, k := range s.order {
				if k == key {
					s.order = append(s.order[:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Observers returns the number of registered observers.
func (s *Session) Observers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.observers)
}

func (s *Session) snapshot() []Observer {
	fns := make([]Observer, 0, len(s.order))
	for _, k := range s.order {
		fns = append(fns, s.observers[k])
	}
	return fns
}

func copyIdentity(id *eventcal.Identity) *eventcal.Identity {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

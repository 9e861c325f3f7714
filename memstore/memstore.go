// Package memstore keeps events and profiles in memory. It backs development
// servers and tests; everything is lost on restart.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/bob-jr-kab/eventcal"
	"github.com/bob-jr-kab/eventcal/errors"
)

// EventStore is an in-memory event store.
type EventStore struct {
	mu     sync.RWMutex
	events map[eventcal.EventID]eventcal.Event
}

// NewEventStore returns an empty EventStore.
func NewEventStore() *EventStore {
	return &EventStore{events: make(map[eventcal.EventID]eventcal.Event)}
}

// Create saves a new event owned by owner.
func (s *EventStore) Create(ctx context.Context, owner eventcal.UserID, draft eventcal.EventDraft) (eventcal.Event, error) {
	const op errors.Op = "memstore.EventStore.Create"

	if owner == "" {
		return eventcal.Event{}, errors.E(op, errors.NotLoggedIn, errors.StoreError)
	}

	event := draft.Event(eventcal.EventID(uuid.NewString()), owner)

	s.mu.Lock()
	s.events[event.ID] = event
	s.mu.Unlock()

	return event, nil
}

// ListForUser returns the events owned by owner, ordered by date.
func (s *EventStore) ListForUser(ctx context.Context, owner eventcal.UserID) ([]eventcal.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := []eventcal.Event{}
	for _, e := range s.events {
		if e.OwnerID == owner {
			events = append(events, e)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		if !events[i].Date.Equal(events[j].Date) {
			return events[i].Date.Before(events[j].Date)
		}
		return events[i].ID < events[j].ID
	})
	return events, nil
}

// Update applies update to owner's event id and returns the result.
func (s *EventStore) Update(ctx context.Context, owner eventcal.UserID, id eventcal.EventID, update eventcal.EventUpdate) (eventcal.Event, error) {
	const op errors.Op = "memstore.EventStore.Update"

	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[id]
	if !ok || event.OwnerID != owner {
		return eventcal.Event{}, errors.E(op, owner, errors.NotExist, errors.StoreError, errors.Errorf("no event %q", id))
	}
	event = update.Apply(event)
	s.events[id] = event
	return event, nil
}

// Delete removes owner's event id. Missing and foreign events are ignored.
func (s *EventStore) Delete(ctx context.Context, owner eventcal.UserID, id eventcal.EventID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event, ok := s.events[id]; ok && event.OwnerID == owner {
		delete(s.events, id)
	}
	return nil
}

// ProfileStore is an in-memory profile store.
type ProfileStore struct {
	mu       sync.RWMutex
	profiles map[eventcal.UserID]eventcal.Profile
}

// NewProfileStore returns an empty ProfileStore.
func NewProfileStore() *ProfileStore {
	return &ProfileStore{profiles: make(map[eventcal.UserID]eventcal.Profile)}
}

// Create saves p, replacing any profile with the same id.
func (s *ProfileStore) Create(ctx context.Context, p eventcal.Profile) error {
	const op errors.Op = "memstore.ProfileStore.Create"

	if p.UserID == "" {
		return errors.E(op, errors.Invalid, errors.StoreError, "profile has no user id")
	}

	s.mu.Lock()
	s.profiles[p.UserID] = p
	s.mu.Unlock()
	return nil
}

// GetByID returns the profile of user id.
func (s *ProfileStore) GetByID(ctx context.Context, id eventcal.UserID) (eventcal.Profile, error) {
	const op errors.Op = "memstore.ProfileStore.GetByID"

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		return eventcal.Profile{}, errors.E(op, id, errors.NotExist, errors.StoreError)
	}
	return p, nil
}

// Update applies the username and email of update and returns the result.
func (s *ProfileStore) Update(ctx context.Context, id eventcal.UserID, update eventcal.ProfileUpdate) (eventcal.Profile, error) {
	const op errors.Op = "memstore.ProfileStore.Update"

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		return eventcal.Profile{}, errors.E(op, id, errors.NotExist, errors.StoreError)
	}
	if update.Has("username") {
		p.Username = update.Username
	}
	if update.Has("email") {
		p.Email = update.Email
	}
	s.profiles[id] = p
	return p, nil
}

package service

import (
	"context"

	"github.com/bob-jr-kab/eventcal"
	"github.com/bob-jr-kab/eventcal/errors"
	"github.com/bob-jr-kab/eventcal/prom"
	"github.com/bob-jr-kab/eventcal/session"
)

// EventGateway scopes an EventStore to whoever is signed in to Session. It
// does no validation of its own.
type EventGateway struct {
	Session *session.Session
	Store   EventStore
	Backend string
}

// Add saves draft as a new event owned by the session user.
func (g *EventGateway) Add(ctx context.Context, draft eventcal.EventDraft) (eventcal.Event, error) {
	const op errors.Op = "EventGateway.Add"

	uid := g.Session.UserID()
	if uid == "" {
		return eventcal.Event{}, errors.E(op, errors.NotLoggedIn, errors.StoreError)
	}

	event, err := g.Store.Create(ctx, uid, draft)
	prom.ObserveStore(g.Backend, "add", err)
	if err != nil {
		return eventcal.Event{}, errors.E(op, uid, errors.StoreError, err)
	}
	return event, nil
}

// FetchAll returns the session user's events. It's empty, not an error,
// when nobody is signed in.
func (g *EventGateway) FetchAll(ctx context.Context) ([]eventcal.Event, error) {
	const op errors.Op = "EventGateway.FetchAll"

	uid := g.Session.UserID()
	if uid == "" {
		return []eventcal.Event{}, nil
	}

	events, err := g.Store.ListForUser(ctx, uid)
	prom.ObserveStore(g.Backend, "fetch_all", err)
	if err != nil {
		return nil, errors.E(op, uid, errors.StoreError, err)
	}
	return events, nil
}

// Update replaces the masked fields of one of the session user's events.
func (g *EventGateway) Update(ctx context.Context, id eventcal.EventID, update eventcal.EventUpdate) error {
	const op errors.Op = "EventGateway.Update"

	uid := g.Session.UserID()
	if uid == "" {
		return errors.E(op, errors.NotLoggedIn, errors.StoreError)
	}

	_, err := g.Store.Update(ctx, uid, id, update)
	prom.ObserveStore(g.Backend, "update", err)
	if err != nil {
		return errors.E(op, uid, errors.StoreError, err)
	}
	return nil
}

// Delete removes one of the session user's events. Deleting an event that
// doesn't exist is not an error.
func (g *EventGateway) Delete(ctx context.Context, id eventcal.EventID) error {
	const op errors.Op = "EventGateway.Delete"

	uid := g.Session.UserID()
	if uid == "" {
		return errors.E(op, errors.NotLoggedIn, errors.StoreError)
	}

	err := g.Store.Delete(ctx, uid, id)
	prom.ObserveStore(g.Backend, "delete", err)
	if err != nil {
		return errors.E(op, uid, errors.StoreError, err)
	}
	return nil
}

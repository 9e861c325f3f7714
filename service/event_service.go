package service

import (
	"context"
	"time"

	"github.com/bob-jr-kab/eventcal"
	"github.com/bob-jr-kab/eventcal/calendar"
	"github.com/bob-jr-kab/eventcal/errors"
)

// EventRequest is the add and edit form. Date is optional: new events go on
// the selected day unless it's set, and edits keep their day.
type EventRequest struct {
	calendar.EventForm
	Date *time.Time `json:"date,omitempty"`
}

// EventList returns every event of the signed-in user.
func (s *Service) EventList(ctx context.Context) ([]eventcal.Event, error) {
	const op errors.Op = "Service.EventList"

	c, _, err := s.signedIn(ctx, op)
	if err != nil {
		return nil, err
	}
	if err := c.Calendar.Ready(ctx); err != nil {
		return nil, errors.E(op, err)
	}
	return c.Calendar.Events(), nil
}

// EventAdd validates the form and adds the event to the calendar.
func (s *Service) EventAdd(ctx context.Context, req EventRequest) (eventcal.Event, error) {
	const op errors.Op = "Service.EventAdd"

	c, uid, err := s.signedIn(ctx, op)
	if err != nil {
		return eventcal.Event{}, err
	}

	date := req.Date
	if date == nil {
		date = c.Calendar.View().SelectedDate
	}
	draft, err := req.EventForm.Draft(date)
	if err != nil {
		return eventcal.Event{}, errors.E(op, uid, err)
	}

	event, err := c.Calendar.AddEvent(ctx, draft)
	if err != nil {
		return eventcal.Event{}, errors.E(op, uid, err)
	}
	return event, nil
}

// EventGet returns one of the signed-in user's events without changing the
// view.
func (s *Service) EventGet(ctx context.Context, id eventcal.EventID) (eventcal.Event, error) {
	const op errors.Op = "Service.EventGet"

	c, uid, err := s.signedIn(ctx, op)
	if err != nil {
		return eventcal.Event{}, err
	}
	if err := c.Calendar.Ready(ctx); err != nil {
		return eventcal.Event{}, errors.E(op, uid, err)
	}
	event, ok := findEvent(c.Calendar.Events(), id)
	if !ok {
		return eventcal.Event{}, errors.E(op, uid, errors.NotExist, errors.StoreError, errors.Errorf("no event %q", id))
	}
	return event, nil
}

// EventSelect opens an event in the detail view.
func (s *Service) EventSelect(ctx context.Context, id eventcal.EventID) (eventcal.Event, error) {
	const op errors.Op = "Service.EventSelect"

	c, uid, err := s.signedIn(ctx, op)
	if err != nil {
		return eventcal.Event{}, err
	}
	event, err := c.Calendar.SelectEvent(ctx, id)
	if err != nil {
		return eventcal.Event{}, errors.E(op, uid, err)
	}
	return event, nil
}

// EventUpdate validates the form and saves it over event id.
func (s *Service) EventUpdate(ctx context.Context, id eventcal.EventID, req EventRequest) (eventcal.Event, error) {
	const op errors.Op = "Service.EventUpdate"

	c, uid, err := s.signedIn(ctx, op)
	if err != nil {
		return eventcal.Event{}, err
	}
	if err := c.Calendar.Ready(ctx); err != nil {
		return eventcal.Event{}, errors.E(op, uid, err)
	}

	current, ok := findEvent(c.Calendar.Events(), id)
	if !ok {
		return eventcal.Event{}, errors.E(op, uid, errors.NotExist, errors.StoreError, errors.Errorf("no event %q", id))
	}
	updated, err := req.EventForm.Apply(current)
	if err != nil {
		return eventcal.Event{}, errors.E(op, uid, err)
	}
	if req.Date != nil && !req.Date.IsZero() {
		updated.Date = *req.Date
	}

	event, err := c.Calendar.UpdateEvent(ctx, updated)
	if err != nil {
		return eventcal.Event{}, errors.E(op, uid, err)
	}
	return event, nil
}

// EventDelete removes an event.
func (s *Service) EventDelete(ctx context.Context, id eventcal.EventID) error {
	const op errors.Op = "Service.EventDelete"

	c, uid, err := s.signedIn(ctx, op)
	if err != nil {
		return err
	}
	if err := c.Calendar.DeleteEvent(ctx, id); err != nil {
		return errors.E(op, uid, err)
	}
	return nil
}

// EventExport renders the signed-in user's events as an iCalendar feed.
func (s *Service) EventExport(ctx context.Context) (string, error) {
	const op errors.Op = "Service.EventExport"

	c, uid, err := s.signedIn(ctx, op)
	if err != nil {
		return "", err
	}
	if err := c.Calendar.Ready(ctx); err != nil {
		return "", errors.E(op, uid, err)
	}

	name := string(uid)
	if id := c.Session.Identity(); id != nil && id.DisplayName != "" {
		name = id.DisplayName
	}
	return calendar.Export(name, c.Calendar.Events(), s.location(), s.clock().Now()), nil
}

func findEvent(events []eventcal.Event, id eventcal.EventID) (eventcal.Event, bool) {
	for _, e := range events {
		if e.ID == id {
			return e, true
		}
	}
	return eventcal.Event{}, false
}
